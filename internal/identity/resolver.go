package identity

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/threadline/storefront-gateway/pkg/config"
	"github.com/threadline/storefront-gateway/pkg/enums"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// Identity is the decoded view of a client-held bearer token. It is ephemeral:
// recomputed on every check, never stored server-side.
type Identity struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string
	Role      enums.UserRole
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Claims mirrors the token payload issued by the commerce backend.
type Claims struct {
	UserID    string `json:"userId,omitempty"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Resolver turns raw bearer tokens into identities. Signature verification is
// the backend's responsibility; by default the resolver only reads claims.
// When a secret is configured it verifies signatures as well.
type Resolver struct {
	cfg config.JWTConfig
	now func() time.Time
}

// NewResolver builds a resolver with the provided JWT configuration.
func NewResolver(cfg config.JWTConfig) *Resolver {
	return &Resolver{cfg: cfg, now: time.Now}
}

// Resolve decodes the token and returns the identity, or nil when the token is
// absent, malformed, or expired. It never returns an error to the caller.
func (r *Resolver) Resolve(token string) *Identity {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	claims, err := r.parse(token)
	if err != nil {
		return nil
	}

	now := r.now()
	if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time) {
		return nil
	}

	ident := &Identity{
		UserID:    claims.UserID,
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Role:      enums.UserRole(claims.Role),
	}
	if ident.UserID == "" {
		ident.UserID = claims.Subject
	}
	if ident.UserID == "" {
		return nil
	}
	if claims.IssuedAt != nil {
		ident.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		ident.ExpiresAt = claims.ExpiresAt.Time
	}
	return ident
}

// IsAuthenticated reports whether the token resolves to an identity.
func (r *Resolver) IsAuthenticated(token string) bool {
	return r.Resolve(token) != nil
}

func (r *Resolver) parse(token string) (*Claims, error) {
	claims := &Claims{}

	if !r.cfg.Verifying() {
		parser := jwt.NewParser()
		if _, _, err := parser.ParseUnverified(token, claims); err != nil {
			return nil, err
		}
		return claims, nil
	}

	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", t.Header["alg"])
			}
			return []byte(r.cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
