package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/threadline/storefront-gateway/pkg/config"
	"github.com/threadline/storefront-gateway/pkg/enums"
)

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestResolveReadsClaimsWithoutVerification(t *testing.T) {
	resolver := NewResolver(config.JWTConfig{})

	token := signToken(t, "some-other-secret", Claims{
		UserID:    "user-1",
		Email:     "jane@example.com",
		FirstName: "Jane",
		Role:      "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	ident := resolver.Resolve(token)
	if ident == nil {
		t.Fatalf("expected identity, got nil")
	}
	if ident.UserID != "user-1" || ident.Email != "jane@example.com" {
		t.Fatalf("unexpected identity %+v", ident)
	}
	if ident.Role != enums.RoleAdmin {
		t.Fatalf("unexpected role %s", ident.Role)
	}
}

func TestResolveFallsBackToSubject(t *testing.T) {
	resolver := NewResolver(config.JWTConfig{})
	token := signToken(t, "s", Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-2"},
	})

	ident := resolver.Resolve(token)
	if ident == nil || ident.UserID != "user-2" {
		t.Fatalf("expected subject-backed identity, got %+v", ident)
	}
}

func TestResolveRejectsExpiredToken(t *testing.T) {
	resolver := NewResolver(config.JWTConfig{})
	token := signToken(t, "s", Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})

	if ident := resolver.Resolve(token); ident != nil {
		t.Fatalf("expected nil for expired token, got %+v", ident)
	}
}

func TestResolveRejectsGarbage(t *testing.T) {
	resolver := NewResolver(config.JWTConfig{})
	for _, token := range []string{"", "   ", "not-a-jwt", "a.b.c"} {
		if ident := resolver.Resolve(token); ident != nil {
			t.Fatalf("expected nil for %q, got %+v", token, ident)
		}
	}
}

func TestResolveRejectsMissingUserID(t *testing.T) {
	resolver := NewResolver(config.JWTConfig{})
	token := signToken(t, "s", Claims{Email: "anon@example.com"})

	if ident := resolver.Resolve(token); ident != nil {
		t.Fatalf("expected nil without user id, got %+v", ident)
	}
}

func TestVerifyingModeChecksSignature(t *testing.T) {
	resolver := NewResolver(config.JWTConfig{Secret: "gateway-secret"})

	good := signToken(t, "gateway-secret", Claims{UserID: "user-1"})
	if ident := resolver.Resolve(good); ident == nil {
		t.Fatalf("expected identity for correctly signed token")
	}

	bad := signToken(t, "wrong-secret", Claims{UserID: "user-1"})
	if ident := resolver.Resolve(bad); ident != nil {
		t.Fatalf("expected nil for token signed with the wrong secret")
	}
}

func TestIsAuthenticated(t *testing.T) {
	resolver := NewResolver(config.JWTConfig{})
	if resolver.IsAuthenticated("") {
		t.Fatalf("empty token must not authenticate")
	}
	token := signToken(t, "s", Claims{UserID: "user-1"})
	if !resolver.IsAuthenticated(token) {
		t.Fatalf("expected valid token to authenticate")
	}
}
