package admin

import (
	"context"
	"encoding/json"
	"io"

	"github.com/threadline/storefront-gateway/internal/session"
	"github.com/threadline/storefront-gateway/pkg/enums"
	pkgerrors "github.com/threadline/storefront-gateway/pkg/errors"
	"github.com/threadline/storefront-gateway/pkg/logger"
)

type remoteClient interface {
	ListResource(ctx context.Context, token string, resource enums.AdminResource) (json.RawMessage, error)
	CreateResource(ctx context.Context, token string, resource enums.AdminResource, body io.Reader, contentType string) (json.RawMessage, error)
	UpdateResource(ctx context.Context, token string, resource enums.AdminResource, id string, body io.Reader, contentType string) (json.RawMessage, error)
	PatchResourceStatus(ctx context.Context, token string, resource enums.AdminResource, id, status string) (json.RawMessage, error)
	DeleteResource(ctx context.Context, token string, resource enums.AdminResource, id string) error
	ListUsers(ctx context.Context, token string) (json.RawMessage, error)
	UpdateUserStatus(ctx context.Context, token, userID, status string) (json.RawMessage, error)
	UpdateUserRole(ctx context.Context, token, userID string, role enums.UserRole) (json.RawMessage, error)
	DeleteUser(ctx context.Context, token, userID string) error
}

// Service proxies back-office content and user management to the commerce
// backend. The gateway owns authentication and resource validation; payload
// schemas stay with the backend.
type Service struct {
	remote remoteClient
	logg   *logger.Logger
}

// NewService builds the admin proxy service.
func NewService(remote remoteClient, logg *logger.Logger) (*Service, error) {
	if remote == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "remote client is required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &Service{remote: remote, logg: logg}, nil
}

func requireAdmin(sess session.Session) error {
	if !sess.Authenticated() {
		return pkgerrors.New(pkgerrors.CodeLoginRequired, "please login to continue")
	}
	if sess.Identity.Role != enums.RoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return nil
}

// List returns every entry of a content resource.
func (s *Service) List(ctx context.Context, sess session.Session, resource enums.AdminResource) (json.RawMessage, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	return s.remote.ListResource(ctx, sess.Token, resource)
}

// Create posts a new entry, passing multipart uploads through untouched.
func (s *Service) Create(ctx context.Context, sess session.Session, resource enums.AdminResource, body io.Reader, contentType string) (json.RawMessage, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	return s.remote.CreateResource(ctx, sess.Token, resource, body, contentType)
}

// Update replaces an entry.
func (s *Service) Update(ctx context.Context, sess session.Session, resource enums.AdminResource, id string, body io.Reader, contentType string) (json.RawMessage, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	return s.remote.UpdateResource(ctx, sess.Token, resource, id, body, contentType)
}

// SetStatus toggles an entry's published/active state.
func (s *Service) SetStatus(ctx context.Context, sess session.Session, resource enums.AdminResource, id, status string) (json.RawMessage, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	return s.remote.PatchResourceStatus(ctx, sess.Token, resource, id, status)
}

// Delete removes an entry.
func (s *Service) Delete(ctx context.Context, sess session.Session, resource enums.AdminResource, id string) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	return s.remote.DeleteResource(ctx, sess.Token, resource, id)
}

// ListUsers returns all registered users.
func (s *Service) ListUsers(ctx context.Context, sess session.Session) (json.RawMessage, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	return s.remote.ListUsers(ctx, sess.Token)
}

// SetUserStatus flips a user's active flag.
func (s *Service) SetUserStatus(ctx context.Context, sess session.Session, userID, status string) (json.RawMessage, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	return s.remote.UpdateUserStatus(ctx, sess.Token, userID, status)
}

// SetUserRole changes a user's role.
func (s *Service) SetUserRole(ctx context.Context, sess session.Session, userID string, role enums.UserRole) (json.RawMessage, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	return s.remote.UpdateUserRole(ctx, sess.Token, userID, role)
}

// DeleteUser removes a user account.
func (s *Service) DeleteUser(ctx context.Context, sess session.Session, userID string) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	return s.remote.DeleteUser(ctx, sess.Token, userID)
}
