package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/threadline/storefront-gateway/pkg/enums"
	pkgerrors "github.com/threadline/storefront-gateway/pkg/errors"
)

// Back-office content endpoints follow one CRUD pattern per resource:
// GET/POST {resource}, PUT {resource}/{id}, PATCH {resource}/{id}/status,
// DELETE {resource}/{id}. Payloads pass through untouched; the gateway does
// not own their schemas.

// ListResource fetches a content collection.
func (c *Client) ListResource(ctx context.Context, token string, resource enums.AdminResource) (json.RawMessage, error) {
	if !resource.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown resource")
	}
	var raw json.RawMessage
	err := c.do(ctx, request{
		operation: "content.list." + string(resource),
		method:    http.MethodGet,
		path:      c.adminBasePath + "/" + string(resource),
		token:     token,
	}, &raw)
	return raw, err
}

// CreateResource posts a new entry. Multipart bodies (file uploads) pass
// through with their original content type.
func (c *Client) CreateResource(ctx context.Context, token string, resource enums.AdminResource, body io.Reader, contentType string) (json.RawMessage, error) {
	if !resource.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown resource")
	}
	var raw json.RawMessage
	err := c.do(ctx, request{
		operation:   "content.create." + string(resource),
		method:      http.MethodPost,
		path:        c.adminBasePath + "/" + string(resource),
		token:       token,
		rawBody:     body,
		contentType: contentType,
		upload:      isMultipart(contentType),
	}, &raw)
	return raw, err
}

// UpdateResource replaces an entry.
func (c *Client) UpdateResource(ctx context.Context, token string, resource enums.AdminResource, id string, body io.Reader, contentType string) (json.RawMessage, error) {
	if !resource.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown resource")
	}
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "resource id is required")
	}
	var raw json.RawMessage
	err := c.do(ctx, request{
		operation:   "content.update." + string(resource),
		method:      http.MethodPut,
		path:        fmt.Sprintf("%s/%s/%s", c.adminBasePath, resource, url.PathEscape(id)),
		token:       token,
		rawBody:     body,
		contentType: contentType,
		upload:      isMultipart(contentType),
	}, &raw)
	return raw, err
}

// PatchResourceStatus toggles an entry's published/active state.
func (c *Client) PatchResourceStatus(ctx context.Context, token string, resource enums.AdminResource, id, status string) (json.RawMessage, error) {
	if !resource.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown resource")
	}
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "resource id is required")
	}
	var raw json.RawMessage
	err := c.do(ctx, request{
		operation: "content.status." + string(resource),
		method:    http.MethodPatch,
		path:      fmt.Sprintf("%s/%s/%s/status", c.adminBasePath, resource, url.PathEscape(id)),
		token:     token,
		body:      map[string]string{"status": status},
	}, &raw)
	return raw, err
}

// DeleteResource removes an entry.
func (c *Client) DeleteResource(ctx context.Context, token string, resource enums.AdminResource, id string) error {
	if !resource.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown resource")
	}
	if id == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "resource id is required")
	}
	return c.do(ctx, request{
		operation: "content.delete." + string(resource),
		method:    http.MethodDelete,
		path:      fmt.Sprintf("%s/%s/%s", c.adminBasePath, resource, url.PathEscape(id)),
		token:     token,
	}, nil)
}

// ListUsers fetches every registered user for the back-office user screen.
func (c *Client) ListUsers(ctx context.Context, token string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.do(ctx, request{
		operation: "users.list",
		method:    http.MethodGet,
		path:      "/get/allUsers",
		token:     token,
	}, &raw)
	return raw, err
}

// UpdateUserStatus flips a user's active flag.
func (c *Client) UpdateUserStatus(ctx context.Context, token, userID, status string) (json.RawMessage, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	var raw json.RawMessage
	err := c.do(ctx, request{
		operation: "users.status",
		method:    http.MethodPatch,
		path:      "/update/status/" + url.PathEscape(userID),
		token:     token,
		body:      map[string]string{"status": status},
	}, &raw)
	return raw, err
}

// UpdateUserRole changes a user's role.
func (c *Client) UpdateUserRole(ctx context.Context, token, userID string, role enums.UserRole) (json.RawMessage, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown role")
	}
	var raw json.RawMessage
	err := c.do(ctx, request{
		operation: "users.role",
		method:    http.MethodPatch,
		path:      "/update/role/" + url.PathEscape(userID),
		token:     token,
		body:      map[string]string{"role": string(role)},
	}, &raw)
	return raw, err
}

// DeleteUser removes a user account.
func (c *Client) DeleteUser(ctx context.Context, token, userID string) error {
	if userID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return c.do(ctx, request{
		operation: "users.delete",
		method:    http.MethodDelete,
		path:      "/delete/" + url.PathEscape(userID),
		token:     token,
	}, nil)
}

func isMultipart(contentType string) bool {
	return len(contentType) >= len("multipart/") && contentType[:len("multipart/")] == "multipart/"
}
