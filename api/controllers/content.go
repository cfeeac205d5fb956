package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/threadline/storefront-gateway/api/middleware"
	"github.com/threadline/storefront-gateway/api/responses"
	"github.com/threadline/storefront-gateway/api/validators"
	"github.com/threadline/storefront-gateway/internal/admin"
	"github.com/threadline/storefront-gateway/pkg/enums"
	pkgerrors "github.com/threadline/storefront-gateway/pkg/errors"
	"github.com/threadline/storefront-gateway/pkg/logger"
)

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type roleRequest struct {
	Role enums.UserRole `json:"role" validate:"required"`
}

func resourceFromRequest(r *http.Request) (enums.AdminResource, error) {
	resource := enums.AdminResource(chi.URLParam(r, "resource"))
	if !resource.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "unknown resource")
	}
	return resource, nil
}

// ContentList returns every entry of a back-office resource.
func ContentList(svc *admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resource, err := resourceFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess := middleware.SessionFromContext(r.Context())
		raw, err := svc.List(r.Context(), sess, resource)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, raw)
	}
}

// ContentCreate posts a new entry, forwarding multipart uploads as-is.
func ContentCreate(svc *admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resource, err := resourceFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess := middleware.SessionFromContext(r.Context())
		raw, err := svc.Create(r.Context(), sess, resource, r.Body, r.Header.Get("Content-Type"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, raw)
	}
}

// ContentUpdate replaces an entry.
func ContentUpdate(svc *admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resource, err := resourceFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess := middleware.SessionFromContext(r.Context())
		raw, err := svc.Update(r.Context(), sess, resource, chi.URLParam(r, "id"), r.Body, r.Header.Get("Content-Type"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, raw)
	}
}

// ContentSetStatus toggles an entry's published/active state.
func ContentSetStatus(svc *admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resource, err := resourceFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload statusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess := middleware.SessionFromContext(r.Context())
		raw, err := svc.SetStatus(r.Context(), sess, resource, chi.URLParam(r, "id"), payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, raw)
	}
}

// ContentDelete removes an entry.
func ContentDelete(svc *admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resource, err := resourceFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess := middleware.SessionFromContext(r.Context())
		if err := svc.Delete(r.Context(), sess, resource, chi.URLParam(r, "id")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// UsersList returns all registered users.
func UsersList(svc *admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := middleware.SessionFromContext(r.Context())
		raw, err := svc.ListUsers(r.Context(), sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, raw)
	}
}

// UserSetStatus flips a user's active flag.
func UserSetStatus(svc *admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload statusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess := middleware.SessionFromContext(r.Context())
		raw, err := svc.SetUserStatus(r.Context(), sess, chi.URLParam(r, "id"), payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, raw)
	}
}

// UserSetRole changes a user's role.
func UserSetRole(svc *admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload roleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !payload.Role.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown role"))
			return
		}
		sess := middleware.SessionFromContext(r.Context())
		raw, err := svc.SetUserRole(r.Context(), sess, chi.URLParam(r, "id"), payload.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, raw)
	}
}

// UserDelete removes a user account.
func UserDelete(svc *admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := middleware.SessionFromContext(r.Context())
		if err := svc.DeleteUser(r.Context(), sess, chi.URLParam(r, "id")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
