package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/threadline/storefront-gateway/api/middleware"
	"github.com/threadline/storefront-gateway/api/responses"
	"github.com/threadline/storefront-gateway/api/validators"
	wishlistsvc "github.com/threadline/storefront-gateway/internal/wishlist"
	pkgerrors "github.com/threadline/storefront-gateway/pkg/errors"
	"github.com/threadline/storefront-gateway/pkg/logger"
)

type wishlistToggleRequest struct {
	ProductID       string           `json:"productId" validate:"required"`
	ProductName     string           `json:"productName"`
	Price           *decimal.Decimal `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice"`
	ThumbnailURL    string           `json:"thumbnailUrl"`
	Category        string           `json:"category"`
}

// WishlistFetch returns the wishlist for the session.
func WishlistFetch(svc wishlistsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wishlist service unavailable"))
			return
		}
		sess := middleware.SessionFromContext(r.Context())
		view, err := svc.Fetch(r.Context(), sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// WishlistToggle flips product membership in the wishlist.
func WishlistToggle(svc wishlistsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wishlist service unavailable"))
			return
		}

		var payload wishlistToggleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess := middleware.SessionFromContext(r.Context())
		result, err := svc.Toggle(r.Context(), sess, wishlistsvc.ToggleInput{
			ProductID:       payload.ProductID,
			ProductName:     payload.ProductName,
			Price:           payload.Price,
			DiscountedPrice: payload.DiscountedPrice,
			ThumbnailURL:    payload.ThumbnailURL,
			Category:        payload.Category,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// WishlistClear removes every wishlist entry.
func WishlistClear(svc wishlistsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wishlist service unavailable"))
			return
		}
		sess := middleware.SessionFromContext(r.Context())
		if err := svc.Clear(r.Context(), sess); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}
