package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/threadline/storefront-gateway/api/middleware"
	"github.com/threadline/storefront-gateway/api/responses"
	"github.com/threadline/storefront-gateway/api/validators"
	cartsvc "github.com/threadline/storefront-gateway/internal/cart"
	pkgerrors "github.com/threadline/storefront-gateway/pkg/errors"
	"github.com/threadline/storefront-gateway/pkg/logger"
	"github.com/threadline/storefront-gateway/pkg/types"
)

type cartAddRequest struct {
	ProductID       string           `json:"productId" validate:"required"`
	ProductName     string           `json:"productName"`
	Price           *decimal.Decimal `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice"`
	Quantity        int              `json:"quantity" validate:"omitempty,min=1"`
	Variant         *types.Variant   `json:"variant"`
	ThumbnailURL    string           `json:"thumbnailUrl"`
}

type cartQuantityRequest struct {
	Quantity int            `json:"quantity" validate:"required,min=1"`
	Variant  *types.Variant `json:"variant"`
}

type cartLineRequest struct {
	Variant *types.Variant `json:"variant"`
}

// CartFetch returns the current cart for the session.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
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

// CartAdd puts a product into the cart.
func CartAdd(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload cartAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess := middleware.SessionFromContext(r.Context())
		view, err := svc.Add(r.Context(), sess, cartsvc.AddInput{
			ProductID:       payload.ProductID,
			ProductName:     payload.ProductName,
			Price:           payload.Price,
			DiscountedPrice: payload.DiscountedPrice,
			Quantity:        payload.Quantity,
			Variant:         payload.Variant,
			ThumbnailURL:    payload.ThumbnailURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// CartUpdateItem sets a line's quantity.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload cartQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess := middleware.SessionFromContext(r.Context())
		ref := cartsvc.LineRef{ProductID: chi.URLParam(r, "productId"), Variant: payload.Variant}
		if err := svc.UpdateQuantity(r.Context(), sess, ref, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// CartIncrement raises a line's quantity by one.
func CartIncrement(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartBump(svc, logg, svcIncrement)
}

// CartDecrement lowers a line's quantity by one, never below one.
func CartDecrement(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartBump(svc, logg, svcDecrement)
}

type bumpDirection int

const (
	svcIncrement bumpDirection = iota
	svcDecrement
)

func cartBump(svc cartsvc.Service, logg *logger.Logger, direction bumpDirection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload cartLineRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		sess := middleware.SessionFromContext(r.Context())
		ref := cartsvc.LineRef{ProductID: chi.URLParam(r, "productId"), Variant: payload.Variant}

		var err error
		if direction == svcIncrement {
			err = svc.Increment(r.Context(), sess, ref)
		} else {
			err = svc.Decrement(r.Context(), sess, ref)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// CartRemoveItem deletes one line from the cart.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload cartLineRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		sess := middleware.SessionFromContext(r.Context())
		ref := cartsvc.LineRef{ProductID: chi.URLParam(r, "productId"), Variant: payload.Variant}
		if err := svc.Remove(r.Context(), sess, ref); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

// CartClear empties the cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
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
