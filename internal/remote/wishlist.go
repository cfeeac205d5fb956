package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	pkgerrors "github.com/threadline/storefront-gateway/pkg/errors"
	"github.com/threadline/storefront-gateway/pkg/types"
)

type wishlistEnvelope struct {
	Items []types.WishlistEntry `json:"items"`
}

// FetchWishlist loads the authenticated user's wishlist.
func (c *Client) FetchWishlist(ctx context.Context, token string) ([]types.WishlistEntry, error) {
	var envelope wishlistEnvelope
	err := c.do(ctx, request{
		operation: "wishlist.fetch",
		method:    http.MethodGet,
		path:      "/api/wishlist",
		token:     token,
	}, &envelope)
	if err != nil {
		return nil, err
	}
	if envelope.Items == nil {
		envelope.Items = []types.WishlistEntry{}
	}
	return envelope.Items, nil
}

// AddWishlistItem adds a product to the wishlist. A duplicate-add rejection
// comes back as a DUPLICATE-coded error; callers map it to a no-op since the
// desired postcondition already holds.
func (c *Client) AddWishlistItem(ctx context.Context, token string, entry types.WishlistEntry) error {
	if entry.ProductID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return c.do(ctx, request{
		operation: "wishlist.add",
		method:    http.MethodPost,
		path:      "/api/wishlist",
		token:     token,
		body:      entry,
	}, nil)
}

// RemoveWishlistItem drops a product from the wishlist.
func (c *Client) RemoveWishlistItem(ctx context.Context, token, productID string) error {
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return c.do(ctx, request{
		operation: "wishlist.remove",
		method:    http.MethodDelete,
		path:      fmt.Sprintf("/api/wishlist/%s", url.PathEscape(productID)),
		token:     token,
	}, nil)
}
