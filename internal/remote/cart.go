package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/threadline/storefront-gateway/pkg/errors"
	"github.com/threadline/storefront-gateway/pkg/types"
)

// CartItem is the backend's representation of one cart line.
type CartItem struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"productId"`
	ProductName  string          `json:"productName"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Variant      *types.Variant  `json:"variant,omitempty"`
	ThumbnailURL string          `json:"thumbnailUrl,omitempty"`
}

// Cart is the backend's cart aggregate.
type Cart struct {
	Items []CartItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// AddCartItemRequest is the POST /api/cart payload.
type AddCartItemRequest struct {
	ProductID    string          `json:"productId"`
	ProductName  string          `json:"productName,omitempty"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Variant      *types.Variant  `json:"variant,omitempty"`
	ThumbnailURL string          `json:"thumbnailUrl,omitempty"`
}

type cartItemEnvelope struct {
	Item CartItem `json:"item"`
}

// FetchCart loads the authenticated user's cart.
func (c *Client) FetchCart(ctx context.Context, token string) (*Cart, error) {
	var cart Cart
	err := c.do(ctx, request{
		operation: "cart.fetch",
		method:    http.MethodGet,
		path:      "/api/cart",
		token:     token,
	}, &cart)
	if err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []CartItem{}
	}
	return &cart, nil
}

// AddCartItem creates a cart line and returns the backend's item id.
func (c *Client) AddCartItem(ctx context.Context, token string, req AddCartItemRequest) (*CartItem, error) {
	if req.ProductID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	var envelope cartItemEnvelope
	err := c.do(ctx, request{
		operation: "cart.add",
		method:    http.MethodPost,
		path:      "/api/cart",
		token:     token,
		body:      req,
	}, &envelope)
	if err != nil {
		return nil, err
	}
	return &envelope.Item, nil
}

// UpdateCartItem sets the quantity on an existing cart line.
func (c *Client) UpdateCartItem(ctx context.Context, token, itemID string, quantity int) error {
	if itemID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart item id is required")
	}
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	return c.do(ctx, request{
		operation: "cart.update",
		method:    http.MethodPut,
		path:      fmt.Sprintf("/api/cart/item/%s", url.PathEscape(itemID)),
		token:     token,
		body:      map[string]int{"quantity": quantity},
	}, nil)
}

// RemoveCartItem deletes one cart line.
func (c *Client) RemoveCartItem(ctx context.Context, token, itemID string) error {
	if itemID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart item id is required")
	}
	return c.do(ctx, request{
		operation: "cart.remove",
		method:    http.MethodDelete,
		path:      fmt.Sprintf("/api/cart/item/%s", url.PathEscape(itemID)),
		token:     token,
	}, nil)
}

// ClearCart deletes the whole cart.
func (c *Client) ClearCart(ctx context.Context, token string) error {
	return c.do(ctx, request{
		operation: "cart.clear",
		method:    http.MethodDelete,
		path:      "/api/cart",
		token:     token,
	}, nil)
}

// Lines converts backend cart items into cart lines for the mirror.
func (cart *Cart) Lines() []types.CartLine {
	lines := make([]types.CartLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, types.CartLine{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			Variant:      item.Variant,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			ThumbnailURL: item.ThumbnailURL,
			RemoteItemID: item.ID,
		})
	}
	return lines
}
