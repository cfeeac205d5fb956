package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/threadline/storefront-gateway/pkg/config"
	pkgerrors "github.com/threadline/storefront-gateway/pkg/errors"
	"github.com/threadline/storefront-gateway/pkg/logger"
	"github.com/threadline/storefront-gateway/pkg/types"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(config.RemoteConfig{
		BaseURL:       server.URL,
		AdminBasePath: "/api/admin",
	}, logger.New(logger.Options{ServiceName: "test"}), nil)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client, server
}

func TestFetchCartDecodesItems(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/cart" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Fatalf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"id":"i1","productId":"p1","quantity":2,"unitPrice":"9.99"}],"total":"19.98"}`))
	}))

	cart, err := client.FetchCart(context.Background(), "tok")
	if err != nil {
		t.Fatalf("FetchCart failed: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].ID != "i1" {
		t.Fatalf("unexpected cart %+v", cart)
	}
	if !cart.Items[0].UnitPrice.Equal(decimal.RequireFromString("9.99")) {
		t.Fatalf("unexpected unit price %s", cart.Items[0].UnitPrice)
	}

	lines := cart.Lines()
	if len(lines) != 1 || lines[0].RemoteItemID != "i1" {
		t.Fatalf("unexpected lines %+v", lines)
	}
}

func TestStatusCodesMapToTypedErrors(t *testing.T) {
	tests := []struct {
		status int
		code   pkgerrors.Code
	}{
		{http.StatusUnauthorized, pkgerrors.CodeUnauthorized},
		{http.StatusForbidden, pkgerrors.CodeForbidden},
		{http.StatusNotFound, pkgerrors.CodeNotFound},
		{http.StatusConflict, pkgerrors.CodeDuplicate},
		{http.StatusInternalServerError, pkgerrors.CodeRemote},
	}

	for _, tt := range tests {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte(`{"message":"nope"}`))
		}))

		_, err := client.FetchCart(context.Background(), "tok")
		if err == nil {
			t.Fatalf("status %d: expected error", tt.status)
		}
		if !pkgerrors.HasCode(err, tt.code) {
			t.Fatalf("status %d: expected code %s, got %v", tt.status, tt.code, err)
		}
	}
}

func TestDuplicateWishlistMessageMapsToDuplicate(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Product already in wishlist"}`))
	}))

	err := client.AddWishlistItem(context.Background(), "tok", types.WishlistEntry{ProductID: "p1"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsDuplicateWishlist(err) {
		t.Fatalf("expected duplicate wishlist detection, got %v", err)
	}
}

func TestNestedErrorEnvelopeMessageExtracted(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"message":"cart item not found"}}`))
	}))

	err := client.RemoveCartItem(context.Background(), "tok", "i1")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Message() != "cart item not found" {
		t.Fatalf("expected nested message, got %v", err)
	}
}

func TestUnreachableBackendIsDependencyError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := NewClient(config.RemoteConfig{BaseURL: url}, logger.New(logger.Options{ServiceName: "test"}), nil)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	_, err = client.FetchCart(context.Background(), "tok")
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestUpdateCartItemValidatesInput(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("no request expected for invalid input")
	}))

	if err := client.UpdateCartItem(context.Background(), "tok", "", 1); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := client.UpdateCartItem(context.Background(), "tok", "i1", 0); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
