package fallback

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/threadline/storefront-gateway/pkg/enums"
	"github.com/threadline/storefront-gateway/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&CollectionBlob{}))
	return NewStore(db)
}

func TestCartLinesEmptyForUnknownOwner(t *testing.T) {
	store := newTestStore(t)
	lines, err := store.CartLines(context.Background(), "nobody")
	require.NoError(t, err)
	require.Empty(t, lines)
}

func TestUpsertLineMergesQuantityForSameVariant(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	variant := &types.Variant{VariantID: "v1", Price: decimal.RequireFromString("5")}

	_, err := store.UpsertLine(ctx, "owner", types.CartLine{ProductID: "p1", Variant: variant, Quantity: 1, UnitPrice: variant.Price})
	require.NoError(t, err)
	lines, err := store.UpsertLine(ctx, "owner", types.CartLine{ProductID: "p1", Variant: variant, Quantity: 2, UnitPrice: variant.Price})
	require.NoError(t, err)

	require.Len(t, lines, 1)
	require.Equal(t, 3, lines[0].Quantity)
}

func TestUpsertLineKeepsDistinctVariantsApart(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	small := &types.Variant{VariantID: "v1", Size: "S", Price: decimal.RequireFromString("5")}
	large := &types.Variant{VariantID: "v1", Size: "L", Price: decimal.RequireFromString("5")}

	_, err := store.UpsertLine(ctx, "owner", types.CartLine{ProductID: "p1", Variant: small, Quantity: 1})
	require.NoError(t, err)
	lines, err := store.UpsertLine(ctx, "owner", types.CartLine{ProductID: "p1", Variant: large, Quantity: 1})
	require.NoError(t, err)

	require.Len(t, lines, 2)
}

func TestCorruptPayloadReadsAsEmpty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.db.Create(&CollectionBlob{
		OwnerKey:   "owner",
		Collection: string(enums.CollectionCart),
		Payload:    []byte("{not json"),
	}).Error)

	lines, err := store.CartLines(ctx, "owner")
	require.NoError(t, err)
	require.Empty(t, lines)
}

func TestOwnersAreIsolated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertLine(ctx, "alice", types.CartLine{ProductID: "p1", Quantity: 1})
	require.NoError(t, err)

	lines, err := store.CartLines(ctx, "bob")
	require.NoError(t, err)
	require.Empty(t, lines)
}

func TestCollectionsAreIsolated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertLine(ctx, "owner", types.CartLine{ProductID: "p1", Quantity: 1})
	require.NoError(t, err)
	_, err = store.AddEntry(ctx, "owner", types.WishlistEntry{ProductID: "w1"})
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx, "owner", enums.CollectionCart))

	lines, err := store.CartLines(ctx, "owner")
	require.NoError(t, err)
	require.Empty(t, lines)

	entries, err := store.WishlistEntries(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestAddEntryIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddEntry(ctx, "owner", types.WishlistEntry{ProductID: "p1"})
	require.NoError(t, err)
	entries, err := store.AddEntry(ctx, "owner", types.WishlistEntry{ProductID: "p1"})
	require.NoError(t, err)

	require.Len(t, entries, 1)

	present, err := store.Has(ctx, "owner", "p1")
	require.NoError(t, err)
	require.True(t, present)
}

func TestRemoveEntryAndRemoveLine(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertLine(ctx, "owner", types.CartLine{ProductID: "p1", Quantity: 1})
	require.NoError(t, err)
	require.NoError(t, store.RemoveLine(ctx, "owner", "p1"))
	lines, err := store.CartLines(ctx, "owner")
	require.NoError(t, err)
	require.Empty(t, lines)

	_, err = store.AddEntry(ctx, "owner", types.WishlistEntry{ProductID: "w1"})
	require.NoError(t, err)
	require.NoError(t, store.RemoveEntry(ctx, "owner", "w1"))
	present, err := store.Has(ctx, "owner", "w1")
	require.NoError(t, err)
	require.False(t, present)
}
