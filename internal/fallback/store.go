package fallback

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/threadline/storefront-gateway/pkg/enums"
	"github.com/threadline/storefront-gateway/pkg/types"
)

// Store is the persisted mirror of cart/wishlist contents used for guests and
// as a degradation path when the commerce backend is unreachable.
//
// Reads are forgiving: a missing row or a corrupt payload reads as an empty
// collection. Only infrastructure failures surface as errors.
type Store struct {
	db *gorm.DB
}

// NewStore constructs a fallback store bound to the provided gorm DB.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CartLines returns the mirrored cart for the owner.
func (s *Store) CartLines(ctx context.Context, owner string) ([]types.CartLine, error) {
	var lines []types.CartLine
	if err := s.read(ctx, owner, enums.CollectionCart, &lines); err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []types.CartLine{}
	}
	return lines, nil
}

// SaveCartLines overwrites the mirrored cart for the owner.
func (s *Store) SaveCartLines(ctx context.Context, owner string, lines []types.CartLine) error {
	if lines == nil {
		lines = []types.CartLine{}
	}
	return s.write(ctx, owner, enums.CollectionCart, lines)
}

// UpsertLine merges the line into the owner's cart. Lines match on product id
// plus structural variant equality; a match merges quantities, otherwise the
// line is appended.
func (s *Store) UpsertLine(ctx context.Context, owner string, line types.CartLine) ([]types.CartLine, error) {
	lines, err := s.CartLines(ctx, owner)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range lines {
		if lines[i].Matches(line.ProductID, line.Variant) {
			lines[i].Quantity += line.Quantity
			if line.RemoteItemID != "" {
				lines[i].RemoteItemID = line.RemoteItemID
			}
			merged = true
			break
		}
	}
	if !merged {
		lines = append(lines, line)
	}

	if err := s.write(ctx, owner, enums.CollectionCart, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// RemoveLine drops every line for the product from the owner's cart.
func (s *Store) RemoveLine(ctx context.Context, owner, productID string) error {
	lines, err := s.CartLines(ctx, owner)
	if err != nil {
		return err
	}

	kept := lines[:0]
	for _, line := range lines {
		if line.ProductID != productID {
			kept = append(kept, line)
		}
	}
	return s.write(ctx, owner, enums.CollectionCart, kept)
}

// Clear empties the named collection for the owner.
func (s *Store) Clear(ctx context.Context, owner string, collection enums.Collection) error {
	switch collection {
	case enums.CollectionCart:
		return s.write(ctx, owner, collection, []types.CartLine{})
	case enums.CollectionWishlist:
		return s.write(ctx, owner, collection, []types.WishlistEntry{})
	}
	return errors.New("unknown collection")
}

// WishlistEntries returns the mirrored wishlist for the owner.
func (s *Store) WishlistEntries(ctx context.Context, owner string) ([]types.WishlistEntry, error) {
	var entries []types.WishlistEntry
	if err := s.read(ctx, owner, enums.CollectionWishlist, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []types.WishlistEntry{}
	}
	return entries, nil
}

// SaveWishlistEntries overwrites the mirrored wishlist for the owner.
func (s *Store) SaveWishlistEntries(ctx context.Context, owner string, entries []types.WishlistEntry) error {
	if entries == nil {
		entries = []types.WishlistEntry{}
	}
	return s.write(ctx, owner, enums.CollectionWishlist, entries)
}

// AddEntry inserts the entry unless the product is already present.
func (s *Store) AddEntry(ctx context.Context, owner string, entry types.WishlistEntry) ([]types.WishlistEntry, error) {
	entries, err := s.WishlistEntries(ctx, owner)
	if err != nil {
		return nil, err
	}
	for _, existing := range entries {
		if existing.ProductID == entry.ProductID {
			return entries, nil
		}
	}
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now().UTC()
	}
	entries = append(entries, entry)
	if err := s.write(ctx, owner, enums.CollectionWishlist, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// RemoveEntry drops the product from the owner's wishlist.
func (s *Store) RemoveEntry(ctx context.Context, owner, productID string) error {
	entries, err := s.WishlistEntries(ctx, owner)
	if err != nil {
		return err
	}
	kept := entries[:0]
	for _, entry := range entries {
		if entry.ProductID != productID {
			kept = append(kept, entry)
		}
	}
	return s.write(ctx, owner, enums.CollectionWishlist, kept)
}

// Has reports wishlist membership for the product.
func (s *Store) Has(ctx context.Context, owner, productID string) (bool, error) {
	entries, err := s.WishlistEntries(ctx, owner)
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		if entry.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) read(ctx context.Context, owner string, collection enums.Collection, dest any) error {
	var blob CollectionBlob
	err := s.db.WithContext(ctx).
		Where("owner_key = ? AND collection = ?", owner, string(collection)).
		First(&blob).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if len(blob.Payload) == 0 {
		return nil
	}
	// Corrupt persisted data reads as empty, matching localStorage semantics.
	if err := json.Unmarshal(blob.Payload, dest); err != nil {
		return nil
	}
	return nil
}

func (s *Store) write(ctx context.Context, owner string, collection enums.Collection, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	blob := CollectionBlob{
		OwnerKey:   owner,
		Collection: string(collection),
		Payload:    payload,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_key"}, {Name: "collection"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&blob).Error
}
