package wishlist

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/threadline/storefront-gateway/internal/relay"
	"github.com/threadline/storefront-gateway/internal/remote"
	"github.com/threadline/storefront-gateway/internal/session"
	"github.com/threadline/storefront-gateway/pkg/enums"
	pkgerrors "github.com/threadline/storefront-gateway/pkg/errors"
	"github.com/threadline/storefront-gateway/pkg/logger"
	"github.com/threadline/storefront-gateway/pkg/metrics"
	"github.com/threadline/storefront-gateway/pkg/types"
)

type remoteClient interface {
	FetchWishlist(ctx context.Context, token string) ([]types.WishlistEntry, error)
	AddWishlistItem(ctx context.Context, token string, entry types.WishlistEntry) error
	RemoveWishlistItem(ctx context.Context, token, productID string) error
}

type mirrorStore interface {
	WishlistEntries(ctx context.Context, owner string) ([]types.WishlistEntry, error)
	SaveWishlistEntries(ctx context.Context, owner string, entries []types.WishlistEntry) error
	AddEntry(ctx context.Context, owner string, entry types.WishlistEntry) ([]types.WishlistEntry, error)
	RemoveEntry(ctx context.Context, owner, productID string) error
	Has(ctx context.Context, owner, productID string) (bool, error)
	Clear(ctx context.Context, owner string, collection enums.Collection) error
}

type eventBus interface {
	Dispatch(ctx context.Context, event relay.Event) error
}

type toaster interface {
	Success(owner, msg string) relay.Toast
	Error(owner, msg string) relay.Toast
}

// Service exposes the wishlist as a membership toggle: one entry per product,
// remote-synced for authenticated users, mirror-only for guests.
type Service interface {
	Fetch(ctx context.Context, sess session.Session) (View, error)
	Toggle(ctx context.Context, sess session.Session, input ToggleInput) (ToggleResult, error)
	Clear(ctx context.Context, sess session.Session) error
	Refresh(ctx context.Context, sess session.Session) error
}

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	Remote   remoteClient
	Mirror   mirrorStore
	Bus      eventBus
	Notifier toaster
	Logger   *logger.Logger
	Metrics  *metrics.SyncMetrics
}

type service struct {
	remote   remoteClient
	mirror   mirrorStore
	bus      eventBus
	notifier toaster
	logg     *logger.Logger
	metrics  *metrics.SyncMetrics
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Remote == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "remote client is required")
	}
	if params.Mirror == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mirror store is required")
	}
	if params.Bus == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event bus is required")
	}
	if params.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notifier is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		remote:   params.Remote,
		mirror:   params.Mirror,
		bus:      params.Bus,
		notifier: params.Notifier,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// ToggleInput carries the product card fields captured at toggle time.
type ToggleInput struct {
	ProductID       string
	ProductName     string
	Price           *decimal.Decimal
	DiscountedPrice *decimal.Decimal
	ThumbnailURL    string
	Category        string
}

// ToggleResult reports the membership state after the toggle resolved.
type ToggleResult struct {
	ProductID string `json:"productId"`
	Present   bool   `json:"present"`
	Source    string `json:"source"`
}

// View is the wishlist as shown to a UI surface.
type View struct {
	Entries []types.WishlistEntry `json:"entries"`
	Source  string                `json:"source"`
}

// Fetch returns the wishlist, remote-primary for authenticated sessions with
// the mirror as the degradation path.
func (s *service) Fetch(ctx context.Context, sess session.Session) (View, error) {
	if !sess.Authenticated() {
		entries, err := s.mirror.WishlistEntries(ctx, sess.Owner)
		if err != nil {
			return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read local wishlist")
		}
		return View{Entries: entries, Source: relay.SourceLocal}, nil
	}

	entries, err := s.remote.FetchWishlist(ctx, sess.Token)
	if err != nil {
		s.metrics.IncFallbackHit(string(enums.CollectionWishlist))
		s.notifier.Error(sess.Owner, "Could not reach the store, showing your saved wishlist")
		local, localErr := s.mirror.WishlistEntries(ctx, sess.Owner)
		if localErr != nil {
			return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, localErr, "read local wishlist")
		}
		s.logg.Warn(s.logg.WithOperation(ctx, "wishlist.fetch"), "remote fetch failed, serving mirror")
		return View{Entries: local, Source: relay.SourceLocal}, nil
	}

	if err := s.mirror.SaveWishlistEntries(ctx, sess.Owner, entries); err != nil {
		s.logg.Warn(ctx, "wishlist mirror write failed: "+err.Error())
	}
	return View{Entries: entries, Source: relay.SourceRemote}, nil
}

// Toggle flips product membership. Membership is decided from the mirror so
// the toggle resolves instantly; the remote call follows and the mirror is
// reconciled with its outcome.
func (s *service) Toggle(ctx context.Context, sess session.Session, input ToggleInput) (ToggleResult, error) {
	if input.ProductID == "" {
		return ToggleResult{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	present, err := s.mirror.Has(ctx, sess.Owner, input.ProductID)
	if err != nil {
		return ToggleResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read local wishlist")
	}

	if present {
		return s.toggleOff(ctx, sess, input.ProductID)
	}
	return s.toggleOn(ctx, sess, input)
}

func (s *service) toggleOn(ctx context.Context, sess session.Session, input ToggleInput) (ToggleResult, error) {
	price := decimal.Zero
	if input.Price != nil {
		price = *input.Price
	}
	entry := types.WishlistEntry{
		ProductID:       input.ProductID,
		ProductName:     input.ProductName,
		Price:           price,
		DiscountedPrice: input.DiscountedPrice,
		ThumbnailURL:    input.ThumbnailURL,
		Category:        input.Category,
		AddedAt:         time.Now().UTC(),
	}

	if _, err := s.mirror.AddEntry(ctx, sess.Owner, entry); err != nil {
		return ToggleResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write local wishlist")
	}

	if !sess.Authenticated() {
		s.notifier.Success(sess.Owner, "Added to wishlist")
		s.dispatchUpdated(ctx, sess.Owner, input.ProductID, true)
		return ToggleResult{ProductID: input.ProductID, Present: true, Source: relay.SourceLocal}, nil
	}

	if err := s.remote.AddWishlistItem(ctx, sess.Token, entry); err != nil {
		if remote.IsDuplicateWishlist(err) {
			// Already present upstream: the desired state holds, treat as
			// success and keep the mirror entry.
			s.notifier.Success(sess.Owner, "Added to wishlist")
			s.dispatchUpdated(ctx, sess.Owner, input.ProductID, true)
			return ToggleResult{ProductID: input.ProductID, Present: true, Source: relay.SourceRemote}, nil
		}
		s.metrics.IncFallbackHit(string(enums.CollectionWishlist))
		s.notifier.Error(sess.Owner, "Could not reach the store, saved to your local wishlist")
		s.dispatchUpdated(ctx, sess.Owner, input.ProductID, true)
		return ToggleResult{ProductID: input.ProductID, Present: true, Source: relay.SourceLocal}, nil
	}

	s.notifier.Success(sess.Owner, "Added to wishlist")
	s.dispatchUpdated(ctx, sess.Owner, input.ProductID, true)
	return ToggleResult{ProductID: input.ProductID, Present: true, Source: relay.SourceRemote}, nil
}

func (s *service) toggleOff(ctx context.Context, sess session.Session, productID string) (ToggleResult, error) {
	if err := s.mirror.RemoveEntry(ctx, sess.Owner, productID); err != nil {
		return ToggleResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write local wishlist")
	}

	if !sess.Authenticated() {
		s.notifier.Success(sess.Owner, "Removed from wishlist")
		s.dispatchUpdated(ctx, sess.Owner, productID, false)
		return ToggleResult{ProductID: productID, Present: false, Source: relay.SourceLocal}, nil
	}

	if err := s.remote.RemoveWishlistItem(ctx, sess.Token, productID); err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			// Already gone upstream, nothing to revert.
			s.notifier.Success(sess.Owner, "Removed from wishlist")
			s.dispatchUpdated(ctx, sess.Owner, productID, false)
			return ToggleResult{ProductID: productID, Present: false, Source: relay.SourceRemote}, nil
		}
		s.revertByRefetch(ctx, sess, "wishlist.remove")
		s.notifier.Error(sess.Owner, "Could not update your wishlist")
		return ToggleResult{}, err
	}

	s.notifier.Success(sess.Owner, "Removed from wishlist")
	s.dispatchUpdated(ctx, sess.Owner, productID, false)
	return ToggleResult{ProductID: productID, Present: false, Source: relay.SourceRemote}, nil
}

// Clear removes every entry. The backend has no bulk endpoint, so remote
// clearing iterates per-product removes; local state clears regardless, and
// exactly one wishlistCleared event follows.
func (s *service) Clear(ctx context.Context, sess session.Session) error {
	if sess.Authenticated() {
		entries, err := s.remote.FetchWishlist(ctx, sess.Token)
		if err != nil {
			s.notifier.Error(sess.Owner, "Could not clear your wishlist")
			return err
		}
		var removeErr error
		for _, entry := range entries {
			if err := s.remote.RemoveWishlistItem(ctx, sess.Token, entry.ProductID); err != nil {
				removeErr = multierr.Append(removeErr, err)
			}
		}
		if removeErr != nil {
			s.revertByRefetch(ctx, sess, "wishlist.clear")
			s.notifier.Error(sess.Owner, "Could not clear your wishlist")
			return removeErr
		}
	}

	if err := s.mirror.Clear(ctx, sess.Owner, enums.CollectionWishlist); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear local wishlist")
	}
	s.notifier.Success(sess.Owner, "Wishlist cleared")
	s.dispatch(ctx, relay.NewEvent(enums.EventWishlistCleared, sess.Owner, relay.WishlistClearedDetail{}))
	return nil
}

// Refresh re-fetches authoritative state into the mirror. No-op for guests.
func (s *service) Refresh(ctx context.Context, sess session.Session) error {
	if !sess.Authenticated() {
		return nil
	}
	entries, err := s.remote.FetchWishlist(ctx, sess.Token)
	if err != nil {
		return err
	}
	if err := s.mirror.SaveWishlistEntries(ctx, sess.Owner, entries); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write local wishlist")
	}
	s.dispatch(ctx, relay.NewEvent(enums.EventWishlistUpdated, sess.Owner, relay.WishlistUpdatedDetail{}))
	return nil
}

func (s *service) revertByRefetch(ctx context.Context, sess session.Session, operation string) {
	s.metrics.IncOptimisticRevert(operation)
	entries, err := s.remote.FetchWishlist(ctx, sess.Token)
	if err != nil {
		s.logg.Warn(ctx, "wishlist revert refetch failed: "+err.Error())
		return
	}
	if err := s.mirror.SaveWishlistEntries(ctx, sess.Owner, entries); err != nil {
		s.logg.Error(ctx, "mirror write during revert failed", err)
	}
	s.dispatch(ctx, relay.NewEvent(enums.EventWishlistUpdated, sess.Owner, relay.WishlistUpdatedDetail{}))
}

func (s *service) dispatchUpdated(ctx context.Context, owner, productID string, present bool) {
	s.dispatch(ctx, relay.NewEvent(enums.EventWishlistUpdated, owner, relay.WishlistUpdatedDetail{
		ProductID: productID,
		Present:   present,
	}))
}

func (s *service) dispatch(ctx context.Context, event relay.Event) {
	if err := s.bus.Dispatch(ctx, event); err != nil {
		s.logg.Warn(ctx, "relay dispatch failed: "+err.Error())
	}
}
