package cart

import (
	"context"

	"github.com/shopspring/decimal"

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
	FetchCart(ctx context.Context, token string) (*remote.Cart, error)
	AddCartItem(ctx context.Context, token string, req remote.AddCartItemRequest) (*remote.CartItem, error)
	UpdateCartItem(ctx context.Context, token, itemID string, quantity int) error
	RemoveCartItem(ctx context.Context, token, itemID string) error
	ClearCart(ctx context.Context, token string) error
}

type mirrorStore interface {
	CartLines(ctx context.Context, owner string) ([]types.CartLine, error)
	SaveCartLines(ctx context.Context, owner string, lines []types.CartLine) error
	UpsertLine(ctx context.Context, owner string, line types.CartLine) ([]types.CartLine, error)
	Clear(ctx context.Context, owner string, collection enums.Collection) error
}

type eventBus interface {
	Dispatch(ctx context.Context, event relay.Event) error
}

type toaster interface {
	Success(owner, msg string) relay.Toast
	Error(owner, msg string) relay.Toast
}

// Service keeps the remote cart and the local mirror in step: optimistic
// mutations against the backend, with the mirror as the guest store and the
// degradation path when the backend is unreachable.
type Service interface {
	Fetch(ctx context.Context, sess session.Session) (View, error)
	Add(ctx context.Context, sess session.Session, input AddInput) (View, error)
	UpdateQuantity(ctx context.Context, sess session.Session, ref LineRef, quantity int) error
	Increment(ctx context.Context, sess session.Session, ref LineRef) error
	Decrement(ctx context.Context, sess session.Session, ref LineRef) error
	Remove(ctx context.Context, sess session.Session, ref LineRef) error
	Clear(ctx context.Context, sess session.Session) error
	Refresh(ctx context.Context, sess session.Session) error
}

// ServiceParams groups dependencies for the cart service.
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

// NewService builds a cart service with the required dependencies.
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

// AddInput captures everything known about a product at add-time.
type AddInput struct {
	ProductID       string
	ProductName     string
	Price           *decimal.Decimal
	DiscountedPrice *decimal.Decimal
	Quantity        int
	Variant         *types.Variant
	ThumbnailURL    string
}

// LineRef identifies one cart line by product identity and variant.
type LineRef struct {
	ProductID string
	Variant   *types.Variant
}

// View is the cart as shown to a UI surface.
type View struct {
	Lines    []types.CartLine `json:"lines"`
	Subtotal decimal.Decimal  `json:"subtotal"`
	Source   string           `json:"source"`
}

func viewOf(lines []types.CartLine, source string) View {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal())
	}
	return View{Lines: lines, Subtotal: subtotal, Source: source}
}

// Fetch returns the cart, remote-primary for authenticated sessions with the
// mirror as the degradation path.
func (s *service) Fetch(ctx context.Context, sess session.Session) (View, error) {
	if !sess.Authenticated() {
		lines, err := s.mirror.CartLines(ctx, sess.Owner)
		if err != nil {
			return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read local cart")
		}
		return viewOf(lines, relay.SourceLocal), nil
	}

	cart, err := s.remote.FetchCart(ctx, sess.Token)
	if err != nil {
		s.metrics.IncFallbackHit(string(enums.CollectionCart))
		s.notifier.Error(sess.Owner, "Could not reach the store, showing your saved cart")
		lines, localErr := s.mirror.CartLines(ctx, sess.Owner)
		if localErr != nil {
			return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, localErr, "read local cart")
		}
		s.logg.Warn(s.logg.WithOperation(ctx, "cart.fetch"), "remote fetch failed, serving mirror")
		return viewOf(lines, relay.SourceLocal), nil
	}

	lines := cart.Lines()
	if err := s.mirror.SaveCartLines(ctx, sess.Owner, lines); err != nil {
		s.logg.Warn(ctx, "cart mirror write failed: "+err.Error())
	}
	return viewOf(lines, relay.SourceRemote), nil
}

// Add puts a product into the cart. Guests write to the local store only and
// get a login prompt so they know the cart is not synced; authenticated users
// get the optimistic-then-confirm path with a local fallback on failure.
func (s *service) Add(ctx context.Context, sess session.Session, input AddInput) (View, error) {
	if input.ProductID == "" {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	quantity := input.Quantity
	if quantity < 1 {
		quantity = 1
	}

	line := types.CartLine{
		ProductID:    input.ProductID,
		ProductName:  input.ProductName,
		Variant:      input.Variant,
		Quantity:     quantity,
		UnitPrice:    types.ResolveUnitPrice(input.Variant, input.DiscountedPrice, input.Price),
		ThumbnailURL: input.ThumbnailURL,
	}

	if !sess.Authenticated() {
		lines, err := s.mirror.UpsertLine(ctx, sess.Owner, line)
		if err != nil {
			return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write local cart")
		}
		s.notifier.Error(sess.Owner, "Please login to save your cart")
		s.dispatchCartUpdated(ctx, sess.Owner, len(lines), relay.SourceLocal)
		return viewOf(lines, relay.SourceLocal), nil
	}

	snapshot, err := s.mirror.CartLines(ctx, sess.Owner)
	if err != nil {
		return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read local cart")
	}

	// Optimistic: the mirror reflects the intended end state before the
	// network call resolves.
	lines, err := s.mirror.UpsertLine(ctx, sess.Owner, line)
	if err != nil {
		return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write local cart")
	}

	item, remoteErr := s.remote.AddCartItem(ctx, sess.Token, remote.AddCartItemRequest{
		ProductID:    line.ProductID,
		ProductName:  line.ProductName,
		Quantity:     line.Quantity,
		UnitPrice:    line.UnitPrice,
		Variant:      line.Variant,
		ThumbnailURL: line.ThumbnailURL,
	})
	if remoteErr != nil {
		s.metrics.IncOptimisticRevert("cart.add")
		s.metrics.IncFallbackHit(string(enums.CollectionCart))
		if err := s.mirror.SaveCartLines(ctx, sess.Owner, snapshot); err != nil {
			s.logg.Error(ctx, "revert of optimistic cart add failed", err)
		}
		lines, err = s.mirror.UpsertLine(ctx, sess.Owner, line)
		if err != nil {
			return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write local cart")
		}
		s.notifier.Error(sess.Owner, "Could not reach the store, item saved locally")
		s.dispatchCartUpdated(ctx, sess.Owner, len(lines), relay.SourceLocal)
		return viewOf(lines, relay.SourceLocal), nil
	}

	if item != nil && item.ID != "" {
		lines = stampRemoteID(lines, line, item.ID)
		if err := s.mirror.SaveCartLines(ctx, sess.Owner, lines); err != nil {
			s.logg.Warn(ctx, "cart mirror write failed: "+err.Error())
		}
	}
	s.notifier.Success(sess.Owner, "Added to cart")
	s.dispatchCartUpdated(ctx, sess.Owner, len(lines), relay.SourceRemote)
	return viewOf(lines, relay.SourceRemote), nil
}

// UpdateQuantity sets a line's quantity, clamped to at least 1, using
// revert-by-refetch when the remote rejects the optimistic write.
func (s *service) UpdateQuantity(ctx context.Context, sess session.Session, ref LineRef, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	snapshot, err := s.mirror.CartLines(ctx, sess.Owner)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read local cart")
	}

	idx := indexOf(snapshot, ref)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	if snapshot[idx].Quantity == quantity {
		return nil
	}

	lines := cloneLines(snapshot)
	lines[idx].Quantity = quantity
	if err := s.mirror.SaveCartLines(ctx, sess.Owner, lines); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write local cart")
	}

	remoteID := lines[idx].RemoteItemID
	if !sess.Authenticated() || remoteID == "" {
		s.dispatchCartUpdated(ctx, sess.Owner, len(lines), relay.SourceLocal)
		return nil
	}

	if err := s.remote.UpdateCartItem(ctx, sess.Token, remoteID, quantity); err != nil {
		s.revertByRefetch(ctx, sess, snapshot, "cart.update")
		s.notifier.Error(sess.Owner, "Could not update quantity")
		return err
	}
	s.dispatchCartUpdated(ctx, sess.Owner, len(lines), relay.SourceRemote)
	return nil
}

// Increment raises the line quantity by one.
func (s *service) Increment(ctx context.Context, sess session.Session, ref LineRef) error {
	return s.bump(ctx, sess, ref, +1)
}

// Decrement lowers the line quantity by one. At quantity 1 it is a no-op:
// removal is an explicit separate action.
func (s *service) Decrement(ctx context.Context, sess session.Session, ref LineRef) error {
	return s.bump(ctx, sess, ref, -1)
}

func (s *service) bump(ctx context.Context, sess session.Session, ref LineRef, delta int) error {
	lines, err := s.mirror.CartLines(ctx, sess.Owner)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read local cart")
	}
	idx := indexOf(lines, ref)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	next := lines[idx].Quantity + delta
	if next < 1 {
		return nil
	}
	return s.UpdateQuantity(ctx, sess, ref, next)
}

// Remove deletes one line from the cart.
func (s *service) Remove(ctx context.Context, sess session.Session, ref LineRef) error {
	snapshot, err := s.mirror.CartLines(ctx, sess.Owner)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read local cart")
	}
	idx := indexOf(snapshot, ref)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}

	remoteID := snapshot[idx].RemoteItemID
	lines := append(cloneLines(snapshot[:idx]), snapshot[idx+1:]...)
	if err := s.mirror.SaveCartLines(ctx, sess.Owner, lines); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write local cart")
	}

	if !sess.Authenticated() || remoteID == "" {
		s.notifier.Success(sess.Owner, "Removed from cart")
		s.dispatchCartUpdated(ctx, sess.Owner, len(lines), relay.SourceLocal)
		return nil
	}

	if err := s.remote.RemoveCartItem(ctx, sess.Token, remoteID); err != nil {
		s.revertByRefetch(ctx, sess, snapshot, "cart.remove")
		s.notifier.Error(sess.Owner, "Could not remove item")
		return err
	}
	s.notifier.Success(sess.Owner, "Removed from cart")
	s.dispatchCartUpdated(ctx, sess.Owner, len(lines), relay.SourceRemote)
	return nil
}

// Clear empties the remote cart (when authenticated) and the mirror, emitting
// exactly one cartCleared event on success.
func (s *service) Clear(ctx context.Context, sess session.Session) error {
	if sess.Authenticated() {
		if err := s.remote.ClearCart(ctx, sess.Token); err != nil {
			s.revertByRefetch(ctx, sess, nil, "cart.clear")
			s.notifier.Error(sess.Owner, "Could not clear your cart")
			return err
		}
	}
	if err := s.mirror.Clear(ctx, sess.Owner, enums.CollectionCart); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear local cart")
	}
	s.notifier.Success(sess.Owner, "Cart cleared")
	s.dispatch(ctx, relay.NewEvent(enums.EventCartCleared, sess.Owner, relay.CartClearedDetail{}))
	return nil
}

// Refresh re-fetches authoritative state and republishes it so surfaces
// converge on the backend's view. Guests are local-authoritative, so this is
// a no-op for them.
func (s *service) Refresh(ctx context.Context, sess session.Session) error {
	if !sess.Authenticated() {
		return nil
	}
	cart, err := s.remote.FetchCart(ctx, sess.Token)
	if err != nil {
		return err
	}
	lines := cart.Lines()
	if err := s.mirror.SaveCartLines(ctx, sess.Owner, lines); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write local cart")
	}
	s.dispatchCartUpdated(ctx, sess.Owner, len(lines), relay.SourceRemote)
	return nil
}

// revertByRefetch discards the optimistic mirror state. The authoritative
// remote cart wins when reachable; otherwise the pre-mutation snapshot is
// restored so no stale optimistic value survives.
func (s *service) revertByRefetch(ctx context.Context, sess session.Session, snapshot []types.CartLine, operation string) {
	s.metrics.IncOptimisticRevert(operation)

	cart, err := s.remote.FetchCart(ctx, sess.Token)
	if err == nil {
		lines := cart.Lines()
		if err := s.mirror.SaveCartLines(ctx, sess.Owner, lines); err != nil {
			s.logg.Error(ctx, "mirror write during revert failed", err)
		}
		s.dispatchCartUpdated(ctx, sess.Owner, len(lines), relay.SourceRemote)
		return
	}

	if snapshot != nil {
		if err := s.mirror.SaveCartLines(ctx, sess.Owner, snapshot); err != nil {
			s.logg.Error(ctx, "snapshot restore failed", err)
		}
		s.dispatchCartUpdated(ctx, sess.Owner, len(snapshot), relay.SourceLocal)
	}
}

func (s *service) dispatchCartUpdated(ctx context.Context, owner string, lineCount int, source string) {
	s.dispatch(ctx, relay.NewEvent(enums.EventCartUpdated, owner, relay.CartUpdatedDetail{
		Lines:  lineCount,
		Source: source,
	}))
}

func (s *service) dispatch(ctx context.Context, event relay.Event) {
	if err := s.bus.Dispatch(ctx, event); err != nil {
		s.logg.Warn(ctx, "relay dispatch failed: "+err.Error())
	}
}

func indexOf(lines []types.CartLine, ref LineRef) int {
	for i := range lines {
		if lines[i].Matches(ref.ProductID, ref.Variant) {
			return i
		}
	}
	return -1
}

func cloneLines(lines []types.CartLine) []types.CartLine {
	out := make([]types.CartLine, len(lines))
	copy(out, lines)
	return out
}

func stampRemoteID(lines []types.CartLine, added types.CartLine, remoteID string) []types.CartLine {
	out := cloneLines(lines)
	for i := range out {
		if out[i].Matches(added.ProductID, added.Variant) {
			out[i].RemoteItemID = remoteID
			break
		}
	}
	return out
}
