package refresh

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/threadline/storefront-gateway/internal/session"
	"github.com/threadline/storefront-gateway/pkg/logger"
)

type cartRefresher interface {
	Refresh(ctx context.Context, sess session.Session) error
}

type wishlistRefresher interface {
	Refresh(ctx context.Context, sess session.Session) error
}

// ConvergenceJobParams configures the periodic cart/wishlist re-sync.
type ConvergenceJobParams struct {
	Logger   *logger.Logger
	Tracker  *Tracker
	Cart     cartRefresher
	Wishlist wishlistRefresher
}

// ConvergenceJob re-fetches authoritative backend state for every active
// session so open surfaces converge even when a mutation's relay event was
// missed. This replaces the polling a browser tab would otherwise do.
type ConvergenceJob struct {
	logg     *logger.Logger
	tracker  *Tracker
	cart     cartRefresher
	wishlist wishlistRefresher
}

// NewConvergenceJob constructs the convergence job.
func NewConvergenceJob(params ConvergenceJobParams) (*ConvergenceJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Tracker == nil {
		return nil, fmt.Errorf("tracker required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart refresher required")
	}
	if params.Wishlist == nil {
		return nil, fmt.Errorf("wishlist refresher required")
	}
	return &ConvergenceJob{
		logg:     params.Logger,
		tracker:  params.Tracker,
		cart:     params.Cart,
		wishlist: params.Wishlist,
	}, nil
}

// Name implements Job.
func (j *ConvergenceJob) Name() string { return "collection_convergence" }

// Run implements Job. Per-session failures are collected rather than aborting
// the cycle: one user's expired token must not stall everyone else's sync.
func (j *ConvergenceJob) Run(ctx context.Context) error {
	var errs error
	for _, sess := range j.tracker.Active() {
		if err := j.cart.Refresh(ctx, sess); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("cart refresh %s: %w", sess.Owner, err))
		}
		if err := j.wishlist.Refresh(ctx, sess); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("wishlist refresh %s: %w", sess.Owner, err))
		}
	}
	return errs
}
