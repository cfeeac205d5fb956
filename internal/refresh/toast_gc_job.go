package refresh

import (
	"context"
	"fmt"

	"github.com/threadline/storefront-gateway/pkg/logger"
)

type toastPruner interface {
	PruneExpired() int
}

// ToastGCJob drops expired toast notifications that no surface dismissed.
type ToastGCJob struct {
	logg     *logger.Logger
	notifier toastPruner
}

// NewToastGCJob constructs the toast cleanup job.
func NewToastGCJob(logg *logger.Logger, notifier toastPruner) (*ToastGCJob, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &ToastGCJob{logg: logg, notifier: notifier}, nil
}

// Name implements Job.
func (j *ToastGCJob) Name() string { return "toast_gc" }

// Run implements Job.
func (j *ToastGCJob) Run(ctx context.Context) error {
	if pruned := j.notifier.PruneExpired(); pruned > 0 {
		j.logg.Info(j.logg.WithField(ctx, "pruned", pruned), "expired toasts removed")
	}
	return nil
}
