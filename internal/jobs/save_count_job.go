package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SaveCountReconciler is implemented by recipe.RecipeService.
type SaveCountReconciler interface {
	ReconcileSaveCounts(ctx context.Context) (int, error)
}

const reconcileTimeout = 5 * time.Minute

// NewScheduler returns a cron scheduler running save-count reconciliation on
// schedule. An empty schedule yields a scheduler with no jobs.
func NewScheduler(schedule string, reconciler SaveCountReconciler, log *zap.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	if schedule == "" {
		return c, nil
	}

	if _, err := c.AddFunc(schedule, ReconcileSaveCountsJob(reconciler, log)); err != nil {
		return nil, err
	}
	return c, nil
}

func ReconcileSaveCountsJob(reconciler SaveCountReconciler, log *zap.Logger) func() {
	log = log.Named("jobs")
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
		defer cancel()

		start := time.Now()
		repaired, err := reconciler.ReconcileSaveCounts(ctx)
		if err != nil {
			log.Error("save count reconciliation failed", zap.Error(err))
			return
		}
		log.Info("save count reconciliation finished",
			zap.Int("repaired", repaired),
			zap.Duration("took", time.Since(start)),
		)
	}
}
