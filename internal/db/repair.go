package db

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/GameLauncher/internal/models"
)

// Repairer reassigns games whose category no longer belongs to their owner.
type Repairer interface {
	RepairOrphanCategories(ctx context.Context) (int64, error)
}

// StartOrphanRepair runs the orphan repair pass for the active user on every tick
// until ctx is cancelled. Ticks with nobody logged in are skipped. A non-positive
// interval disables the pass.
func StartOrphanRepair(
	ctx context.Context,
	repairer Repairer,
	interval time.Duration,
	log *zap.Logger,
) {
	if interval <= 0 {
		log.Info("periodic orphan repair disabled")
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				moved, err := repairer.RepairOrphanCategories(ctx)
				if errors.Is(err, models.ErrNotAuthenticated) {
					continue
				}
				if err != nil {
					log.Error("failed to repair orphaned games", zap.Error(err))
					continue
				}
				if moved > 0 {
					log.Info("reassigned orphaned games", zap.Int64("moved", moved))
				}
			}
		}
	}()
}
