package executors

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"

	"spotengine/src/model"
)

// Syncer is the slice of the reconciler the loop needs.
type Syncer interface {
	Sync(ctx context.Context, account string, chainID uint64) ([]model.Order, error)
}

// SyncLoop reconciles the order cache on a fixed period, with an out-of-band
// nudge channel fed by the push stream so a pushed event shortens the wait
// instead of replacing the poll.
type SyncLoop struct {
	reconciler Syncer
	account    string
	chainID    uint64
	nudge      chan struct{}
}

func NewSyncLoop(reconciler Syncer, account string, chainID uint64) *SyncLoop {
	return &SyncLoop{
		reconciler: reconciler,
		account:    account,
		chainID:    chainID,
		nudge:      make(chan struct{}, 1),
	}
}

// Nudge requests an early sync; safe from any goroutine, coalesces bursts.
func (l *SyncLoop) Nudge() {
	select {
	case l.nudge <- struct{}{}:
	default:
	}
}

// Run syncs until the context ends. Failures are logged and retried on the
// next tick; the cache keeps its previous snapshot in the meantime.
func (l *SyncLoop) Run(ctx context.Context) {
	config := GetConfig()

	ticker := time.NewTicker(config.SyncPeriod)
	defer ticker.Stop()

	l.syncOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info("order sync loop stopped")
			return
		case <-ticker.C:
			l.syncOnce(ctx)
		case <-l.nudge:
			l.syncOnce(ctx)
		}
	}
}

func (l *SyncLoop) syncOnce(ctx context.Context) {
	if _, err := l.reconciler.Sync(ctx, l.account, l.chainID); err != nil {
		logger.WithError(err).Warn("order sync failed, will retry")
	}
}
