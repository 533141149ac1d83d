// Package scheduler runs the background scans that do not belong to any
// request: currently the contract deadline watch.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"contract-platform/contract-portal-backend/internal/contracts"
)

type Notifier interface {
	Notify(ctx context.Context, toUser, title, content string)
}

// DeadlineWatcher warns the contract admin about active contracts whose
// end date is near or past, so schedule-impact changes get filed before
// the contract lapses.
type DeadlineWatcher struct {
	repo           contracts.Repository
	notifier       Notifier
	warnBeforeDays int
	logger         *zap.Logger
}

func NewDeadlineWatcher(repo contracts.Repository, notifier Notifier, warnBeforeDays int, logger *zap.Logger) *DeadlineWatcher {
	return &DeadlineWatcher{
		repo:           repo,
		notifier:       notifier,
		warnBeforeDays: warnBeforeDays,
		logger:         logger,
	}
}

// Register schedules the scan on the given cron spec and returns the
// entry id.
func (w *DeadlineWatcher) Register(c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		w.Scan(ctx)
	})
}

// Scan performs one pass.
func (w *DeadlineWatcher) Scan(ctx context.Context) {
	expiring, err := w.repo.ListExpiring(ctx, w.warnBeforeDays)
	if err != nil {
		w.logger.Error("deadline scan failed", zap.Error(err))
		return
	}
	now := time.Now()
	for _, c := range expiring {
		if c.EndDate == nil {
			continue
		}
		var title, detail string
		if c.EndDate.Before(now) {
			title = "Contract past its end date"
			detail = fmt.Sprintf("%s ended on %s", c.ContractNo, c.EndDate.Format("2006-01-02"))
		} else {
			title = "Contract approaching its end date"
			detail = fmt.Sprintf("%s ends on %s", c.ContractNo, c.EndDate.Format("2006-01-02"))
		}
		w.notifier.Notify(ctx, c.CreatedBy, title, detail)
	}
	if len(expiring) > 0 {
		w.logger.Info("deadline scan complete", zap.Int("flagged", len(expiring)))
	}
}
