package workers

import (
	"context"
	"time"

	"soko_backend/internal/logger"
	"soko_backend/internal/services"
)

// VerifyWorker periodically re-checks that every stored document is still
// fetchable, so silently lost objects show up in the logs instead of at
// download time.
type VerifyWorker struct {
	migration services.MigrationService
	interval  time.Duration
}

func NewVerifyWorker(migration services.MigrationService, interval time.Duration) *VerifyWorker {
	return &VerifyWorker{
		migration: migration,
		interval:  interval,
	}
}

func (w *VerifyWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *VerifyWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("document verify worker stopped")
			return
		case <-ticker.C:
			report, err := w.migration.Verify(ctx)
			logger.WorkerLog("verify", "storage sweep", err)
			if err != nil {
				continue
			}
			if report.Inaccessible > 0 {
				logger.Warn("stored documents are missing bytes",
					"checked", report.DocumentsChecked,
					"inaccessible", report.Inaccessible,
				)
			}
		}
	}
}
