package workers

import (
	"context"
	"time"

	"lcars-core/internal/logger"
)

type TelemetryCleanupWorker struct {
	svc       TelemetryRecorder
	retention time.Duration
	log       logger.Logger
}

func (w *TelemetryCleanupWorker) Name() string {
	return "telemetry_cleanup"
}

func (w *TelemetryCleanupWorker) Run(ctx context.Context) error {
	n, err := w.svc.Cleanup(ctx, w.retention)
	if err != nil {
		return err
	}

	if n > 0 {
		w.log.Info("worker: telemetry archive trimmed", "deleted", n, "retention", w.retention)
	}

	return nil
}
