package workers

import (
	"context"
	"time"

	"lcars-core/internal/domain"
	"lcars-core/internal/logger"
)

type TelemetryRecorder interface {
	Record(ctx context.Context) (domain.DynamicSnapshot, error)
	Cleanup(ctx context.Context, retention time.Duration) (int64, error)
}

type TelemetryRecordWorker struct {
	svc TelemetryRecorder
	log logger.Logger
}

func (w *TelemetryRecordWorker) Name() string {
	return "telemetry_record"
}

func (w *TelemetryRecordWorker) Run(ctx context.Context) error {
	dyn, err := w.svc.Record(ctx)
	if err != nil {
		return err
	}

	w.log.Debug("worker: telemetry recorded", "source", dyn.Source, "cpu", dyn.CPUUsage)

	return nil
}
