// Package workers
package workers

import (
	"context"
	"time"

	"lcars-core/internal/config"
	"lcars-core/internal/logger"
)

type Manager struct {
	scheduler *Scheduler
	cfg       *config.Config
	log       logger.Logger

	services *ManagerServices
}

type ManagerServices struct {
	Telemetry TelemetryRecorder
	Terminal  SessionReaper
}

type Worker interface {
	Name() string
	Run(ctx context.Context) error
}

func NewManager(scheduler *Scheduler, cfg *config.Config, log logger.Logger, services *ManagerServices) *Manager {
	return &Manager{
		scheduler: scheduler,
		cfg:       cfg,
		log:       log,

		services: services,
	}
}

func (m *Manager) Start(ctx context.Context) {
	m.log.Info("worker: manager started")

	if m.services.Telemetry != nil {
		m.scheduler.RunByDuration(ctx, m.cfg.RecordInterval, &TelemetryRecordWorker{
			svc: m.services.Telemetry,
			log: m.log,
		})

		m.scheduler.RunDaily(ctx, DailySchedule{Hour: 2, Minute: 0}, &TelemetryCleanupWorker{
			svc:       m.services.Telemetry,
			retention: m.cfg.Retention,
			log:       m.log,
		})
	}

	if m.services.Terminal != nil {
		m.scheduler.RunByDuration(ctx, m.cfg.ReaperInterval, &SessionReaperWorker{
			svc: m.services.Terminal,
			now: time.Now,
			log: m.log,
		})
	}
}

// Wait returns once every worker loop has stopped.
func (m *Manager) Wait() {
	m.scheduler.Wait()
}
