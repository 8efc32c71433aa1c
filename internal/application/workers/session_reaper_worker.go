package workers

import (
	"context"
	"time"

	"lcars-core/internal/logger"
)

type SessionReaper interface {
	ReapIdle(now time.Time) int
}

// SessionReaperWorker closes terminal sessions that went idle or whose shell
// already exited.
type SessionReaperWorker struct {
	svc SessionReaper
	now func() time.Time
	log logger.Logger
}

func (w *SessionReaperWorker) Name() string {
	return "terminal_session_reaper"
}

func (w *SessionReaperWorker) Run(ctx context.Context) error {
	if n := w.svc.ReapIdle(w.now()); n > 0 {
		w.log.Info("worker: terminal sessions reaped", "count", n)
	}
	return nil
}
