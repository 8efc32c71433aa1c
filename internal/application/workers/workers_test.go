package workers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"lcars-core/internal/config"
	"lcars-core/internal/domain"
	"lcars-core/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	records   atomic.Int32
	recordErr error

	mu        sync.Mutex
	retention time.Duration
}

func (f *fakeRecorder) Record(ctx context.Context) (domain.DynamicSnapshot, error) {
	f.records.Add(1)
	return domain.DynamicSnapshot{Source: "fake"}, f.recordErr
}

func (f *fakeRecorder) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	f.mu.Lock()
	f.retention = retention
	f.mu.Unlock()
	return 2, nil
}

type fakeReaper struct {
	calls atomic.Int32
}

func (f *fakeReaper) ReapIdle(now time.Time) int {
	f.calls.Add(1)
	return 1
}

func TestScheduler_RunByDuration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(logger.Nop())
	rec := &fakeRecorder{recordErr: errors.New("boom")}

	s.RunByDuration(ctx, 10*time.Millisecond, &TelemetryRecordWorker{svc: rec, log: logger.Nop()})

	require.Eventually(t, func() bool { return rec.records.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	s.Wait()

	after := rec.records.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, rec.records.Load())
}

func TestScheduler_DisabledInterval(t *testing.T) {
	s := NewScheduler(logger.Nop())
	rec := &fakeRecorder{}

	s.RunByDuration(context.Background(), 0, &TelemetryRecordWorker{svc: rec, log: logger.Nop()})
	s.Wait()

	assert.Zero(t, rec.records.Load())
}

func TestNextDaily(t *testing.T) {
	loc := time.UTC
	at := DailySchedule{Hour: 2, Minute: 0}

	before := time.Date(2026, 5, 10, 1, 30, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 5, 10, 2, 0, 0, 0, loc), nextDaily(before, at))

	after := time.Date(2026, 5, 10, 2, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 5, 11, 2, 0, 0, 0, loc), nextDaily(after, at))
}

func TestTelemetryCleanupWorker(t *testing.T) {
	rec := &fakeRecorder{}
	w := &TelemetryCleanupWorker{svc: rec, retention: 48 * time.Hour, log: logger.Nop()}

	require.NoError(t, w.Run(context.Background()))
	assert.Equal(t, 48*time.Hour, rec.retention)
	assert.Equal(t, "telemetry_cleanup", w.Name())
}

func TestManager_Start(t *testing.T) {
	cfg := config.Default()
	cfg.RecordInterval = 5 * time.Millisecond
	cfg.ReaperInterval = 5 * time.Millisecond

	rec := &fakeRecorder{}
	reaper := &fakeReaper{}

	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(NewScheduler(logger.Nop()), cfg, logger.Nop(), &ManagerServices{
		Telemetry: rec,
		Terminal:  reaper,
	})
	m.Start(ctx)

	require.Eventually(t, func() bool {
		return rec.records.Load() > 0 && reaper.calls.Load() > 0
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	m.Wait()
}
