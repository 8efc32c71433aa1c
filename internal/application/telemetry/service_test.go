package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lcars-core/internal/domain"
	"lcars-core/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCollector struct{ cpu float64 }

func (c fixedCollector) Light(ctx context.Context) domain.DynamicSnapshot {
	return domain.DynamicSnapshot{CPUUsage: c.cpu, CollectedAt: time.Now()}
}

type memRepo struct {
	mu        sync.Mutex
	samples   []domain.TelemetrySample
	insertErr error
	cutoff    time.Time
}

func (r *memRepo) Insert(ctx context.Context, s *domain.TelemetrySample) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = int64(len(r.samples) + 1)
	r.samples = append(r.samples, *s)
	return nil
}

func (r *memRepo) Recent(ctx context.Context, limit int) ([]domain.TelemetrySample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.TelemetrySample(nil), r.samples...), nil
}

func (r *memRepo) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	r.cutoff = t
	return 3, nil
}

type capture struct {
	mu       sync.Mutex
	channels []string
}

func (c *capture) Publish(channel string, payload any) {
	c.mu.Lock()
	c.channels = append(c.channels, channel)
	c.mu.Unlock()
}

func TestService_Record(t *testing.T) {
	repo := &memRepo{}
	pub := &capture{}
	svc := NewService(fixedCollector{cpu: 12.5}, repo, pub, logger.Nop())

	_, ok := svc.Latest()
	assert.False(t, ok)

	dyn, err := svc.Record(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12.5, dyn.CPUUsage)

	latest, ok := svc.Latest()
	assert.True(t, ok)
	assert.Equal(t, 12.5, latest.CPUUsage)
	assert.Equal(t, []string{domain.EventTelemetryUpdated}, pub.channels)

	history, err := svc.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 12.5, history[0].CPUUsage)
}

func TestService_RecordArchiveFailureStillPublishes(t *testing.T) {
	pub := &capture{}
	svc := NewService(fixedCollector{}, &memRepo{insertErr: errors.New("disk full")}, pub, logger.Nop())

	_, err := svc.Record(context.Background())
	assert.Error(t, err)
	assert.Len(t, pub.channels, 1)
}

func TestService_WithoutRepository(t *testing.T) {
	svc := NewService(fixedCollector{}, nil, nil, logger.Nop())

	_, err := svc.Record(context.Background())
	require.NoError(t, err)

	history, err := svc.History(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)

	n, err := svc.Cleanup(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestService_Cleanup(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(fixedCollector{}, repo, nil, logger.Nop())

	n, err := svc.Cleanup(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.WithinDuration(t, time.Now().Add(-24*time.Hour), repo.cutoff, time.Minute)
}
