// Package telemetry records light snapshots on a schedule, keeps the latest in
// memory and archives the series.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"lcars-core/internal/domain"
	"lcars-core/internal/logger"
	"lcars-core/internal/storage/snapshot"
)

// Collector is the part of the aggregator the recorder needs.
type Collector interface {
	Light(ctx context.Context) domain.DynamicSnapshot
}

type Service struct {
	collector Collector
	repo      domain.TelemetryRepository
	pub       domain.Publisher
	log       logger.Logger

	latest snapshot.Store[domain.DynamicSnapshot]
}

// NewService builds a recorder. repo may be nil, in which case samples are
// published but not archived.
func NewService(collector Collector, repo domain.TelemetryRepository, pub domain.Publisher, log logger.Logger) *Service {
	if pub == nil {
		pub = domain.NopPublisher{}
	}
	return &Service{
		collector: collector,
		repo:      repo,
		pub:       pub,
		log:       log,
	}
}

// Record takes one light snapshot, stores it and pushes telemetry-updated.
func (s *Service) Record(ctx context.Context) (domain.DynamicSnapshot, error) {
	dyn := s.collector.Light(ctx)
	s.latest.Set(dyn)
	s.pub.Publish(domain.EventTelemetryUpdated, dyn)

	if s.repo == nil {
		return dyn, nil
	}

	sample := domain.NewTelemetrySample(dyn)
	if err := s.repo.Insert(ctx, &sample); err != nil {
		return dyn, fmt.Errorf("failed to archive sample: %w", err)
	}

	return dyn, nil
}

func (s *Service) Latest() (domain.DynamicSnapshot, bool) {
	return s.latest.Get()
}

// History returns archived samples, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]domain.TelemetrySample, error) {
	if s.repo == nil {
		return []domain.TelemetrySample{}, nil
	}
	return s.repo.Recent(ctx, limit)
}

// Cleanup drops samples older than retention.
func (s *Service) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	if s.repo == nil || retention <= 0 {
		return 0, nil
	}

	n, err := s.repo.DeleteBefore(ctx, time.Now().Add(-retention))
	if err != nil {
		return 0, err
	}

	s.log.Debug("telemetry: archive trimmed", "deleted", n, "retention", retention)
	return n, nil
}
