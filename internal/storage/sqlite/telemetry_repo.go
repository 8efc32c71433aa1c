package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"lcars-core/internal/domain"
)

const maxRecent = 1000

type TelemetryRepository struct {
	db *sql.DB
}

func NewTelemetryRepository(db *sql.DB) domain.TelemetryRepository {
	return &TelemetryRepository{db: db}
}

func (r *TelemetryRepository) Insert(ctx context.Context, s *domain.TelemetrySample) error {
	payload, err := json.Marshal(s.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	query := `INSERT INTO telemetry_samples (recorded_at, cpu_usage, memory_percentage, storage_percentage, payload) VALUES (?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		s.RecordedAt.UnixMilli(), s.CPUUsage, s.MemoryPercentage, s.StoragePercentage, string(payload))
	if err != nil {
		return fmt.Errorf("failed to insert telemetry sample: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	s.ID = id

	return nil
}

// Recent returns up to limit samples, newest first.
func (r *TelemetryRepository) Recent(ctx context.Context, limit int) ([]domain.TelemetrySample, error) {
	if limit <= 0 || limit > maxRecent {
		limit = maxRecent
	}

	query := `SELECT id, recorded_at, cpu_usage, memory_percentage, storage_percentage, payload
	FROM telemetry_samples ORDER BY recorded_at DESC, id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query telemetry samples: %w", err)
	}
	defer rows.Close()

	samples := []domain.TelemetrySample{}
	for rows.Next() {
		var (
			s          domain.TelemetrySample
			recordedAt int64
			payload    string
		)
		if err := rows.Scan(&s.ID, &recordedAt, &s.CPUUsage, &s.MemoryPercentage, &s.StoragePercentage, &payload); err != nil {
			return nil, err
		}
		s.RecordedAt = time.UnixMilli(recordedAt)
		if err := json.Unmarshal([]byte(payload), &s.Snapshot); err != nil {
			return nil, fmt.Errorf("failed to decode sample %d: %w", s.ID, err)
		}
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

func (r *TelemetryRepository) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	query := `DELETE FROM telemetry_samples WHERE recorded_at < ?`

	result, err := r.db.ExecContext(ctx, query, t.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to execute delete query: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to retrieve affected rows: %w", err)
	}

	return rowsAffected, nil
}
