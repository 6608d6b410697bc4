package rollup

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type Repository interface {
	Upsert(ctx context.Context, rollup *Rollup) error
	GetRange(ctx context.Context, siteID string, from, to time.Time) ([]*Rollup, error)
}

type repository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewRepository(db *sqlx.DB, logger *zap.Logger) Repository {
	return &repository{
		db:     db,
		logger: logger,
	}
}

func (r *repository) Upsert(ctx context.Context, rollup *Rollup) error {
	query := `
		INSERT INTO analytics_rollups (date, hour, site_id, event_name, total_events, unique_sessions, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (date, hour, site_id, event_name)
		DO UPDATE SET
			total_events = analytics_rollups.total_events + EXCLUDED.total_events,
			unique_sessions = EXCLUDED.unique_sessions,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		rollup.Date,
		rollup.Hour,
		rollup.SiteID,
		rollup.EventName,
		rollup.TotalEvents,
		rollup.UniqueSessions,
		rollup.UpdatedAt,
	).Scan(&rollup.ID)

	if err != nil {
		r.logger.Error("Failed to upsert rollup", zap.Error(err))
		return fmt.Errorf("failed to upsert rollup: %w", err)
	}

	return nil
}

func (r *repository) GetRange(ctx context.Context, siteID string, from, to time.Time) ([]*Rollup, error) {
	query := `
		SELECT id, date, hour, site_id, event_name, total_events, unique_sessions, updated_at
		FROM analytics_rollups
		WHERE site_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, hour
	`

	var rollups []*Rollup
	if err := r.db.SelectContext(ctx, &rollups, query, siteID, from, to); err != nil {
		return nil, fmt.Errorf("failed to get rollups: %w", err)
	}

	return rollups, nil
}
