package collect

import (
	"context"
	"fmt"

	"github.com/websies/platform/pkg/postgres"
	"go.uber.org/zap"
)

type Repository interface {
	InsertEvents(ctx context.Context, events []*PersistedEvent) error
	UpsertSession(ctx context.Context, session *SessionRecord) error
}

type repository struct {
	db     *postgres.DB
	logger *zap.Logger
}

func NewRepository(db *postgres.DB, logger *zap.Logger) Repository {
	return &repository{
		db:     db,
		logger: logger,
	}
}

// InsertEvents writes all rows of a batch in one transaction. The batch is
// all-or-nothing: a failed row fails the whole insert.
func (r *repository) InsertEvents(ctx context.Context, events []*PersistedEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Намеренно игнорирую ошибку

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO analytics_events (id, site_id, session_id, event_name, path, referrer, country, ua_hash, props, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, event := range events {
		_, err := stmt.ExecContext(
			ctx,
			event.ID,
			event.SiteID,
			event.SessionID,
			event.EventName,
			event.Path,
			event.Referrer,
			event.Country,
			event.UAHash,
			event.Props,
			event.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Debug("Events inserted",
		zap.Int("count", len(events)),
		zap.String("site_id", events[0].SiteID),
	)

	return nil
}

func (r *repository) UpsertSession(ctx context.Context, session *SessionRecord) error {
	query := `
		INSERT INTO analytics_sessions (session_id, site_id, country, last_seen)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id, site_id)
		DO UPDATE SET
			country = EXCLUDED.country,
			last_seen = EXCLUDED.last_seen
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		session.SessionID,
		session.SiteID,
		session.Country,
		session.LastSeen,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	return nil
}
