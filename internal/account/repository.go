package account

import (
	"context"
	"fmt"

	"github.com/websies/platform/pkg/postgres"
	"go.uber.org/zap"
)

type Repository interface {
	InsertProfile(ctx context.Context, profile *Profile) error
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

func (r *repository) InsertProfile(ctx context.Context, profile *Profile) error {
	query := `
		INSERT INTO user_profiles (user_id, email, full_name, referral_code, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		profile.UserID,
		profile.Email,
		profile.FullName,
		profile.ReferralCode,
		profile.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}

	r.logger.Debug("Profile created", zap.String("user_id", profile.UserID))
	return nil
}
