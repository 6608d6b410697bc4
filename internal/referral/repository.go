package referral

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/websies/platform/pkg/postgres"
	"go.uber.org/zap"
)

type Repository interface {
	Insert(ctx context.Context, ref *Referral) error
	ListByReferrer(ctx context.Context, referrerID string) ([]*Referral, error)
	FindReferrerByCode(ctx context.Context, code string) (string, error)
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

func (r *repository) Insert(ctx context.Context, ref *Referral) error {
	query := `
		INSERT INTO referrals (id, referrer_id, referred_id, status, commission_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		ref.ID,
		ref.ReferrerID,
		ref.ReferredID,
		ref.Status,
		ref.CommissionAmount,
		ref.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert referral: %w", err)
	}

	r.logger.Debug("Referral created",
		zap.String("referral_id", ref.ID.String()),
		zap.String("referrer_id", ref.ReferrerID),
	)

	return nil
}

func (r *repository) ListByReferrer(ctx context.Context, referrerID string) ([]*Referral, error) {
	query := `
		SELECT id, referrer_id, referred_id, status, commission_amount, created_at
		FROM referrals
		WHERE referrer_id = $1
		ORDER BY created_at DESC
	`

	var refs []*Referral
	if err := r.db.SelectContext(ctx, &refs, query, referrerID); err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}

	return refs, nil
}

// FindReferrerByCode resolves a referral code to the owning user.
func (r *repository) FindReferrerByCode(ctx context.Context, code string) (string, error) {
	query := `
		SELECT user_id
		FROM user_profiles
		WHERE referral_code = $1
	`

	var userID string
	err := r.db.GetContext(ctx, &userID, query, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrCodeNotFound
		}
		return "", fmt.Errorf("failed to look up referral code: %w", err)
	}

	return userID, nil
}
