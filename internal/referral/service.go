package referral

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type Service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Attach records a pending referral for the user who owns code. Called on
// signup when the new user arrived with a referral code.
func (s *Service) Attach(ctx context.Context, code, referredID string) error {
	referrerID, err := s.repo.FindReferrerByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to resolve referral code: %w", err)
	}

	if referrerID == referredID {
		return ErrSelfReferral
	}

	ref := NewReferral(referrerID, referredID)
	if err := s.repo.Insert(ctx, ref); err != nil {
		return fmt.Errorf("failed to attach referral: %w", err)
	}

	s.logger.Info("Referral attached",
		zap.String("referrer_id", referrerID),
		zap.String("referred_id", referredID),
	)

	return nil
}

func (s *Service) List(ctx context.Context, referrerID string) ([]*Referral, error) {
	refs, err := s.repo.ListByReferrer(ctx, referrerID)
	if err != nil {
		s.logger.Error("failed to list referrals", zap.Error(err), zap.String("referrer_id", referrerID))
		return nil, err
	}
	return refs, nil
}

// Stats aggregates the referrer's dashboard numbers: totals plus pending
// and paid commission sums.
func (s *Service) Stats(ctx context.Context, referrerID string) (*Stats, error) {
	refs, err := s.repo.ListByReferrer(ctx, referrerID)
	if err != nil {
		s.logger.Error("failed to load referral stats", zap.Error(err), zap.String("referrer_id", referrerID))
		return nil, err
	}

	stats := &Stats{TotalReferrals: len(refs)}
	for _, ref := range refs {
		switch ref.Status {
		case StatusActive:
			stats.ActiveReferrals++
		case StatusPending:
			stats.PendingCommission += ref.Commission()
		case StatusPaid:
			stats.PaidCommission += ref.Commission()
		}
	}

	return stats, nil
}
