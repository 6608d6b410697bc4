package account

import (
	"context"
	"fmt"
	"time"

	"github.com/websies/platform/internal/referral"
	"go.uber.org/zap"
)

type Service struct {
	provider  AuthProvider
	repo      Repository
	referrals *referral.Service
	logger    *zap.Logger
}

func NewService(provider AuthProvider, repo Repository, referrals *referral.Service, logger *zap.Logger) *Service {
	return &Service{
		provider:  provider,
		repo:      repo,
		referrals: referrals,
		logger:    logger,
	}
}

// SignUp registers the user with the external provider, then creates the
// first-party profile and, when a referral code came along, the pending
// referral. Profile and referral failures are logged but do not fail the
// signup: the provider-side account already exists at that point.
func (s *Service) SignUp(ctx context.Context, req SignupRequest) (*Profile, error) {
	if req.Email == "" {
		return nil, ErrEmailRequired
	}
	if req.Password == "" {
		return nil, ErrPasswordRequired
	}

	userID, err := s.provider.SignUp(ctx, req.Email, req.Password, map[string]string{
		"full_name":     req.FullName,
		"referral_code": req.ReferralCode,
	})
	if err != nil {
		return nil, fmt.Errorf("signup failed: %w", err)
	}

	profile := &Profile{
		UserID:       userID,
		Email:        req.Email,
		FullName:     req.FullName,
		ReferralCode: newReferralCode(),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.InsertProfile(ctx, profile); err != nil {
		s.logger.Error("failed to create profile", zap.Error(err), zap.String("user_id", userID))
	}

	if req.ReferralCode != "" {
		if err := s.referrals.Attach(ctx, req.ReferralCode, userID); err != nil {
			s.logger.Warn("failed to attach referral",
				zap.Error(err),
				zap.String("user_id", userID),
				zap.String("code", req.ReferralCode),
			)
		}
	}

	s.logger.Info("User signed up", zap.String("user_id", userID))
	return profile, nil
}

func (s *Service) SignOut(ctx context.Context, token string) error {
	if err := s.provider.SignOut(ctx, token); err != nil {
		s.logger.Error("failed to sign out", zap.Error(err))
		return err
	}
	return nil
}
