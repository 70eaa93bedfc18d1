package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/voiceforge/voiceforge-api/internal/core"
	"github.com/voiceforge/voiceforge-api/internal/store"
)

// ErrUnknownPlan indicates a plan switch to an unrecognized tier.
var ErrUnknownPlan = errors.New("unknown plan")

// PlanInfo reports a user's tier and effective daily limit.
type PlanInfo struct {
	Plan       core.Plan `json:"plan"`
	DailyLimit int       `json:"daily_limit"`
}

// PlanInfo resolves the user's current plan. Users without a profile row are
// on the free tier.
func (s *Service) PlanInfo(ctx context.Context, userID string) (*PlanInfo, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrProfileNotFound) {
			return &PlanInfo{
				Plan:       core.PlanFree,
				DailyLimit: core.DefaultDailyLimit,
			}, nil
		}

		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	return &PlanInfo{
		Plan:       profile.Plan,
		DailyLimit: profile.DailyLimit(),
	}, nil
}

// SwitchPlan moves the user to a new tier. Any per-user limit override is
// cleared so the tier default takes effect immediately.
func (s *Service) SwitchPlan(ctx context.Context, userID string, plan core.Plan) (*PlanInfo, error) {
	if !core.ValidPlan(plan) {
		return nil, fmt.Errorf("%w: %w: %q", core.ErrValidation, ErrUnknownPlan, plan)
	}

	now := s.now().UTC()

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrProfileNotFound) {
			return nil, fmt.Errorf("failed to read profile: %w", err)
		}

		profile = &core.Profile{
			ID:                   uuid.NewString(),
			UserID:               userID,
			Plan:                 plan,
			DailyGenerationLimit: 0,
			GenerationCount:      0,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
	}

	profile.Plan = plan
	profile.DailyGenerationLimit = 0
	profile.UpdatedAt = now

	upsertErr := s.profiles.UpsertProfile(ctx, profile)
	if upsertErr != nil {
		return nil, fmt.Errorf("failed to update plan: %w", upsertErr)
	}

	return &PlanInfo{
		Plan:       profile.Plan,
		DailyLimit: profile.DailyLimit(),
	}, nil
}
