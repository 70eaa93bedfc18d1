package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/voiceforge/voiceforge-api/internal/core"
	"github.com/voiceforge/voiceforge-api/internal/store"
)

// QuotaWindow is the trailing interval over which generations count against
// the daily limit.
const QuotaWindow = 24 * time.Hour

// QuotaStatus reports the user's current consumption against their limit.
type QuotaStatus struct {
	Used      int  `json:"used"`
	Limit     int  `json:"limit"`
	Remaining int  `json:"remaining"`
	IsAtLimit bool `json:"is_at_limit"`
}

// QuotaStatus computes the user's rolling-window usage. The limit is the
// profile's explicit override when set, otherwise the tier default; users
// without a profile row get the free tier default. Usage is derived by
// counting generation rows with created_at >= now-24h, not by reading the
// running counter.
func (s *Service) QuotaStatus(ctx context.Context, userID string) (*QuotaStatus, error) {
	limit := core.DefaultDailyLimit

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrProfileNotFound) {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	if profile != nil {
		limit = profile.DailyLimit()
	}

	since := s.now().Add(-QuotaWindow)

	used, err := s.generations.CountGenerationsSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count generations: %w", err)
	}

	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	return &QuotaStatus{
		Used:      used,
		Limit:     limit,
		Remaining: remaining,
		IsAtLimit: used >= limit,
	}, nil
}

// checkQuota admits or rejects a generation attempt. There is no reservation
// or locking: concurrent requests may both pass the check, and the resulting
// small overshoot is accepted rather than serialized away.
func (s *Service) checkQuota(ctx context.Context, userID string) error {
	status, err := s.QuotaStatus(ctx, userID)
	if err != nil {
		return err
	}

	if status.IsAtLimit {
		return &core.QuotaExceededError{
			Used:  status.Used,
			Limit: status.Limit,
		}
	}

	return nil
}
