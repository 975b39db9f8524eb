package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultDailyLimit is the daily request ceiling used when none is configured.
const DefaultDailyLimit = 10

// RateRepository persists per-user, per-day request counts.
type RateRepository interface {
	GetCount(ctx context.Context, userID int64, day string) (int, error)
	SaveCount(ctx context.Context, userID int64, day string, count int) error
}

// RateLimiter gates generation requests with a per-user daily counter.
//
// The check compares the stored count with "greater than" the ceiling, so a user
// gets ceiling+1 requests per day. Allow reads and then writes the counter without
// a lock across both calls: two concurrent requests of the same user may record
// the same count. The bot processes one message at a time, so this gap is accepted.
type RateLimiter struct {
	repo       RateRepository
	dailyLimit int
	now        func() time.Time // Process clock, local calendar date
}

// NewRateLimiter creates a RateLimiter; a non-positive limit falls back to DefaultDailyLimit.
func NewRateLimiter(repo RateRepository, dailyLimit int) *RateLimiter {
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyLimit
	}
	return &RateLimiter{
		repo:       repo,
		dailyLimit: dailyLimit,
		now:        time.Now,
	}
}

// today returns the storage key of the current local calendar day.
func (r *RateLimiter) today() string {
	return r.now().Format("2006-01-02")
}

// CurrentCount returns today's count for the user, 0 if there is no record.
func (r *RateLimiter) CurrentCount(ctx context.Context, userID int64) (int, error) {
	count, err := r.repo.GetCount(ctx, userID, r.today())
	if err != nil {
		return 0, fmt.Errorf("get rate count: %w", err)
	}
	return count, nil
}

// RecordRequest stores count as today's value, replacing any previous one.
func (r *RateLimiter) RecordRequest(ctx context.Context, userID int64, count int) error {
	if err := r.repo.SaveCount(ctx, userID, r.today(), count); err != nil {
		return fmt.Errorf("save rate count: %w", err)
	}
	return nil
}

// Allow checks the user's daily quota and, when the request is accepted, records it.
// It returns ErrQuotaExceeded without touching the counter when count > ceiling.
// A storage read failure lets the request through without recording it.
func (r *RateLimiter) Allow(ctx context.Context, userID int64) error {
	count, err := r.CurrentCount(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Rate limit read failed, request allowed")
		return nil
	}

	if count > r.dailyLimit {
		logrus.WithField("user_id", userID).Infof("Daily quota exceeded: %d/%d", count, r.dailyLimit)
		return ErrQuotaExceeded
	}

	if err = r.RecordRequest(ctx, userID, count+1); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Rate limit write failed")
	}
	return nil
}
