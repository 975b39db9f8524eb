package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type memRateRepo struct {
	counts  map[string]int
	readErr error
	mu      sync.Mutex
}

func newMemRateRepo() *memRateRepo {
	return &memRateRepo{counts: make(map[string]int)}
}

func (m *memRateRepo) GetCount(_ context.Context, userID int64, day string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return 0, m.readErr
	}
	return m.counts[fmt.Sprintf("%d_%s", userID, day)], nil
}

func (m *memRateRepo) SaveCount(_ context.Context, userID int64, day string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[fmt.Sprintf("%d_%s", userID, day)] = count
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRateLimiter_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	limiter := NewRateLimiter(newMemRateRepo(), 10)
	limiter.now = fixedClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local))

	count, err := limiter.CurrentCount(ctx, 1)
	if err != nil {
		t.Fatalf("CurrentCount failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 for a fresh day, got %d", count)
	}

	if err = limiter.RecordRequest(ctx, 1, 5); err != nil {
		t.Fatalf("RecordRequest failed: %v", err)
	}
	if count, _ = limiter.CurrentCount(ctx, 1); count != 5 {
		t.Fatalf("expected 5, got %d", count)
	}
	if err = limiter.RecordRequest(ctx, 1, 5); err != nil {
		t.Fatalf("RecordRequest failed: %v", err)
	}
	if count, _ = limiter.CurrentCount(ctx, 1); count != 5 {
		t.Fatalf("expected replacement not addition, got %d", count)
	}
}

func TestRateLimiter_AllowsCeilingPlusOne(t *testing.T) {
	ctx := context.Background()
	limiter := NewRateLimiter(newMemRateRepo(), 10)
	limiter.now = fixedClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local))

	for i := 1; i <= 11; i++ {
		if err := limiter.Allow(ctx, 7); err != nil {
			t.Fatalf("request %d: expected to be allowed, got %v", i, err)
		}
	}
	if err := limiter.Allow(ctx, 7); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("request 12: expected ErrQuotaExceeded, got %v", err)
	}

	count, _ := limiter.CurrentCount(ctx, 7)
	if count != 11 {
		t.Errorf("rejected request must not touch the counter, got %d", count)
	}

	// Квота другого пользователя не затронута
	if err := limiter.Allow(ctx, 8); err != nil {
		t.Errorf("other user should be allowed, got %v", err)
	}
}

func TestRateLimiter_NewDayStartsOver(t *testing.T) {
	ctx := context.Background()
	repo := newMemRateRepo()
	limiter := NewRateLimiter(repo, 1)
	limiter.now = fixedClock(time.Date(2024, 3, 1, 23, 59, 0, 0, time.Local))

	_ = limiter.Allow(ctx, 1)
	_ = limiter.Allow(ctx, 1)
	if err := limiter.Allow(ctx, 1); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected quota exceeded, got %v", err)
	}

	limiter.now = fixedClock(time.Date(2024, 3, 2, 0, 1, 0, 0, time.Local))
	if err := limiter.Allow(ctx, 1); err != nil {
		t.Fatalf("expected new day to be allowed, got %v", err)
	}
}

func TestRateLimiter_ReadFailureAllows(t *testing.T) {
	repo := newMemRateRepo()
	repo.readErr = errors.New("disk gone")
	limiter := NewRateLimiter(repo, 10)

	if err := limiter.Allow(context.Background(), 1); err != nil {
		t.Fatalf("expected fail-open, got %v", err)
	}
	if len(repo.counts) != 0 {
		t.Errorf("expected no write after a failed read, got %v", repo.counts)
	}
}

func TestNewRateLimiter_DefaultLimit(t *testing.T) {
	limiter := NewRateLimiter(newMemRateRepo(), 0)
	if limiter.dailyLimit != DefaultDailyLimit {
		t.Errorf("expected default limit %d, got %d", DefaultDailyLimit, limiter.dailyLimit)
	}
}
