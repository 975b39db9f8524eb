package tbot

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DenisKhanov/DescGenBOT/internal/tg_bot/config"
	"github.com/DenisKhanov/DescGenBOT/internal/tg_bot/repository"
)

func TestRateStoreSelection(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		storage string
		check   func(t *testing.T, store interface{})
	}{
		{
			name:    "file",
			storage: config.RateStorageFile,
			check: func(t *testing.T, store interface{}) {
				if _, ok := store.(*repository.FileRateRepository); !ok {
					t.Errorf("expected *repository.FileRateRepository, got %T", store)
				}
			},
		},
		{
			name:    "sqlite",
			storage: config.RateStorageSQLite,
			check: func(t *testing.T, store interface{}) {
				if _, ok := store.(*repository.SQLiteRateRepository); !ok {
					t.Errorf("expected *repository.SQLiteRateRepository, got %T", store)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := NewServiceProvider(&config.Config{
				EnvRateStorage:     tt.storage,
				EnvRateLimitsPath:  filepath.Join(dir, tt.name, "limits"),
				EnvRateDBPath:      filepath.Join(dir, tt.name, "rate.db"),
				EnvRateLimitPerDay: 10,
			})
			defer provider.Close()

			store, err := provider.RateStore()
			if err != nil {
				t.Fatalf("RateStore failed: %v", err)
			}
			tt.check(t, store)

			limiter, err := provider.RateLimiter()
			if err != nil {
				t.Fatalf("RateLimiter failed: %v", err)
			}
			if err = limiter.Allow(context.Background(), 42); err != nil {
				t.Fatalf("first request rejected: %v", err)
			}
			count, err := limiter.CurrentCount(context.Background(), 42)
			if err != nil || count != 1 {
				t.Errorf("expected count 1, got %d (err %v)", count, err)
			}
		})
	}
}

func TestStatusServerDisabled(t *testing.T) {
	provider := NewServiceProvider(&config.Config{})
	if server := provider.StatusServer(nil); server != nil {
		t.Error("expected no status server without STATUS_SERVER_ADDR")
	}
}

func TestGenerativeServiceError(t *testing.T) {
	provider := NewServiceProvider(&config.Config{EnvGenerativeName: "unknown"})
	if _, err := provider.GenerativeService(); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := provider.Composer(); err == nil {
		t.Error("expected composer error when the backend is missing")
	}
}

func TestSessionStoreIsShared(t *testing.T) {
	provider := NewServiceProvider(&config.Config{})
	if provider.SessionStore() != provider.SessionStore() {
		t.Error("expected one session store per provider")
	}
}

func TestAnalysisStores(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "5"), []byte("Риелтор"), 0644); err != nil {
		t.Fatalf("write context: %v", err)
	}
	postsPath := filepath.Join(dir, "user_posts", "data.txt")
	provider := NewServiceProvider(&config.Config{EnvPostsLogFile: postsPath, EnvUserDataPath: dir})

	if err := provider.PostJournal().Record(5, "Продается квартира"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	provider.Close()

	data, err := os.ReadFile(postsPath)
	if err != nil || !strings.Contains(string(data), "5\nПродается квартира") {
		t.Errorf("unexpected journal %q (err %v)", data, err)
	}
	if got, err := provider.UserContexts().Load(5); err != nil || got != "Риелтор" {
		t.Errorf("Load(5) = %q, %v", got, err)
	}
}
