package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DenisKhanov/DescGenBOT/internal/tg_bot/service"
)

type stubStats struct {
	stats service.DriverStats
}

func (s stubStats) Stats() service.DriverStats {
	return s.stats
}

func TestStatusHandler(t *testing.T) {
	handler := NewStatusHandler(stubStats{stats: service.DriverStats{
		Sessions:     3,
		JobsInFlight: 1,
		Chats:        service.ChatsSnapshot{Users: []int64{1, 2}},
	}}).Routes()

	tests := []struct {
		name   string
		path   string
		status int
		check  func(t *testing.T, body map[string]interface{})
	}{
		{
			name:   "health",
			path:   "/healthz",
			status: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				if body["status"] != "ok" {
					t.Errorf("unexpected body %v", body)
				}
			},
		},
		{
			name:   "stats",
			path:   "/stats",
			status: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				if body["sessions"] != float64(3) || body["jobs_in_flight"] != float64(1) {
					t.Errorf("unexpected body %v", body)
				}
				chats, ok := body["chats"].(map[string]interface{})
				if !ok || len(chats["users"].([]interface{})) != 2 {
					t.Errorf("unexpected chats %v", body["chats"])
				}
			},
		},
		{
			name:   "unknown",
			path:   "/nope",
			status: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, rec.Code)
			}
			if tt.check == nil {
				return
			}
			var body map[string]interface{}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			tt.check(t, body)
		})
	}
}
