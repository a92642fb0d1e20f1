package health

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func TestReady_AggregatesChecks(t *testing.T) {
	tests := []struct {
		name       string
		transport  error
		cache      error
		wantReady  bool
		wantStatus Status
	}{
		{"all healthy", nil, nil, true, StatusHealthy},
		{"optional cache down", nil, errors.New("redis down"), true, StatusDegraded},
		{"transport down", errors.New("nats down"), nil, false, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService("test", zap.NewNop())
			s.RegisterPing("transport", false, func(ctx context.Context) error { return tt.transport })
			s.RegisterPing("cache", true, func(ctx context.Context) error { return tt.cache })

			resp := s.Ready(context.Background())

			if resp.Ready != tt.wantReady || resp.Status != tt.wantStatus {
				t.Errorf("expected ready=%v status=%s, got ready=%v status=%s", tt.wantReady, tt.wantStatus, resp.Ready, resp.Status)
			}
			if len(resp.Checks) != 2 {
				t.Errorf("expected 2 checks, got %d", len(resp.Checks))
			}
		})
	}
}

func TestFiberHandler_ReadyStatusCode(t *testing.T) {
	s := NewService("test", zap.NewNop())
	s.RegisterPing("transport", false, func(ctx context.Context) error { return errors.New("down") })
	app := fiber.New()
	NewFiberHandler(s).RegisterRoutes(app)

	resp, err := app.Test(httptest.NewRequest("GET", "/ready", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/health", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected liveness 200, got %d", resp.StatusCode)
	}
}
