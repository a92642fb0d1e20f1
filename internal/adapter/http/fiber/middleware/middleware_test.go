package middleware

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/seu-repo/armvoice/pkg/config"
)

func signHS256(t *testing.T, secret, issuer string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   "dialogflow",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestWebhookAuth(t *testing.T) {
	app := fiber.New()
	app.Post("/hook", WebhookAuth("s3cr3t", "armvoice"), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("subject").(string))
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic abc", fiber.StatusUnauthorized},
		{"wrong secret", "Bearer " + signHS256(t, "other", "armvoice", time.Now().Add(time.Hour)), fiber.StatusUnauthorized},
		{"wrong issuer", "Bearer " + signHS256(t, "s3cr3t", "someone", time.Now().Add(time.Hour)), fiber.StatusUnauthorized},
		{"expired", "Bearer " + signHS256(t, "s3cr3t", "armvoice", time.Now().Add(-time.Hour)), fiber.StatusUnauthorized},
		{"valid", "Bearer " + signHS256(t, "s3cr3t", "armvoice", time.Now().Add(time.Hour)), fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/hook", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := app.Test(req)

			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("expected %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	// Arrange
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	cfg := config.CircuitBreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Hour, FailureThreshold: 2}
	app.Use(CircuitBreaker("test", cfg, zap.NewNop()))
	app.Get("/fail", func(c *fiber.Ctx) error {
		return errors.New("downstream exploded")
	})
	app.Get("/bad", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadRequest, "bad input")
	})

	// Client errors never trip the breaker.
	for i := 0; i < 3; i++ {
		resp, _ := app.Test(httptest.NewRequest("GET", "/bad", nil))
		if resp.StatusCode != fiber.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
	}

	// Act
	for i := 0; i < 2; i++ {
		resp, _ := app.Test(httptest.NewRequest("GET", "/fail", nil))
		if resp.StatusCode != fiber.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", resp.StatusCode)
		}
	}
	resp, err := app.Test(httptest.NewRequest("GET", "/bad", nil))

	// Assert
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("expected 503 once open, got %d", resp.StatusCode)
	}
}

func TestErrorHandler_UsesFiberCode(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "no such device")
	})

	resp, _ := app.Test(httptest.NewRequest("GET", "/missing", nil))

	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}
