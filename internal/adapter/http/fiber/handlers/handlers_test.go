package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/armvoice/internal/domain"
	"github.com/seu-repo/armvoice/internal/mocks"
	"github.com/seu-repo/armvoice/internal/ports"
	"github.com/seu-repo/armvoice/internal/service/conversation"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func decode(t *testing.T, body io.Reader, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func webhookBody(intent string, params map[string]interface{}) string {
	b, _ := json.Marshal(map[string]interface{}{
		"responseId": "r-1",
		"session":    "projects/arm/agent/sessions/abc-123",
		"queryResult": map[string]interface{}{
			"queryText":    "move the elbow",
			"parameters":   params,
			"languageCode": "en-US",
			"intent":       map[string]string{"displayName": intent},
		},
	})
	return string(b)
}

func newFulfillmentApp(channel *mocks.MockDeviceChannel, renderer ports.Renderer, audit ports.CommandLogRepository) *fiber.App {
	log := newTestLogger()
	router := conversation.NewRouter(channel, log)
	h := NewFulfillmentHandler(router, renderer, audit, "arm-1", log)

	app := fiber.New()
	app.Post("/api/v1/fulfillment", h.Handle)
	return app
}

func postWebhook(t *testing.T, app *fiber.App, body string) *WebhookResponse {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/fulfillment", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out WebhookResponse
	decode(t, resp.Body, &out)
	return &out
}

func TestFulfillment_MoveDeliversAndAnswers(t *testing.T) {
	// Arrange
	channel := mocks.NewMockDeviceChannel()
	audit := &mocks.MockCommandLogRepository{}
	renderer := &mocks.MockRenderer{
		RenderFunc: func(locale string, key domain.MessageKey, params map[string]interface{}) (string, error) {
			return locale + ":" + string(key) + ":" + params[domain.ParamDegree].(string), nil
		},
	}
	app := newFulfillmentApp(channel, renderer, audit)

	// Act
	out := postWebhook(t, app, webhookBody("arm.move", map[string]interface{}{
		"direction": "elbow-negative",
		"angle":     45,
	}))

	// Assert
	if out.FulfillmentText != "en-US:ARM.MOVE:elbow" {
		t.Errorf("unexpected text %q", out.FulfillmentText)
	}
	if !out.Payload.Google.ExpectUserResponse {
		t.Error("conversation should stay open")
	}
	items := out.Payload.Google.RichResponse.Items
	if len(items) != 1 || items[0].SimpleResponse.TextToSpeech != out.FulfillmentText {
		t.Errorf("unexpected rich response %+v", items)
	}

	sent := channel.Conn.SentCommands()
	if len(sent) != 1 || sent[0]["moveelbow"] != "-45" {
		t.Fatalf("unexpected commands %v", sent)
	}

	entries := audit.SavedEntries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	if entries[0].SessionID != "abc-123" || entries[0].OutcomeKey != "ARM.MOVE" || entries[0].DeviceID != "arm-1" {
		t.Errorf("unexpected audit entry %+v", entries[0])
	}
	if entries[0].Payload != `{"moveelbow":"-45"}` {
		t.Errorf("unexpected audit payload %q", entries[0].Payload)
	}
}

func TestFulfillment_AngleErrorIsSpokenNotHTTPError(t *testing.T) {
	channel := mocks.NewMockDeviceChannel()
	app := newFulfillmentApp(channel, &mocks.MockRenderer{}, nil)

	out := postWebhook(t, app, webhookBody("arm.set", map[string]interface{}{
		"servo": "base",
		"angle": 200,
	}))

	if out.FulfillmentText != "ANGLE_ERROR" {
		t.Errorf("expected ANGLE_ERROR, got %q", out.FulfillmentText)
	}
	if n := len(channel.Conn.SentCommands()); n != 0 {
		t.Errorf("expected no delivery, got %d", n)
	}
}

func TestFulfillment_UnknownIntentFallsBack(t *testing.T) {
	app := newFulfillmentApp(mocks.NewMockDeviceChannel(), &mocks.MockRenderer{}, nil)

	out := postWebhook(t, app, webhookBody("weather.today", nil))

	if out.FulfillmentText != "FALLBACK" {
		t.Errorf("expected FALLBACK, got %q", out.FulfillmentText)
	}
}

func TestFulfillment_RendererFailureUsesKey(t *testing.T) {
	renderer := &mocks.MockRenderer{
		RenderFunc: func(string, domain.MessageKey, map[string]interface{}) (string, error) {
			return "", errors.New("template broken")
		},
	}
	app := newFulfillmentApp(mocks.NewMockDeviceChannel(), renderer, nil)

	out := postWebhook(t, app, webhookBody("grip.open", nil))

	if out.FulfillmentText != "GRIP.OPEN" {
		t.Errorf("expected raw key, got %q", out.FulfillmentText)
	}
}

func TestFulfillment_AuditFailureDoesNotBreakTurn(t *testing.T) {
	audit := &mocks.MockCommandLogRepository{
		SaveFunc: func(context.Context, *domain.CommandLog) error { return errors.New("db down") },
	}
	app := newFulfillmentApp(mocks.NewMockDeviceChannel(), &mocks.MockRenderer{}, audit)

	out := postWebhook(t, app, webhookBody("Default Welcome Intent", nil))

	if out.FulfillmentText != "WELCOME" {
		t.Errorf("expected WELCOME, got %q", out.FulfillmentText)
	}
}

func TestFulfillment_BadRequests(t *testing.T) {
	app := newFulfillmentApp(mocks.NewMockDeviceChannel(), &mocks.MockRenderer{}, nil)

	for name, body := range map[string]string{
		"not json":       "{",
		"missing intent": `{"queryResult":{"parameters":{}}}`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/fulfillment", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)

			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != fiber.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestSessionID(t *testing.T) {
	if got := sessionID("projects/p/agent/sessions/xyz"); got != "xyz" {
		t.Errorf("got %q", got)
	}
	if got := sessionID("plain"); got != "plain" {
		t.Errorf("got %q", got)
	}
}

func newArmApp(channel *mocks.MockDeviceChannel) *fiber.App {
	h := NewArmHandler(channel, newTestLogger())
	app := fiber.New()
	app.Put("/api/v1/arm/:servo/:value", h.Set)
	return app
}

func putArm(t *testing.T, app *fiber.App, path string) (int, ArmResponse) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("PUT", path, nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var out ArmResponse
	decode(t, resp.Body, &out)
	return resp.StatusCode, out
}

func TestArm_Set(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		want   domain.DeviceCommand
	}{
		{"elbow", "/api/v1/arm/elbow/90", fiber.StatusOK, domain.DeviceCommand{"elbow": "90"}},
		{"zero is valid", "/api/v1/arm/base/0", fiber.StatusOK, domain.DeviceCommand{"base": "0"}},
		{"grip opens on positive", "/api/v1/arm/grip/1", fiber.StatusOK, domain.DeviceCommand{"grip": "open"}},
		{"grip closes on zero", "/api/v1/arm/grip/0", fiber.StatusOK, domain.DeviceCommand{"grip": "close"}},
		{"out of range", "/api/v1/arm/shoulder/181", fiber.StatusBadRequest, nil},
		{"negative", "/api/v1/arm/shoulder/-1", fiber.StatusBadRequest, nil},
		{"not a number", "/api/v1/arm/shoulder/abc", fiber.StatusBadRequest, nil},
		{"unknown servo", "/api/v1/arm/wrist/10", fiber.StatusNotFound, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			channel := mocks.NewMockDeviceChannel()
			app := newArmApp(channel)

			status, out := putArm(t, app, tt.path)

			if status != tt.status {
				t.Fatalf("expected %d, got %d (%+v)", tt.status, status, out)
			}
			sent := channel.Conn.SentCommands()
			if tt.want == nil {
				if out.Message != "error" || len(sent) != 0 {
					t.Errorf("expected error with no delivery, got %+v / %v", out, sent)
				}
				return
			}
			if out.Message != "ok" {
				t.Errorf("expected ok, got %+v", out)
			}
			if len(sent) != 1 || sent[0].Key() != tt.want.Key() || sent[0].Value() != tt.want.Value() {
				t.Errorf("expected %v, got %v", tt.want, sent)
			}
		})
	}
}

func TestArm_RangeMessage(t *testing.T) {
	_, out := putArm(t, newArmApp(mocks.NewMockDeviceChannel()), "/api/v1/arm/elbow/500")

	if out.State["message"] != "Invalid value. Must be between 0 and 180 degree" {
		t.Errorf("unexpected message %v", out.State["message"])
	}
}

func TestArm_DeviceFailures(t *testing.T) {
	connectFails := mocks.NewMockDeviceChannel()
	connectFails.ConnectFunc = func(context.Context) (ports.Connection, error) {
		return nil, errors.New("broker unreachable")
	}
	status, _ := putArm(t, newArmApp(connectFails), "/api/v1/arm/elbow/90")
	if status != fiber.StatusServiceUnavailable {
		t.Errorf("connect failure: expected 503, got %d", status)
	}

	sendFails := mocks.NewMockDeviceChannel()
	sendFails.Conn.SendFunc = func(context.Context, domain.DeviceCommand) error {
		return errors.New("publish timeout")
	}
	status, _ = putArm(t, newArmApp(sendFails), "/api/v1/arm/elbow/90")
	if status != fiber.StatusBadGateway {
		t.Errorf("send failure: expected 502, got %d", status)
	}
}

func newDeviceApp(registry ports.ConfigRegistry, audit ports.CommandLogRepository) *fiber.App {
	h := NewDeviceHandler(registry, audit, newTestLogger())
	app := fiber.New()
	app.Get("/api/v1/devices/:id/config", h.GetConfig)
	app.Get("/api/v1/devices/:id/commands", h.ListCommands)
	return app
}

func TestDevice_GetConfig(t *testing.T) {
	registry := &mocks.MockConfigRegistry{
		LatestFunc: func(_ context.Context, id string) (*domain.DeviceConfig, error) {
			if id != "arm-1" {
				return nil, ports.ErrCacheMiss
			}
			return &domain.DeviceConfig{DeviceID: id, Version: 3, Config: domain.DeviceCommand{"base": "90"}, UpdatedAt: time.Now()}, nil
		},
	}
	app := newDeviceApp(registry, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/devices/arm-1/config", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var cfg domain.DeviceConfig
	decode(t, resp.Body, &cfg)
	if cfg.Version != 3 || cfg.Config["base"] != "90" {
		t.Errorf("unexpected config %+v", cfg)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/api/v1/devices/arm-9/config", nil))
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestDevice_ListCommands(t *testing.T) {
	audit := &mocks.MockCommandLogRepository{}
	for _, key := range []string{"WELCOME", "ARM.SET", "GRIP.OPEN"} {
		_ = audit.Save(context.Background(), &domain.CommandLog{DeviceID: "arm-1", OutcomeKey: key})
	}
	app := newDeviceApp(&mocks.MockConfigRegistry{}, audit)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/devices/arm-1/commands?limit=2", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var entries []domain.CommandLog
	decode(t, resp.Body, &entries)
	if len(entries) != 2 || entries[0].OutcomeKey != "GRIP.OPEN" {
		t.Errorf("expected newest two entries, got %+v", entries)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/api/v1/devices/arm-1/commands?limit=zero", nil))
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", resp.StatusCode)
	}

	disabled := newDeviceApp(&mocks.MockConfigRegistry{}, nil)
	resp, _ = disabled.Test(httptest.NewRequest("GET", "/api/v1/devices/arm-1/commands", nil))
	if resp.StatusCode != fiber.StatusNotImplemented {
		t.Errorf("expected 501 without audit log, got %d", resp.StatusCode)
	}
}
