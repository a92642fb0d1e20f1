package handlers

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/armvoice/internal/domain"
	"github.com/seu-repo/armvoice/internal/observability/telemetry"
	"github.com/seu-repo/armvoice/internal/ports"
)

// IntentRouter handles one recognized intent.
type IntentRouter interface {
	Handle(ctx context.Context, intent domain.Intent) domain.Outcome
}

// WebhookRequest is the subset of the Dialogflow v2 fulfillment request the
// gateway reads.
type WebhookRequest struct {
	ResponseID  string      `json:"responseId"`
	Session     string      `json:"session"`
	QueryResult QueryResult `json:"queryResult"`
}

type QueryResult struct {
	QueryText    string                 `json:"queryText"`
	Parameters   map[string]interface{} `json:"parameters"`
	LanguageCode string                 `json:"languageCode"`
	Intent       struct {
		Name        string `json:"name"`
		DisplayName string `json:"displayName"`
	} `json:"intent"`
}

// WebhookResponse keeps the conversation open like an Actions on Google ask.
type WebhookResponse struct {
	FulfillmentText string          `json:"fulfillmentText"`
	Payload         ResponsePayload `json:"payload"`
}

type ResponsePayload struct {
	Google GooglePayload `json:"google"`
}

type GooglePayload struct {
	ExpectUserResponse bool         `json:"expectUserResponse"`
	RichResponse       RichResponse `json:"richResponse"`
}

type RichResponse struct {
	Items []RichItem `json:"items"`
}

type RichItem struct {
	SimpleResponse SimpleResponse `json:"simpleResponse"`
}

type SimpleResponse struct {
	TextToSpeech string `json:"textToSpeech"`
}

type FulfillmentHandler struct {
	router   IntentRouter
	renderer ports.Renderer
	audit    ports.CommandLogRepository
	deviceID string
	log      *zap.Logger
}

// NewFulfillmentHandler wires the webhook. audit may be nil.
func NewFulfillmentHandler(router IntentRouter, renderer ports.Renderer, audit ports.CommandLogRepository, deviceID string, log *zap.Logger) *FulfillmentHandler {
	return &FulfillmentHandler{
		router:   router,
		renderer: renderer,
		audit:    audit,
		deviceID: deviceID,
		log:      log,
	}
}

// Handle serves POST /api/v1/fulfillment
func (h *FulfillmentHandler) Handle(c *fiber.Ctx) error {
	var req WebhookRequest
	if err := c.BodyParser(&req); err != nil {
		telemetry.WebhookRequestsTotal.WithLabelValues("bad_request").Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}
	if req.QueryResult.Intent.DisplayName == "" {
		telemetry.WebhookRequestsTotal.WithLabelValues("bad_request").Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing intent"})
	}

	intent := domain.Intent{
		Name:      domain.IntentName(req.QueryResult.Intent.DisplayName),
		Slots:     req.QueryResult.Parameters,
		Locale:    req.QueryResult.LanguageCode,
		SessionID: sessionID(req.Session),
		Query:     req.QueryResult.QueryText,
	}

	start := time.Now()
	out := h.router.Handle(c.UserContext(), intent)
	latency := time.Since(start)

	text, err := h.renderer.Render(intent.Locale, out.Key, out.Params)
	if err != nil {
		h.log.Error("Failed to render response", zap.String("key", string(out.Key)), zap.Error(err))
		text = string(out.Key)
	}

	h.record(c.UserContext(), intent, out, latency)
	telemetry.WebhookRequestsTotal.WithLabelValues("ok").Inc()

	return c.JSON(WebhookResponse{
		FulfillmentText: text,
		Payload: ResponsePayload{Google: GooglePayload{
			ExpectUserResponse: true,
			RichResponse: RichResponse{Items: []RichItem{
				{SimpleResponse: SimpleResponse{TextToSpeech: text}},
			}},
		}},
	})
}

func (h *FulfillmentHandler) record(ctx context.Context, intent domain.Intent, out domain.Outcome, latency time.Duration) {
	if h.audit == nil {
		return
	}
	slots, _ := json.Marshal(intent.Slots)
	entry := &domain.CommandLog{
		DeviceID:   h.deviceID,
		SessionID:  intent.SessionID,
		Intent:     string(intent.Name),
		Slots:      string(slots),
		OutcomeKey: string(out.Key),
		LatencyMs:  latency.Milliseconds(),
	}
	if out.Command != nil {
		payload, _ := json.Marshal(out.Command)
		entry.Payload = string(payload)
	}
	if out.Err != nil {
		entry.Error = out.Err.Error()
	}
	if err := h.audit.Save(ctx, entry); err != nil {
		h.log.Warn("Failed to write command audit log", zap.Error(err))
	}
}

// sessionID keeps the trailing id of "projects/<p>/agent/sessions/<id>".
func sessionID(session string) string {
	if i := strings.LastIndex(session, "/"); i >= 0 {
		return session[i+1:]
	}
	return session
}
