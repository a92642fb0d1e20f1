// Package conversation routes recognized intents to the arm handlers and
// turns their results into spoken-response outcomes.
package conversation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/seu-repo/armvoice/internal/domain"
	"github.com/seu-repo/armvoice/internal/observability/telemetry"
	"github.com/seu-repo/armvoice/internal/ports"
	"github.com/seu-repo/armvoice/internal/service/command"
)

// Handler processes one intent and always produces a terminal outcome.
type Handler func(ctx context.Context, intent domain.Intent) domain.Outcome

// Router dispatches intents by name. The dispatch table is fixed at
// construction and only read afterwards, so a Router is safe for
// concurrent use.
type Router struct {
	channel  ports.DeviceChannel
	handlers map[domain.IntentName]Handler
	log      *zap.Logger
	tracer   trace.Tracer
}

func NewRouter(channel ports.DeviceChannel, log *zap.Logger) *Router {
	r := &Router{
		channel: channel,
		log:     log,
		tracer:  otel.Tracer("armvoice/conversation"),
	}
	r.handlers = map[domain.IntentName]Handler{
		domain.IntentWelcome:   r.welcome,
		domain.IntentArmMove:   r.armMove,
		domain.IntentArmSet:    r.armSet,
		domain.IntentGripOpen:  r.gripOpen,
		domain.IntentGripClose: r.gripClose,
	}
	return r
}

// Intents returns the names the router has a handler for.
func (r *Router) Intents() []domain.IntentName {
	names := make([]domain.IntentName, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Handle runs the handler registered for the intent. Unknown intents yield
// FALLBACK; a panicking handler yields ERROR. No error escapes Handle.
func (r *Router) Handle(ctx context.Context, intent domain.Intent) (out domain.Outcome) {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "conversation.Handle",
		trace.WithAttributes(attribute.String("intent", string(intent.Name))))

	defer func() {
		if p := recover(); p != nil {
			out = r.fail(intent, fmt.Errorf("handler panic: %v", p))
		}
		if out.Err != nil {
			span.RecordError(out.Err)
			span.SetStatus(codes.Error, out.Err.Error())
		}
		span.SetAttributes(attribute.String("outcome", string(out.Key)))
		span.End()

		telemetry.IntentsTotal.WithLabelValues(string(intent.Name), string(out.Key)).Inc()
		telemetry.PipelineLatency.WithLabelValues(string(intent.Name)).Observe(time.Since(start).Seconds())
	}()

	handler, ok := r.handlers[intent.Name]
	if !ok {
		r.log.Info("No handler for intent", zap.String("intent", string(intent.Name)))
		return domain.Outcome{Key: domain.MessageFallback}
	}
	return handler(ctx, intent)
}

func (r *Router) welcome(ctx context.Context, intent domain.Intent) domain.Outcome {
	return domain.Outcome{Key: domain.MessageWelcome}
}

func (r *Router) armMove(ctx context.Context, intent domain.Intent) domain.Outcome {
	angle, err := AngleSlot(intent)
	if err != nil {
		return r.reject(intent, err)
	}

	conn, err := r.channel.Connect(ctx)
	if err != nil {
		return r.fail(intent, err)
	}

	move, err := command.PlanMove(intent.StringSlot(domain.SlotDirection), angle)
	if err != nil {
		return r.reject(intent, err)
	}

	cmd := move.Command()
	if err := conn.Send(ctx, cmd); err != nil {
		return r.fail(intent, err)
	}

	return domain.Outcome{
		Key: domain.MessageArmMove,
		Params: map[string]interface{}{
			domain.ParamFinalAngle: move.Angle,
			domain.ParamDegree:     string(move.Joint),
		},
		Command: cmd,
	}
}

func (r *Router) armSet(ctx context.Context, intent domain.Intent) domain.Outcome {
	angle, err := AngleSlot(intent)
	if err != nil {
		return r.reject(intent, err)
	}

	conn, err := r.channel.Connect(ctx)
	if err != nil {
		return r.fail(intent, err)
	}

	set, err := command.PlanSet(domain.Joint(intent.StringSlot(domain.SlotServo)), angle)
	if err != nil {
		return r.reject(intent, err)
	}

	cmd := set.Command()
	if err := conn.Send(ctx, cmd); err != nil {
		return r.fail(intent, err)
	}

	return domain.Outcome{
		Key: domain.MessageArmSet,
		Params: map[string]interface{}{
			domain.ParamServo:      string(set.Joint),
			domain.ParamFinalAngle: set.Angle,
		},
		Command: cmd,
	}
}

func (r *Router) gripOpen(ctx context.Context, intent domain.Intent) domain.Outcome {
	return r.grip(ctx, intent, domain.GripOpen, domain.MessageGripOpen)
}

func (r *Router) gripClose(ctx context.Context, intent domain.Intent) domain.Outcome {
	return r.grip(ctx, intent, domain.GripClose, domain.MessageGripClose)
}

func (r *Router) grip(ctx context.Context, intent domain.Intent, state domain.GripState, key domain.MessageKey) domain.Outcome {
	conn, err := r.channel.Connect(ctx)
	if err != nil {
		return r.fail(intent, err)
	}

	cmd := command.BuildGrip(state)
	if err := conn.Send(ctx, cmd); err != nil {
		return r.fail(intent, err)
	}

	return domain.Outcome{Key: key, Command: cmd}
}

// reject maps a builder error to its outcome. Numeric constraint violations
// become a spoken correction; anything else takes the shared error path.
func (r *Router) reject(intent domain.Intent, err error) domain.Outcome {
	if !command.IsAngleError(err) {
		return r.fail(intent, err)
	}
	r.log.Info("Rejected arm command",
		zap.String("intent", string(intent.Name)),
		zap.Error(err),
	)
	return domain.Outcome{Key: domain.MessageAngleError, Err: err}
}

// fail is the single error path shared by every handler.
func (r *Router) fail(intent domain.Intent, err error) domain.Outcome {
	r.log.Error("Failed to handle intent",
		zap.String("intent", string(intent.Name)),
		zap.String("session_id", intent.SessionID),
		zap.Error(err),
	)
	return domain.Outcome{Key: domain.MessageError, Err: err}
}
