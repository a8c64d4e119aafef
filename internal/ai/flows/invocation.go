package flows

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agenty/agenty-backend/internal/ai/flowerr"
	"github.com/agenty/agenty-backend/internal/observability"
	"github.com/agenty/agenty-backend/internal/platform/logger"
)

type State int

const (
	StateCreated State = iota
	StateValidated
	StatePromptRendered
	StateExecuting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateValidated:
		return "validated"
	case StatePromptRendered:
		return "prompt_rendered"
	case StateExecuting:
		return "executing"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

var transitions = map[State][]State{
	StateCreated:        {StateValidated, StateFailed},
	StateValidated:      {StatePromptRendered, StateExecuting, StateFailed},
	StatePromptRendered: {StateExecuting, StateFailed},
	StateExecuting:      {StateSucceeded, StateFailed},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// invocation tracks one façade call from request to result.
type invocation struct {
	flow    string
	state   State
	started time.Time
	span    trace.Span
	log     *logger.Logger
	metrics *observability.Metrics
}

func (s *Service) begin(ctx context.Context, flow string) (context.Context, *invocation) {
	ctx, span := observability.Tracer().Start(ctx, "flow."+flow, trace.WithAttributes(attribute.String("ai.flow", flow)))
	return ctx, &invocation{
		flow:    flow,
		state:   StateCreated,
		started: time.Now(),
		span:    span,
		log:     s.log.FromContext(ctx).With("flow", flow),
		metrics: s.metrics,
	}
}

// advance moves to the next state. An illegal transition is logged and
// leaves the state unchanged.
func (inv *invocation) advance(to State) {
	if !canTransition(inv.state, to) {
		inv.log.Error("illegal invocation state transition", "from", inv.state.String(), "to", to.String())
		return
	}
	inv.span.AddEvent(to.String())
	inv.state = to
}

func (inv *invocation) succeed() {
	inv.advance(StateSucceeded)
	dur := time.Since(inv.started)
	inv.metrics.ObserveFlow(inv.flow, "ok", dur)
	inv.log.Info("flow succeeded", "duration_ms", dur.Milliseconds())
	inv.span.End()
}

// fail moves the invocation to Failed and returns err for convenience.
func (inv *invocation) fail(err error) error {
	if !inv.state.Terminal() {
		inv.state = StateFailed
		inv.span.AddEvent(StateFailed.String())
	}
	code := flowerr.Code(err)
	dur := time.Since(inv.started)
	inv.metrics.ObserveFlow(inv.flow, code, dur)
	inv.span.RecordError(err)
	inv.span.SetStatus(codes.Error, code)
	inv.span.End()

	switch code {
	case flowerr.CodeValidation, flowerr.CodeSuperseded, flowerr.CodeCancelled:
		inv.log.Info("flow stopped", "code", code, "error", err, "duration_ms", dur.Milliseconds())
	default:
		inv.log.Warn("flow failed", "code", code, "error", err, "duration_ms", dur.Milliseconds())
	}
	return err
}
