// Package executor sends rendered prompts to the generative backend and turns
// replies into validated, typed flow outputs.
package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agenty/agenty-backend/internal/ai/engine"
	"github.com/agenty/agenty-backend/internal/ai/flowerr"
	"github.com/agenty/agenty-backend/internal/ai/prompts"
	"github.com/agenty/agenty-backend/internal/ai/router"
	"github.com/agenty/agenty-backend/internal/config"
	"github.com/agenty/agenty-backend/internal/observability"
	"github.com/agenty/agenty-backend/internal/platform/httpx"
	"github.com/agenty/agenty-backend/internal/platform/logger"
	"github.com/agenty/agenty-backend/internal/platform/promptstyle"
)

// CorrectiveReminder is appended to the user prompt when the previous reply
// was empty or did not match the output schema.
const CorrectiveReminder = "Return ONLY valid JSON that matches the schema. Do not include markdown or commentary."

// maxRetryAfter caps how long an upstream Retry-After hint may delay the next attempt.
const maxRetryAfter = 30 * time.Second

type Config struct {
	Model       string
	EngineType  string
	Temperature float64
	MaxTokens   int

	// Timeout bounds each backend attempt.
	Timeout            time.Duration
	MaxBackendAttempts int
	RetryInitial       time.Duration
	RetryMax           time.Duration

	SchemaRetries int
}

func ConfigFrom(route router.Route, ai config.AIConfig) Config {
	return Config{
		Model:              route.Model,
		EngineType:         route.EngineType,
		Temperature:        ai.Temperature,
		MaxTokens:          ai.Engine.MaxOutputTokens,
		Timeout:            ai.Timeout.Duration,
		MaxBackendAttempts: ai.MaxBackendAttempts,
		RetryInitial:       ai.RetryInitial.Duration,
		RetryMax:           ai.RetryMax.Duration,
		SchemaRetries:      ai.SchemaRetries,
	}
}

type Executor struct {
	engine  engine.Engine
	cfg     Config
	log     *logger.Logger
	metrics *observability.Metrics
}

func New(eng engine.Engine, cfg Config, log *logger.Logger, metrics *observability.Metrics) *Executor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxBackendAttempts <= 0 {
		cfg.MaxBackendAttempts = 3
	}
	if cfg.RetryInitial <= 0 {
		cfg.RetryInitial = 500 * time.Millisecond
	}
	if cfg.RetryMax < cfg.RetryInitial {
		cfg.RetryMax = cfg.RetryInitial
	}
	if cfg.SchemaRetries < 0 {
		cfg.SchemaRetries = 0
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Executor{engine: eng, cfg: cfg, log: log.With("component", "ai.executor"), metrics: metrics}
}

// Output is a decoded flow result that checks its own semantic rules beyond
// the JSON schema.
type Output[T any] interface {
	*T
	Validate() error
}

// Execute runs p and decodes the reply into T.
//
// Transient backend failures are retried with exponential backoff and end in
// *flowerr.BackendUnavailableError. Empty or off-schema replies get
// SchemaRetries corrective re-prompts and then surface as
// *flowerr.EmptyResponseError or *flowerr.SchemaMismatchError. If ctx ends,
// its cause is returned as-is.
func Execute[T any, PT Output[T]](ctx context.Context, ex *Executor, p prompts.Prompt) (T, error) {
	var zero T

	ctx, span := observability.Tracer().Start(ctx, "ai.execute",
		trace.WithAttributes(
			attribute.String("ai.prompt", p.Name),
			attribute.Int("ai.prompt_version", p.Version),
			attribute.String("ai.engine", ex.cfg.EngineType),
			attribute.String("ai.model", ex.cfg.Model),
		))
	defer span.End()

	fp := p.Fingerprint()
	log := ex.log.FromContext(ctx).With("prompt", p.Name, "prompt_version", p.Version, "prompt_fp", fp[:12])

	total := ex.cfg.SchemaRetries + 1
	var (
		lastRaw   string
		lastErr   error
		lastEmpty bool
	)
	for attempt := 1; attempt <= total; attempt++ {
		user := p.User
		if attempt > 1 {
			user = strings.TrimSpace(p.User) + "\n\n" + CorrectiveReminder
			ex.metrics.IncSchemaRetry(p.Name)
			log.Warn("re-prompting after unusable output", "attempt", attempt, "empty", lastEmpty, "error", lastErr)
		}

		text, err := ex.generate(ctx, span, p, user)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, flowerr.Code(err))
			return zero, err
		}

		lastRaw = text
		cleaned := stripFences(text)
		if cleaned == "" {
			lastEmpty, lastErr = true, nil
			span.AddEvent("empty_response", trace.WithAttributes(attribute.Int("attempt", attempt)))
			continue
		}

		var out T
		if err := decode(cleaned, p, PT(&out)); err != nil {
			lastEmpty, lastErr = false, err
			span.AddEvent("schema_mismatch", trace.WithAttributes(
				attribute.Int("attempt", attempt),
				attribute.String("error", err.Error()),
			))
			continue
		}
		log.Debug("flow output accepted", "attempt", attempt)
		return out, nil
	}

	var err error
	if lastEmpty {
		err = &flowerr.EmptyResponseError{Attempts: total}
	} else {
		err = &flowerr.SchemaMismatchError{Attempts: total, Raw: lastRaw, Err: lastErr}
	}
	log.Warn("flow output rejected", "error", err, "raw_bytes", len(lastRaw))
	span.RecordError(err)
	span.SetStatus(codes.Error, flowerr.Code(err))
	return zero, err
}

// generate makes one logical backend call, retrying transient failures.
func (ex *Executor) generate(ctx context.Context, span trace.Span, p prompts.Prompt, user string) (string, error) {
	messages := []engine.Message{
		{Role: engine.RoleSystem, Content: promptstyle.ApplySystem(p.System, "json")},
		{Role: engine.RoleUser, Content: user},
	}
	opts := engine.GenerateOptions{Temperature: ex.cfg.Temperature, MaxTokens: ex.cfg.MaxTokens}
	if p.Descriptor != nil {
		opts.JSONSchema = &engine.JSONSchema{Name: p.Descriptor.Name, Schema: p.Descriptor.Wire()}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = ex.cfg.RetryInitial
	bo.MaxInterval = ex.cfg.RetryMax

	attempts := 0
	var lastErr error
	op := func() (string, error) {
		attempts++
		actx, cancel := context.WithTimeout(ctx, ex.cfg.Timeout)
		defer cancel()

		start := time.Now()
		text, err := ex.engine.GenerateText(actx, ex.cfg.Model, messages, opts)
		span.AddEvent("backend_attempt", trace.WithAttributes(
			attribute.Int("attempt", attempts),
			attribute.Int64("duration_ms", time.Since(start).Milliseconds()),
			attribute.Bool("ok", err == nil),
		))
		if err == nil {
			ex.metrics.IncBackendAttempt(ex.cfg.EngineType, "ok")
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			ex.metrics.IncBackendAttempt(ex.cfg.EngineType, "cancelled")
			return "", backoff.Permanent(context.Cause(ctx))
		}
		if !httpx.IsRetryableError(err) {
			ex.metrics.IncBackendAttempt(ex.cfg.EngineType, "fatal")
			return "", backoff.Permanent(err)
		}
		ex.metrics.IncBackendAttempt(ex.cfg.EngineType, "retryable")
		if wait := retryAfter(err); wait > 0 {
			return "", &backoff.RetryAfterError{Duration: wait}
		}
		return "", err
	}

	text, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(ex.cfg.MaxBackendAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(_ error, next time.Duration) {
			ex.log.FromContext(ctx).Warn("backend call failed; retrying",
				"prompt", p.Name, "attempt", attempts, "status", httpx.StatusCode(lastErr), "backoff", next, "error", lastErr)
		}),
	)
	if err == nil {
		return text, nil
	}
	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &flowerr.BackendUnavailableError{Attempts: attempts, Err: ctx.Err()}
		}
		return "", context.Cause(ctx)
	}
	if lastErr == nil {
		lastErr = err
	}
	return "", &flowerr.BackendUnavailableError{Attempts: attempts, Err: lastErr}
}

// retryAfter returns the upstream Retry-After hint carried by err, capped at maxRetryAfter.
func retryAfter(err error) time.Duration {
	var ra httpx.RetryAfterer
	if !errors.As(err, &ra) {
		return 0
	}
	return min(ra.RetryAfter(), maxRetryAfter)
}

// decode parses text, checks it against the prompt's output schema and then
// against the type's own rules.
func decode(text string, p prompts.Prompt, out interface{ Validate() error }) error {
	var generic any
	if err := json.Unmarshal([]byte(text), &generic); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if d := p.Descriptor; d != nil {
		generic = d.Normalize(generic)
		if err := d.Validate(generic); err != nil {
			return fmt.Errorf("schema %s: %w", d.Name, err)
		}
	}
	b, err := json.Marshal(generic)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return out.Validate()
}

// stripFences removes a surrounding markdown code fence, which some backends
// add even when asked for bare JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
