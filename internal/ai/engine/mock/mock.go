// Package mock is a deterministic engine for local runs and tests.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/agenty/agenty-backend/internal/ai/engine"
)

// Step is one scripted reply.
type Step struct {
	Text  string
	Err   error
	Delay time.Duration
}

// Engine replays a script when one is set and otherwise answers with canned,
// schema-valid output keyed by the requested schema name. Once the script is
// exhausted its final step repeats.
type Engine struct {
	mu     sync.Mutex
	script []Step
	next   int
	calls  int
	last   []engine.Message
}

func New() *Engine {
	return &Engine{}
}

func NewScripted(steps ...Step) *Engine {
	return &Engine{script: steps}
}

func (e *Engine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// LastMessages returns the messages of the most recent call.
func (e *Engine) LastMessages() []engine.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]engine.Message(nil), e.last...)
}

func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	e.mu.Lock()
	e.calls++
	e.last = append([]engine.Message(nil), messages...)
	var step *Step
	if len(e.script) > 0 {
		i := e.next
		if i >= len(e.script) {
			i = len(e.script) - 1
		} else {
			e.next++
		}
		s := e.script[i]
		step = &s
	}
	e.mu.Unlock()

	if step != nil && step.Delay > 0 {
		t := time.NewTimer(step.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-t.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if step != nil {
		return step.Text, step.Err
	}
	return canned(messages, opts)
}

func canned(messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	_, user := engine.SplitSystem(messages)
	first := firstLine(user)

	var obj any
	name := ""
	if opts.JSONSchema != nil {
		name = opts.JSONSchema.Name
	}
	switch name {
	case "answer_data_questions":
		obj = map[string]any{
			"answer": fmt.Sprintf("mock answer for %q", first),
			"chart": map[string]any{
				"type":   "bar",
				"data":   []map[string]any{{"label": "a", "value": 1}, {"label": "b", "value": 2}},
				"config": map[string]any{"value": map[string]any{"label": "Value"}},
			},
			"table": map[string]any{
				"headers": []string{"label", "value"},
				"rows":    [][]any{{"a", 1}, {"b", 2}},
			},
		}
	case "insight_cards":
		obj = map[string]any{"cards": []map[string]any{
			{"title": "Trend over time", "description": "How the main metric moves.", "chartType": "line", "dataFields": []string{"date", "value"}},
			{"title": "Top categories", "description": "Largest contributors.", "chartType": "bar", "dataFields": []string{"category", "value"}},
		}}
	case "smart_suggestions":
		obj = map[string]any{"suggestions": []string{
			"Show the monthly trend",
			"Break it down by region",
			"Compare with last year",
		}}
	default:
		if strings.TrimSpace(user) == "" {
			return "mock: ok", nil
		}
		return "mock: " + user, nil
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
