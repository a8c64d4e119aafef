package mock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenty/agenty-backend/internal/ai/engine"
	"github.com/agenty/agenty-backend/internal/ai/schema"
)

var userMsg = []engine.Message{{Role: engine.RoleUser, Content: "Question: total sales?\nData Source Description: sales"}}

func TestCannedOutputsSatisfyDescriptors(t *testing.T) {
	e := New()
	for _, d := range []*schema.Descriptor{schema.AnswerDescriptor, schema.InsightCardsDescriptor, schema.SuggestionsDescriptor} {
		out, err := e.GenerateText(context.Background(), "mock-1", userMsg, engine.GenerateOptions{
			JSONSchema: &engine.JSONSchema{Name: d.Name, Schema: d.Wire()},
		})
		require.NoError(t, err, d.Name)
		var v any
		require.NoError(t, json.Unmarshal([]byte(out), &v), d.Name)
		assert.NoError(t, d.Validate(v), d.Name)
	}
	assert.Equal(t, 3, e.Calls())
}

func TestScriptRepeatsLastStep(t *testing.T) {
	boom := errors.New("boom")
	e := NewScripted(Step{Text: "one"}, Step{Err: boom})

	out, err := e.GenerateText(context.Background(), "m", userMsg, engine.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "one", out)

	for i := 0; i < 2; i++ {
		_, err = e.GenerateText(context.Background(), "m", userMsg, engine.GenerateOptions{})
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, 3, e.Calls())
	assert.Equal(t, userMsg, e.LastMessages())
}

func TestDelayHonorsContext(t *testing.T) {
	e := NewScripted(Step{Text: "late", Delay: time.Minute})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := e.GenerateText(ctx, "m", userMsg, engine.GenerateOptions{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
