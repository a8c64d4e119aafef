package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/agenty/agenty-backend/internal/ai/engine"
	"github.com/agenty/agenty-backend/internal/ai/engine/mock"
	"github.com/agenty/agenty-backend/internal/ai/engine/oaihttp"
	"github.com/agenty/agenty-backend/internal/ai/flowerr"
	"github.com/agenty/agenty-backend/internal/ai/prompts"
	"github.com/agenty/agenty-backend/internal/ai/schema"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig() Config {
	return Config{
		Model:              "mock-1",
		EngineType:         "mock",
		Temperature:        0.2,
		Timeout:            time.Second,
		MaxBackendAttempts: 3,
		RetryInitial:       time.Millisecond,
		RetryMax:           2 * time.Millisecond,
		SchemaRetries:      1,
	}
}

func answerPrompt(t *testing.T) prompts.Prompt {
	t.Helper()
	prompts.RegisterAll()
	p, err := prompts.Build(prompts.PromptAnswerDataQuestions, schema.AnswerDataQuestionsInput{
		Question:              "What were total sales?",
		DataSourceDescription: "orders table",
	}.PromptVars())
	require.NoError(t, err)
	return p
}

func statusErr(code int) error {
	return &engine.StatusError{StatusCode: code, Err: errors.New("upstream failure")}
}

func TestExecuteDecodesFencedReply(t *testing.T) {
	eng := mock.NewScripted(mock.Step{Text: "```json\n{\"answer\":\"42\",\"chart\":null,\"table\":null}\n```"})
	ex := New(eng, testConfig(), nil, nil)

	out, err := Execute[schema.AnswerDataQuestionsOutput](context.Background(), ex, answerPrompt(t))
	require.NoError(t, err)
	assert.Equal(t, "42", out.Answer)
	assert.Nil(t, out.Chart)
	assert.Equal(t, 1, eng.Calls())

	msgs := eng.LastMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, engine.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[1].Content, "Question: What were total sales?")
	assert.NotContains(t, msgs[1].Content, CorrectiveReminder)
}

func TestExecuteSchemaMismatchAfterOneCorrectiveRetry(t *testing.T) {
	eng := mock.NewScripted(mock.Step{Text: `{"chart":null}`})
	ex := New(eng, testConfig(), nil, nil)

	_, err := Execute[schema.AnswerDataQuestionsOutput](context.Background(), ex, answerPrompt(t))
	var sm *flowerr.SchemaMismatchError
	require.ErrorAs(t, err, &sm)
	assert.Equal(t, `{"chart":null}`, sm.Raw)
	assert.Equal(t, 2, sm.Attempts)
	assert.Equal(t, 2, eng.Calls())
	assert.Contains(t, eng.LastMessages()[1].Content, CorrectiveReminder)
}

func TestExecuteRecoversOnCorrectiveRetry(t *testing.T) {
	eng := mock.NewScripted(
		mock.Step{Text: "Sure! Here is your answer."},
		mock.Step{Text: `{"answer":"ok"}`},
	)
	ex := New(eng, testConfig(), nil, nil)

	out, err := Execute[schema.AnswerDataQuestionsOutput](context.Background(), ex, answerPrompt(t))
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Answer)
	assert.Equal(t, 2, eng.Calls())
}

func TestExecuteRejectsChartWithUnknownConfigKey(t *testing.T) {
	reply := `{"answer":"a","chart":{"type":"bar","data":[{"month":"Jan","sales":1}],"config":{"revenue":{"label":"Revenue"}}}}`
	eng := mock.NewScripted(mock.Step{Text: reply})
	ex := New(eng, testConfig(), nil, nil)

	_, err := Execute[schema.AnswerDataQuestionsOutput](context.Background(), ex, answerPrompt(t))
	assert.Equal(t, flowerr.CodeSchemaMismatch, flowerr.Code(err))
}

func TestExecuteEmptyResponse(t *testing.T) {
	eng := mock.NewScripted(mock.Step{Text: "   "})
	ex := New(eng, testConfig(), nil, nil)

	_, err := Execute[schema.AnswerDataQuestionsOutput](context.Background(), ex, answerPrompt(t))
	var ee *flowerr.EmptyResponseError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 2, eng.Calls())
}

func TestExecuteRetriesTransientBackendErrors(t *testing.T) {
	eng := mock.NewScripted(
		mock.Step{Err: statusErr(503)},
		mock.Step{Err: statusErr(429)},
		mock.Step{Text: `{"answer":"third time"}`},
	)
	ex := New(eng, testConfig(), nil, nil)

	out, err := Execute[schema.AnswerDataQuestionsOutput](context.Background(), ex, answerPrompt(t))
	require.NoError(t, err)
	assert.Equal(t, "third time", out.Answer)
	assert.Equal(t, 3, eng.Calls())
}

func TestExecuteHonoursRetryAfter(t *testing.T) {
	eng := mock.NewScripted(
		mock.Step{Err: &oaihttp.HTTPError{StatusCode: 429, Retry: 150 * time.Millisecond}},
		mock.Step{Text: `{"answer":"after the wait"}`},
	)
	ex := New(eng, testConfig(), nil, nil)

	start := time.Now()
	out, err := Execute[schema.AnswerDataQuestionsOutput](context.Background(), ex, answerPrompt(t))
	require.NoError(t, err)
	assert.Equal(t, "after the wait", out.Answer)
	assert.Equal(t, 2, eng.Calls())
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestExecuteRetryAfterKeepsUpstreamError(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBackendAttempts = 2
	eng := mock.NewScripted(mock.Step{Err: &oaihttp.HTTPError{StatusCode: 429, Retry: time.Millisecond}})
	ex := New(eng, cfg, nil, nil)

	_, err := Execute[schema.AnswerDataQuestionsOutput](context.Background(), ex, answerPrompt(t))
	var bu *flowerr.BackendUnavailableError
	require.ErrorAs(t, err, &bu)
	assert.Equal(t, 2, bu.Attempts)
	var he *oaihttp.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, 429, he.StatusCode)
}

func TestRetryAfterIsCapped(t *testing.T) {
	assert.Equal(t, maxRetryAfter, retryAfter(&oaihttp.HTTPError{StatusCode: 429, Retry: time.Hour}))
	assert.Equal(t, time.Duration(0), retryAfter(statusErr(503)))
}

func TestExecuteBackendUnavailableAfterMaxAttempts(t *testing.T) {
	eng := mock.NewScripted(mock.Step{Err: statusErr(503)})
	ex := New(eng, testConfig(), nil, nil)

	_, err := Execute[schema.AnswerDataQuestionsOutput](context.Background(), ex, answerPrompt(t))
	var bu *flowerr.BackendUnavailableError
	require.ErrorAs(t, err, &bu)
	assert.Equal(t, 3, bu.Attempts)
	assert.Equal(t, 3, eng.Calls())
}

func TestExecuteDoesNotRetryClientErrors(t *testing.T) {
	eng := mock.NewScripted(mock.Step{Err: statusErr(401)})
	ex := New(eng, testConfig(), nil, nil)

	_, err := Execute[schema.AnswerDataQuestionsOutput](context.Background(), ex, answerPrompt(t))
	var bu *flowerr.BackendUnavailableError
	require.ErrorAs(t, err, &bu)
	assert.Equal(t, 1, bu.Attempts)
	assert.Equal(t, 1, eng.Calls())
}

func TestExecutePerAttemptTimeout(t *testing.T) {
	eng := mock.NewScripted(mock.Step{Text: `{"answer":"late"}`, Delay: time.Minute})
	cfg := testConfig()
	cfg.Timeout = 20 * time.Millisecond
	ex := New(eng, cfg, nil, nil)

	start := time.Now()
	_, err := Execute[schema.AnswerDataQuestionsOutput](context.Background(), ex, answerPrompt(t))
	assert.Equal(t, flowerr.CodeBackendUnavailable, flowerr.Code(err))
	assert.Equal(t, 3, eng.Calls())
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecuteCallerCancellation(t *testing.T) {
	eng := mock.NewScripted(mock.Step{Text: `{"answer":"late"}`, Delay: time.Minute})
	ex := New(eng, testConfig(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := Execute[schema.AnswerDataQuestionsOutput](ctx, ex, answerPrompt(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, flowerr.CodeCancelled, flowerr.Code(err))
	assert.Equal(t, 1, eng.Calls())
}

func TestExecuteReturnsCancelCause(t *testing.T) {
	eng := mock.NewScripted(mock.Step{Text: `{"answer":"late"}`, Delay: time.Minute})
	ex := New(eng, testConfig(), nil, nil)

	ctx, cancel := context.WithCancelCause(context.Background())
	time.AfterFunc(20*time.Millisecond, func() { cancel(flowerr.ErrSuperseded) })

	_, err := Execute[schema.AnswerDataQuestionsOutput](ctx, ex, answerPrompt(t))
	assert.ErrorIs(t, err, flowerr.ErrSuperseded)
}

func TestExecuteWrapsBareCardArray(t *testing.T) {
	prompts.RegisterAll()
	p, err := prompts.Build(prompts.PromptGenerateInsightCards, schema.GenerateInsightCardsInput{DataDescription: "orders"}.PromptVars())
	require.NoError(t, err)

	eng := mock.NewScripted(mock.Step{Text: `[{"title":"Sales","description":"d","chartType":"bar","dataFields":["sales"]}]`})
	ex := New(eng, testConfig(), nil, nil)

	out, err := Execute[schema.InsightCardSet](context.Background(), ex, p)
	require.NoError(t, err)
	require.Len(t, out.Cards, 1)
	assert.Equal(t, schema.CardBar, out.Cards[0].ChartType)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("  {\"a\":1} "))
	assert.Equal(t, "", stripFences("```"))
}
