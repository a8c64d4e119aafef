// Package flows is the entry point for AgentY's AI features: answering data
// questions, proposing insight cards and smart suggestions, and bookmarking
// insights to the Knowledge-Hub.
package flows

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agenty/agenty-backend/internal/ai/executor"
	"github.com/agenty/agenty-backend/internal/ai/flowerr"
	"github.com/agenty/agenty-backend/internal/ai/prompts"
	"github.com/agenty/agenty-backend/internal/ai/schema"
	"github.com/agenty/agenty-backend/internal/knowledgehub"
	"github.com/agenty/agenty-backend/internal/observability"
	"github.com/agenty/agenty-backend/internal/platform/ctxutil"
	"github.com/agenty/agenty-backend/internal/platform/logger"
)

const (
	defaultMaxInsightCards = 20
	defaultMaxSuggestions  = 3
)

type Options struct {
	MaxInsightCards int
	MaxSuggestions  int
	// SessionTTL bounds how long an idle session's sequence is kept.
	SessionTTL time.Duration
}

// Service is safe for concurrent use; invocations share no mutable state
// apart from the session Sequencer.
type Service struct {
	exec    *executor.Executor
	store   knowledgehub.Store
	seq     *Sequencer
	opts    Options
	log     *logger.Logger
	metrics *observability.Metrics
}

func NewService(exec *executor.Executor, store knowledgehub.Store, baseLog *logger.Logger, metrics *observability.Metrics, opts Options) *Service {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	if opts.MaxInsightCards <= 0 {
		opts.MaxInsightCards = defaultMaxInsightCards
	}
	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = defaultMaxSuggestions
	}
	prompts.RegisterAll()
	return &Service{
		exec:    exec,
		store:   store,
		seq:     NewSequencer(opts.SessionTTL),
		opts:    opts,
		log:     baseLog.With("service", "AIFlows"),
		metrics: metrics,
	}
}

// AnswerDataQuestions answers a natural-language question about a data source,
// optionally with a chart and a table.
func (s *Service) AnswerDataQuestions(ctx context.Context, in schema.AnswerDataQuestionsInput) (schema.AnswerDataQuestionsOutput, error) {
	return generate[schema.AnswerDataQuestionsOutput](ctx, s, prompts.PromptAnswerDataQuestions, in)
}

// GenerateInsightCards proposes dashboard cards for a dataset, at most
// Options.MaxInsightCards of them.
func (s *Service) GenerateInsightCards(ctx context.Context, in schema.GenerateInsightCardsInput) (schema.GenerateInsightCardsOutput, error) {
	set, err := generate[schema.InsightCardSet](ctx, s, prompts.PromptGenerateInsightCards, in)
	if err != nil {
		return nil, err
	}
	cards := set.Cards
	if len(cards) > s.opts.MaxInsightCards {
		cards = cards[:s.opts.MaxInsightCards]
	}
	if cards == nil {
		cards = []schema.InsightCard{}
	}
	return schema.GenerateInsightCardsOutput(cards), nil
}

// GetSmartSuggestions proposes follow-up queries. Blank suggestions are
// dropped and at most Options.MaxSuggestions are returned.
func (s *Service) GetSmartSuggestions(ctx context.Context, in schema.SmartSuggestionsInput) (schema.SmartSuggestionsOutput, error) {
	out, err := generate[schema.SmartSuggestionsOutput](ctx, s, prompts.PromptSmartSuggestions, in)
	if err != nil {
		return schema.SmartSuggestionsOutput{}, err
	}
	return out.Clean(s.opts.MaxSuggestions), nil
}

// BookmarkInsight saves an insight to the user's Insight Hub. It never calls
// the generative backend.
func (s *Service) BookmarkInsight(ctx context.Context, in schema.BookmarkInsightInput) (schema.BookmarkInsightOutput, error) {
	ctx, inv := s.begin(ctx, "bookmark_insight")
	if err := in.Validate(); err != nil {
		return schema.BookmarkInsightOutput{}, inv.fail(err)
	}
	inv.advance(StateValidated)
	inv.advance(StateExecuting)

	res, err := s.store.Save(ctx, knowledgehub.Bookmark{
		InsightID: in.InsightID,
		UserID:    in.UserID,
		HubID:     in.InsightHubID,
		Title:     in.InsightTitle,
		Content:   in.InsightContent,
	})
	if err != nil {
		s.metrics.IncBookmark(s.store.Name(), "error")
		return schema.BookmarkInsightOutput{}, inv.fail(err)
	}
	s.metrics.IncBookmark(s.store.Name(), "ok")
	inv.log.Debug("bookmark saved", "bookmark_id", res.ID, "user_id", in.UserID)
	inv.succeed()
	return schema.BookmarkInsightOutput{
		Success: true,
		Message: fmt.Sprintf("Insight '%s' bookmarked successfully to Insight Hub.", in.InsightTitle),
	}, nil
}

type flowInput interface {
	Validate() error
	PromptVars() map[string]any
}

func generate[T any, PT executor.Output[T]](ctx context.Context, s *Service, name prompts.PromptName, in flowInput) (T, error) {
	var zero T
	ctx, inv := s.begin(ctx, string(name))

	if err := in.Validate(); err != nil {
		return zero, inv.fail(err)
	}
	inv.advance(StateValidated)

	p, err := prompts.Build(name, in.PromptVars())
	if err != nil {
		return zero, inv.fail(err)
	}
	inv.advance(StatePromptRendered)

	key, seq := sessionKey(ctx, name)
	ctx, done, err := s.seq.Begin(ctx, key, seq)
	if err != nil {
		return zero, inv.fail(err)
	}
	defer done()
	inv.advance(StateExecuting)

	out, err := executor.Execute[T, PT](ctx, s.exec, p)
	if err != nil {
		return zero, inv.fail(err)
	}
	if !s.seq.Current(key, seq) {
		return zero, inv.fail(flowerr.ErrSuperseded)
	}
	inv.succeed()
	return out, nil
}

// sessionKey scopes sequencing to one flow within one session, so a new
// suggestions request does not cancel an answer still in flight.
func sessionKey(ctx context.Context, name prompts.PromptName) (string, uint64) {
	sd := ctxutil.GetSessionData(ctx)
	if sd == nil || strings.TrimSpace(sd.SessionID) == "" {
		return "", 0
	}
	return string(name) + ":" + sd.SessionID, sd.Seq
}
