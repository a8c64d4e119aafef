package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agenty/agenty-backend/internal/ai/flowerr"
	"github.com/agenty/agenty-backend/internal/ai/schema"
	"github.com/agenty/agenty-backend/internal/http/response"
)

// Flows is the AI façade the handlers serve.
type Flows interface {
	AnswerDataQuestions(ctx context.Context, in schema.AnswerDataQuestionsInput) (schema.AnswerDataQuestionsOutput, error)
	GenerateInsightCards(ctx context.Context, in schema.GenerateInsightCardsInput) (schema.GenerateInsightCardsOutput, error)
	GetSmartSuggestions(ctx context.Context, in schema.SmartSuggestionsInput) (schema.SmartSuggestionsOutput, error)
	BookmarkInsight(ctx context.Context, in schema.BookmarkInsightInput) (schema.BookmarkInsightOutput, error)
}

type AIHandler struct {
	flows Flows
}

func NewAIHandler(flows Flows) *AIHandler {
	return &AIHandler{flows: flows}
}

// POST /api/ai/answer
func (h *AIHandler) AnswerDataQuestions(c *gin.Context) {
	var in schema.AnswerDataQuestionsInput
	if !bindJSON(c, &in) {
		return
	}
	out, err := h.flows.AnswerDataQuestions(c.Request.Context(), in)
	if err != nil {
		response.RespondFlowError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/ai/insight-cards
func (h *AIHandler) GenerateInsightCards(c *gin.Context) {
	var in schema.GenerateInsightCardsInput
	if !bindJSON(c, &in) {
		return
	}
	out, err := h.flows.GenerateInsightCards(c.Request.Context(), in)
	if err != nil {
		response.RespondFlowError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/ai/suggestions
func (h *AIHandler) GetSmartSuggestions(c *gin.Context) {
	var in schema.SmartSuggestionsInput
	if !bindJSON(c, &in) {
		return
	}
	out, err := h.flows.GetSmartSuggestions(c.Request.Context(), in)
	if err != nil {
		response.RespondFlowError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/ai/bookmarks
func (h *AIHandler) BookmarkInsight(c *gin.Context) {
	var in schema.BookmarkInsightInput
	if !bindJSON(c, &in) {
		return
	}
	out, err := h.flows.BookmarkInsight(c.Request.Context(), in)
	if err != nil {
		response.RespondFlowError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// bindJSON decodes the request body into dst and answers 400 on failure.
// An empty body decodes as the zero value so field validation reports the
// missing field by name.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.RespondError(c, http.StatusRequestEntityTooLarge, flowerr.CodeValidation, errors.New("request body too large"))
		c.Abort()
		return false
	}
	response.RespondFlowError(c, &flowerr.ValidationError{Field: "body", Reason: err.Error()})
	return false
}
