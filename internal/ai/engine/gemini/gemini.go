// Package gemini runs flows against Google's Gemini API through the genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/agenty/agenty-backend/internal/ai/engine"
	"github.com/agenty/agenty-backend/internal/config"
)

type Engine struct {
	client *genai.Client
}

func New(ctx context.Context, cfg config.EngineConfig) (*Engine, error) {
	return NewWithHTTPClient(ctx, cfg, nil)
}

// NewWithHTTPClient lets tests point the SDK at an httptest server.
func NewWithHTTPClient(ctx context.Context, cfg config.EngineConfig, httpClient *http.Client) (*Engine, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini: api key required")
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Engine{client: client}, nil
}

func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	system, user := engine.SplitSystem(messages)
	if strings.TrimSpace(user) == "" {
		return "", errors.New("no messages")
	}

	temp := float32(opts.Temperature)
	gc := &genai.GenerateContentConfig{Temperature: &temp}
	if opts.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if system != "" {
		gc.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if opts.JSONSchema != nil {
		gc.ResponseMIMEType = "application/json"
		gc.ResponseJsonSchema = opts.JSONSchema.Schema
	}

	resp, err := e.client.Models.GenerateContent(ctx, model, []*genai.Content{
		genai.NewContentFromText(user, genai.RoleUser),
	}, gc)
	if err != nil {
		return "", wrapError(err)
	}
	return resp.Text(), nil
}

func wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &engine.StatusError{StatusCode: apiErr.Code, Err: fmt.Errorf("gemini: %w", err)}
	}
	return fmt.Errorf("gemini: %w", err)
}
