// Package router picks the engine implementation for the configured backend.
package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenty/agenty-backend/internal/ai/engine"
	"github.com/agenty/agenty-backend/internal/ai/engine/anthropic"
	"github.com/agenty/agenty-backend/internal/ai/engine/gemini"
	"github.com/agenty/agenty-backend/internal/ai/engine/mock"
	"github.com/agenty/agenty-backend/internal/ai/engine/oaihttp"
	"github.com/agenty/agenty-backend/internal/config"
)

// Route binds the upstream model id to the engine that serves it.
type Route struct {
	Model      string
	EngineType string
	Engine     engine.Engine
}

func New(ctx context.Context, cfg config.EngineConfig) (Route, error) {
	typ := strings.ToLower(strings.TrimSpace(cfg.Type))
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return Route{}, fmt.Errorf("model required for engine %q", typ)
	}

	var eng engine.Engine
	switch typ {
	case "mock":
		eng = mock.New()
	case "openai_http", "oai_http":
		e, err := oaihttp.New(cfg)
		if err != nil {
			return Route{}, err
		}
		eng, typ = e, "oai_http"
	case "gemini":
		e, err := gemini.New(ctx, cfg)
		if err != nil {
			return Route{}, err
		}
		eng = e
	case "anthropic":
		e, err := anthropic.New(cfg)
		if err != nil {
			return Route{}, err
		}
		eng = e
	default:
		return Route{}, fmt.Errorf("unsupported engine type %q", cfg.Type)
	}
	return Route{Model: model, EngineType: typ, Engine: eng}, nil
}
