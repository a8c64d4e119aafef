package oaihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/agenty/agenty-backend/internal/ai/engine"
	"github.com/agenty/agenty-backend/internal/config"
	"github.com/agenty/agenty-backend/internal/platform/httpx"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func jsonResponse(status int, body any) *http.Response {
	b, _ := json.Marshal(body)
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(b)),
	}
}

func completion(content string) map[string]any {
	return map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
	}
}

var testSchema = &engine.JSONSchema{
	Name:   "smart_suggestions",
	Schema: map[string]any{"type": "object", "required": []any{"suggestions"}},
}

func TestGenerateText_ResponseFormat(t *testing.T) {
	cfg := config.EngineConfig{Type: "oai_http", BaseURL: "http://upstream", APIKey: "sk-test"}

	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.URL.Path != "/v1/chat/completions" {
				t.Fatalf("unexpected path: %s", req.URL.Path)
			}
			if got := req.Header.Get("Authorization"); got != "Bearer sk-test" {
				t.Fatalf("authorization=%q", got)
			}
			var payload map[string]any
			if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
				t.Fatalf("decode req: %v", err)
			}
			if payload["model"] != "gpt-4o-mini" {
				t.Fatalf("model=%v", payload["model"])
			}
			rf, _ := payload["response_format"].(map[string]any)
			if rf["type"] != "json_schema" {
				t.Fatalf("response_format=%v", payload["response_format"])
			}
			js, _ := rf["json_schema"].(map[string]any)
			if js["name"] != "smart_suggestions" {
				t.Fatalf("json_schema.name=%v", js["name"])
			}
			if _, ok := payload["guided_json"]; ok {
				t.Fatalf("guided_json must not be sent in response_format mode")
			}
			return jsonResponse(http.StatusOK, completion(`{"suggestions":["sales by region"]}`)), nil
		}),
	}

	e, err := NewWithHTTPClient(cfg, client)
	if err != nil {
		t.Fatalf("NewWithHTTPClient: %v", err)
	}
	out, err := e.GenerateText(context.Background(), "gpt-4o-mini", []engine.Message{
		{Role: engine.RoleSystem, Content: "sys"},
		{Role: engine.RoleUser, Content: "Current Query: sal"},
	}, engine.GenerateOptions{Temperature: 0.2, JSONSchema: testSchema})
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if out != `{"suggestions":["sales by region"]}` {
		t.Fatalf("out=%q", out)
	}
}

func TestGenerateText_PromptModeAppendsSchemaMessage(t *testing.T) {
	cfg := config.EngineConfig{Type: "oai_http", BaseURL: "http://upstream", JSONSchemaMode: "prompt"}

	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			var in chatCompletionRequest
			if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
				t.Fatalf("decode req: %v", err)
			}
			if len(in.Messages) != 3 {
				t.Fatalf("expected schema system message appended, got %d messages", len(in.Messages))
			}
			last := in.Messages[2]
			if last.Role != "system" || !strings.Contains(last.Content, "Return ONLY a valid JSON value") {
				t.Fatalf("unexpected last message: %+v", last)
			}
			if in.ResponseFormat != nil {
				t.Fatalf("response_format must be empty in prompt mode")
			}
			return jsonResponse(http.StatusOK, completion(`{}`)), nil
		}),
	}

	e, err := NewWithHTTPClient(cfg, client)
	if err != nil {
		t.Fatalf("NewWithHTTPClient: %v", err)
	}
	if _, err := e.GenerateText(context.Background(), "m", []engine.Message{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "u"},
	}, engine.GenerateOptions{JSONSchema: testSchema}); err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
}

func TestGenerateText_GuidedJSON(t *testing.T) {
	e, err := New(config.EngineConfig{BaseURL: "http://upstream", JSONSchemaMode: "guided_json"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req := e.buildChatRequest("m", []chatMessage{{Role: "user", Content: "u"}}, engine.GenerateOptions{JSONSchema: testSchema})
	if req.GuidedJSON == nil {
		t.Fatalf("expected guided_json")
	}
	if req.ResponseFormat["type"] != "json_object" {
		t.Fatalf("response_format=%v", req.ResponseFormat)
	}
}

func TestGenerateText_HTTPErrorCarriesStatus(t *testing.T) {
	cfg := config.EngineConfig{BaseURL: "http://upstream"}
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			resp := jsonResponse(http.StatusTooManyRequests, map[string]any{"error": "slow down"})
			resp.Header.Set("Retry-After", "2")
			return resp, nil
		}),
	}
	e, _ := NewWithHTTPClient(cfg, client)

	_, err := e.GenerateText(context.Background(), "m", []engine.Message{{Role: "user", Content: "u"}}, engine.GenerateOptions{})
	var he *HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if he.RetryAfter() != 2*time.Second {
		t.Fatalf("retry after=%v", he.RetryAfter())
	}
	if !httpx.IsRetryableError(err) {
		t.Fatalf("429 should be retryable")
	}
}

func TestGenerateText_EmptyChoices(t *testing.T) {
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, map[string]any{"choices": []any{}}), nil
		}),
	}
	e, _ := NewWithHTTPClient(config.EngineConfig{BaseURL: "http://upstream"}, client)
	out, err := e.GenerateText(context.Background(), "m", []engine.Message{{Role: "user", Content: "u"}}, engine.GenerateOptions{})
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if out != "" {
		t.Fatalf("out=%q", out)
	}
}

func TestGenerateText_NoMessages(t *testing.T) {
	e, _ := New(config.EngineConfig{BaseURL: "http://upstream"})
	if _, err := e.GenerateText(context.Background(), "m", []engine.Message{{Role: "user", Content: "  "}}, engine.GenerateOptions{}); err == nil {
		t.Fatalf("expected error for empty messages")
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(config.EngineConfig{}); err == nil {
		t.Fatalf("expected error")
	}
}
