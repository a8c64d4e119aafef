// Package engine abstracts the generative backends the flows call.
package engine

import (
	"context"
	"encoding/json"
	"strings"
)

const maxPromptSchemaBytes = 64 << 10

type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

type JSONSchema struct {
	Name   string
	Schema map[string]any
	Strict bool
}

type GenerateOptions struct {
	Temperature float64
	MaxTokens   int
	JSONSchema  *JSONSchema
}

// Engine performs one generation call. Implementations make a single upstream
// attempt; retry policy belongs to the caller. Errors that carry an upstream
// HTTP status should implement httpx.HTTPStatusCoder.
type Engine interface {
	GenerateText(ctx context.Context, model string, messages []Message, opts GenerateOptions) (string, error)
}

// SplitSystem joins system messages and user messages separately, for
// providers that take the system prompt out of band.
func SplitSystem(messages []Message) (system string, user string) {
	var sys, usr []string
	for _, m := range messages {
		if m.Content == "" {
			continue
		}
		if m.Role == RoleSystem {
			sys = append(sys, m.Content)
		} else {
			usr = append(usr, m.Content)
		}
	}
	return strings.Join(sys, "\n\n"), strings.Join(usr, "\n\n")
}

// StatusError attaches an upstream HTTP status to an SDK error so retry
// classification works the same across providers.
type StatusError struct {
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string       { return e.Err.Error() }
func (e *StatusError) Unwrap() error       { return e.Err }
func (e *StatusError) HTTPStatusCode() int { return e.StatusCode }

// SchemaPrompt renders a system instruction asking for JSON that matches s,
// for backends without native structured output.
func SchemaPrompt(s *JSONSchema) string {
	if s == nil {
		return ""
	}
	var schemaText string
	if s.Schema != nil {
		if b, err := json.Marshal(s.Schema); err == nil && len(b) <= maxPromptSchemaBytes {
			schemaText = string(b)
		}
	}

	var b strings.Builder
	b.WriteString("Return ONLY a valid JSON value that conforms to the provided JSON Schema. Do not include markdown or commentary.\n")
	if name := strings.TrimSpace(s.Name); name != "" {
		b.WriteString("Schema name: ")
		b.WriteString(name)
		b.WriteString("\n")
	}
	if schemaText != "" {
		b.WriteString("Schema:\n")
		b.WriteString(schemaText)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
