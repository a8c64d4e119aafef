package config

import "time"

type Duration struct {
	Duration time.Duration
}

type HTTPConfig struct {
	Addr              string   `json:"addr" yaml:"addr"`
	ReadHeaderTimeout Duration `json:"read_header_timeout" yaml:"read_header_timeout"`
	IdleTimeout       Duration `json:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout   Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxRequestBytes   int64    `json:"max_request_bytes" yaml:"max_request_bytes"`

	// AllowedOrigins is the CORS allow-list for the dashboard front end.
	AllowedOrigins []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`
}

type EngineConfig struct {
	// Type is one of mock, oai_http, gemini, anthropic.
	Type string `json:"type" yaml:"type"`

	// Model is the upstream model id sent to the engine.
	Model string `json:"model" yaml:"model"`

	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// ChatCompletionsPath applies to oai_http engines.
	ChatCompletionsPath string `json:"chat_completions_path,omitempty" yaml:"chat_completions_path,omitempty"`

	// JSONSchemaMode controls how oai_http asks for structured output:
	// - "response_format": OpenAI json_schema response_format
	// - "guided_json": vLLM-style guided decoding field
	// - "prompt": schema text appended as a system message
	// - "none": rely on prompt wording only
	JSONSchemaMode string `json:"json_schema_mode,omitempty" yaml:"json_schema_mode,omitempty"`

	MaxOutputTokens int `json:"max_output_tokens,omitempty" yaml:"max_output_tokens,omitempty"`
}

type AIConfig struct {
	Engine EngineConfig `json:"engine" yaml:"engine"`

	Temperature float64 `json:"temperature" yaml:"temperature"`

	// Timeout bounds a single backend attempt.
	Timeout Duration `json:"timeout" yaml:"timeout"`

	// MaxBackendAttempts is the total number of tries for transient backend failures.
	MaxBackendAttempts int      `json:"max_backend_attempts" yaml:"max_backend_attempts"`
	RetryInitial       Duration `json:"retry_initial" yaml:"retry_initial"`
	RetryMax           Duration `json:"retry_max" yaml:"retry_max"`

	// SchemaRetries is the number of corrective re-prompts after invalid or empty output.
	SchemaRetries int `json:"schema_retries" yaml:"schema_retries"`

	MaxInsightCards int `json:"max_insight_cards" yaml:"max_insight_cards"`
	MaxSuggestions  int `json:"max_suggestions" yaml:"max_suggestions"`

	// SessionTTL is how long an idle session's request sequence is remembered.
	SessionTTL Duration `json:"session_ttl" yaml:"session_ttl"`
}

type HubConfig struct {
	// Store is memory or postgres.
	Store       string `json:"store" yaml:"store"`
	PostgresDSN string `json:"postgres_dsn,omitempty" yaml:"postgres_dsn,omitempty"`
	AutoMigrate bool   `json:"auto_migrate" yaml:"auto_migrate"`
}

type ObservabilityConfig struct {
	ServiceName    string `json:"service_name" yaml:"service_name"`
	Version        string `json:"version,omitempty" yaml:"version,omitempty"`
	MetricsEnabled bool   `json:"metrics_enabled" yaml:"metrics_enabled"`
}

type Config struct {
	Env           string              `json:"env" yaml:"env"`
	HTTP          HTTPConfig          `json:"http" yaml:"http"`
	AI            AIConfig            `json:"ai" yaml:"ai"`
	Hub           HubConfig           `json:"hub" yaml:"hub"`
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`
}
