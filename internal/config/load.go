package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agenty/agenty-backend/internal/platform/envutil"
)

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		d.Duration = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		u, err := strconv.Unquote(s)
		if err != nil {
			return err
		}
		return d.parse(u)
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("duration must be a JSON string like \"5s\" or an int nanoseconds: %w", err)
	}
	d.Duration = time.Duration(n)
	return nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar, line %d", node.Line)
	}
	if node.Tag == "!!int" {
		n, err := strconv.ParseInt(node.Value, 10, 64)
		if err != nil {
			return err
		}
		d.Duration = time.Duration(n)
		return nil
	}
	return d.parse(node.Value)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration.String())
}

func (d *Duration) parse(s string) error {
	if strings.TrimSpace(s) == "" {
		d.Duration = 0
		return nil
	}
	dd, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	d.Duration = dd
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Env: "development",
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: Duration{Duration: 5 * time.Second},
			IdleTimeout:       Duration{Duration: 2 * time.Minute},
			ShutdownTimeout:   Duration{Duration: 15 * time.Second},
			MaxRequestBytes:   1 << 20,
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost:9002",
				"http://127.0.0.1:3000",
				"http://127.0.0.1:9002",
			},
		},
		AI: AIConfig{
			Engine: EngineConfig{
				Type:           "mock",
				JSONSchemaMode: "response_format",
			},
			Temperature:        0.2,
			Timeout:            Duration{Duration: 30 * time.Second},
			MaxBackendAttempts: 3,
			RetryInitial:       Duration{Duration: 500 * time.Millisecond},
			RetryMax:           Duration{Duration: 5 * time.Second},
			SchemaRetries:      1,
			MaxInsightCards:    20,
			MaxSuggestions:     3,
			SessionTTL:         Duration{Duration: 30 * time.Minute},
		},
		Hub: HubConfig{
			Store:       "memory",
			AutoMigrate: true,
		},
		Observability: ObservabilityConfig{
			ServiceName: "agenty-backend",
		},
	}
}

// Load builds the runtime config: defaults, then an optional JSON or YAML file
// (AGENTY_CONFIG_PATH or ./config/config.{json,yaml,yml}), then environment overrides.
func Load() (*Config, error) {
	cfg := defaultConfig()

	cfgPath := strings.TrimSpace(os.Getenv("AGENTY_CONFIG_PATH"))
	if cfgPath == "" {
		cfgPath = findDefaultFile()
	}
	if cfgPath != "" {
		if err := loadFile(cfgPath, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findDefaultFile() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for _, name := range []string{"config.json", "config.yaml", "config.yml"} {
		p := filepath.Join(wd, "config", name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// loadFile overlays the file onto cfg, so keys the file omits keep their defaults.
func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("LOG_MODE", cfg.Env)
	cfg.HTTP.Addr = envutil.String("HTTP_ADDR", cfg.HTTP.Addr)
	if v := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); v != "" {
		cfg.HTTP.AllowedOrigins = splitCSV(v)
	}

	e := &cfg.AI.Engine
	e.Type = envutil.String("AI_ENGINE", e.Type)
	e.Model = envutil.String("AI_MODEL", e.Model)
	e.BaseURL = envutil.String("AI_BASE_URL", e.BaseURL)
	e.APIKey = envutil.String("AI_API_KEY", e.APIKey)
	e.JSONSchemaMode = envutil.String("AI_JSON_SCHEMA_MODE", e.JSONSchemaMode)
	e.MaxOutputTokens = envutil.Int("AI_MAX_OUTPUT_TOKENS", e.MaxOutputTokens)
	// Provider-native key names, as the SDKs document them.
	if e.APIKey == "" {
		switch strings.ToLower(e.Type) {
		case "gemini":
			e.APIKey = firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
		case "anthropic":
			e.APIKey = firstEnv("ANTHROPIC_API_KEY")
		case "oai_http", "openai_http":
			e.APIKey = firstEnv("OPENAI_API_KEY")
		}
	}

	ai := &cfg.AI
	ai.Temperature = envutil.Float("AI_TEMPERATURE", ai.Temperature)
	ai.Timeout.Duration = envutil.Duration("AI_TIMEOUT", ai.Timeout.Duration)
	ai.MaxBackendAttempts = envutil.Int("AI_MAX_BACKEND_ATTEMPTS", ai.MaxBackendAttempts)
	ai.SchemaRetries = envutil.Int("AI_SCHEMA_RETRIES", ai.SchemaRetries)
	ai.MaxInsightCards = envutil.Int("AI_MAX_INSIGHT_CARDS", ai.MaxInsightCards)
	ai.MaxSuggestions = envutil.Int("AI_MAX_SUGGESTIONS", ai.MaxSuggestions)
	ai.SessionTTL.Duration = envutil.Duration("AI_SESSION_TTL", ai.SessionTTL.Duration)

	cfg.Hub.Store = envutil.String("HUB_STORE", cfg.Hub.Store)
	cfg.Hub.PostgresDSN = envutil.String("POSTGRES_DSN", cfg.Hub.PostgresDSN)
	cfg.Hub.AutoMigrate = envutil.Bool("HUB_AUTO_MIGRATE", cfg.Hub.AutoMigrate)

	cfg.Observability.MetricsEnabled = envutil.Bool("METRICS_ENABLED", cfg.Observability.MetricsEnabled)
	cfg.Observability.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.Observability.ServiceName)
}

func normalize(cfg *Config) error {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "development"
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.MaxRequestBytes <= 0 {
		cfg.HTTP.MaxRequestBytes = 1 << 20
	}

	e := &cfg.AI.Engine
	e.Type = strings.ToLower(strings.TrimSpace(e.Type))
	e.BaseURL = strings.TrimRight(strings.TrimSpace(e.BaseURL), "/")
	e.Model = strings.TrimSpace(e.Model)
	switch e.Type {
	case "mock":
		if e.Model == "" {
			e.Model = "mock-1"
		}
	case "openai_http", "oai_http":
		e.Type = "oai_http"
		if e.BaseURL == "" {
			return errors.New("ai.engine.base_url is required for oai_http")
		}
		if e.ChatCompletionsPath == "" {
			e.ChatCompletionsPath = "/v1/chat/completions"
		}
	case "gemini":
		if e.APIKey == "" {
			return errors.New("ai.engine.api_key (or GEMINI_API_KEY) is required for gemini")
		}
		if e.Model == "" {
			e.Model = "gemini-2.0-flash"
		}
	case "anthropic":
		if e.APIKey == "" {
			return errors.New("ai.engine.api_key (or ANTHROPIC_API_KEY) is required for anthropic")
		}
	default:
		return fmt.Errorf("unsupported ai.engine.type %q", e.Type)
	}
	if e.Model == "" {
		return fmt.Errorf("ai.engine.model is required for %s", e.Type)
	}
	e.JSONSchemaMode = strings.ToLower(strings.TrimSpace(e.JSONSchemaMode))
	switch e.JSONSchemaMode {
	case "":
		e.JSONSchemaMode = "response_format"
	case "response_format", "guided_json", "prompt", "none":
	default:
		return fmt.Errorf("invalid ai.engine.json_schema_mode=%q", e.JSONSchemaMode)
	}
	if e.MaxOutputTokens <= 0 {
		e.MaxOutputTokens = 4096
	}

	ai := &cfg.AI
	if ai.Temperature < 0 || ai.Temperature > 2 {
		return fmt.Errorf("ai.temperature must be within [0, 2], got %v", ai.Temperature)
	}
	if ai.Timeout.Duration <= 0 {
		ai.Timeout.Duration = 30 * time.Second
	}
	if ai.MaxBackendAttempts <= 0 {
		ai.MaxBackendAttempts = 3
	}
	if ai.RetryInitial.Duration <= 0 {
		ai.RetryInitial.Duration = 500 * time.Millisecond
	}
	if ai.RetryMax.Duration < ai.RetryInitial.Duration {
		ai.RetryMax.Duration = ai.RetryInitial.Duration
	}
	if ai.SchemaRetries < 0 {
		return errors.New("ai.schema_retries must not be negative")
	}
	if ai.MaxInsightCards <= 0 {
		ai.MaxInsightCards = 20
	}
	if ai.MaxSuggestions <= 0 {
		ai.MaxSuggestions = 3
	}
	if ai.SessionTTL.Duration <= 0 {
		ai.SessionTTL.Duration = 30 * time.Minute
	}

	cfg.Hub.Store = strings.ToLower(strings.TrimSpace(cfg.Hub.Store))
	switch cfg.Hub.Store {
	case "", "memory":
		cfg.Hub.Store = "memory"
	case "postgres":
		if strings.TrimSpace(cfg.Hub.PostgresDSN) == "" {
			return errors.New("hub.postgres_dsn (or POSTGRES_DSN) is required for the postgres store")
		}
	default:
		return fmt.Errorf("unsupported hub.store %q", cfg.Hub.Store)
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func splitCSV(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
