package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Sessions      SessionsConfig
	Target        TargetConfig
	Pipeline      PipelineConfig
	AI            AIConfig
	Reports       ReportsConfig
	Observability ObservabilityConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// SessionsConfig points at the Redis document store holding chat sessions,
// conversation turns and stored connection records.
type SessionsConfig struct {
	RedisAddress  string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

// TargetConfig bounds every per-request connection to a customer database.
type TargetConfig struct {
	ConnectTimeout time.Duration
	QueryTimeout   time.Duration
}

type PipelineConfig struct {
	HistoryWindow int
	ResultSample  int
	MaxResultRows int
}

// AIConfig configures the OpenAI-compatible chat-completions endpoint. An empty
// APIKey is a valid, permanently degraded configuration: every LLM consumer
// falls back to its deterministic path.
type AIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

type ReportsConfig struct {
	Enabled          bool
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("ASKDB_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid ASKDB_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	if err := applyString(lookup, "ASKDB_SERVICE_NAME", &cfg.Service.Name); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_HTTP_ADDR", &cfg.HTTP.Address); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ASKDB_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ASKDB_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ASKDB_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_SESSIONS_REDIS_ADDR", &cfg.Sessions.RedisAddress); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_SESSIONS_REDIS_PASSWORD", &cfg.Sessions.RedisPassword); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "ASKDB_SESSIONS_REDIS_DB", &cfg.Sessions.RedisDB); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ASKDB_SESSIONS_TTL", &cfg.Sessions.TTL); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ASKDB_TARGET_CONNECT_TIMEOUT", &cfg.Target.ConnectTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ASKDB_TARGET_QUERY_TIMEOUT", &cfg.Target.QueryTimeout); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "ASKDB_PIPELINE_HISTORY_WINDOW", &cfg.Pipeline.HistoryWindow); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "ASKDB_PIPELINE_RESULT_SAMPLE", &cfg.Pipeline.ResultSample); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "ASKDB_PIPELINE_MAX_RESULT_ROWS", &cfg.Pipeline.MaxResultRows); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_AI_BASE_URL", &cfg.AI.BaseURL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_AI_API_KEY", &cfg.AI.APIKey); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_AI_MODEL", &cfg.AI.Model); err != nil {
		return Config{}, err
	}
	if err := applyFloat(lookup, "ASKDB_AI_TEMPERATURE", &cfg.AI.Temperature); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "ASKDB_AI_MAX_TOKENS", &cfg.AI.MaxTokens); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ASKDB_AI_TIMEOUT", &cfg.AI.Timeout); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "ASKDB_REPORTS_ENABLED", &cfg.Reports.Enabled); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_REPORTS_ENDPOINT", &cfg.Reports.Endpoint); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_REPORTS_REGION", &cfg.Reports.Region); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_REPORTS_BUCKET", &cfg.Reports.Bucket); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_REPORTS_ACCESS_KEY", &cfg.Reports.AccessKeyID); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_REPORTS_SECRET_KEY", &cfg.Reports.SecretAccessKey); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "ASKDB_REPORTS_USE_SSL", &cfg.Reports.UseSSL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_REPORTS_PREFIX", &cfg.Reports.Prefix); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "ASKDB_REPORTS_AUTO_CREATE_BUCKET", &cfg.Reports.AutoCreateBucket); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "ASKDB_LOG_JSON", &cfg.Observability.LogJSON); err != nil {
		return Config{}, err
	}
	if err := applyLogLevel(lookup, "ASKDB_LOG_LEVEL", &cfg.Observability.LogLevel); err != nil {
		return Config{}, err
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	if cfg.Sessions.RedisAddress == "" {
		return Config{}, fmt.Errorf("sessions redis address is required")
	}
	if cfg.Pipeline.HistoryWindow <= 0 {
		return Config{}, fmt.Errorf("pipeline history window must be positive")
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "askdb-api"},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Sessions: SessionsConfig{
			RedisAddress: "localhost:6379",
			RedisDB:      0,
			TTL:          0,
		},
		Target: TargetConfig{
			ConnectTimeout: 5 * time.Second,
			QueryTimeout:   30 * time.Second,
		},
		Pipeline: PipelineConfig{
			HistoryWindow: 6,
			ResultSample:  5,
			MaxResultRows: 10,
		},
		AI: AIConfig{
			BaseURL:     "https://api.openai.com",
			Model:       "gpt-4o-mini",
			Temperature: 0.1,
			MaxTokens:   1024,
			Timeout:     30 * time.Second,
		},
		Reports: ReportsConfig{
			Enabled:          false,
			Endpoint:         "localhost:9000",
			Region:           "us-east-1",
			Bucket:           "askdb-reports",
			AccessKeyID:      "minio",
			SecretAccessKey:  "miniostorage",
			UseSSL:           false,
			Prefix:           "",
			AutoCreateBucket: true,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Observability.LogLevel = slog.LevelWarn
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Reports.UseSSL = true
		cfg.Reports.AutoCreateBucket = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
