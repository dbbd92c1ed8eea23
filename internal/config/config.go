package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const minBatchDelay = 100 * time.Millisecond

// Config holds runtime configuration values for the API service and the reaper.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	LogLevel          string
	LogFormat         string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	EventsChannel     string
	JWTSecret         string
	AIProvider        string
	AIModel           string
	AIMaxTokens       int
	AITemperature     float32
	OpenAIAPIKey      string
	GeminiAPIKey      string
	JudgeTimeout      time.Duration
	JudgeCacheTTL     time.Duration
	JudgeFingerprint  string
	ScoringBatchDelay time.Duration
	ScoringRateLimit  int
	CORSAllowOrigins  string
	ReaperSchedule    string
	ReaperTickTimeout time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// UsesSQLite reports whether the database URL points at a local SQLite file.
func (c Config) UsesSQLite() bool {
	return strings.HasPrefix(c.DatabaseURL, "sqlite://") || strings.HasPrefix(c.DatabaseURL, "file:")
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CODEASSESS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "CodeAssess API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("events.channel", "assessment.completed")
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.max_tokens", 300)
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("judge.timeout", "30s")
	v.SetDefault("judge.cache_ttl", "24h")
	v.SetDefault("judge.fingerprint", "sha256")
	v.SetDefault("scoring.batch_delay", "100ms")
	v.SetDefault("scoring.rate_limit", 30)
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("reaper.schedule", "@every 5m")
	v.SetDefault("reaper.tick_timeout", "4m")

	durations := map[string]time.Duration{}
	for _, key := range []string{"judge.timeout", "judge.cache_ttl", "scoring.batch_delay", "reaper.tick_timeout"} {
		value, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		if value <= 0 {
			return Config{}, fmt.Errorf("%s must be positive", key)
		}
		durations[key] = value
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		LogLevel:          v.GetString("log.level"),
		LogFormat:         v.GetString("log.format"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		EventsChannel:     v.GetString("events.channel"),
		JWTSecret:         v.GetString("jwt.secret"),
		AIProvider:        strings.ToLower(v.GetString("ai.provider")),
		AIModel:           v.GetString("ai.model"),
		AIMaxTokens:       v.GetInt("ai.max_tokens"),
		AITemperature:     float32(v.GetFloat64("ai.temperature")),
		OpenAIAPIKey:      v.GetString("openai_api_key"),
		GeminiAPIKey:      v.GetString("gemini_api_key"),
		JudgeTimeout:      durations["judge.timeout"],
		JudgeCacheTTL:     durations["judge.cache_ttl"],
		JudgeFingerprint:  strings.ToLower(v.GetString("judge.fingerprint")),
		ScoringBatchDelay: durations["scoring.batch_delay"],
		ScoringRateLimit:  v.GetInt("scoring.rate_limit"),
		CORSAllowOrigins:  v.GetString("cors.allow_origins"),
		ReaperSchedule:    v.GetString("reaper.schedule"),
		ReaperTickTimeout: durations["reaper.tick_timeout"],
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.AIProvider {
	case "openai", "gemini", "none":
	default:
		return Config{}, fmt.Errorf("unsupported ai provider %q", cfg.AIProvider)
	}

	switch cfg.JudgeFingerprint {
	case "sha256", "prefix":
	default:
		return Config{}, fmt.Errorf("unsupported judge fingerprint %q", cfg.JudgeFingerprint)
	}

	if cfg.ScoringBatchDelay < minBatchDelay {
		cfg.ScoringBatchDelay = minBatchDelay
	}

	if cfg.AIMaxTokens <= 0 {
		cfg.AIMaxTokens = 300
	}

	if cfg.ScoringRateLimit <= 0 {
		return Config{}, fmt.Errorf("scoring.rate_limit must be positive")
	}

	return cfg, nil
}
