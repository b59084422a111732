package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                  string
	AppEnv                   string
	AppPort                  string
	DatabaseURL              string
	RedisURL                 string
	NATSURL                  string
	OpenAIAPIKey             string
	AIModel                  string
	DivergenceThreshold      float64
	RetrievalTopK            int
	MaxConcurrentInvocations int
	InvocationDelay          time.Duration
	FallbackScore            float64
	StatusCacheTTL           time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("EXAMINA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Examina API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("grading.divergence_threshold", 2.0)
	v.SetDefault("grading.retrieval_top_k", 4)
	v.SetDefault("grading.max_concurrent_invocations", 4)
	v.SetDefault("grading.invocation_delay", "0s")
	v.SetDefault("grading.fallback_score", 0.0)
	v.SetDefault("grading.status_cache_ttl", "10m")

	delay, err := time.ParseDuration(v.GetString("grading.invocation_delay"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid invocation delay: %w", err)
	}

	ttl, err := time.ParseDuration(v.GetString("grading.status_cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid status cache ttl: %w", err)
	}

	cfg := Config{
		AppName:                  v.GetString("app.name"),
		AppEnv:                   v.GetString("app.env"),
		AppPort:                  v.GetString("app.port"),
		DatabaseURL:              v.GetString("database.url"),
		RedisURL:                 v.GetString("redis.url"),
		NATSURL:                  v.GetString("nats.url"),
		OpenAIAPIKey:             v.GetString("openai_api_key"),
		AIModel:                  v.GetString("ai.model"),
		DivergenceThreshold:      v.GetFloat64("grading.divergence_threshold"),
		RetrievalTopK:            v.GetInt("grading.retrieval_top_k"),
		MaxConcurrentInvocations: v.GetInt("grading.max_concurrent_invocations"),
		InvocationDelay:          delay,
		FallbackScore:            v.GetFloat64("grading.fallback_score"),
		StatusCacheTTL:           ttl,
	}

	if cfg.OpenAIAPIKey == "" {
		return Config{}, fmt.Errorf("openai api key must be provided")
	}

	if cfg.DivergenceThreshold <= 0 {
		cfg.DivergenceThreshold = 2.0
	}

	if cfg.RetrievalTopK <= 0 {
		cfg.RetrievalTopK = 4
	}

	if cfg.MaxConcurrentInvocations <= 0 {
		cfg.MaxConcurrentInvocations = 4
	}

	return cfg, nil
}
