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
	AppName            string
	AppEnv             string
	AppPort            string
	LogLevel           string
	AllowOrigin        string
	DatabaseDriver     string
	DatabaseURL        string
	RedisURL           string
	NATSURL            string
	EventChannel       string
	JWTSecret          string
	OpenAIAPIKey       string
	OpenAIModel        string
	OpenAIBaseURL      string
	GradingTimeout     time.Duration
	GradingMinInterval time.Duration
	AnalyticsCacheTTL  time.Duration
	SubmitRateLimit    int
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
	v.SetEnvPrefix("EXAM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GEMA Exam API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.allow_origin", "*")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("event.channel", "exam")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("grading.timeout", "20s")
	v.SetDefault("grading.min_interval", "1s")
	v.SetDefault("analytics.cache_ttl", "5m")
	v.SetDefault("submit.rate_limit", 5)

	gradingTimeout, err := parseDuration(v, "grading.timeout")
	if err != nil {
		return Config{}, err
	}
	minInterval, err := parseDuration(v, "grading.min_interval")
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := parseDuration(v, "analytics.cache_ttl")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		LogLevel:           strings.ToLower(v.GetString("app.log_level")),
		AllowOrigin:        v.GetString("app.allow_origin"),
		DatabaseDriver:     strings.ToLower(v.GetString("database.driver")),
		DatabaseURL:        v.GetString("database.url"),
		RedisURL:           v.GetString("redis.url"),
		NATSURL:            v.GetString("nats.url"),
		EventChannel:       v.GetString("event.channel"),
		JWTSecret:          v.GetString("jwt.secret"),
		OpenAIAPIKey:       v.GetString("openai.api_key"),
		OpenAIModel:        v.GetString("openai.model"),
		OpenAIBaseURL:      v.GetString("openai.base_url"),
		GradingTimeout:     gradingTimeout,
		GradingMinInterval: minInterval,
		AnalyticsCacheTTL:  cacheTTL,
		SubmitRateLimit:    v.GetInt("submit.rate_limit"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if cfg.SubmitRateLimit <= 0 {
		cfg.SubmitRateLimit = 5
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	value, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return value, nil
}
