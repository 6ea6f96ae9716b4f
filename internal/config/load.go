package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config file. A .env file in the working directory is loaded first
// (development convenience); environment variables take precedence over
// values from the config file. Returns a populated Config or an error if
// loading or validation fails.
func Load() (*Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("CASELIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("caselight")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/caselight")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	// Keys with no meaningful default still need to be registered so
	// AutomaticEnv can surface them during Unmarshal.
	v.SetDefault("database.url", "")
	v.SetDefault("cache.dir", "")
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("media.openai_api_key", "")
	v.SetDefault("blob.bucket", "")
	v.SetDefault("blob.region", "")
	v.SetDefault("blob.endpoint", "")
	v.SetDefault("blob.access_key_id", "")
	v.SetDefault("blob.secret_access_key", "")

	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)

	v.SetDefault("media.speech_model", "tts-1")
	v.SetDefault("media.speech_voice", "alloy")
	v.SetDefault("media.image_model", "dall-e-3")
	v.SetDefault("media.image_size", "1024x1024")

	v.SetDefault("orchestrator.concurrency", 5)
	v.SetDefault("orchestrator.poll_interval_seconds", 2)
	v.SetDefault("orchestrator.stall_window_seconds", 10)
	v.SetDefault("orchestrator.max_polls", 60)
}
