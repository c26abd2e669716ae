package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for all environment variables read by Load.
// DRAFTMILL_DATABASE_URL maps to database.url, and so on.
const envPrefix = "DRAFTMILL"

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables take precedence
// over values from the config file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing config file is fine; env vars alone can fully configure the
	// application. Any other read error is real.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Viper only reads env vars for keys it knows about, so bind every key
	// that appears in the Config struct explicitly.
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env var for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// configKeys lists every configuration key so env-only setups work without a
// config file. Keep in sync with the Config struct.
var configKeys = []string{
	"server.port",
	"server.log_level",
	"database.url",
	"llm.gemini_api_key",
	"llm.model_name",
	"llm.structured_model_name",
	"llm.embedding_model_name",
	"llm.max_retries",
	"llm.retry_delay_seconds",
	"storage.endpoint",
	"storage.access_key",
	"storage.secret_key",
	"storage.bucket",
	"storage.use_ssl",
	"web.crawl_base_url",
	"web.search_base_url",
	"web.api_key",
	"web.crawl_max_depth",
	"web.crawl_page_limit",
	"tasks.worker_count",
	"tasks.queue_size",
	"tasks.max_retries",
	"tasks.stuck_task_age_minutes",
}

// setDefaults applies defaults for settings that have sensible ones.
// Secrets and endpoints have no defaults on purpose.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.structured_model_name", "gemini-2.0-flash")
	v.SetDefault("llm.embedding_model_name", "text-embedding-004")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)
	v.SetDefault("web.crawl_max_depth", 2)
	v.SetDefault("web.crawl_page_limit", 50)
	v.SetDefault("tasks.worker_count", 4)
	v.SetDefault("tasks.queue_size", 100)
	v.SetDefault("tasks.max_retries", 3)
	v.SetDefault("tasks.stuck_task_age_minutes", 30)
}
