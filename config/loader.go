package config

import (
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultBaseURL is the public Metlink Open Data API root.
	DefaultBaseURL = "https://api.opendata.metlink.org.nz/v1"

	defaultPort             = 16180
	defaultRequestTimeoutMS = 10_000
	defaultIntervalSeconds  = 30
)

// Load reads the application configuration from the first config.yml found,
// applies environment overrides and defaults, and validates the result.
// A missing config file is not an error; env vars alone are enough to run.
func Load(paths ...string) (AppConfig, error) {
	if len(paths) == 0 {
		paths = []string{"config.yml", "./config/config.yml"}
	}

	// .env is optional and never overrides variables already exported.
	_ = godotenv.Load()

	var cfg AppConfig
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return AppConfig{}, err
		}
		break
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	v := validator.New()
	if err := v.Struct(cfg.Server); err != nil {
		return AppConfig{}, err
	}
	if err := v.Struct(cfg.API); err != nil {
		return AppConfig{}, err
	}
	if err := v.Struct(cfg.Refresh); err != nil {
		return AppConfig{}, err
	}
	if err := v.Struct(cfg.Logging); err != nil {
		return AppConfig{}, err
	}
	for _, w := range cfg.Watches {
		if err := v.Struct(w); err != nil {
			return AppConfig{}, err
		}
	}
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	if key := os.Getenv("METLINK_API_KEY"); key != "" {
		cfg.API.Key = key
	}
	if base := os.Getenv("METLINK_BASE_URL"); base != "" {
		cfg.API.BaseURL = base
	}
	if port := os.Getenv("PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = n
		}
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}
	if cfg.API.RequestTimeoutMS == 0 {
		cfg.API.RequestTimeoutMS = defaultRequestTimeoutMS
	}
	if cfg.Refresh.IntervalSeconds == 0 {
		cfg.Refresh.IntervalSeconds = defaultIntervalSeconds
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
