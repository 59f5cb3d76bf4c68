package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port        string   `yaml:"port"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL            string `yaml:"ttl"`
		FiftyFiftyCost int    `yaml:"fifty_fifty_cost"`
		PointDoublers  int    `yaml:"point_doublers"`
		DoublerStreak  int    `yaml:"doubler_streak"`
	} `yaml:"quiz"`
	AI struct {
		BaseURL    string `yaml:"base_url"`
		APIKey     string `yaml:"api_key"`
		Model      string `yaml:"model"`
		DailyLimit int    `yaml:"daily_limit"`
		Timeout    string `yaml:"timeout"`
	} `yaml:"ai"`
	Auth struct {
		Secret   string `yaml:"secret"`
		TokenTTL string `yaml:"token_ttl"`
	} `yaml:"auth"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
}

// Defaults returns a config usable without any file: in-memory stores and
// the standard game rules.
func Defaults() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Redis.TTL = "10m"
	cfg.Quiz.TTL = "10m"
	cfg.Quiz.FiftyFiftyCost = 250
	cfg.Quiz.PointDoublers = 1
	cfg.Quiz.DoublerStreak = 3
	cfg.AI.Model = "gpt-4o-mini"
	cfg.AI.DailyLimit = 15
	cfg.AI.Timeout = "60s"
	cfg.Auth.TokenTTL = "12h"
	cfg.Log.Level = "info"
	return cfg
}

// Load reads YAML config from path over the defaults, then applies
// environment overrides. A .env file in the working directory is loaded first
// when present. A missing config file is not an error.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return cfg, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Postgres.URL, "POSTGRES_URL")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Auth.Secret, "AUTH_SECRET")
	setString(&cfg.AI.BaseURL, "AI_BASE_URL")
	setString(&cfg.AI.APIKey, "AI_API_KEY")
	setString(&cfg.AI.Model, "AI_MODEL")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	if v := os.Getenv("AI_DAILY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AI.DailyLimit = n
		}
	}
	if os.Getenv("APP_ENV") == "development" {
		cfg.Log.Development = true
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
