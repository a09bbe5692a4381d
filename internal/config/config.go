package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"` // browser origins allowed to call the public API
}

type AdminConfig struct {
	Port       int           `yaml:"port"`
	APIKey     string        `yaml:"api_key"` // login credential exchanged for a session token
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // notification marker lifetime
}

type ChargilyConfig struct {
	APIKey string `yaml:"api_key"`
	// Mode selects the provider environment: "test" | "live".
	Mode string `yaml:"mode"`
	// BaseURL overrides the provider endpoint (tests); empty means derive from Mode.
	BaseURL string `yaml:"base_url"`
	// AllowedRedirectOrigins is the allow-list for success/failure URLs.
	AllowedRedirectOrigins []string `yaml:"allowed_redirect_origins"`
}

type EmailConfig struct {
	ResendAPIKey string `yaml:"resend_api_key"`
	CoachEmail   string `yaml:"coach_email"`
	From         string `yaml:"from"`
	ClientFrom   string `yaml:"client_from"` // sender for client confirmations
}

type AssistantConfig struct {
	GeminiKey       string `yaml:"gemini_key"`
	GeminiURL       string `yaml:"gemini_url"`
	Model           string `yaml:"model"`
	MaxOutputTokens int    `yaml:"max_output_tokens"`
	// RateLimit bounds chat calls per client IP per window.
	RateLimit  int           `yaml:"rate_limit"`
	RateWindow time.Duration `yaml:"rate_window"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Admin     AdminConfig     `yaml:"admin"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Chargily  ChargilyConfig  `yaml:"chargily"`
	Email     EmailConfig     `yaml:"email"`
	Assistant AssistantConfig `yaml:"assistant"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 3001
	}
	if cfg.Admin.Port <= 0 {
		cfg.Admin.Port = 9090
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Chargily.Mode == "" {
		cfg.Chargily.Mode = "test"
	}
	if cfg.Email.From == "" {
		cfg.Email.From = "Akram Coaching <onboarding@resend.dev>"
	}
	if cfg.Email.ClientFrom == "" {
		cfg.Email.ClientFrom = "Coach Akram <onboarding@resend.dev>"
	}
	if cfg.Assistant.Model == "" {
		cfg.Assistant.Model = "gemini-2.5-flash"
	}
	if cfg.Assistant.MaxOutputTokens <= 0 {
		cfg.Assistant.MaxOutputTokens = 1024
	}
	if cfg.Assistant.RateLimit <= 0 {
		cfg.Assistant.RateLimit = 20
	}
	if cfg.Assistant.RateWindow <= 0 {
		cfg.Assistant.RateWindow = time.Minute
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Chargily.Mode != "test" && cfg.Chargily.Mode != "live" {
		return nil, fmt.Errorf("chargily.mode must be test or live, got %q", cfg.Chargily.Mode)
	}
	if len(cfg.Chargily.AllowedRedirectOrigins) == 0 {
		return nil, errors.New("chargily.allowed_redirect_origins is required")
	}
	for _, o := range cfg.Chargily.AllowedRedirectOrigins {
		u, err := url.Parse(o)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("chargily.allowed_redirect_origins: %q is not an absolute origin", o)
		}
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 30 * 24 * time.Hour
	}
	return d
}
