package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

type Config struct {
	Mode Mode `env:"MODE" envDefault:"local"`

	Port      string `env:"PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	GCPProjectID string `env:"GCP_PROJECT"`
	GCPLocation  string `env:"GCP_LOCATION" envDefault:"us-central1"`
	ModelName    string `env:"MODEL_NAME" envDefault:"gemini-2.5-flash-lite"`

	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"memory"` // "memory", "firestore" or "sqlite"
	SQLitePath     string `env:"SQLITE_PATH" envDefault:"advocate.db"`

	CongressAPIURL  string        `env:"CONGRESS_API_URL" envDefault:"https://api.congress.gov/v3"`
	CongressAPIKey  string        `env:"CONGRESS_API_KEY"`
	CurrentCongress int           `env:"CURRENT_CONGRESS" envDefault:"119"`
	HTTPTimeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`

	UseMockLLM      bool    `env:"USE_MOCK_LLM"`
	UseMockCongress bool    `env:"USE_MOCK_CONGRESS"`
	GenerationRPS   float64 `env:"GENERATION_RPS" envDefault:"1"`
	GenerationBurst int     `env:"GENERATION_BURST" envDefault:"3"`

	SessionTTL         time.Duration `env:"SESSION_TTL" envDefault:"2h"`
	SendAnimationDelay time.Duration `env:"SEND_ANIMATION_DELAY" envDefault:"2500ms"`

	DisclosureDefaultOn bool `env:"DISCLOSURE_DEFAULT_ON"`
	RequireFullName     bool `env:"REQUIRE_FULL_NAME"`
}

// Load reads all ADVOCATE_* env vars and builds the config.
func Load() (*Config, error) {
	return LoadEnv(nil)
}

// LoadEnv is Load over an explicit environment; nil means the process env.
func LoadEnv(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	opts := env.Options{Prefix: "ADVOCATE_"}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	// Unknown modes fall back to local
	if cfg.Mode != ModeGCP {
		cfg.Mode = ModeLocal
	}
	if _, set := lookup(environ, "ADVOCATE_USE_MOCK_LLM"); !set {
		cfg.UseMockLLM = cfg.Mode == ModeLocal
	}
	if _, set := lookup(environ, "ADVOCATE_USE_MOCK_CONGRESS"); !set {
		cfg.UseMockCongress = cfg.Mode == ModeLocal
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	// Minimal validation in GCP mode
	if c.Mode == ModeGCP && c.GCPProjectID == "" {
		return fmt.Errorf("ADVOCATE_GCP_PROJECT must be set in gcp mode")
	}
	switch c.StorageBackend {
	case "memory", "sqlite":
	case "firestore":
		if c.GCPProjectID == "" {
			return fmt.Errorf("ADVOCATE_GCP_PROJECT is required for the firestore backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	if !c.UseMockCongress && c.CongressAPIKey == "" {
		return fmt.Errorf("ADVOCATE_CONGRESS_API_KEY is required unless ADVOCATE_USE_MOCK_CONGRESS is set")
	}
	if c.GenerationRPS <= 0 {
		return fmt.Errorf("ADVOCATE_GENERATION_RPS must be positive")
	}
	return nil
}

func lookup(environ map[string]string, key string) (string, bool) {
	if environ == nil {
		return os.LookupEnv(key)
	}
	v, ok := environ[key]
	return v, ok
}
