package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// PathEnv names the optional YAML file whose fields override the environment.
const PathEnv = "DRAFTCAST_CONFIG"

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config is the runtime configuration of the draftcast service.
type Config struct {
	Port          string        `yaml:"port"`
	FallbackDelay time.Duration `yaml:"fallback_delay"`
	Aoe2cm        Aoe2cmConfig  `yaml:"aoe2cm"`
	Presets       PresetConfig  `yaml:"presets"`
	Mirror        MirrorConfig  `yaml:"mirror"`
	Log           LogConfig     `yaml:"log"`
}

type Aoe2cmConfig struct {
	APIURL      string        `yaml:"api_url"`
	SocketURL   string        `yaml:"socket_url"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

type PresetConfig struct {
	Store    string `yaml:"store"`
	DSN      string `yaml:"dsn"`
	AutoSave bool   `yaml:"autosave"`
}

// MirrorConfig enables NATS mirroring when NATSURL is set.
type MirrorConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the environment, then applies the YAML file named by DRAFTCAST_CONFIG.
func Load() (Config, error) {
	cfg, err := FromEnv()
	if err != nil {
		return Config{}, err
	}
	if path := os.Getenv(PathEnv); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv reads every field from the environment with defaults.
func FromEnv() (Config, error) {
	var errs []string
	duration := func(key string, fallback time.Duration) time.Duration {
		d, err := getEnvAsDuration(key, fallback)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return d
	}
	autosave, err := getEnvAsBool("PRESET_AUTOSAVE", true)
	if err != nil {
		errs = append(errs, err.Error())
	}

	store := strings.ToLower(getEnv("PRESET_STORE", StoreSQLite))
	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		FallbackDelay: duration("FALLBACK_DELAY", 3*time.Second),
		Aoe2cm: Aoe2cmConfig{
			APIURL:      getEnv("AOE2CM_API_URL", "https://aoe2cm.net/api"),
			SocketURL:   getEnv("AOE2CM_SOCKET_URL", "wss://aoe2cm.net/socket.io/"),
			HTTPTimeout: duration("AOE2CM_HTTP_TIMEOUT", 15*time.Second),
		},
		Presets: PresetConfig{
			Store:    store,
			DSN:      getEnv("PRESET_DSN", defaultDSN(store)),
			AutoSave: autosave,
		},
		Mirror: MirrorConfig{
			NATSURL: getEnv("NATS_URL", ""),
			Subject: getEnv("MIRROR_SUBJECT", "draftcast.session"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "console")),
		},
	}
	if len(errs) > 0 {
		return cfg, fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	c.Presets.Store = strings.ToLower(c.Presets.Store)
	return nil
}

// Validate rejects values the service cannot start with.
func (c Config) Validate() error {
	switch c.Presets.Store {
	case StoreMemory:
	case StoreSQLite, StorePostgres:
		if c.Presets.DSN == "" {
			return fmt.Errorf("preset store %q needs a dsn", c.Presets.Store)
		}
	default:
		return fmt.Errorf("unknown preset store %q", c.Presets.Store)
	}
	if c.FallbackDelay <= 0 {
		return fmt.Errorf("fallback delay must be positive, got %s", c.FallbackDelay)
	}
	if c.Aoe2cm.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got %s", c.Aoe2cm.HTTPTimeout)
	}
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.Mirror.NATSURL != "" && c.Mirror.Subject == "" {
		return fmt.Errorf("mirror subject is required when nats url is set")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// MirrorEnabled reports whether views are mirrored over NATS.
func (c Config) MirrorEnabled() bool {
	return c.Mirror.NATSURL != ""
}

func defaultDSN(store string) string {
	switch store {
	case StoreSQLite:
		return "draftcast.db"
	case StorePostgres:
		return NewPostgresConfigFromEnv().DSN()
	default:
		return ""
	}
}
