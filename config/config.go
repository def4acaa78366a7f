package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Config aggregates runtime configuration for the client.
type Config struct {
	API           APIConfig          `toml:"api"`
	Storage       StorageConfig      `toml:"storage"`
	Notifications NotificationConfig `toml:"notifications"`
	Routes        RoutesConfig       `toml:"routes"`
	Log           LogConfig          `toml:"log"`
}

// APIConfig controls how the API is reached.
type APIConfig struct {
	BaseURL     string   `toml:"base_url"`
	Timeout     Duration `toml:"timeout"`
	TokenHeader string   `toml:"token_header"`
	// RateLimit is requests per second, 0 disables throttling
	RateLimit float64 `toml:"rate_limit"`
	Burst     int     `toml:"burst"`
}

// StorageConfig selects the credential store backend.
type StorageConfig struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
	Key    string `toml:"key"`
}

// NotificationConfig controls the notification queue.
type NotificationConfig struct {
	Timeout Duration `toml:"timeout"`
}

// RoutesConfig holds navigation targets.
type RoutesConfig struct {
	Login string `toml:"login"`
	Home  string `toml:"home"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level string `toml:"level"`
}

// Duration decodes "10s" style strings.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     "http://localhost:5050",
			Timeout:     Duration{10 * time.Second},
			TokenHeader: "x-auth-token",
			Burst:       1,
		},
		Storage: StorageConfig{
			Driver: StorageMemory,
			Key:    "token",
		},
		Notifications: NotificationConfig{
			Timeout: Duration{5 * time.Second},
		},
		Routes: RoutesConfig{
			Login: "/login",
			Home:  "/",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load applies, in order: defaults, the TOML file at path (skipped when
// path is empty), a .env file when present and TALENT_* environment
// variables. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to decode config file").
				WithMetadata(map[string]any{"path": path})
		}
	}

	_ = godotenv.Load()

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid config")
	}

	return cfg, nil
}

// ApplyEnv overrides fields from TALENT_* environment variables.
func (c *Config) ApplyEnv() error {
	c.API.BaseURL = getEnv("TALENT_API_BASE_URL", c.API.BaseURL)
	c.API.TokenHeader = getEnv("TALENT_API_TOKEN_HEADER", c.API.TokenHeader)
	c.API.Burst = getEnvAsInt("TALENT_API_BURST", c.API.Burst)
	c.Storage.Driver = getEnv("TALENT_STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.Path = getEnv("TALENT_STORAGE_PATH", c.Storage.Path)
	c.Storage.Key = getEnv("TALENT_STORAGE_KEY", c.Storage.Key)
	c.Routes.Login = getEnv("TALENT_ROUTES_LOGIN", c.Routes.Login)
	c.Routes.Home = getEnv("TALENT_ROUTES_HOME", c.Routes.Home)
	c.Log.Level = getEnv("TALENT_LOG_LEVEL", c.Log.Level)

	if val := os.Getenv("TALENT_API_RATE_LIMIT"); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return envError("TALENT_API_RATE_LIMIT", err)
		}
		c.API.RateLimit = parsed
	}

	var err error
	if c.API.Timeout.Duration, err = getEnvAsDuration("TALENT_API_TIMEOUT", c.API.Timeout.Duration); err != nil {
		return err
	}
	if c.Notifications.Timeout.Duration, err = getEnvAsDuration("TALENT_NOTIFICATIONS_TIMEOUT", c.Notifications.Timeout.Duration); err != nil {
		return err
	}
	return nil
}

// Validate will validate the configuration
func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c.API,
		validation.Field(&c.API.BaseURL, validation.Required, is.URL),
		validation.Field(&c.API.TokenHeader, validation.Required),
		validation.Field(&c.API.RateLimit, validation.Min(0.0)),
	); err != nil {
		return err
	}

	if err := validation.ValidateStruct(&c.Storage,
		validation.Field(&c.Storage.Driver, validation.Required, validation.In(StorageMemory, StorageFile, StorageSQLite)),
		validation.Field(&c.Storage.Path, validation.By(func(value any) error {
			if c.Storage.Driver == StorageMemory {
				return nil
			}
			if s, _ := value.(string); strings.TrimSpace(s) == "" {
				return errors.New("is required for the " + c.Storage.Driver + " driver")
			}
			return nil
		})),
	); err != nil {
		return err
	}

	if c.API.Timeout.Duration <= 0 {
		return errors.New("api.timeout must be positive")
	}
	return nil
}

// Getters satisfy talent.Config and apiclient.Config.

func (c *Config) GetBaseURL() string                   { return c.API.BaseURL }
func (c *Config) GetTimeout() time.Duration            { return c.API.Timeout.Duration }
func (c *Config) GetTokenHeader() string               { return c.API.TokenHeader }
func (c *Config) GetLoginPath() string                 { return c.Routes.Login }
func (c *Config) GetHomePath() string                  { return c.Routes.Home }
func (c *Config) GetNotificationTimeout() time.Duration { return c.Notifications.Timeout.Duration }

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback, envError(key, err)
	}
	return parsed, nil
}

func envError(key string, err error) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid environment value").
		WithMetadata(map[string]any{"key": key})
}
