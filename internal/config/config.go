// Package config loads yeetboxd's configuration, grounded on the
// teacher's pkg/config: viper sourcing (env over file over defaults, see
// Load), mapstructure decode hooks for time.Duration, and validator/v10
// struct tags.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is yeetboxd's top-level configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Auth      AuthConfig      `mapstructure:"auth" yaml:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
}

// ServerConfig configures the listening RPC server (spec.md §6).
type ServerConfig struct {
	// ServiceName identifies this deployment to telemetry/profiling
	// backends (trace resource attribute, Pyroscope application name).
	ServiceName string `mapstructure:"service_name" validate:"required" yaml:"service_name"`
	// ListenAddress is the RPC listen address. Default 127.0.0.1:50051.
	ListenAddress string `mapstructure:"listen_address" validate:"required" yaml:"listen_address"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`
	// OrphanReclaimInterval controls how often the background orphan-blob
	// pass runs (spec.md §9).
	OrphanReclaimInterval time.Duration `mapstructure:"orphan_reclaim_interval" yaml:"orphan_reclaim_interval"`
	// OrphanReclaimGrace is the minimum blob age before reclamation.
	OrphanReclaimGrace time.Duration `mapstructure:"orphan_reclaim_grace" yaml:"orphan_reclaim_grace"`
}

// StorageConfig selects and configures the KVS and blob store backends
// (spec.md §9 "dynamic dispatch among storage backends").
type StorageConfig struct {
	// KVSDriver selects the metadata backend: "badger" or "sql".
	KVSDriver string `mapstructure:"kvs_driver" validate:"required,oneof=badger sql" yaml:"kvs_driver"`
	// DatabasePath is the badger database directory, or the SQL DSN when
	// KVSDriver is "sql".
	DatabasePath string `mapstructure:"database_path" validate:"required" yaml:"database_path"`
	// SQLDialect selects the gorm dialect when KVSDriver is "sql":
	// "sqlite" or "postgres".
	SQLDialect string `mapstructure:"sql_dialect" validate:"omitempty,oneof=sqlite postgres" yaml:"sql_dialect"`

	// BlobDirectory is the local-disk blob store root (tier 0).
	BlobDirectory string `mapstructure:"blob_directory" validate:"required" yaml:"blob_directory"`

	// S3 configures the optional tier-1 S3 blob backend.
	S3 S3Config `mapstructure:"s3" yaml:"s3"`
}

// S3Config configures the secondary S3-backed blob store tier.
type S3Config struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Bucket   string `mapstructure:"bucket" validate:"required_if=Enabled true" yaml:"bucket"`
	Region   string `mapstructure:"region" yaml:"region"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix,omitempty"`
}

// AuthConfig configures SASL authentication and session issuance.
type AuthConfig struct {
	// AllowAnonymous permits ANONYMOUS SASL and unauthenticated peers
	// (spec.md §4.5).
	AllowAnonymous bool `mapstructure:"allow_anonymous" yaml:"allow_anonymous"`
	// SessionSecret signs session tokens; must be at least 32 bytes.
	SessionSecret string `mapstructure:"session_secret" validate:"required,min=32" yaml:"session_secret"`
	// SessionDuration is the session token lifetime.
	SessionDuration time.Duration `mapstructure:"session_duration" yaml:"session_duration"`
	// CredentialsPath is a YAML file of authcid -> bcrypt hash, consulted
	// for PLAIN authentication and hot-reloaded by an auth.CredentialsWatcher
	// polling this path (see pkg/auth/credentials_watcher.go).
	CredentialsPath string `mapstructure:"credentials_path" yaml:"credentials_path,omitempty"`
}

// LoggingConfig controls log/slog output, mirroring the teacher's
// internal/logger configuration surface.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry tracing and Pyroscope profiling.
type TelemetryConfig struct {
	Enabled    bool             `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string           `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool             `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64          `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`
	Profiling  ProfilingConfig  `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Grafana Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
}

// MetricsConfig configures the Prometheus metrics HTTP endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// Load reads configuration from the config file at configPath (or the
// default location when configPath is empty) over the built-in defaults.
// Environment variables (YEETBOX_* prefix) override only keys that the
// config file sets; when no config file is found, the defaults are used
// as they are and the environment is not consulted.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)
	return loadFrom(v)
}

func loadFrom(v *viper.Viper) (*Config, error) {
	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if found {
		if err := v.Unmarshal(cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
			return nil, fmt.Errorf("config: unmarshal: %w", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// Watcher holds a live viper instance and the most recently decoded
// Config, refreshed by WatchConfig whenever the underlying file changes on
// disk (e.g. an operator editing logging.level in place).
//
// This covers the config file itself — the teacher's own cmd/dittofs/commands
// logs.go reaches for fsnotify the same way, for the same reason (the config
// file is edited in place, not atomically replaced). Secret-bearing files
// that provisioning tools swap via rename (the credentials file) instead use
// auth.CredentialsWatcher's polling, matching the teacher's keytab precedent
// — see DESIGN.md.
type Watcher struct {
	v   *viper.Viper
	mu  sync.RWMutex
	cfg *Config
}

// NewWatcher loads configuration once and returns a Watcher ready to have
// Start called on it.
func NewWatcher(configPath string) (*Watcher, error) {
	v := viper.New()
	setupViper(v, configPath)
	cfg, err := loadFrom(v)
	if err != nil {
		return nil, err
	}
	return &Watcher{v: v, cfg: cfg}, nil
}

// Current returns the most recently loaded Config.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cfg
}

// Start begins watching the config file for changes, invoking onChange
// with the newly decoded and validated Config after each reload. A reload
// that fails to decode or validate calls onChange with a nil Config and
// the error, and leaves Current() unchanged.
func (w *Watcher) Start(onChange func(*Config, error)) {
	w.v.OnConfigChange(func(_ fsnotify.Event) {
		cfg := defaultConfig()
		if err := w.v.Unmarshal(cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
			if onChange != nil {
				onChange(nil, fmt.Errorf("config: reload unmarshal: %w", err))
			}
			return
		}
		if err := Validate(cfg); err != nil {
			if onChange != nil {
				onChange(nil, fmt.Errorf("config: reload validation failed: %w", err))
			}
			return
		}
		w.mu.Lock()
		w.cfg = cfg
		w.mu.Unlock()
		if onChange != nil {
			onChange(cfg, nil)
		}
	})
	w.v.WatchConfig()
}

// Validate runs struct-tag validation over cfg.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

// Save writes cfg as YAML to path, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("YEETBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(defaultConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: read file: %w", err)
	}
	return true, nil
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "yeetbox")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "yeetbox")
}

// DefaultConfigPath returns the conventional config file location.
func DefaultConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.yaml")
}

// SampleConfig returns a Config suitable for writing out as a starter
// config file: the built-in defaults plus a freshly generated session
// secret, since the zero-value default deliberately fails validation
// (validate:"required,min=32" on AuthConfig.SessionSecret) until an
// operator supplies one.
func SampleConfig() (*Config, error) {
	cfg := defaultConfig()
	secret, err := generateSessionSecret()
	if err != nil {
		return nil, fmt.Errorf("config: generate session secret: %w", err)
	}
	cfg.Auth.SessionSecret = secret
	return cfg, nil
}

func generateSessionSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ServiceName:           "yeetboxd",
			ListenAddress:         "127.0.0.1:50051",
			ShutdownTimeout:       10 * time.Second,
			OrphanReclaimInterval: 10 * time.Minute,
			OrphanReclaimGrace:    time.Hour,
		},
		Storage: StorageConfig{
			KVSDriver:     "badger",
			DatabasePath:  "/tmp/yeetbox/yeetbox.db",
			BlobDirectory: "/tmp/yeetbox/blobs",
		},
		Auth: AuthConfig{
			AllowAnonymous:  true,
			SessionSecret:   "",
			SessionDuration: time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}
