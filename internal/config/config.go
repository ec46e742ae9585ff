// Package config loads runtime settings from defaults, an optional YAML file
// and UPIFT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/dvloznov/upi-finance-tracker/internal/parsers"
)

// EnvPrefix prefixes environment overrides, e.g. UPIFT_SERVER_PORT=9000.
const EnvPrefix = "UPIFT"

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

type ParserConfig struct {
	ContextMinAmount       float64 `mapstructure:"context_min_amount"`
	ContextMaxAmount       float64 `mapstructure:"context_max_amount"`
	ContextMaxResults      int     `mapstructure:"context_max_results"`
	ContextWindow          int     `mapstructure:"context_window"`
	EmergencyMinAmount     float64 `mapstructure:"emergency_min_amount"`
	EmergencyMaxAmount     float64 `mapstructure:"emergency_max_amount"`
	EmergencyMaxResults    int     `mapstructure:"emergency_max_results"`
	MinResultsBeforeWindow int     `mapstructure:"min_results_before_window"`
}

type CategorizerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

type AIConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	APIKey            string        `mapstructure:"api_key"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

type JobsConfig struct {
	Workers    int `mapstructure:"workers"`
	Buffer     int `mapstructure:"buffer"`
	MaxRetries int `mapstructure:"max_retries"`
}

type StorageConfig struct {
	// CredentialsFile is empty to use Application Default Credentials.
	CredentialsFile string `mapstructure:"credentials_file"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Upload      UploadConfig      `mapstructure:"upload"`
	Parser      ParserConfig      `mapstructure:"parser"`
	Categorizer CategorizerConfig `mapstructure:"categorizer"`
	AI          AIConfig          `mapstructure:"ai"`
	Jobs        JobsConfig        `mapstructure:"jobs"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Log         LogConfig         `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("upload.max_bytes", 10<<20)

	v.SetDefault("parser.context_min_amount", 50)
	v.SetDefault("parser.context_max_amount", 1000000)
	v.SetDefault("parser.context_max_results", 15)
	v.SetDefault("parser.context_window", 100)
	v.SetDefault("parser.emergency_min_amount", 100)
	v.SetDefault("parser.emergency_max_amount", 100000)
	v.SetDefault("parser.emergency_max_results", 10)
	v.SetDefault("parser.min_results_before_window", 5)

	v.SetDefault("categorizer.concurrency", 4)

	v.SetDefault("ai.enabled", true)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "gemini-2.5-flash")
	v.SetDefault("ai.timeout", "10s")
	v.SetDefault("ai.requests_per_second", 2)
	v.SetDefault("ai.burst", 2)

	v.SetDefault("jobs.workers", 5)
	v.SetDefault("jobs.buffer", 100)
	v.SetDefault("jobs.max_retries", 0)

	v.SetDefault("storage.credentials_file", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads configuration. With an empty path, config.yaml is looked up in
// the working directory and $HOME/.upi-finance-tracker and may be absent; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.upi-finance-tracker")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("ai.api_key", EnvPrefix+"_AI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"); err != nil {
		return nil, fmt.Errorf("config.Load: bind api key: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config.Load: read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config.Load: unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings the binaries cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, fmt.Errorf("upload.max_bytes must be positive"))
	}
	if c.Parser.ContextMinAmount >= c.Parser.ContextMaxAmount {
		errs = append(errs, fmt.Errorf("parser.context_min_amount must be below context_max_amount"))
	}
	if c.Parser.EmergencyMinAmount > c.Parser.EmergencyMaxAmount {
		errs = append(errs, fmt.Errorf("parser.emergency_min_amount must not exceed emergency_max_amount"))
	}
	if c.Categorizer.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("categorizer.concurrency must be positive"))
	}
	if c.Jobs.Workers <= 0 {
		errs = append(errs, fmt.Errorf("jobs.workers must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config.Validate: %w", errors.Join(errs...))
	}
	return nil
}

// AIConfigured reports whether the AI classifier should be built.
func (c *Config) AIConfigured() bool {
	return c.AI.Enabled && strings.TrimSpace(c.AI.APIKey) != ""
}

// ParserOptions converts the parser section into strategy tuning.
func (c *Config) ParserOptions() parsers.Options {
	opts := parsers.DefaultOptions()
	opts.MinLineResults = c.Parser.MinResultsBeforeWindow
	opts.ContextMinAmount = decimal.NewFromFloat(c.Parser.ContextMinAmount)
	opts.ContextMaxAmount = decimal.NewFromFloat(c.Parser.ContextMaxAmount)
	opts.ContextMaxResults = c.Parser.ContextMaxResults
	opts.ContextWindow = c.Parser.ContextWindow
	opts.EmergencyMinAmount = decimal.NewFromFloat(c.Parser.EmergencyMinAmount)
	opts.EmergencyMaxAmount = decimal.NewFromFloat(c.Parser.EmergencyMaxAmount)
	opts.EmergencyMaxResults = c.Parser.EmergencyMaxResults
	return opts
}
