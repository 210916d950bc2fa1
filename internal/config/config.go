package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Analytics AnalyticsConfig `yaml:"analytics" envconfig:"ANALYTICS"`
	Forecast  ForecastConfig  `yaml:"forecast" envconfig:"FORECAST"`
	Sheets    SheetsConfig    `yaml:"sheets" envconfig:"SHEETS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES"`
	UploadRPS       float64       `yaml:"upload_rps" envconfig:"UPLOAD_RPS"`
	UploadBurst     int           `yaml:"upload_burst" envconfig:"UPLOAD_BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
}

// AnalyticsConfig contains dataset and KPI configuration
type AnalyticsConfig struct {
	// DefaultCurrency is used when the Currency column is absent or has
	// more than one distinct non-missing value.
	DefaultCurrency string `yaml:"default_currency" envconfig:"DEFAULT_CURRENCY"`
	// MaxDatasets bounds the number of sessions kept in memory.
	MaxDatasets int `yaml:"max_datasets" envconfig:"MAX_DATASETS"`
}

// ForecastConfig contains forecast model tuning
type ForecastConfig struct {
	// SeasonLength is the additive seasonality period in days.
	SeasonLength int     `yaml:"season_length" envconfig:"SEASON_LENGTH"`
	Alpha        float64 `yaml:"alpha" envconfig:"ALPHA"`
	Beta         float64 `yaml:"beta" envconfig:"BETA"`
	Gamma        float64 `yaml:"gamma" envconfig:"GAMMA"`
}

// SheetsConfig contains the optional Google Sheets import settings
type SheetsConfig struct {
	Enabled         bool   `yaml:"enabled" envconfig:"ENABLED"`
	SpreadsheetID   string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	SheetName       string `yaml:"sheet_name" envconfig:"SHEET_NAME"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	CredentialsJSON string `yaml:"credentials_json" envconfig:"CREDENTIALS_JSON"`
}

// Load loads configuration in precedence order: environment variables
// over an optional YAML file (WASTELENS_CONFIG_FILE, default
// "config.yaml" if present) over built-in defaults.
func Load() (*Config, error) {
	var cfg Config

	configFile := os.Getenv("WASTELENS_CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}
	if _, err := os.Stat(configFile); err == nil {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = *fileCfg
	}

	if err := envconfig.Process("WASTELENS", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills zero-valued fields with the built-in defaults.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 20 << 20
	}
	if c.Server.UploadRPS == 0 {
		c.Server.UploadRPS = 2
	}
	if c.Server.UploadBurst == 0 {
		c.Server.UploadBurst = 5
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Analytics.DefaultCurrency == "" {
		c.Analytics.DefaultCurrency = "$"
	}
	if c.Analytics.MaxDatasets == 0 {
		c.Analytics.MaxDatasets = 16
	}
	if c.Forecast.SeasonLength == 0 {
		c.Forecast.SeasonLength = 7
	}
	if c.Forecast.Alpha == 0 {
		c.Forecast.Alpha = 0.3
	}
	if c.Forecast.Beta == 0 {
		c.Forecast.Beta = 0.1
	}
	if c.Forecast.Gamma == 0 {
		c.Forecast.Gamma = 0.1
	}
	if c.Sheets.SheetName == "" {
		c.Sheets.SheetName = "Wastage"
	}
}

// validate checks configuration invariants
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive: %d", c.Server.MaxUploadBytes)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}
	if c.Forecast.SeasonLength < 2 {
		return fmt.Errorf("forecast season length must be at least 2: %d", c.Forecast.SeasonLength)
	}
	for name, v := range map[string]float64{
		"alpha": c.Forecast.Alpha,
		"beta":  c.Forecast.Beta,
		"gamma": c.Forecast.Gamma,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("forecast %s must be in (0,1]: %v", name, v)
		}
	}
	if c.Sheets.Enabled && c.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("sheets import enabled but spreadsheet id is empty")
	}
	return nil
}
