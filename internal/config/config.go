package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Dataset   DatasetConfig   `yaml:"dataset" mapstructure:"dataset"`
	Valuation ValuationConfig `yaml:"valuation" mapstructure:"valuation"`
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// DatasetConfig points at optional reference data sources. When PINFile is
// empty, PIN records come from the store.
type DatasetConfig struct {
	PINFile       string `yaml:"pin_file" mapstructure:"pin_file"`
	CentroidsFile string `yaml:"centroids_file" mapstructure:"centroids_file"`
	CentroidField string `yaml:"centroid_field" mapstructure:"centroid_field"`
}

// ValuationConfig tunes engine policy.
type ValuationConfig struct {
	CornerPolicy         string  `yaml:"corner_policy" mapstructure:"corner_policy"`
	DefaultDistanceKM    float64 `yaml:"default_distance_km" mapstructure:"default_distance_km"`
	PINDefaultDistanceKM float64 `yaml:"pin_default_distance_km" mapstructure:"pin_default_distance_km"`
}

// NotionConfig holds Notion API credentials and the lead database ID.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	LeadDB string `yaml:"lead_db" mapstructure:"lead_db"`
}

// Enabled reports whether leads should be pushed to Notion.
func (n NotionConfig) Enabled() bool {
	return n.Token != "" && n.LeadDB != ""
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PROPVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key gets one so AutomaticEnv can override it.
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "propval.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("dataset.pin_file", "")
	v.SetDefault("dataset.centroids_file", "")
	v.SetDefault("dataset.centroid_field", "pincode")
	v.SetDefault("valuation.corner_policy", "by_mode")
	v.SetDefault("valuation.default_distance_km", 5.0)
	v.SetDefault("valuation.pin_default_distance_km", 2.0)
	v.SetDefault("batch.max_concurrent", 8)
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.rate_limit_rps", 10.0)
	v.SetDefault("server.rate_limit_burst", 20)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.lead_db", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on.
func (c *Config) Validate(mode string) error {
	var missing []string

	switch strings.ToLower(c.Store.Driver) {
	case "sqlite":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url")
		}
	default:
		return eris.Errorf("config: unsupported store driver %q", c.Store.Driver)
	}

	switch c.Valuation.CornerPolicy {
	case "", "by_mode", "standard", "pincode":
	default:
		return eris.Errorf("config: unknown valuation.corner_policy %q", c.Valuation.CornerPolicy)
	}
	if c.Valuation.DefaultDistanceKM < 0 || c.Valuation.PINDefaultDistanceKM < 0 {
		return eris.New("config: default distances must not be negative")
	}

	switch mode {
	case "valuate", "dataset":
	case "batch":
		if c.Batch.MaxConcurrent < 1 || c.Batch.MaxConcurrent > 256 {
			return eris.Errorf("config: batch.max_concurrent must be between 1 and 256, got %d", c.Batch.MaxConcurrent)
		}
	case "serve":
		if c.Server.Port < 1 || c.Server.Port > 65535 {
			return eris.Errorf("config: server.port must be between 1 and 65535, got %d", c.Server.Port)
		}
		if c.Server.RateLimitRPS <= 0 || c.Server.RateLimitBurst < 1 {
			return eris.New("config: server rate limit must be positive")
		}
		if (c.Notion.Token == "") != (c.Notion.LeadDB == "") {
			missing = append(missing, "notion.token and notion.lead_db")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.Errorf("config: missing required fields for %s: %s", mode, strings.Join(missing, ", "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
