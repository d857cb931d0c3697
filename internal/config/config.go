package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	WebSocket  WebSocketConfig  `yaml:"websocket" envconfig:"WEBSOCKET"`
	Cleaning   CleaningConfig   `yaml:"cleaning" envconfig:"CLEANING"`
	Simulation SimulationConfig `yaml:"simulation" envconfig:"SIMULATION"`
	Security   SecurityConfig   `yaml:"security" envconfig:"SECURITY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	UploadsDir string `yaml:"uploads_dir" envconfig:"UPLOADS_DIR" default:"data/uploads"`
	ExportsDir string `yaml:"exports_dir" envconfig:"EXPORTS_DIR" default:"data/exports"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// CleaningConfig drives the data cleaning pipeline. The column mapping
// translates the logical field names the cleaner understands into the
// column headers of the uploaded file.
type CleaningConfig struct {
	ColumnMapping   map[string]string `yaml:"column_mapping" envconfig:"COLUMN_MAPPING"`
	CityAliases     map[string]string `yaml:"city_aliases" envconfig:"CITY_ALIASES"`
	TimeFormats     []string          `yaml:"time_formats" envconfig:"TIME_FORMATS"`
	MaxDiscountPct  float64           `yaml:"max_discount_pct" envconfig:"MAX_DISCOUNT_PCT" default:"100"`
	OutlierLowPct   float64           `yaml:"outlier_low_pct" envconfig:"OUTLIER_LOW_PCT" default:"0.01"`
	OutlierHighPct  float64           `yaml:"outlier_high_pct" envconfig:"OUTLIER_HIGH_PCT" default:"0.99"`
	FillMissingQty  int64             `yaml:"fill_missing_qty" envconfig:"FILL_MISSING_QTY" default:"1"`
	DefaultReorder  int64             `yaml:"default_reorder_point" envconfig:"DEFAULT_REORDER_POINT" default:"50"`
	DefaultLeadDays int               `yaml:"default_lead_time_days" envconfig:"DEFAULT_LEAD_TIME_DAYS" default:"7"`
}

// SimulationConfig carries the what-if simulator's rule table. Elasticity
// and the clamp bounds are configuration, not code constants.
type SimulationConfig struct {
	DefaultElasticity float64            `yaml:"default_elasticity" envconfig:"DEFAULT_ELASTICITY" default:"1.5"`
	Elasticity        map[string]float64 `yaml:"elasticity" envconfig:"ELASTICITY"`
	MaxUpliftFactor   float64            `yaml:"max_uplift_factor" envconfig:"MAX_UPLIFT_FACTOR" default:"2.0"`
	MinUpliftFactor   float64            `yaml:"min_uplift_factor" envconfig:"MIN_UPLIFT_FACTOR" default:"1.0"`
	MarginFloorPct    float64            `yaml:"margin_floor_pct" envconfig:"MARGIN_FLOOR_PCT" default:"5"`
	MaxDiscountPct    float64            `yaml:"max_discount_pct" envconfig:"MAX_DISCOUNT_PCT" default:"70"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := configFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		mergeFileConfig(&cfg, fileCfg)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := cfg.ensureDirectories(); err != nil {
		return nil, fmt.Errorf("path validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from a YAML file
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

// mergeFileConfig copies file values into cfg for the map and slice
// settings envconfig cannot express; scalar env values win.
func mergeFileConfig(cfg, fileCfg *Config) {
	if len(cfg.Cleaning.ColumnMapping) == 0 {
		cfg.Cleaning.ColumnMapping = fileCfg.Cleaning.ColumnMapping
	}
	if len(cfg.Cleaning.CityAliases) == 0 {
		cfg.Cleaning.CityAliases = fileCfg.Cleaning.CityAliases
	}
	if len(cfg.Cleaning.TimeFormats) == 0 {
		cfg.Cleaning.TimeFormats = fileCfg.Cleaning.TimeFormats
	}
	if len(cfg.Simulation.Elasticity) == 0 {
		cfg.Simulation.Elasticity = fileCfg.Simulation.Elasticity
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = fileCfg.Server.Port
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = fileCfg.Logging.Level
	}
	if cfg.Paths.DataDir == "" {
		cfg.Paths.DataDir = fileCfg.Paths.DataDir
	}
}

// applyDefaults fills the map/slice settings that have no envconfig default.
func (c *Config) applyDefaults() {
	if len(c.Cleaning.ColumnMapping) == 0 {
		c.Cleaning.ColumnMapping = DefaultColumnMapping()
	}
	if len(c.Cleaning.CityAliases) == 0 {
		c.Cleaning.CityAliases = DefaultCityAliases()
	}
	if len(c.Cleaning.TimeFormats) == 0 {
		c.Cleaning.TimeFormats = DefaultTimeFormats()
	}
	if len(c.Simulation.Elasticity) == 0 {
		c.Simulation.Elasticity = map[string]float64{}
	}
}

// validate checks configuration invariants before the app starts.
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Cleaning.OutlierLowPct < 0 || c.Cleaning.OutlierHighPct > 1 ||
		c.Cleaning.OutlierLowPct >= c.Cleaning.OutlierHighPct {
		return fmt.Errorf("invalid outlier quantiles: [%v, %v]",
			c.Cleaning.OutlierLowPct, c.Cleaning.OutlierHighPct)
	}
	if c.Simulation.MaxDiscountPct <= 0 || c.Simulation.MaxDiscountPct > 100 {
		return fmt.Errorf("simulation max discount must be in (0, 100], got %v", c.Simulation.MaxDiscountPct)
	}
	if c.Simulation.MaxUpliftFactor < 1 {
		return fmt.Errorf("max uplift factor must be >= 1, got %v", c.Simulation.MaxUpliftFactor)
	}
	if c.Simulation.MinUpliftFactor > c.Simulation.MaxUpliftFactor {
		return fmt.Errorf("min uplift factor %v exceeds max %v",
			c.Simulation.MinUpliftFactor, c.Simulation.MaxUpliftFactor)
	}
	if c.Simulation.MarginFloorPct < 0 || c.Simulation.MarginFloorPct > 100 {
		return fmt.Errorf("margin floor must be in [0, 100], got %v", c.Simulation.MarginFloorPct)
	}
	return nil
}

// ensureDirectories creates the directories the app writes to.
func (c *Config) ensureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.UploadsDir, c.Paths.ExportsDir, c.Paths.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ElasticityFor returns the demand elasticity for a segment, falling back
// to the configured default when the segment has no override.
func (c SimulationConfig) ElasticityFor(segment string) float64 {
	if e, ok := c.Elasticity[segment]; ok {
		return e
	}
	return c.DefaultElasticity
}

// configFilePath returns the config file location, honoring the
// PROMOPULSE_CONFIG override.
func configFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		return path
	}
	return filepath.Join(".", DefaultConfigFile)
}
