package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Renderer RendererConfig `mapstructure:"renderer"`
	Assets   AssetsConfig   `mapstructure:"assets"`
	Voucher  VoucherConfig  `mapstructure:"voucher"`
	Report   ReportConfig   `mapstructure:"report"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RendererConfig holds PDF renderer configuration
type RendererConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AssetsConfig holds remote asset fetching configuration
type AssetsConfig struct {
	LogoURL string        `mapstructure:"logo_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// VoucherConfig holds voucher issuance configuration
type VoucherConfig struct {
	CodePrefix      string `mapstructure:"code_prefix"`
	CodeMaxAttempts int    `mapstructure:"code_max_attempts"`
	BrandName       string `mapstructure:"brand_name"`
}

// ReportConfig holds sales report configuration
type ReportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// ArchiveConfig holds rendered document archive configuration
type ArchiveConfig struct {
	Dir string `mapstructure:"dir"`
}

// WorkerConfig holds background render retry configuration
type WorkerConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	viper.SetDefault("database.path", "data/vouchers.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	viper.SetDefault("renderer.timeout", 30*time.Second)

	viper.SetDefault("assets.timeout", 10*time.Second)

	viper.SetDefault("voucher.code_prefix", "ATV")
	viper.SetDefault("voucher.code_max_attempts", 5)
	viper.SetDefault("voucher.brand_name", "Altamar Turismo")

	viper.SetDefault("report.output_dir", "generated_reports")

	viper.SetDefault("archive.dir", "archived_vouchers")

	viper.SetDefault("worker.poll_interval", 5*time.Minute)
	viper.SetDefault("worker.batch_size", 10)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("database.path", "DATABASE_PATH")
	viper.BindEnv("renderer.base_url", "RENDERER_BASE_URL")
	viper.BindEnv("assets.logo_url", "LOGO_URL")
	viper.BindEnv("voucher.brand_name", "BRAND_NAME")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Renderer.BaseURL == "" {
		return fmt.Errorf("renderer.base_url is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Voucher.CodePrefix == "" {
		return fmt.Errorf("voucher.code_prefix is required")
	}
	if strings.ContainsAny(c.Voucher.CodePrefix, " -") {
		return fmt.Errorf("voucher.code_prefix must not contain spaces or dashes")
	}
	if c.Voucher.CodeMaxAttempts < 1 {
		return fmt.Errorf("voucher.code_max_attempts must be at least 1")
	}
	if c.Worker.BatchSize < 1 {
		return fmt.Errorf("worker.batch_size must be at least 1")
	}
	return nil
}
