package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	KuCoin   KuCoin   `mapstructure:"kucoin"`
	Scanner  Scanner  `mapstructure:"scanner"`
	Logger   Logger   `mapstructure:"logger"`
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
}

// KuCoin holds the configuration for the KuCoin REST API.
type KuCoin struct {
	BaseURL        string  `mapstructure:"base_url"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Scanner holds the configuration for the arbitrage scan loop.
type Scanner struct {
	MinVolume            float64   `mapstructure:"min_volume"`
	Anchors              []string  `mapstructure:"anchors"`
	MinPathLen           int       `mapstructure:"min_path_len"`
	MaxPathLen           int       `mapstructure:"max_path_len"`
	FeeRate              float64   `mapstructure:"fee_rate"`
	PriceChangeThreshold float64   `mapstructure:"price_change_threshold"`
	InitialAmounts       []float64 `mapstructure:"initial_amounts"`
	RefreshInterval      int       `mapstructure:"refresh_interval"`
	BatchSize            int       `mapstructure:"batch_size"`
	BatchPause           int       `mapstructure:"batch_pause"`
	TopK                 int       `mapstructure:"top_k"`
	PriceSource          string    `mapstructure:"price_source"`
	OutputFile           string    `mapstructure:"output_file"`
}

// Server holds the configuration for the HTTP API server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Supported scanner.price_source values.
const (
	PriceSourceSnapshot = "snapshot"
	PriceSourceLevel1   = "level1"
)

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Defaults match the reference scanner setup.
	viper.SetDefault("kucoin.base_url", "https://api.kucoin.com")
	viper.SetDefault("kucoin.rate_limit", 20) // requests per second
	viper.SetDefault("kucoin.rate_limit_burst", 5)
	viper.SetDefault("scanner.min_volume", 100000)
	viper.SetDefault("scanner.anchors", []string{"USDT", "USDC", "BTC", "ETH"})
	viper.SetDefault("scanner.min_path_len", 3)
	viper.SetDefault("scanner.max_path_len", 5)
	viper.SetDefault("scanner.fee_rate", 0.001)
	viper.SetDefault("scanner.price_change_threshold", 0.005)
	viper.SetDefault("scanner.initial_amounts", []float64{100, 1000, 10000})
	viper.SetDefault("scanner.refresh_interval", 60) // seconds
	viper.SetDefault("scanner.batch_pause", 2)       // seconds between batches
	viper.SetDefault("scanner.batch_size", 20)
	viper.SetDefault("scanner.top_k", 10)
	viper.SetDefault("scanner.price_source", PriceSourceSnapshot)
	viper.SetDefault("scanner.output_file", "arbitrage_opportunities.json")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	err = config.Validate()
	return
}

// Validate checks bounds that would make the scan loop meaningless. These
// are fatal at startup; nothing recovers from them mid-run.
func (c *Config) Validate() error {
	s := c.Scanner
	if s.MinPathLen < 3 {
		return fmt.Errorf("scanner.min_path_len must be at least 3, got %d", s.MinPathLen)
	}
	if s.MaxPathLen < s.MinPathLen {
		return fmt.Errorf("scanner.max_path_len %d is below scanner.min_path_len %d", s.MaxPathLen, s.MinPathLen)
	}
	if s.MaxPathLen > 5 {
		return fmt.Errorf("scanner.max_path_len must not exceed 5, got %d", s.MaxPathLen)
	}
	if s.TopK <= 0 {
		return fmt.Errorf("scanner.top_k must be positive, got %d", s.TopK)
	}
	if s.FeeRate < 0 || s.FeeRate >= 1 {
		return fmt.Errorf("scanner.fee_rate must be in [0, 1), got %g", s.FeeRate)
	}
	if s.PriceChangeThreshold < 0 {
		return fmt.Errorf("scanner.price_change_threshold must not be negative, got %g", s.PriceChangeThreshold)
	}
	if s.BatchSize <= 0 {
		return fmt.Errorf("scanner.batch_size must be positive, got %d", s.BatchSize)
	}
	if s.RefreshInterval <= 0 {
		return fmt.Errorf("scanner.refresh_interval must be positive, got %d", s.RefreshInterval)
	}
	if len(s.Anchors) == 0 {
		return fmt.Errorf("scanner.anchors must name at least one currency")
	}
	if len(s.InitialAmounts) == 0 {
		return fmt.Errorf("scanner.initial_amounts must contain at least one amount")
	}
	for _, amount := range s.InitialAmounts {
		if amount <= 0 {
			return fmt.Errorf("scanner.initial_amounts entries must be positive, got %g", amount)
		}
	}
	if s.PriceSource != PriceSourceSnapshot && s.PriceSource != PriceSourceLevel1 {
		return fmt.Errorf("scanner.price_source must be %q or %q, got %q", PriceSourceSnapshot, PriceSourceLevel1, s.PriceSource)
	}
	return nil
}
