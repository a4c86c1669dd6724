package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Playback PlaybackConfig `mapstructure:"playback"`
	Encode   EncodeConfig   `mapstructure:"encode"`
}

type ServerConfig struct {
	// Status/debug HTTP server
	Enabled         bool          `mapstructure:"enabled"`
	ListenAddr      string        `mapstructure:"listen_addr"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // json or text
	Output     string `mapstructure:"output"` // stdout, stderr, or file path
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type PlaybackConfig struct {
	QueueCapacity int           `mapstructure:"queue_capacity"` // decoded frame queue bound
	FallbackFPS   float64       `mapstructure:"fallback_fps"`   // used when the stream carries no usable rate
	PacingSlack   time.Duration `mapstructure:"pacing_slack"`   // early-release tolerance
}

type EncodeConfig struct {
	Codec             string        `mapstructure:"codec"`
	DPBSlots          int           `mapstructure:"dpb_slots"`
	BitstreamCapacity int           `mapstructure:"bitstream_capacity"` // bytes
	FenceTimeout      time.Duration `mapstructure:"fence_timeout"`
	FenceRetries      int           `mapstructure:"fence_retries"`
}

// Load reads configuration from the given path with LENS_ environment
// variable overrides applied on top.
func Load(configPath string) (*Config, error) {
	viper.SetConfigType("yaml")
	viper.SetConfigFile(configPath)

	// Environment variable override
	viper.SetEnvPrefix("LENS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration produced by defaults alone, without
// reading a file. Used by the CLI when no config file is given.
func Default() *Config {
	setDefaults()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		// Defaults always unmarshal; treat failure as programmer error.
		panic(fmt.Sprintf("default config unmarshal: %v", err))
	}
	return &cfg
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.enabled", true)
	viper.SetDefault("server.listen_addr", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.shutdown_timeout", "10s")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
	viper.SetDefault("logging.max_size", 100)
	viper.SetDefault("logging.max_backups", 5)
	viper.SetDefault("logging.max_age", 30)

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")

	// Playback defaults
	viper.SetDefault("playback.queue_capacity", 8)
	viper.SetDefault("playback.fallback_fps", 30.0)
	viper.SetDefault("playback.pacing_slack", "1ms")

	// Encode defaults
	viper.SetDefault("encode.codec", "h264")
	viper.SetDefault("encode.dpb_slots", 2)
	viper.SetDefault("encode.bitstream_capacity", 4*1024*1024)
	viper.SetDefault("encode.fence_timeout", "5s")
	viper.SetDefault("encode.fence_retries", 3)
}
