// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Login   LoginConfig   `mapstructure:"login" yaml:"login"`
	Meta    MetaConfig    `mapstructure:"meta" yaml:"meta"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig holds settings for the controlled Chrome instance.
type BrowserConfig struct {
	Headless      bool          `mapstructure:"headless" yaml:"headless"`
	Proxy         string        `mapstructure:"proxy" yaml:"proxy"`
	Args          []string      `mapstructure:"args" yaml:"args"`
	LaunchTimeout time.Duration `mapstructure:"launch_timeout" yaml:"launch_timeout"`
}

// LoginConfig tunes the scripted login flow. The settle delays exist to let
// client-side page transitions finish before the next interaction; shortening
// them risks missing the token-bearing request.
type LoginConfig struct {
	StepSettle             time.Duration `mapstructure:"step_settle" yaml:"step_settle"`
	FinalSettle            time.Duration `mapstructure:"final_settle" yaml:"final_settle"`
	RequiredElementTimeout time.Duration `mapstructure:"required_element_timeout" yaml:"required_element_timeout"`
	OptionalElementTimeout time.Duration `mapstructure:"optional_element_timeout" yaml:"optional_element_timeout"`
	NavigationTimeout      time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	EventQueueSize         int           `mapstructure:"event_queue_size" yaml:"event_queue_size"`
}

// MetaConfig configures the standalone server-metadata fetch.
type MetaConfig struct {
	URL     string        `mapstructure:"url" yaml:"url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "mori")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.proxy", "")
	v.SetDefault("browser.launch_timeout", "30s")

	// -- Login flow --
	v.SetDefault("login.step_settle", "3s")
	v.SetDefault("login.final_settle", "5s")
	v.SetDefault("login.required_element_timeout", "20s")
	v.SetDefault("login.optional_element_timeout", "5s")
	v.SetDefault("login.navigation_timeout", "90s")
	v.SetDefault("login.event_queue_size", 100)

	// -- Meta fetch --
	v.SetDefault("meta.url", "https://www.growtopia1.com/growtopia/server_data.php")
	v.SetDefault("meta.timeout", "15s")
}
