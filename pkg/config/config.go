package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Stream   StreamConfig   `mapstructure:"stream"`
	Wire     WireConfig     `mapstructure:"wire"`
	Markdown MarkdownConfig `mapstructure:"markdown"`
	Ollama   OllamaConfig   `mapstructure:"ollama"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	LogFile  string `mapstructure:"log_file"`
	Preserve bool   `mapstructure:"preserve"`
	Level    string `mapstructure:"level"`
}

// StreamConfig holds consumption engine settings
type StreamConfig struct {
	TypingInterval    time.Duration `mapstructure:"-"`
	TypingIntervalStr string        `mapstructure:"typing_interval"` // For parsing string duration
	Cursor            bool          `mapstructure:"cursor"`
}

// WireConfig controls block id generation in the wire adapter
type WireConfig struct {
	IDStrategy string `mapstructure:"id_strategy"` // counter or uuid
	IDPrefix   string `mapstructure:"id_prefix"`
}

// MarkdownConfig selects the markdown healer
type MarkdownConfig struct {
	Healer string `mapstructure:"healer"` // heuristic or parser
}

// OllamaConfig points the chat command at an Ollama server
type OllamaConfig struct {
	URL          string `mapstructure:"url"`
	DefaultModel string `mapstructure:"default_model"`
}

const envPrefix = "STREAMIR"

var (
	// Global config instance
	cfg *Config
)

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		panic("config not initialized")
	}
	return cfg
}

// Loaded reports whether Load has succeeded.
func Loaded() bool {
	return cfg != nil
}

// Load loads configuration from file and environment
func Load(cfgFile string) (*Config, error) {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome == "" {
			xdgConfigHome = filepath.Join(home, ".config")
		}

		viper.AddConfigPath("./.streamir") // Check project directory first
		viper.AddConfigPath(filepath.Join(xdgConfigHome, "streamir"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("settings")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindEnvironmentVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine, a broken one is not
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	c := &Config{}
	if err := viper.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Post-process durations (viper doesn't handle time.Duration directly)
	if err := processDurations(c); err != nil {
		return nil, fmt.Errorf("failed to process durations: %w", err)
	}
	if err := validate(c); err != nil {
		return nil, err
	}

	cfg = c
	return cfg, nil
}

// setDefaults sets all default configuration values
func setDefaults() {
	// Logging defaults
	viper.SetDefault("logging.log_file", "system.log")
	viper.SetDefault("logging.preserve", false)
	viper.SetDefault("logging.level", "info")

	// Stream defaults
	viper.SetDefault("stream.typing_interval", "30ms")
	viper.SetDefault("stream.cursor", true)

	// Wire defaults
	viper.SetDefault("wire.id_strategy", "counter")
	viper.SetDefault("wire.id_prefix", "blk")

	viper.SetDefault("markdown.healer", "parser")

	// Ollama defaults
	viper.SetDefault("ollama.url", "http://localhost:11434")
	viper.SetDefault("ollama.default_model", "qwen3:latest")
}

// bindEnvironmentVariables binds specific environment variables to Viper keys
func bindEnvironmentVariables() {
	viper.BindEnv("settings_dir", "STREAMIR_SETTINGS_DIR")
	viper.BindEnv("logging.log_file", "STREAMIR_LOG_FILE")
	viper.BindEnv("logging.level", "STREAMIR_LOG_LEVEL")
	viper.BindEnv("logging.preserve", "STREAMIR_LOG_PRESERVE")
	viper.BindEnv("stream.typing_interval", "STREAMIR_TYPING_INTERVAL")
	viper.BindEnv("stream.cursor", "STREAMIR_CURSOR")
	viper.BindEnv("wire.id_strategy", "STREAMIR_ID_STRATEGY")
	viper.BindEnv("wire.id_prefix", "STREAMIR_ID_PREFIX")
	viper.BindEnv("markdown.healer", "STREAMIR_HEALER")
	viper.BindEnv("ollama.url", "OLLAMA_HOST")
	viper.BindEnv("ollama.default_model", "STREAMIR_MODEL")
}

// processDurations converts string durations to time.Duration
func processDurations(c *Config) error {
	if c.Stream.TypingIntervalStr != "" {
		d, err := time.ParseDuration(c.Stream.TypingIntervalStr)
		if err != nil {
			return fmt.Errorf("invalid stream.typing_interval: %w", err)
		}
		c.Stream.TypingInterval = d
	} else if c.Stream.TypingInterval == 0 {
		c.Stream.TypingInterval = 30 * time.Millisecond
	}
	return nil
}

func validate(c *Config) error {
	switch c.Wire.IDStrategy {
	case "counter", "uuid":
	default:
		return fmt.Errorf("invalid wire.id_strategy %q: want counter or uuid", c.Wire.IDStrategy)
	}
	switch c.Markdown.Healer {
	case "heuristic", "parser":
	default:
		return fmt.Errorf("invalid markdown.healer %q: want heuristic or parser", c.Markdown.Healer)
	}
	if c.Stream.TypingInterval <= 0 {
		return fmt.Errorf("invalid stream.typing_interval %s: must be positive", c.Stream.TypingInterval)
	}
	return nil
}

// GetConfigFileUsed returns the path to the config file being used
func GetConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
