// Package config handles configuration management using Viper
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Window  WindowConfig  `mapstructure:"window"`
	Display DisplayConfig `mapstructure:"display"`
	Shm     ShmConfig     `mapstructure:"shm"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// WindowConfig describes the toplevel surface and its single buffer
type WindowConfig struct {
	Title       string `mapstructure:"title"`
	Width       int    `mapstructure:"width"`
	Height      int    `mapstructure:"height"`
	Fill        string `mapstructure:"fill"`          // Hex color, empty leaves the buffer untouched
	ExitOnClose bool   `mapstructure:"exit_on_close"` // Stop the loop when the compositor asks to close
}

// DisplayConfig selects the compositor socket
type DisplayConfig struct {
	Name string `mapstructure:"name"` // Empty means $WAYLAND_DISPLAY
}

// ShmConfig controls shared-memory buffer provisioning
type ShmConfig struct {
	Backend string `mapstructure:"backend"` // "shm_open" or "memfd"
	Dir     string `mapstructure:"dir"`
	Retries int    `mapstructure:"retries"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // Override LOG_LEVEL env var
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Window: WindowConfig{
			Title:       "Wayland client",
			Width:       1280,
			Height:      720,
			Fill:        "",
			ExitOnClose: true,
		},
		Display: DisplayConfig{
			Name: "",
		},
		Shm: ShmConfig{
			Backend: "shm_open",
			Dir:     "/dev/shm",
			Retries: 1,
		},
		Logging: LoggingConfig{
			LogLevel: "",
		},
	}

	// Global config instance
	cfg *Config

	// Override config path if set
	configPathOverride string
)

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init initializes the configuration system
func Init() error {
	viper.SetConfigName("wayframe")
	viper.SetConfigType("toml")

	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			viper.AddConfigPath(filepath.Join(xdg, "wayframe"))
		}
		if home := os.Getenv("HOME"); home != "" {
			viper.AddConfigPath(filepath.Join(home, ".config", "wayframe"))
		}
		viper.AddConfigPath(".") // Current directory (lowest priority)
	}

	viper.SetEnvPrefix("WAYFRAME")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set defaults - need to set individual fields for proper merging
	viper.SetDefault("window.title", DefaultConfig.Window.Title)
	viper.SetDefault("window.width", DefaultConfig.Window.Width)
	viper.SetDefault("window.height", DefaultConfig.Window.Height)
	viper.SetDefault("window.fill", DefaultConfig.Window.Fill)
	viper.SetDefault("window.exit_on_close", DefaultConfig.Window.ExitOnClose)

	viper.SetDefault("display.name", DefaultConfig.Display.Name)

	viper.SetDefault("shm.backend", DefaultConfig.Shm.Backend)
	viper.SetDefault("shm.dir", DefaultConfig.Shm.Dir)
	viper.SetDefault("shm.retries", DefaultConfig.Shm.Retries)

	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults
	}

	c := &Config{}
	if err := viper.Unmarshal(c); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c

	return nil
}

// Validate rejects configurations the client cannot honor.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d: dimensions must be positive", c.Window.Width, c.Window.Height)
	}
	// wl_shm pool sizes are int32; each pixel takes 4 bytes.
	if c.Window.Width > math.MaxInt32/4 || c.Window.Height > math.MaxInt32/(c.Window.Width*4) {
		return fmt.Errorf("invalid window size %dx%d: buffer exceeds %d bytes", c.Window.Width, c.Window.Height, math.MaxInt32)
	}
	switch c.Shm.Backend {
	case "shm_open", "memfd":
	default:
		return fmt.Errorf("unknown shm backend %q (want shm_open or memfd)", c.Shm.Backend)
	}
	if c.Shm.Retries < 0 {
		return fmt.Errorf("shm retries must not be negative, got %d", c.Shm.Retries)
	}
	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		// Return defaults if not initialized
		d := DefaultConfig
		return &d
	}
	return cfg
}

// Set sets the current configuration (for testing)
func Set(c *Config) {
	cfg = c
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	if configPathOverride != "" {
		return configPathOverride
	}

	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "wayframe", "wayframe.toml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "wayframe.toml"
	}

	return filepath.Join(home, ".config", "wayframe", "wayframe.toml")
}
