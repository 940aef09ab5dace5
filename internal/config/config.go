// Package config handles configuration management using Viper
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bnema/wayrot/internal/display"
	"github.com/bnema/wayrot/internal/sensor"
)

// Config represents the application configuration
type Config struct {
	// Display is the output to rotate, e.g. "eDP-1".
	Display string `mapstructure:"display"`
	// Backend is one of auto, wlroots, sway, hyprland, xorg, xorg-randr.
	Backend string `mapstructure:"backend"`

	Sensor     SensorConfig     `mapstructure:"sensor"`
	Input      InputConfig      `mapstructure:"input"`
	Hooks      HooksConfig      `mapstructure:"hooks"`
	Wayland    WaylandConfig    `mapstructure:"wayland"`
	IPC        IPCConfig        `mapstructure:"ipc"`
	Compositor CompositorConfig `mapstructure:"compositor"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SensorConfig controls accelerometer polling and classification
type SensorConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Threshold    float64       `mapstructure:"threshold"`
	// NormalizationFactor divides raw readings; 0 normalizes by the
	// magnitude of each reading instead.
	NormalizationFactor float64 `mapstructure:"normalization_factor"`
	InvertX             bool    `mapstructure:"invert_x"`
	InvertY             bool    `mapstructure:"invert_y"`
	InvertZ             bool    `mapstructure:"invert_z"`
	AxisMap             string  `mapstructure:"axis_map"`
	DeviceGlob          string  `mapstructure:"device_glob"`
}

// InputConfig lists the input devices that follow the display
type InputConfig struct {
	Touchscreens   []string `mapstructure:"touchscreens"`    // xinput device names (X11)
	ManageKeyboard bool     `mapstructure:"manage_keyboard"` // Disable keyboards while rotated
}

// HooksConfig holds shell commands run around each rotation
type HooksConfig struct {
	Before string `mapstructure:"before"`
	After  string `mapstructure:"after"`
}

// WaylandConfig contains protocol client settings
type WaylandConfig struct {
	RoundtripTimeout time.Duration `mapstructure:"roundtrip_timeout"` // 0 waits forever
}

// IPCConfig contains control socket settings
type IPCConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	SocketPath string `mapstructure:"socket_path"` // Empty means the per-user default
}

// CompositorConfig contains compositor IPC settings
type CompositorConfig struct {
	BestEffortSideEffects bool `mapstructure:"best_effort_side_effects"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // Override LOG_LEVEL env var
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Display: "eDP-1",
		Backend: string(display.KindAuto),
		Sensor: SensorConfig{
			PollInterval:        500 * time.Millisecond,
			Threshold:           0.5,
			NormalizationFactor: sensor.DefaultNormalizationFactor,
			AxisMap:             string(sensor.AxisMapXY),
			DeviceGlob:          sensor.DefaultGlob,
		},
		Input: InputConfig{
			Touchscreens: []string{},
		},
		IPC: IPCConfig{
			Enabled: true,
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
	viper.SetConfigName("wayrot")
	viper.SetConfigType("toml")

	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			viper.AddConfigPath(filepath.Join(xdg, "wayrot"))
		}
		if home := os.Getenv("HOME"); home != "" {
			viper.AddConfigPath(filepath.Join(home, ".config", "wayrot"))
		}
		viper.AddConfigPath("/etc/wayrot")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("WAYROT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set defaults - need to set individual fields for proper merging
	viper.SetDefault("display", DefaultConfig.Display)
	viper.SetDefault("backend", DefaultConfig.Backend)

	viper.SetDefault("sensor.poll_interval", DefaultConfig.Sensor.PollInterval)
	viper.SetDefault("sensor.threshold", DefaultConfig.Sensor.Threshold)
	viper.SetDefault("sensor.normalization_factor", DefaultConfig.Sensor.NormalizationFactor)
	viper.SetDefault("sensor.invert_x", DefaultConfig.Sensor.InvertX)
	viper.SetDefault("sensor.invert_y", DefaultConfig.Sensor.InvertY)
	viper.SetDefault("sensor.invert_z", DefaultConfig.Sensor.InvertZ)
	viper.SetDefault("sensor.axis_map", DefaultConfig.Sensor.AxisMap)
	viper.SetDefault("sensor.device_glob", DefaultConfig.Sensor.DeviceGlob)

	viper.SetDefault("input.touchscreens", DefaultConfig.Input.Touchscreens)
	viper.SetDefault("input.manage_keyboard", DefaultConfig.Input.ManageKeyboard)

	viper.SetDefault("hooks.before", DefaultConfig.Hooks.Before)
	viper.SetDefault("hooks.after", DefaultConfig.Hooks.After)

	viper.SetDefault("wayland.roundtrip_timeout", DefaultConfig.Wayland.RoundtripTimeout)

	viper.SetDefault("ipc.enabled", DefaultConfig.IPC.Enabled)
	viper.SetDefault("ipc.socket_path", DefaultConfig.IPC.SocketPath)

	viper.SetDefault("compositor.best_effort_side_effects", DefaultConfig.Compositor.BestEffortSideEffects)

	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults
	}

	return Load()
}

// Load unmarshals the current viper state, so flags bound after Init are
// picked up.
func Load() error {
	c := &Config{}
	if err := viper.Unmarshal(c); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	cfg = c
	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		// Return defaults if not initialized
		return &DefaultConfig
	}
	return cfg
}

// Set sets the current configuration (for testing)
func Set(c *Config) {
	cfg = c
}

// Validate rejects settings the daemon cannot run with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Display) == "" {
		return fmt.Errorf("display must not be empty")
	}
	if _, err := display.ParseKind(c.Backend); err != nil {
		return err
	}
	if _, err := sensor.ParseAxisMap(c.Sensor.AxisMap); err != nil {
		return err
	}
	if c.Sensor.Threshold <= 0 {
		return fmt.Errorf("sensor.threshold must be positive, got %v", c.Sensor.Threshold)
	}
	if c.Sensor.PollInterval <= 0 {
		return fmt.Errorf("sensor.poll_interval must be positive, got %s", c.Sensor.PollInterval)
	}
	if c.Sensor.NormalizationFactor < 0 {
		return fmt.Errorf("sensor.normalization_factor must not be negative, got %v", c.Sensor.NormalizationFactor)
	}
	if c.Wayland.RoundtripTimeout < 0 {
		return fmt.Errorf("wayland.roundtrip_timeout must not be negative, got %s", c.Wayland.RoundtripTimeout)
	}
	return nil
}

// Update stores c in viper and saves it to the config file
func Update(c *Config) error {
	viper.Set("display", c.Display)
	viper.Set("backend", c.Backend)
	viper.Set("sensor.poll_interval", c.Sensor.PollInterval.String())
	viper.Set("sensor.threshold", c.Sensor.Threshold)
	viper.Set("sensor.normalization_factor", c.Sensor.NormalizationFactor)
	viper.Set("sensor.invert_x", c.Sensor.InvertX)
	viper.Set("sensor.invert_y", c.Sensor.InvertY)
	viper.Set("sensor.invert_z", c.Sensor.InvertZ)
	viper.Set("sensor.axis_map", c.Sensor.AxisMap)
	viper.Set("sensor.device_glob", c.Sensor.DeviceGlob)
	viper.Set("input.touchscreens", c.Input.Touchscreens)
	viper.Set("input.manage_keyboard", c.Input.ManageKeyboard)
	viper.Set("hooks.before", c.Hooks.Before)
	viper.Set("hooks.after", c.Hooks.After)
	viper.Set("wayland.roundtrip_timeout", c.Wayland.RoundtripTimeout.String())
	viper.Set("ipc.enabled", c.IPC.Enabled)
	viper.Set("ipc.socket_path", c.IPC.SocketPath)
	viper.Set("compositor.best_effort_side_effects", c.Compositor.BestEffortSideEffects)
	viper.Set("logging.log_level", c.Logging.LogLevel)

	cfg = c
	return Save()
}

// Save saves the current configuration to file
func Save() error {
	configPath := GetConfigPath()

	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		if os.IsPermission(err) && strings.HasPrefix(configPath, "/etc/") {
			return fmt.Errorf("failed to create config directory %s: permission denied. Try running with sudo", dir)
		}
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
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
		return filepath.Join(xdg, "wayrot", "wayrot.toml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "/etc/wayrot/wayrot.toml"
	}
	return filepath.Join(home, ".config", "wayrot", "wayrot.toml")
}
