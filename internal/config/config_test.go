package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	SetConfigPath("")
	cfg = nil
	t.Cleanup(func() {
		viper.Reset()
		SetConfigPath("")
		cfg = nil
	})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wayrot.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestInit(t *testing.T) {
	t.Run("initializes with defaults when no config exists", func(t *testing.T) {
		resetConfig(t)
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		t.Setenv("HOME", t.TempDir())

		require.NoError(t, Init())

		c := Get()
		require.NotNil(t, c)
		assert.Equal(t, "eDP-1", c.Display)
		assert.Equal(t, "auto", c.Backend)
		assert.Equal(t, 500*time.Millisecond, c.Sensor.PollInterval)
		assert.Equal(t, 0.5, c.Sensor.Threshold)
		assert.Equal(t, "xy", c.Sensor.AxisMap)
		assert.True(t, c.IPC.Enabled)
		assert.NoError(t, c.Validate())
	})

	t.Run("reads an explicit config file", func(t *testing.T) {
		resetConfig(t)
		SetConfigPath(writeConfig(t, `display = "DSI-1"
backend = "sway"

[sensor]
poll_interval = "250ms"
threshold = 0.3
invert_x = true
axis_map = "yx"

[input]
touchscreens = ["Wacom HID 52A0 Finger"]
manage_keyboard = true

[hooks]
before = "notify-send rotating"

[wayland]
roundtrip_timeout = "2s"
`))

		require.NoError(t, Init())

		c := Get()
		assert.Equal(t, "DSI-1", c.Display)
		assert.Equal(t, "sway", c.Backend)
		assert.Equal(t, 250*time.Millisecond, c.Sensor.PollInterval)
		assert.Equal(t, 0.3, c.Sensor.Threshold)
		assert.True(t, c.Sensor.InvertX)
		assert.False(t, c.Sensor.InvertY)
		assert.Equal(t, "yx", c.Sensor.AxisMap)
		assert.Equal(t, []string{"Wacom HID 52A0 Finger"}, c.Input.Touchscreens)
		assert.True(t, c.Input.ManageKeyboard)
		assert.Equal(t, "notify-send rotating", c.Hooks.Before)
		assert.Equal(t, 2*time.Second, c.Wayland.RoundtripTimeout)
		// Unset keys keep their defaults
		assert.Equal(t, 1e6, c.Sensor.NormalizationFactor)
	})

	t.Run("rejects invalid TOML", func(t *testing.T) {
		resetConfig(t)
		SetConfigPath(writeConfig(t, "[sensor\nthreshold = 1"))

		assert.Error(t, Init())
	})

	t.Run("environment overrides file", func(t *testing.T) {
		resetConfig(t)
		SetConfigPath(writeConfig(t, `display = "DSI-1"`))
		t.Setenv("WAYROT_DISPLAY", "HDMI-A-1")
		t.Setenv("WAYROT_SENSOR_THRESHOLD", "0.8")

		require.NoError(t, Init())

		assert.Equal(t, "HDMI-A-1", Get().Display)
		assert.Equal(t, 0.8, Get().Sensor.Threshold)
	})
}

func TestConfigPathResolution(t *testing.T) {
	t.Run("explicit override", func(t *testing.T) {
		resetConfig(t)
		SetConfigPath("/tmp/custom.toml")
		assert.Equal(t, "/tmp/custom.toml", GetConfigPath())
	})

	t.Run("XDG config home", func(t *testing.T) {
		resetConfig(t)
		t.Setenv("XDG_CONFIG_HOME", "/home/testuser/.xdg")
		assert.Equal(t, "/home/testuser/.xdg/wayrot/wayrot.toml", GetConfigPath())
	})

	t.Run("home directory", func(t *testing.T) {
		resetConfig(t)
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("HOME", "/home/testuser")
		assert.Equal(t, "/home/testuser/.config/wayrot/wayrot.toml", GetConfigPath())
	})
}

func TestConfigPrecedence(t *testing.T) {
	resetConfig(t)
	tmpDir := t.TempDir()

	xdgDir := filepath.Join(tmpDir, "xdg", "wayrot")
	homeDir := filepath.Join(tmpDir, "home", ".config", "wayrot")
	require.NoError(t, os.MkdirAll(xdgDir, 0755))
	require.NoError(t, os.MkdirAll(homeDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(homeDir, "wayrot.toml"), []byte(`display = "home"`), 0644))

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	t.Setenv("HOME", filepath.Join(tmpDir, "home"))

	t.Run("falls back to the home config", func(t *testing.T) {
		viper.Reset()
		require.NoError(t, Init())
		assert.Equal(t, "home", Get().Display)
	})

	t.Run("XDG config takes precedence", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(xdgDir, "wayrot.toml"), []byte(`display = "xdg"`), 0644))
		viper.Reset()
		require.NoError(t, Init())
		assert.Equal(t, "xdg", Get().Display)
		assert.Equal(t, filepath.Join(xdgDir, "wayrot.toml"), GetConfigPath())
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", modify: func(c *Config) {}},
		{name: "empty display", modify: func(c *Config) { c.Display = " " }, wantErr: true},
		{name: "unknown backend", modify: func(c *Config) { c.Backend = "mutter" }, wantErr: true},
		{name: "unknown axis map", modify: func(c *Config) { c.Sensor.AxisMap = "xx" }, wantErr: true},
		{name: "zero threshold", modify: func(c *Config) { c.Sensor.Threshold = 0 }, wantErr: true},
		{name: "zero poll interval", modify: func(c *Config) { c.Sensor.PollInterval = 0 }, wantErr: true},
		{name: "negative factor", modify: func(c *Config) { c.Sensor.NormalizationFactor = -1 }, wantErr: true},
		{name: "magnitude normalization", modify: func(c *Config) { c.Sensor.NormalizationFactor = 0 }},
		{name: "negative timeout", modify: func(c *Config) { c.Wayland.RoundtripTimeout = -time.Second }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig
			tt.modify(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUpdateWritesFile(t *testing.T) {
	resetConfig(t)
	path := filepath.Join(t.TempDir(), "nested", "wayrot.toml")
	SetConfigPath(path)
	require.NoError(t, Init())

	c := *Get()
	c.Display = "DSI-1"
	c.Sensor.PollInterval = time.Second
	require.NoError(t, Update(&c))

	viper.Reset()
	require.NoError(t, Init())
	assert.Equal(t, "DSI-1", Get().Display)
	assert.Equal(t, time.Second, Get().Sensor.PollInterval)
}
