package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/begillespie/pilight/internal/pwm"
)

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: s3cret\npins:\n  red: 12\n"), 0600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", c.Token)
	assert.Equal(t, pwm.Pins{Red: 12, Green: 23, Blue: 24}, c.Pins)
	assert.Equal(t, ":80", c.Addr)
	assert.Equal(t, 100, c.FrequencyHz)
	assert.Equal(t, "gpio", c.Driver)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
	require.NotNil(t, c)
	assert.Equal(t, Default(), c)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	want := Default()
	want.Token = "abc"
	want.Driver = "sim"
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PILIGHT_TOKEN":     "fromenv",
		"PILIGHT_PIN_BLUE":  "25",
		"PILIGHT_METRICS":   "false",
		"PILIGHT_LOG_LEVEL": "debug",
	}
	c := Default()
	require.NoError(t, c.ApplyEnv(func(k string) (string, bool) { v, ok := env[k]; return v, ok }))
	assert.Equal(t, "fromenv", c.Token)
	assert.Equal(t, 25, c.Pins.Blue)
	assert.False(t, c.Metrics.Enabled)
	assert.Equal(t, "debug", c.Log.Level)

	bad := map[string]string{"PILIGHT_PIN_RED": "x"}
	assert.Error(t, Default().ApplyEnv(func(k string) (string, bool) { v, ok := bad[k]; return v, ok }))
}

func TestApplyFlagsOnlyChanged(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--driver", "sim", "--pin-green", "27", "--preview"}))

	c := Default()
	c.Addr = ":8080"
	require.NoError(t, c.ApplyFlags(fs))
	assert.Equal(t, "sim", c.Driver)
	assert.Equal(t, 27, c.Pins.Green)
	assert.True(t, c.Preview)
	assert.Equal(t, ":8080", c.Addr)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Default().Validate())

	c := Default()
	c.Driver = "laser"
	assert.Error(t, c.Validate())

	c = Default()
	c.Pins.Green = c.Pins.Red
	assert.Error(t, c.Validate())

	c = Default()
	c.FrequencyHz = 0
	assert.Error(t, c.Validate())
}

func TestWatcherReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: one\n"), 0600))

	w := NewWatcher(path, 20*time.Millisecond)
	got := make(chan string, 4)
	w.OnReload(func(c *Config) { got <- c.Token })
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("token: two\n"), 0600))
	select {
	case tok := <-got:
		assert.Equal(t, "two", tok)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload")
	}
}
