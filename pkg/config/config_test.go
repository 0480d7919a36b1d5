// The config package contains the configuration file parsing logic.
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	conf, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 0, conf.DebugLevel)
	assert.Equal(t, 10.0, conf.Actuation.ActionsPerSecond)
	assert.True(t, conf.Actuation.Failsafe)
	assert.Equal(t, 80, conf.Match.DefaultThreshold)
	assert.Equal(t, 1920, conf.Simulation.ScreenWidth)
	assert.Equal(t, 1080, conf.Simulation.ScreenHeight)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
debug_level: 2
actuation:
  actions_per_second: 4
  failsafe: false
match:
  default_threshold: 65
simulation:
  screen_width: 800
  screen_height: 600
`)

	conf, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 2, conf.DebugLevel)
	assert.Equal(t, 4.0, conf.Actuation.ActionsPerSecond)
	assert.False(t, conf.Actuation.Failsafe)
	assert.Equal(t, 65, conf.Match.DefaultThreshold)
	assert.Equal(t, 800, conf.Simulation.ScreenWidth)
	assert.Equal(t, 600, conf.Simulation.ScreenHeight)
}

func TestLoadConfigEnvInterpolation(t *testing.T) {
	t.Setenv("GOMACRO_DEBUG", "3")
	path := writeConfig(t, "debug_level: ${GOMACRO_DEBUG}\n")

	conf, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, conf.DebugLevel)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestLoadConfigUnstatablePath(t *testing.T) {
	// A path whose parent is a regular file makes os.Stat fail with an
	// error that is not a plain not-exist; it must yield an error, not
	// a panic.
	parent := writeConfig(t, "debug_level: 1\n")
	_, err := LoadConfig(filepath.Join(parent, "child.yml"))
	assert.Error(t, err)
}

func TestLoadConfigClampsBadValues(t *testing.T) {
	path := writeConfig(t, `
actuation:
  actions_per_second: -1
match:
  default_threshold: 250
`)

	conf, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 10.0, conf.Actuation.ActionsPerSecond)
	assert.Equal(t, 80, conf.Match.DefaultThreshold)
}
