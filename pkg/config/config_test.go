package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, 4*time.Millisecond, cfg.Acquisition.SampleInterval)
	assert.Equal(t, 50*time.Millisecond, cfg.Acquisition.Debounce)
	assert.Equal(t, 2*time.Second, cfg.Acquisition.LongPress)
	assert.Equal(t, 10*time.Second, cfg.Acquisition.TestDuration)
	assert.Equal(t, float64(10), cfg.Display.WindowSeconds)
	assert.Equal(t, 1000, cfg.Display.MaxPoints)
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyUSB0"
  baud_rate: 230400

acquisition:
  sample_interval: 2ms
  debounce: 30ms
  long_press: 1s
  test_duration: 5s

signal:
  seed: 42

display:
  window_seconds: 5
  max_points: 500
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.Equal(t, 230400, cfg.Serial.BaudRate)
	assert.Equal(t, 2*time.Millisecond, cfg.Acquisition.SampleInterval)
	assert.Equal(t, 30*time.Millisecond, cfg.Acquisition.Debounce)
	assert.Equal(t, 1*time.Second, cfg.Acquisition.LongPress)
	assert.Equal(t, 5*time.Second, cfg.Acquisition.TestDuration)
	assert.Equal(t, int64(42), cfg.Signal.Seed)
	assert.Equal(t, float64(5), cfg.Display.WindowSeconds)
	assert.Equal(t, 500, cfg.Display.MaxPoints)
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("invalid: yaml: content: [")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyUSB0"
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// Should use defaults for missing fields
	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)                       // default
	assert.Equal(t, 4*time.Millisecond, cfg.Acquisition.SampleInterval) // default
	assert.Equal(t, float64(10), cfg.Display.WindowSeconds)             // default
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyACM0"
	cfg.Display.WindowSeconds = 15

	tmpfile, err := os.CreateTemp("", "test_save_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	err = cfg.Save(tmpfile.Name())
	require.NoError(t, err)

	// Load it back and verify
	loaded, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", loaded.Serial.Port)
	assert.Equal(t, float64(15), loaded.Display.WindowSeconds)
}
