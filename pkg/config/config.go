package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	Acquisition AcquisitionConfig `yaml:"acquisition"`
	Signal      SignalConfig      `yaml:"signal"`
	Display     DisplayConfig     `yaml:"display"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// AcquisitionConfig contains the control-loop timing parameters. These
// default to the values burned into the firmware; overriding them only
// affects the in-process mock device.
type AcquisitionConfig struct {
	SampleInterval time.Duration `yaml:"sample_interval"` // one period of the sample rate
	Debounce       time.Duration `yaml:"debounce"`        // minimum release-to-press gap
	LongPress      time.Duration `yaml:"long_press"`      // hold duration for the stop gesture
	TestDuration   time.Duration `yaml:"test_duration"`   // auto-stop cap on button tests
}

// SignalConfig contains waveform synthesis parameters for the mock device.
type SignalConfig struct {
	Seed int64 `yaml:"seed"` // random seed; 0 = seed from the clock
}

// DisplayConfig contains live-trace display parameters.
type DisplayConfig struct {
	WindowSeconds float64 `yaml:"window_seconds"` // visible time span of the scope
	MaxPoints     int     `yaml:"max_points"`     // display downsampling limit
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "COM3", // Default for Windows, should be "/dev/ttyUSB0" on Linux/Mac
			BaudRate: 115200,
		},
		Acquisition: AcquisitionConfig{
			SampleInterval: 4 * time.Millisecond, // 250 Hz
			Debounce:       50 * time.Millisecond,
			LongPress:      2 * time.Second,
			TestDuration:   10 * time.Second,
		},
		Signal: SignalConfig{
			Seed: 0,
		},
		Display: DisplayConfig{
			WindowSeconds: 10,
			MaxPoints:     1000,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Ensure minimum required fields are set (use defaults if missing)
	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Acquisition.SampleInterval == 0 {
		c.Acquisition.SampleInterval = def.Acquisition.SampleInterval
	}
	if c.Acquisition.Debounce == 0 {
		c.Acquisition.Debounce = def.Acquisition.Debounce
	}
	if c.Acquisition.LongPress == 0 {
		c.Acquisition.LongPress = def.Acquisition.LongPress
	}
	if c.Acquisition.TestDuration == 0 {
		c.Acquisition.TestDuration = def.Acquisition.TestDuration
	}

	if c.Display.WindowSeconds == 0 {
		c.Display.WindowSeconds = def.Display.WindowSeconds
	}
	if c.Display.MaxPoints == 0 {
		c.Display.MaxPoints = def.Display.MaxPoints
	}
}
