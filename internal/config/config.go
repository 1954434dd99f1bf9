// Package config loads the pilight YAML configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/begillespie/pilight/internal/pwm"
)

// EnvPrefix prefixes every environment override, e.g. PILIGHT_TOKEN.
const EnvPrefix = "PILIGHT_"

type SPI struct {
	Port    string `yaml:"port"`     // empty selects the first port
	FreqKHz int    `yaml:"freq_khz"` // e.g. 2500
}

type Log struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // console | json
}

type Metrics struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	Addr        string   `yaml:"addr"`
	Token       string   `yaml:"token"`
	Driver      string   `yaml:"driver"` // "gpio" | "nrzled" | "sim"
	Pins        pwm.Pins `yaml:"pins"`
	FrequencyHz int      `yaml:"frequency_hz"`
	Preview     bool     `yaml:"preview"` // sim driver draws on the terminal

	SPI     SPI     `yaml:"spi,omitempty"`
	Log     Log     `yaml:"log"`
	Metrics Metrics `yaml:"metrics"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Addr:        ":80",
		Driver:      "gpio",
		Pins:        pwm.DefaultPins,
		FrequencyHz: 100,
		SPI:         SPI{FreqKHz: 2500},
		Log:         Log{Level: "info", Format: "console"},
		Metrics:     Metrics{Enabled: true},
	}
}

// Load reads path over the defaults. Keys missing from the file keep
// their default value.
func Load(path string) (*Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return c, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0600)
}

// ApplyEnv overrides fields from PILIGHT_* environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	str := map[string]*string{
		"ADDR":       &c.Addr,
		"TOKEN":      &c.Token,
		"DRIVER":     &c.Driver,
		"SPI_PORT":   &c.SPI.Port,
		"LOG_LEVEL":  &c.Log.Level,
		"LOG_FORMAT": &c.Log.Format,
	}
	for k, p := range str {
		if v, ok := lookup(EnvPrefix + k); ok {
			*p = v
		}
	}
	ints := map[string]*int{
		"PIN_RED":      &c.Pins.Red,
		"PIN_GREEN":    &c.Pins.Green,
		"PIN_BLUE":     &c.Pins.Blue,
		"FREQUENCY_HZ": &c.FrequencyHz,
		"SPI_FREQ_KHZ": &c.SPI.FreqKHz,
	}
	for k, p := range ints {
		if v, ok := lookup(EnvPrefix + k); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, k, err)
			}
			*p = n
		}
	}
	if v, ok := lookup(EnvPrefix + "METRICS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sMETRICS: %w", EnvPrefix, err)
		}
		c.Metrics.Enabled = b
	}
	return nil
}

// Validate checks the fields the hardware setup depends on.
func (c *Config) Validate() error {
	switch c.Driver {
	case "gpio", "nrzled", "sim":
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	if c.Driver == "gpio" {
		p := c.Pins
		if p.Red < 0 || p.Green < 0 || p.Blue < 0 {
			return fmt.Errorf("pins must not be negative: %+v", p)
		}
		if p.Red == p.Green || p.Green == p.Blue || p.Red == p.Blue {
			return fmt.Errorf("pins must be distinct: %+v", p)
		}
	}
	if c.FrequencyHz <= 0 {
		return fmt.Errorf("frequency_hz must be positive, got %d", c.FrequencyHz)
	}
	return nil
}
