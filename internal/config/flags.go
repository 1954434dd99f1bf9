package config

import (
	"github.com/spf13/pflag"
)

// RegisterFlags adds the command line overrides to fs. Defaults are only
// shown in help; ApplyFlags copies the flags the user actually set.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("addr", d.Addr, "HTTP listen address")
	fs.String("token", "", "shared secret required by POST /set")
	fs.String("driver", d.Driver, "LED backend: gpio | nrzled | sim")
	fs.Int("pin-red", d.Pins.Red, "BCM pin of the red channel")
	fs.Int("pin-green", d.Pins.Green, "BCM pin of the green channel")
	fs.Int("pin-blue", d.Pins.Blue, "BCM pin of the blue channel")
	fs.Int("frequency-hz", d.FrequencyHz, "PWM frequency")
	fs.Bool("preview", false, "draw the sim LED on the terminal")
	fs.String("spi-port", "", "SPI port for the nrzled driver")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("log-format", d.Log.Format, "log format (console, json)")
	fs.Bool("metrics", d.Metrics.Enabled, "serve Prometheus metrics on /metrics")
}

// ApplyFlags overrides c with every flag changed on the command line.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	str := map[string]*string{
		"addr":       &c.Addr,
		"token":      &c.Token,
		"driver":     &c.Driver,
		"spi-port":   &c.SPI.Port,
		"log-level":  &c.Log.Level,
		"log-format": &c.Log.Format,
	}
	for name, p := range str {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*p = v
	}
	ints := map[string]*int{
		"pin-red":      &c.Pins.Red,
		"pin-green":    &c.Pins.Green,
		"pin-blue":     &c.Pins.Blue,
		"frequency-hz": &c.FrequencyHz,
	}
	for name, p := range ints {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetInt(name)
		if err != nil {
			return err
		}
		*p = v
	}
	bools := map[string]*bool{
		"preview": &c.Preview,
		"metrics": &c.Metrics.Enabled,
	}
	for name, p := range bools {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetBool(name)
		if err != nil {
			return err
		}
		*p = v
	}
	return nil
}
