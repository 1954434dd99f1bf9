package pwm

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Pins are the BCM GPIO numbers of the three color lines.
type Pins struct {
	Red   int `yaml:"red"`
	Green int `yaml:"green"`
	Blue  int `yaml:"blue"`
}

// DefaultPins matches the usual wiring on a Raspberry Pi header.
var DefaultPins = Pins{Red: 18, Green: 23, Blue: 24}

// OpenGPIO initializes the host drivers and binds the three pins as
// hardware PWM outputs.
func OpenGPIO(pins Pins, opts ...Option) (*ChannelSet, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("pwm: host init: %w", err)
	}
	log.Debug().Int("loaded", len(state.Loaded)).Int("failed", len(state.Failed)).Msg("periph host drivers")

	var out [3]Output
	for i, n := range [3]int{pins.Red, pins.Green, pins.Blue} {
		p := gpioreg.ByName(strconv.Itoa(n))
		if p == nil {
			return nil, fmt.Errorf("pwm: no gpio pin %d for %s", n, Channels[i])
		}
		out[i] = p
	}
	return New(out[Red], out[Green], out[Blue], opts...)
}
