package main

import (
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"

	"github.com/begillespie/pilight/internal/config"
	"github.com/begillespie/pilight/internal/pwm"
)

// openBackend opens the configured driver and falls back to the
// simulator when the hardware is not usable.
func openBackend(cfg *config.Config) (*pwm.ChannelSet, string) {
	freq := physic.Frequency(cfg.FrequencyHz) * physic.Hertz

	var (
		ch  *pwm.ChannelSet
		err error
	)
	switch cfg.Driver {
	case "gpio":
		ch, err = pwm.OpenGPIO(cfg.Pins, pwm.WithFrequency(freq))
		if err != nil {
			log.Warn().Err(err).
				Str("driver", "gpio").
				Int("red", cfg.Pins.Red).
				Int("green", cfg.Pins.Green).
				Int("blue", cfg.Pins.Blue).
				Msg("GPIO init failed; falling back to SIM")
		}
	case "nrzled":
		ch, err = pwm.OpenNRZ(cfg.SPI.Port, physic.Frequency(cfg.SPI.FreqKHz)*physic.KiloHertz)
		if err != nil {
			log.Warn().Err(err).
				Str("driver", "nrzled").
				Str("port", cfg.SPI.Port).
				Int("freq_khz", cfg.SPI.FreqKHz).
				Msg("SPI init failed; falling back to SIM")
		}
	}
	if ch != nil {
		return ch, cfg.Driver
	}

	ch, err = pwm.NewSim(cfg.Preview)
	if err != nil {
		// The simulator has no hardware to fail on; without preview it
		// cannot error at all.
		log.Warn().Err(err).Msg("sim preview failed; running without preview")
		ch, _ = pwm.NewSim(false)
	}
	return ch, "sim"
}
