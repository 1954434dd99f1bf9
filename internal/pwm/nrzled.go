package pwm

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// DefaultNRZFreq is the SPI clock used for a single WS281x pixel.
const DefaultNRZFreq = 2500 * physic.KiloHertz

// OpenNRZ drives a single addressable WS281x LED on an SPI port. An empty
// port name selects the first port found.
func OpenNRZ(port string, freq physic.Frequency, opts ...Option) (*ChannelSet, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("pwm: host init: %w", err)
	}
	p, err := spireg.Open(port)
	if err != nil {
		return nil, fmt.Errorf("pwm: open spi %q: %w", port, err)
	}
	s, err := NewNRZ(p, freq, append(opts, WithRelease(p.Close))...)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return s, nil
}

// NewNRZ wraps an already opened SPI port. The caller keeps ownership of
// the port unless a release option is passed.
func NewNRZ(p spi.Port, freq physic.Frequency, opts ...Option) (*ChannelSet, error) {
	if freq <= 0 {
		freq = DefaultNRZFreq
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{NumPixels: 1, Channels: 3, Freq: freq})
	if err != nil {
		return nil, fmt.Errorf("pwm: nrzled: %w", err)
	}
	px := &pixel{
		name: d.String(),
		flush: func(rgb [3]byte) error {
			if _, err := d.Write(rgb[:]); err != nil {
				return fmt.Errorf("nrzled write: %w", err)
			}
			return nil
		},
		halt: d.Halt,
	}
	log.Debug().Str("device", px.name).Str("freq", freq.String()).Msg("nrzled pixel opened")
	return newPixelSet(px, opts...)
}
