// Package pwm drives the three PWM lines of an RGB LED.
package pwm

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Frequency is the PWM frequency every channel is configured with.
const Frequency = 100 * physic.Hertz

var (
	// ErrHardwareWrite wraps any failure reported by an output line.
	ErrHardwareWrite = errors.New("pwm: hardware write failed")
	// ErrClosed is returned by writes after Shutdown.
	ErrClosed = errors.New("pwm: channel set is shut down")
)

// Channel names one of the three color lines.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
)

// Channels lists the color lines in write order.
var Channels = [3]Channel{Red, Green, Blue}

func (c Channel) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// Output is a single PWM capable line. gpio.PinIO satisfies it.
type Output interface {
	String() string
	Out(l gpio.Level) error
	PWM(duty gpio.Duty, f physic.Frequency) error
	Halt() error
}

// ChannelSet owns the red, green and blue outputs of one LED.
type ChannelSet struct {
	mu      sync.Mutex
	out     [3]Output
	duty    [3]uint8
	freq    physic.Frequency
	release func() error
	batch   func([3]uint8) error
	closed  bool
}

// Option customizes a ChannelSet.
type Option func(*ChannelSet)

// WithFrequency overrides the default 100 Hz PWM frequency.
func WithFrequency(f physic.Frequency) Option {
	return func(s *ChannelSet) {
		if f > 0 {
			s.freq = f
		}
	}
}

// WithRelease registers a function run once after the outputs are halted,
// for backends that hold a shared handle such as an SPI port.
func WithRelease(fn func() error) Option {
	return func(s *ChannelSet) { s.release = fn }
}

// withBatch lets backends that hold all three channels in one device
// write a color at once instead of channel by channel.
func withBatch(fn func([3]uint8) error) Option {
	return func(s *ChannelSet) { s.batch = fn }
}

// New binds the three outputs and configures each one as a low output at
// the PWM frequency with a zero duty cycle.
func New(red, green, blue Output, opts ...Option) (*ChannelSet, error) {
	if red == nil || green == nil || blue == nil {
		return nil, fmt.Errorf("pwm: all three outputs are required")
	}
	s := &ChannelSet{out: [3]Output{red, green, blue}, freq: Frequency}
	for _, o := range opts {
		o(s)
	}
	if err := s.configure(); err != nil {
		for _, e := range s.halt() {
			log.Warn().Err(e).Msg("pwm halt after failed configure")
		}
		return nil, err
	}
	return s, nil
}

func (s *ChannelSet) configure() error {
	for _, ch := range Channels {
		o := s.out[ch]
		if err := o.Out(gpio.Low); err != nil {
			return fmt.Errorf("%w: %s output mode: %v", ErrHardwareWrite, o, err)
		}
		if err := o.PWM(0, s.freq); err != nil {
			return fmt.Errorf("%w: %s set frequency: %v", ErrHardwareWrite, o, err)
		}
		log.Debug().Str("channel", ch.String()).Str("pin", o.String()).Str("freq", s.freq.String()).Msg("pwm channel configured")
	}
	return nil
}

// Frequency returns the configured PWM frequency.
func (s *ChannelSet) Frequency() physic.Frequency {
	return s.freq
}

// Pins returns the output names in red, green, blue order.
func (s *ChannelSet) Pins() [3]string {
	return [3]string{s.out[Red].String(), s.out[Green].String(), s.out[Blue].String()}
}

// SetDutyCycle writes a 0-255 duty cycle to one channel. Out of range
// values are clamped.
func (s *ChannelSet) SetDutyCycle(ch Channel, v int) error {
	if ch < Red || ch > Blue {
		return fmt.Errorf("pwm: unknown %s", ch)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.write(ch, clampByte(v))
}

// Apply writes all three channels. If a write fails the channels already
// written are put back to their previous values, so a failed Apply leaves
// the LED as it was.
func (s *ChannelSet) Apply(duty [3]uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.batch != nil {
		return s.writeAll(duty)
	}
	prev := s.duty
	for i, ch := range Channels {
		if err := s.write(ch, duty[ch]); err != nil {
			for _, done := range Channels[:i] {
				if rerr := s.write(done, prev[done]); rerr != nil {
					log.Error().Err(rerr).Str("channel", done.String()).Msg("pwm rollback failed")
				}
			}
			return err
		}
	}
	return nil
}

func (s *ChannelSet) write(ch Channel, v uint8) error {
	o := s.out[ch]
	if err := o.PWM(toDuty(v), s.freq); err != nil {
		log.Error().Err(err).Str("channel", ch.String()).Str("pin", o.String()).Uint8("value", v).Msg("pwm write failed")
		return fmt.Errorf("%w: %s: %v", ErrHardwareWrite, ch, err)
	}
	s.duty[ch] = v
	return nil
}

func (s *ChannelSet) writeAll(duty [3]uint8) error {
	if err := s.batch(duty); err != nil {
		log.Error().Err(err).Uints8("value", duty[:]).Msg("pwm write failed")
		return fmt.Errorf("%w: %v", ErrHardwareWrite, err)
	}
	s.duty = duty
	return nil
}

// halt stops every output and returns the failures.
func (s *ChannelSet) halt() []error {
	var errs []error
	for _, ch := range Channels {
		if err := s.out[ch].Halt(); err != nil {
			errs = append(errs, fmt.Errorf("pwm: halt %s: %w", ch, err))
		}
	}
	return errs
}

// Duty returns the last value written to a channel.
func (s *ChannelSet) Duty(ch Channel) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duty[ch]
}

// Duties returns the last values written, red first.
func (s *ChannelSet) Duties() [3]uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duty
}

// Closed reports whether Shutdown has run.
func (s *ChannelSet) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Shutdown zeroes every channel, halts the outputs and releases the
// hardware. Calling it again is a no-op.
func (s *ChannelSet) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.batch != nil {
		if err := s.writeAll([3]uint8{}); err != nil {
			errs = append(errs, err)
		}
	} else {
		for _, ch := range Channels {
			if err := s.write(ch, 0); err != nil {
				errs = append(errs, err)
			}
		}
	}
	errs = append(errs, s.halt()...)
	if s.release != nil {
		if err := s.release(); err != nil {
			errs = append(errs, fmt.Errorf("pwm: release: %w", err))
		}
	}
	log.Debug().Int("errors", len(errs)).Msg("pwm channels shut down")
	return errors.Join(errs...)
}

// toDuty scales 0-255 onto gpio.Duty with integer math.
func toDuty(v uint8) gpio.Duty {
	return gpio.Duty(int64(v) * int64(gpio.DutyMax) / 255)
}

// fromDuty is the inverse of toDuty, rounding to nearest.
func fromDuty(d gpio.Duty) uint8 {
	if d <= 0 {
		return 0
	}
	if d >= gpio.DutyMax {
		return 255
	}
	return uint8((int64(d)*255 + int64(gpio.DutyMax)/2) / int64(gpio.DutyMax))
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
