// Package led owns the RGB LED: it resolves colors, applies gamma
// correction and writes the result to the PWM channels.
package led

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/begillespie/pilight/internal/color"
	"github.com/begillespie/pilight/internal/events"
)

// ErrDeviceStopped is returned by SetColor once Stop has run.
var ErrDeviceStopped = errors.New("led: device stopped")

// StoppedText is the confirmation returned by Stop.
const StoppedText = "stopped"

// State is the controller lifecycle.
type State int

const (
	Ready State = iota
	Stopped
)

func (s State) String() string {
	if s == Stopped {
		return "stopped"
	}
	return "ready"
}

// Channels is the hardware the controller drives. *pwm.ChannelSet
// satisfies it.
type Channels interface {
	Apply(duty [3]uint8) error
	Duties() [3]uint8
	Shutdown() error
}

// Snapshot is a point in time view of the controller.
type Snapshot struct {
	State     string    `json:"state"`
	Requested color.RGB `json:"requested"`
	Applied   color.RGB `json:"applied"`
	Duty      [3]uint8  `json:"duty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Controller serializes every access to the LED. There is one per process;
// once stopped it cannot be restarted.
type Controller struct {
	mu        sync.Mutex
	ch        Channels
	bus       *events.Bus
	state     State
	requested color.RGB
	applied   color.RGB
	updatedAt time.Time
	now       func() time.Time
}

// Option customizes a Controller.
type Option func(*Controller)

// WithBus publishes state changes on bus.
func WithBus(bus *events.Bus) Option {
	return func(c *Controller) { c.bus = bus }
}

// New returns a Ready controller driving ch.
func New(ch Channels, opts ...Option) *Controller {
	c := &Controller{ch: ch, state: Ready, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	c.updatedAt = c.now()
	return c
}

// SetColor resolves spec, clamps it, applies gamma and writes the three
// channels. The returned text echoes the values as requested, before
// clamping. On error no channel is left changed.
func (c *Controller) SetColor(spec color.Spec) (string, error) {
	rgb, err := color.Resolve(spec)
	if err != nil {
		return "", err
	}
	clamped := rgb.Clamp()
	duty := color.Correct(clamped)

	c.mu.Lock()
	if c.state == Stopped {
		c.mu.Unlock()
		return "", ErrDeviceStopped
	}
	if err := c.ch.Apply(duty); err != nil {
		c.mu.Unlock()
		return "", fmt.Errorf("led: set %s: %w", spec, err)
	}
	c.requested, c.applied, c.updatedAt = rgb, clamped, c.now()
	ev := events.ColorChanged{
		Requested: [3]int{rgb.R, rgb.G, rgb.B},
		Applied:   [3]int{clamped.R, clamped.G, clamped.B},
		Duty:      duty,
		Timestamp: c.updatedAt,
	}
	// published under the lock so subscribers see writes in hardware order
	c.bus.PublishColor(ev)
	c.mu.Unlock()

	log.Info().
		Str("spec", spec.String()).
		Ints("requested", ev.Requested[:]).
		Ints("applied", ev.Applied[:]).
		Msg("color set")
	return fmt.Sprintf("Set RGB %s", rgb), nil
}

// Stop turns the LED off and releases the hardware. Further calls return
// the same confirmation without touching the hardware.
func (c *Controller) Stop() (string, error) {
	c.mu.Lock()
	if c.state == Stopped {
		c.mu.Unlock()
		return StoppedText, nil
	}
	c.state = Stopped
	c.requested, c.applied, c.updatedAt = color.RGB{}, color.RGB{}, c.now()
	err := c.ch.Shutdown()
	c.bus.PublishStopped(events.DeviceStopped{Timestamp: c.updatedAt})
	c.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Msg("led shutdown incomplete")
		return "", fmt.Errorf("led: stop: %w", err)
	}
	log.Info().Msg("led stopped")
	return StoppedText, nil
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the current state and colors.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:     c.state.String(),
		Requested: c.requested,
		Applied:   c.applied,
		Duty:      c.ch.Duties(),
		UpdatedAt: c.updatedAt,
	}
}

// Status formats the snapshot as one line of text.
func (c *Controller) Status() string {
	s := c.Snapshot()
	if s.State == Stopped.String() {
		return s.State
	}
	return fmt.Sprintf("%s rgb%s duty(%d, %d, %d)", s.State, s.Applied, s.Duty[0], s.Duty[1], s.Duty[2])
}
