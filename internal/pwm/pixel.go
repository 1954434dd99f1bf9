package pwm

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// pixel backs three Outputs with a single RGB value that is pushed as a
// whole on every channel write. Used by the backends that cannot address
// color lines on their own.
type pixel struct {
	mu     sync.Mutex
	name   string
	rgb    [3]byte
	flush  func(rgb [3]byte) error
	halt   func() error
	halted bool
}

// newPixelSet builds a ChannelSet whose Apply writes the pixel in a single
// flush.
func newPixelSet(p *pixel, opts ...Option) (*ChannelSet, error) {
	r, g, b := p.outputs()
	return New(r, g, b, append(opts, withBatch(p.setAll))...)
}

func (p *pixel) outputs() (Output, Output, Output) {
	return &pixelChannel{p: p, ch: Red}, &pixelChannel{p: p, ch: Green}, &pixelChannel{p: p, ch: Blue}
}

func (p *pixel) set(ch Channel, v byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.halted {
		return ErrClosed
	}
	next := p.rgb
	next[ch] = v
	return p.commit(next)
}

// setAll pushes a whole color in one flush.
func (p *pixel) setAll(rgb [3]byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.halted {
		return ErrClosed
	}
	return p.commit(rgb)
}

// commit keeps the buffer in step with the device: it only changes once
// the flush went through.
func (p *pixel) commit(next [3]byte) error {
	if err := p.flush(next); err != nil {
		return err
	}
	p.rgb = next
	return nil
}

func (p *pixel) stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.halted {
		return nil
	}
	p.halted = true
	p.rgb = [3]byte{}
	if p.halt == nil {
		return nil
	}
	return p.halt()
}

// value returns the current pixel contents.
func (p *pixel) value() [3]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rgb
}

type pixelChannel struct {
	p  *pixel
	ch Channel
}

func (c *pixelChannel) String() string {
	return fmt.Sprintf("%s/%s", c.p.name, c.ch)
}

func (c *pixelChannel) Out(l gpio.Level) error {
	if l == gpio.High {
		return c.p.set(c.ch, 255)
	}
	return c.p.set(c.ch, 0)
}

// PWM ignores the frequency; the pixel refresh rate is fixed by the device.
func (c *pixelChannel) PWM(duty gpio.Duty, _ physic.Frequency) error {
	return c.p.set(c.ch, fromDuty(duty))
}

func (c *pixelChannel) Halt() error {
	return c.p.stop()
}
