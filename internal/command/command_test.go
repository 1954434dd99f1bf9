package command

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"

	"github.com/begillespie/pilight/internal/color"
	"github.com/begillespie/pilight/internal/led"
	"github.com/begillespie/pilight/internal/pwm"
)

// countingPin records how many PWM writes reached it.
type countingPin struct {
	gpiotest.Pin
	writes int
	fail   bool
}

func (p *countingPin) PWM(duty gpio.Duty, f physic.Frequency) error {
	if p.fail {
		return errors.New("bus error")
	}
	p.writes++
	return p.Pin.PWM(duty, f)
}

type rig struct {
	pins [3]*countingPin
	set  *pwm.ChannelSet
	ctrl *led.Controller
	d    *Dispatcher
}

func newRig(t *testing.T, opts ...Option) *rig {
	t.Helper()
	r := &rig{}
	for i, n := range []int{18, 23, 24} {
		r.pins[i] = &countingPin{Pin: gpiotest.Pin{N: fmt.Sprintf("GPIO%d", n), Num: n}}
	}
	set, err := pwm.New(r.pins[0], r.pins[1], r.pins[2])
	require.NoError(t, err)
	r.set = set
	r.ctrl = led.New(set)
	r.d = New(r.ctrl, opts...)
	for _, p := range r.pins {
		p.writes = 0
	}
	return r
}

func (r *rig) writes() int {
	return r.pins[0].writes + r.pins[1].writes + r.pins[2].writes
}

func TestParse(t *testing.T) {
	tests := []struct {
		raw    string
		action Action
		spec   color.Spec
		err    error
	}{
		{"help", ActionHelp, color.Spec{}, nil},
		{"  STOP now", ActionStop, color.Spec{}, nil},
		{"Status", ActionStatus, color.Spec{}, nil},
		{"about", ActionAbout, color.Spec{}, nil},
		{"rgb 1 2 3", ActionColor, color.Triplet(1, 2, 3), nil},
		{"RGB   255\t0 0", ActionColor, color.Triplet(255, 0, 0), nil},
		{"rgb 1 2", ActionColor, color.Keyword("rgb"), nil},
		{"rgb a b c", ActionColor, color.Spec{}, color.ErrParse},
		{"Red", ActionColor, color.Keyword("red"), nil},
		{"blue and more", ActionColor, color.Keyword("blue"), nil},
		{"#FFAA00", ActionColor, color.Hex("#ffaa00"), nil},
		{"", ActionColor, color.Spec{}, color.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			cmd := Parse(tt.raw)
			assert.Equal(t, tt.action, cmd.Action)
			if tt.err != nil {
				assert.ErrorIs(t, cmd.Err, tt.err)
				return
			}
			require.NoError(t, cmd.Err)
			assert.Equal(t, tt.spec, cmd.Color)
		})
	}
}

func TestExecuteRGB(t *testing.T) {
	r := newRig(t)

	out := r.d.Execute("rgb 255 0 0")
	assert.Contains(t, out, "255, 0, 0")
	assert.Equal(t, [3]uint8{color.Gamma(255), color.Gamma(0), color.Gamma(0)}, r.set.Duties())
	assert.Equal(t, gpio.DutyMax, r.pins[0].D)
}

func TestExecuteClampsButEchoesInput(t *testing.T) {
	r := newRig(t)

	out := r.d.Execute("rgb 999 -10 0")
	assert.Equal(t, "Set RGB (999, -10, 0)", out)
	assert.Equal(t, [3]uint8{255, 0, 0}, r.set.Duties())
}

func TestExecuteKeywordIgnoresTrailingTokens(t *testing.T) {
	r := newRig(t)

	out := r.d.Execute("Teal please")
	assert.Equal(t, "Set RGB (0, 128, 128)", out)
	assert.Equal(t, color.Correct(color.RGB{R: 0, G: 128, B: 128}), r.set.Duties())
}

func TestExecuteHex(t *testing.T) {
	r := newRig(t)
	assert.Equal(t, "Set RGB (10, 11, 12)", r.d.Execute("#0A0B0C"))
}

func TestExecuteErrorsDoNotWrite(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"bogus", InvalidInputText},
		{"", InvalidInputText},
		{"rgb 1 2", InvalidInputText},
		{"rgb 1 x 3", InputErrorText},
		{"rgb 99999999999999999999999 0 0", InputErrorText},
		{"#12345", InvalidFormatText},
		{"#zzzzzz", InvalidFormatText},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r := newRig(t)
			assert.Equal(t, tt.want, r.d.Execute(tt.raw))
			assert.Equal(t, 0, r.writes())
		})
	}
}

func TestExecuteStop(t *testing.T) {
	r := newRig(t)
	r.d.Execute("red")

	assert.Equal(t, "stopped", r.d.Execute("stop"))
	assert.Equal(t, led.Stopped, r.ctrl.State())
	assert.Equal(t, [3]uint8{}, r.set.Duties())
	for _, p := range r.pins {
		assert.Equal(t, gpio.Duty(0), p.D)
	}
	assert.True(t, r.set.Closed())

	assert.Equal(t, StoppedErrorText, r.d.Execute("rgb 1 2 3"))
	assert.Equal(t, "stopped", r.d.Execute("stop"))
}

func TestHelpAndAboutArePure(t *testing.T) {
	r := newRig(t)
	for i := 0; i < 2; i++ {
		assert.Equal(t, HelpText, r.d.Execute("help"))
		assert.Equal(t, AboutText, r.d.Execute("ABOUT"))
		assert.Equal(t, 0, r.writes())
		r.d.Execute("stop")
		for _, p := range r.pins {
			p.writes = 0
		}
	}
}

func TestStatus(t *testing.T) {
	r := newRig(t)
	assert.Equal(t, StatusPlaceholder, r.d.Execute("status"))

	r = newRig(t)
	r.d = New(r.ctrl, WithStatus(r.ctrl))
	r.d.Execute("rgb 255 0 0")
	assert.Equal(t, "ready rgb(255, 0, 0) duty(255, 0, 0)", r.d.Execute("status"))
}

func TestExecuteHardwareFailure(t *testing.T) {
	r := newRig(t)
	r.d.Execute("rgb 10 10 10")
	before := r.set.Duties()

	r.pins[2].fail = true
	assert.Equal(t, GenericErrorText, r.d.Execute("white"))
	assert.Equal(t, before, r.set.Duties())
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, InputErrorText, Message(color.ErrParse))
	assert.Equal(t, InvalidInputText, Message(color.ErrInvalidInput))
	assert.Equal(t, InvalidFormatText, Message(color.ErrInvalidColorFormat))
	assert.Equal(t, StoppedErrorText, Message(led.ErrDeviceStopped))
	assert.Equal(t, GenericErrorText, Message(pwm.ErrHardwareWrite))
	assert.Equal(t, GenericErrorText, Message(errors.New("boom")))
}
