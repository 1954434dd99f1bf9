// Package command turns the text commands received over HTTP into LED
// actions.
package command

import (
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/begillespie/pilight/internal/color"
	"github.com/begillespie/pilight/internal/led"
	"github.com/begillespie/pilight/internal/metrics"
	"github.com/begillespie/pilight/internal/pwm"
)

const (
	HelpText = `usage:
  rgb <r> <g> <b>   set the LED from three 0-255 values
  <name>            set a CSS color keyword, e.g. red or cornflowerblue
  #rrggbb           set a hex color code
  status            show the LED status
  stop              turn the LED off and release the hardware
  about             project link
  help              this text`
	AboutText         = "https://github.com/begillespie/pilight"
	StatusPlaceholder = "status page"
)

// User visible error texts.
const (
	InputErrorText    = "input error"
	InvalidInputText  = "invalid input"
	InvalidFormatText = "invalid color format"
	StoppedErrorText  = "device stopped"
	GenericErrorText  = "an error occurred"
)

// Action is the closed set of things a command can do.
type Action int

const (
	ActionColor Action = iota
	ActionHelp
	ActionStop
	ActionStatus
	ActionAbout
)

func (a Action) String() string {
	switch a {
	case ActionHelp:
		return "help"
	case ActionStop:
		return "stop"
	case ActionStatus:
		return "status"
	case ActionAbout:
		return "about"
	default:
		return "color"
	}
}

// Command is a parsed command line. For ActionColor, Color holds the spec
// or Err the reason it could not be built.
type Command struct {
	Action Action
	Color  color.Spec
	Err    error
}

// Parse lower-cases and splits raw. A known action word wins; "rgb" with
// exactly three more tokens is a triplet; otherwise only the first token
// is used as a keyword or hex code.
func Parse(raw string) Command {
	tokens := strings.Fields(strings.ToLower(raw))
	if len(tokens) == 0 {
		return Command{Action: ActionColor, Err: color.ErrInvalidInput}
	}
	switch tokens[0] {
	case "help":
		return Command{Action: ActionHelp}
	case "stop":
		return Command{Action: ActionStop}
	case "status":
		return Command{Action: ActionStatus}
	case "about":
		return Command{Action: ActionAbout}
	}
	if tokens[0] == "rgb" && len(tokens) == 4 {
		spec, err := color.ParseTriplet(tokens[1:])
		return Command{Action: ActionColor, Color: spec, Err: err}
	}
	return Command{Action: ActionColor, Color: color.ParseToken(tokens[0])}
}

// Controller is the LED side of the dispatcher. *led.Controller satisfies it.
type Controller interface {
	SetColor(spec color.Spec) (string, error)
	Stop() (string, error)
}

// StatusReporter answers the status command.
type StatusReporter interface {
	Status() string
}

// Dispatcher executes commands against one controller.
type Dispatcher struct {
	ctrl   Controller
	status StatusReporter
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithStatus routes the status command to r instead of the placeholder.
func WithStatus(r StatusReporter) Option {
	return func(d *Dispatcher) { d.status = r }
}

// New returns a dispatcher driving ctrl.
func New(ctrl Controller, opts ...Option) *Dispatcher {
	d := &Dispatcher{ctrl: ctrl}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Execute runs raw and returns the text to show the user. It never fails;
// errors come back as fixed messages.
func (d *Dispatcher) Execute(raw string) string {
	cmd := Parse(raw)
	log.Debug().Str("command", raw).Str("action", cmd.Action.String()).Msg("execute")

	out, err := d.run(cmd)
	if err != nil {
		msg := Message(err)
		log.Warn().Err(err).Str("command", raw).Str("reply", msg).Msg("command failed")
		metrics.ObserveCommand(cmd.Action.String(), "error")
		if errors.Is(err, pwm.ErrHardwareWrite) {
			metrics.ObserveHardwareError()
		}
		return msg
	}
	metrics.ObserveCommand(cmd.Action.String(), "ok")
	return out
}

func (d *Dispatcher) run(cmd Command) (string, error) {
	switch cmd.Action {
	case ActionHelp:
		return HelpText, nil
	case ActionAbout:
		return AboutText, nil
	case ActionStatus:
		if d.status == nil {
			return StatusPlaceholder, nil
		}
		return d.status.Status(), nil
	case ActionStop:
		return d.ctrl.Stop()
	default:
		if cmd.Err != nil {
			return "", cmd.Err
		}
		return d.ctrl.SetColor(cmd.Color)
	}
}

// Message maps an error to the text shown to the user.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, color.ErrParse):
		return InputErrorText
	case errors.Is(err, color.ErrInvalidInput):
		return InvalidInputText
	case errors.Is(err, color.ErrInvalidColorFormat):
		return InvalidFormatText
	case errors.Is(err, led.ErrDeviceStopped):
		return StoppedErrorText
	default:
		return GenericErrorText
	}
}
