package pwm

import (
	"image"
	"image/color"

	"github.com/rs/zerolog/log"
	"periph.io/x/extra/devices/screen"
)

// drawer is the subset of a periph display used for the console preview.
type drawer interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Halt() error
}

// NewSim returns a channel set with no hardware behind it. With preview
// set, every change is drawn as a one pixel strip on the terminal.
func NewSim(preview bool, opts ...Option) (*ChannelSet, error) {
	var d drawer
	if preview {
		d = screen.New(1)
	}
	px := &pixel{
		name: "sim",
		flush: func(rgb [3]byte) error {
			log.Debug().Uint8("r", rgb[0]).Uint8("g", rgb[1]).Uint8("b", rgb[2]).Msg("sim pixel")
			if d == nil {
				return nil
			}
			img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
			img.SetNRGBA(0, 0, color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255})
			return d.Draw(d.Bounds(), img, image.Point{})
		},
	}
	if d != nil {
		px.halt = d.Halt
	}
	return newPixelSet(px, opts...)
}
