// Package color resolves the color forms accepted by pilight commands
// (integer triplets, CSS keywords and #rrggbb codes) into RGB values.
package color

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrParse is returned when an rgb component is not an integer.
	ErrParse = errors.New("color: rgb component is not an integer")
	// ErrInvalidColorFormat is returned for a #-prefixed code that is not #rrggbb.
	ErrInvalidColorFormat = errors.New("color: invalid color format, must be #09afAF")
	// ErrInvalidInput is returned for anything that is neither a keyword nor a hex code.
	ErrInvalidInput = errors.New("color: invalid input")
)

var hexPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// RGB holds one integer per channel. Values are kept as given; Clamp
// brings them into the 0-255 range.
type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Clamp limits each channel independently to [0,255].
func (c RGB) Clamp() RGB {
	return RGB{R: clamp(c.R), G: clamp(c.G), B: clamp(c.B)}
}

func (c RGB) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c.R, c.G, c.B)
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// Kind tags the variant held by a Spec.
type Kind uint8

const (
	KindTriplet Kind = iota + 1
	KindKeyword
	KindHex
)

func (k Kind) String() string {
	switch k {
	case KindTriplet:
		return "triplet"
	case KindKeyword:
		return "keyword"
	case KindHex:
		return "hex"
	default:
		return "unknown"
	}
}

// Spec is an unresolved color as the caller wrote it.
type Spec struct {
	Kind Kind
	RGB  RGB    // KindTriplet
	Text string // KindKeyword, KindHex
}

func Triplet(r, g, b int) Spec { return Spec{Kind: KindTriplet, RGB: RGB{R: r, G: g, B: b}} }
func Keyword(name string) Spec { return Spec{Kind: KindKeyword, Text: name} }
func Hex(code string) Spec     { return Spec{Kind: KindHex, Text: code} }

func (s Spec) String() string {
	if s.Kind == KindTriplet {
		return "rgb" + s.RGB.String()
	}
	return s.Text
}

// ParseTriplet builds a triplet Spec from three integer tokens. No range
// check is done here.
func ParseTriplet(tokens []string) (Spec, error) {
	if len(tokens) != 3 {
		return Spec{}, ErrInvalidInput
	}
	var v [3]int
	for i, tok := range tokens {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return Spec{}, fmt.Errorf("%w: %q", ErrParse, tok)
		}
		v[i] = n
	}
	return Triplet(v[0], v[1], v[2]), nil
}

// ParseToken classifies a single color token. Tokens starting with '#'
// are hex codes, everything else is treated as a keyword.
func ParseToken(tok string) Spec {
	if strings.HasPrefix(tok, "#") {
		return Hex(tok)
	}
	return Keyword(tok)
}

// Resolve turns a Spec into an RGB value. Triplets pass through unclamped.
func Resolve(s Spec) (RGB, error) {
	switch s.Kind {
	case KindTriplet:
		return s.RGB, nil
	case KindKeyword:
		if code, ok := Lookup(s.Text); ok {
			return ParseHex(code)
		}
		if strings.HasPrefix(s.Text, "#") {
			return ParseHex(s.Text)
		}
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidInput, s.Text)
	case KindHex:
		return ParseHex(s.Text)
	default:
		return RGB{}, ErrInvalidInput
	}
}

// ParseHex decodes a #rrggbb code.
func ParseHex(code string) (RGB, error) {
	if !hexPattern.MatchString(code) {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColorFormat, code)
	}
	var v [3]int
	for i := range v {
		n, err := strconv.ParseUint(code[1+2*i:3+2*i], 16, 8)
		if err != nil {
			return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColorFormat, code)
		}
		v[i] = int(n)
	}
	return RGB{R: v[0], G: v[1], B: v[2]}, nil
}

// Lookup returns the hex code for a CSS keyword, ignoring case.
func Lookup(name string) (string, bool) {
	code, ok := cssColors[strings.ToLower(name)]
	return code, ok
}

// Keywords lists the known CSS keywords in alphabetical order.
func Keywords() []string {
	out := make([]string, 0, len(cssColors))
	for k := range cssColors {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
