package color_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/begillespie/pilight/internal/color"
)

var TestHexResolvesToExpectedRGB = []struct {
	Code   string
	Expect RGB
}{
	{"#0a0b0c", RGB{10, 11, 12}},
	{"#ff0000", RGB{255, 0, 0}},
	{"#000000", RGB{0, 0, 0}},
	{"#FFFFFF", RGB{255, 255, 255}},
	{"#09afAF", RGB{9, 175, 175}},
}

var TestClampLimitsToByteRange = []struct {
	Given  RGB
	Expect RGB
}{
	{RGB{-5, 300, 128}, RGB{0, 255, 128}},
	{RGB{999, -10, 0}, RGB{255, 0, 0}},
	{RGB{-1 << 20, 1 << 20, 256}, RGB{0, 255, 255}},
}

func TestClampIsNoOpInRange(t *testing.T) {
	for v := 0; v <= 255; v++ {
		c := RGB{R: v, G: 255 - v, B: v / 2}
		assert.Equal(t, c, c.Clamp())
	}
}

func TestClampOutOfRange(t *testing.T) {
	for k, v := range TestClampLimitsToByteRange {
		t.Run("Given RGB"+strconv.Itoa(k), func(t *testing.T) {
			assert.Equal(t, v.Expect, v.Given.Clamp())
		})
	}
}

func TestParseHex(t *testing.T) {
	for _, v := range TestHexResolvesToExpectedRGB {
		t.Run(v.Code, func(t *testing.T) {
			got, err := ParseHex(v.Code)
			require.NoError(t, err)
			assert.Equal(t, v.Expect, got)
		})
	}
}

func TestParseHexRejectsMalformed(t *testing.T) {
	for _, code := range []string{"#", "#12345", "#1234567", "#gggggg", "123456", "#12 456"} {
		t.Run(code, func(t *testing.T) {
			_, err := ParseHex(code)
			assert.ErrorIs(t, err, ErrInvalidColorFormat)
		})
	}
}

func TestKeywordsMatchTheirHexCodes(t *testing.T) {
	names := Keywords()
	require.Len(t, names, 147)
	for _, name := range names {
		code, ok := Lookup(name)
		require.True(t, ok, name)

		byName, err := Resolve(Keyword(name))
		require.NoError(t, err, name)
		byCode, err := Resolve(Hex(code))
		require.NoError(t, err, name)
		assert.Equal(t, byCode, byName, name)
	}
}

func TestKeywordLookupIgnoresCase(t *testing.T) {
	got, err := Resolve(Keyword("Red"))
	require.NoError(t, err)
	assert.Equal(t, RGB{255, 0, 0}, got)

	got, err = Resolve(Keyword("cornflowerblue"))
	require.NoError(t, err)
	assert.Equal(t, RGB{0x64, 0x95, 0xed}, got)
}

func TestResolveUnknownKeyword(t *testing.T) {
	_, err := Resolve(Keyword("bogus"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestResolveTripletKeepsRawValues(t *testing.T) {
	got, err := Resolve(Triplet(999, -10, 0))
	require.NoError(t, err)
	assert.Equal(t, RGB{999, -10, 0}, got)
}

func TestParseTriplet(t *testing.T) {
	s, err := ParseTriplet([]string{"255", "-10", "+7"})
	require.NoError(t, err)
	assert.Equal(t, KindTriplet, s.Kind)
	assert.Equal(t, RGB{255, -10, 7}, s.RGB)

	_, err = ParseTriplet([]string{"1", "two", "3"})
	assert.ErrorIs(t, err, ErrParse)

	_, err = ParseTriplet([]string{"1", "2"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseToken(t *testing.T) {
	assert.Equal(t, Hex("#abcdef"), ParseToken("#abcdef"))
	assert.Equal(t, Keyword("teal"), ParseToken("teal"))
}

func TestGammaTable(t *testing.T) {
	tbl := GammaTable()
	assert.Equal(t, uint8(0), tbl[0])
	assert.Equal(t, uint8(255), tbl[255])
	for i := 1; i < len(tbl); i++ {
		assert.LessOrEqual(t, tbl[i-1], tbl[i], "entry %d", i)
	}
}

func TestCorrectClampsBeforeLookup(t *testing.T) {
	assert.Equal(t, [3]uint8{Gamma(255), Gamma(0), Gamma(0)}, Correct(RGB{999, -10, 0}))
	assert.Equal(t, [3]uint8{255, 0, 0}, Correct(RGB{255, 0, 0}))
	assert.Equal(t, [3]uint8{Gamma(128), Gamma(64), Gamma(32)}, Correct(RGB{128, 64, 32}))
}
