package model

import (
	"errors"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Packed channel offsets within a ColorVal. Brightness lives in the alpha byte.
const (
	alphaOffset uint8 = 0x18
	greenOffset uint8 = 0x10
	redOffset   uint8 = 0x08
	blueOffset  uint8 = 0x0
)

// MaxChannel is the upper bound of every LED channel.
const MaxChannel = 255

type ColorVal struct {
	val uint32
}

// NewColorRGBA packs r, g, b and a (brightness) into a ColorVal.
func NewColorRGBA(r, g, b, a uint8) ColorVal {
	var c ColorVal
	c.SetR(r)
	c.SetG(g)
	c.SetB(b)
	c.SetA(a)
	return c
}

func (c ColorVal) Color() uint32 {
	return c.val
}

// Scaled returns the opaque color with each channel scaled by the alpha byte.
// Alpha above limit is treated as limit, which keeps physical LEDs below a
// current budget.
func (c ColorVal) Scaled(limit uint8) color.NRGBA {
	aa := float64(c.GetA())
	if aa > float64(limit) {
		aa = float64(limit)
	}
	aa /= MaxChannel

	return color.NRGBA{
		R: uint8(float64(c.GetR()) * aa),
		G: uint8(float64(c.GetG()) * aa),
		B: uint8(float64(c.GetB()) * aa),
		A: 255,
	}
}

func setcolor(c uint32, n uint8, off uint8) uint32 {
	var val uint32 = uint32(n) << off
	var mask uint32 = 0xFF << off
	return (c & (^mask)) | val
}

func getcolor(c uint32, off uint8) uint8 {
	var mask uint32 = 0xFF << off
	return uint8((c & mask) >> off)
}

func (c *ColorVal) SetR(r uint8) { c.val = setcolor(c.val, r, redOffset) }
func (c *ColorVal) SetG(g uint8) { c.val = setcolor(c.val, g, greenOffset) }
func (c *ColorVal) SetB(b uint8) { c.val = setcolor(c.val, b, blueOffset) }
func (c *ColorVal) SetA(a uint8) { c.val = setcolor(c.val, a, alphaOffset) }

func (c ColorVal) GetR() uint8 { return getcolor(c.val, redOffset) }
func (c ColorVal) GetG() uint8 { return getcolor(c.val, greenOffset) }
func (c ColorVal) GetB() uint8 { return getcolor(c.val, blueOffset) }
func (c ColorVal) GetA() uint8 { return getcolor(c.val, alphaOffset) }

// Coerce turns a decoded JSON value into a number, loosely. Numbers pass through; strings are trimmed and parsed
// as decimal, 0x/0o/0b integers or [+-]Infinity; booleans map to 0/1; a
// one-element array coerces its element; everything else, NaN included,
// becomes 0.
func Coerce(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case bool:
		if t {
			f = 1
		}
	case string:
		f = parseNumber(t)
	case []any:
		f = coerceList(t)
	case interface{ Float64() (float64, error) }:
		p, err := t.Float64()
		if err != nil {
			return 0
		}
		f = p
	default:
		return 0
	}
	if math.IsNaN(f) {
		return 0
	}
	return f
}

// coerceList reads a list through its string form: only a one-element list
// can hold a number.
func coerceList(l []any) float64 {
	if len(l) != 1 {
		return 0
	}
	switch e := l[0].(type) {
	case nil, bool:
		return 0
	case string:
		return parseNumber(e)
	default:
		return Coerce(e)
	}
}

func parseNumber(raw string) float64 {
	s := strings.TrimSpace(raw)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			u, err := strconv.ParseUint(s[2:], base, 64)
			switch {
			case errors.Is(err, strconv.ErrRange):
				return math.Inf(1)
			case err != nil:
				return 0
			}
			return float64(u)
		}
	}
	// ParseFloat also takes inf, nan, hex floats and underscores; plain
	// decimal notation only.
	if strings.IndexFunc(s, func(r rune) bool {
		return !strings.ContainsRune("0123456789+-.eE", r)
	}) >= 0 {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return f
}

// ClampChannel truncates f to an integer and clamps it to [0,255].
func ClampChannel(f float64) uint8 {
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= MaxChannel {
		return MaxChannel
	}
	return uint8(math.Trunc(f))
}
