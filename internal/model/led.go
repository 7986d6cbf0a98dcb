package model

import "image/color"

// DefaultLED is the color shown before the first message arrives.
var DefaultLED = NewColorRGBA(0, 255, 0, 200)

// LEDState is a single RGB LED with a brightness channel. Every channel is
// always within [0,255].
type LEDState struct {
	c ColorVal
}

func NewLEDState() *LEDState {
	return &LEDState{c: DefaultLED}
}

// Apply replaces all four channels. Each value is coerced independently, so a
// non-numeric channel becomes 0 without affecting the others.
func (s *LEDState) Apply(r, g, b, brightness any) {
	s.c = NewColorRGBA(
		ClampChannel(Coerce(r)),
		ClampChannel(Coerce(g)),
		ClampChannel(Coerce(b)),
		ClampChannel(Coerce(brightness)),
	)
}

func (s *LEDState) R() uint8          { return s.c.GetR() }
func (s *LEDState) G() uint8          { return s.c.GetG() }
func (s *LEDState) B() uint8          { return s.c.GetB() }
func (s *LEDState) Brightness() uint8 { return s.c.GetA() }
func (s *LEDState) Value() ColorVal   { return s.c }

// Display is the color as it appears on screen: each channel scaled by
// brightness/255.
func (s *LEDState) Display() color.NRGBA {
	return s.c.Scaled(MaxChannel)
}
