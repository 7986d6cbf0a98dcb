package render

import "github.com/coreman2200/funtimes-promptviz/internal/payload"

// Scene owns one visualizer's state store and knows how to draw it.
type Scene interface {
	Name() string
	Title() string
	Size() (w, h int)
	// Apply decodes one payload and merges it into the state store. Only a
	// Decoded status may change state.
	Apply(raw []byte) (payload.Status, error)
	// Advance steps the animation by one tick.
	Advance()
	Draw(c *Canvas, hud HUD)
}

// PixelSource is implemented by scenes that also drive physical LEDs. Each
// pixel carries unscaled channels with brightness in A.
type PixelSource interface {
	Pixels() []Color
}

// Driver is a frame sink (websocket preview, LED strip, ...).
type Driver interface {
	Write(Frame) error
}
