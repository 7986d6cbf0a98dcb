package render

import "image/color"

// Color is an 8-bit RGBA color as sent to the preview page.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

func Gray(v uint8) Color            { return Color{v, v, v, 255} }
func RGB(r, g, b uint8) Color       { return Color{r, g, b, 255} }
func RGBA(r, g, b, a uint8) Color   { return Color{r, g, b, a} }
func FromNRGBA(c color.NRGBA) Color { return Color{c.R, c.G, c.B, c.A} }

type Kind string

const (
	KindBackground Kind = "background"
	KindLine       Kind = "line"
	KindRect       Kind = "rect"
	KindEllipse    Kind = "ellipse"
	KindText       Kind = "text"
)

type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Style is the paint state captured with each op. A nil Fill or Stroke means
// the shape is drawn without it.
type Style struct {
	Fill         *Color  `json:"fill,omitempty"`
	Stroke       *Color  `json:"stroke,omitempty"`
	StrokeWeight float64 `json:"strokeWeight,omitempty"`
}

// Op is one drawing primitive in absolute canvas coordinates.
//
//	line:    (X,Y) -> (X2,Y2)
//	rect:    top-left (X,Y), size W x H
//	ellipse: center (X,Y), size W x H
//	text:    anchor (X,Y), Text, Size, Align
type Op struct {
	Kind  Kind    `json:"kind"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	X2    float64 `json:"x2,omitempty"`
	Y2    float64 `json:"y2,omitempty"`
	W     float64 `json:"w,omitempty"`
	H     float64 `json:"h,omitempty"`
	Text  string  `json:"text,omitempty"`
	Size  float64 `json:"size,omitempty"`
	Align Align   `json:"align,omitempty"`
	Style
}

// Frame is everything a driver needs to show one tick.
type Frame struct {
	ID     uint64  `json:"frame_id"`
	Tick   uint64  `json:"tick"`
	Scene  string  `json:"scene"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Ops    []Op    `json:"ops"`
	HUD    HUD     `json:"hud"`
	Pixels []Color `json:"pixels,omitempty"`
}

// Texts returns the text of every text op, in draw order.
func (f Frame) Texts() []string {
	var out []string
	for _, op := range f.Ops {
		if op.Kind == KindText {
			out = append(out, op.Text)
		}
	}
	return out
}
