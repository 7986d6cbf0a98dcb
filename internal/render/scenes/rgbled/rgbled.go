// Package rgbled is the single RGB LED visualizer. Messages of the form
// {"led":[r,g,b,brightness]} replace the LED color.
package rgbled

import (
	"fmt"

	"github.com/coreman2200/funtimes-promptviz/internal/model"
	"github.com/coreman2200/funtimes-promptviz/internal/payload"
	"github.com/coreman2200/funtimes-promptviz/internal/render"
)

const (
	Width  = 420
	Height = 320
)

// Schema requires a "led" array of at least four elements. Element types are
// not checked; non-numeric channels are coerced to 0 when applied.
const Schema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["led"],
	"properties": {
		"led": {"type": "array", "minItems": 4}
	}
}`

var hudLayout = render.HUDLayout{X: 20, TitleY: 30, FirstY: 55, Step: 20, Size: 14, Ink: render.Gray(220)}

// Update is the raw channel values, extra elements already dropped.
type Update [4]any

type Scene struct {
	state   *model.LEDState
	pixels  int
	decoder *payload.Decoder[Update]
}

// New returns a scene showing the default color. pixels is the number of
// physical LEDs mirrored by Pixels; values below 1 mean 1.
func New(pixels int) (*Scene, error) {
	dec, err := payload.NewDecoder("led", Schema, func(doc any) Update {
		arr := doc.(map[string]any)["led"].([]any)
		return Update{arr[0], arr[1], arr[2], arr[3]}
	})
	if err != nil {
		return nil, err
	}
	if pixels < 1 {
		pixels = 1
	}
	return &Scene{state: model.NewLEDState(), pixels: pixels, decoder: dec}, nil
}

func (s *Scene) Name() string           { return "led" }
func (s *Scene) Title() string          { return "RGB LED MQTT Visualizer" }
func (s *Scene) Size() (int, int)       { return Width, Height }
func (s *Scene) State() *model.LEDState { return s.state }

func (s *Scene) Apply(raw []byte) (payload.Status, error) {
	res := s.decoder.Decode(raw)
	if res.Status != payload.Decoded {
		return res.Status, res.Err
	}
	u := res.Value
	s.state.Apply(u[0], u[1], u[2], u[3])
	return res.Status, nil
}

// Advance is a no-op; the LED has no animation between messages.
func (s *Scene) Advance() {}

func (s *Scene) Pixels() []render.Color {
	v := s.state.Value()
	px := render.RGBA(v.GetR(), v.GetG(), v.GetB(), v.GetA())
	out := make([]render.Color, s.pixels)
	for i := range out {
		out[i] = px
	}
	return out
}

func (s *Scene) Draw(c *render.Canvas, hud render.HUD) {
	c.Background(render.Gray(18))

	c.Push()
	c.Translate(Width/2, Height/2-10)

	c.Stroke(render.Gray(50))
	c.StrokeWeight(6)
	c.Fill(render.Gray(10))
	c.Ellipse(0, 0, 170, 170)

	c.NoStroke()
	c.Fill(render.FromNRGBA(s.state.Display()))
	c.Ellipse(0, 0, 140, 140)

	// highlight
	c.Fill(render.RGBA(255, 255, 255, 40))
	c.Ellipse(-30, -40, 40, 30)
	c.Pop()

	hud.Draw(c, hudLayout)

	c.Push()
	c.NoStroke()
	c.Fill(hudLayout.Ink)
	c.TextAlign(render.AlignLeft)
	c.TextSize(13)
	c.Text(fmt.Sprintf("RGB: (%d, %d, %d)", s.state.R(), s.state.G(), s.state.B()), 20, Height-60)
	c.Text(fmt.Sprintf("Brightness: %d", s.state.Brightness()), 20, Height-40)
	c.Pop()
}
