// Package windmill is the windmill visualizer: a row of rotating windmills
// whose speed and direction follow the latest MQTT message.
package windmill

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/coreman2200/funtimes-promptviz/internal/model"
	"github.com/coreman2200/funtimes-promptviz/internal/payload"
	"github.com/coreman2200/funtimes-promptviz/internal/render"
)

const (
	Width   = 800
	Height  = 400
	GroundY = 300

	bladeLen = 40
	blades   = 4
)

var hudLayout = render.HUDLayout{X: 20, TitleY: 25, FirstY: 45, Step: 20, Size: 14, Ink: render.Gray(30)}

// UnitSpec places one windmill. Key selects the "speed_<key>" and
// "dir_<key>" payload fields.
type UnitSpec struct {
	Key   string
	Label string
	X, Y  float64
	Color color.NRGBA
}

// DefaultUnits are the parametric, regular and old windmills.
var DefaultUnits = []UnitSpec{
	{Key: "para", Label: "Para", X: 200, Y: 200, Color: color.NRGBA{R: 255, G: 180, B: 120, A: 255}},
	{Key: "reg", Label: "Reg", X: 400, Y: 200, Color: color.NRGBA{R: 120, G: 220, B: 255, A: 255}},
	{Key: "old", Label: "Old", X: 600, Y: 200, Color: color.NRGBA{R: 180, G: 255, B: 180, A: 255}},
}

// UnitUpdate holds the fields present for one unit; nil means absent.
type UnitUpdate struct {
	Speed *float64
	Dir   *float64
}

// Update is a decoded windmill message, indexed like the scene's units.
type Update []UnitUpdate

type Scene struct {
	keys    []string
	units   []*model.AnimatedUnit
	decoder *payload.Decoder[Update]
}

func New(specs []UnitSpec) (*Scene, error) {
	if len(specs) == 0 {
		return nil, errors.New("windmill: no units")
	}
	s := &Scene{}
	seen := map[string]bool{}
	for _, sp := range specs {
		if sp.Key == "" {
			return nil, errors.New("windmill: unit key is empty")
		}
		if seen[sp.Key] {
			return nil, fmt.Errorf("windmill: duplicate unit key %q", sp.Key)
		}
		seen[sp.Key] = true
		s.keys = append(s.keys, sp.Key)
		s.units = append(s.units, model.NewAnimatedUnit(sp.X, sp.Y, sp.Label, sp.Color))
	}

	dec, err := payload.NewDecoder("windmill", Schema, s.build)
	if err != nil {
		return nil, err
	}
	s.decoder = dec
	return s, nil
}

// Schema only requires an object. Field values are coerced one at a time so
// a bad value for one unit never costs the others their update.
const Schema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object"
}`

// build reads speed_<key> and dir_<key> per unit. Absent and null fields stay
// absent; any other value is coerced, with non-numbers becoming 0.
func (s *Scene) build(doc any) Update {
	obj := doc.(map[string]any)
	up := make(Update, len(s.keys))
	for i, k := range s.keys {
		if v, ok := payload.Field(obj, "speed_"+k); ok {
			f := model.Coerce(v)
			up[i].Speed = &f
		}
		if v, ok := payload.Field(obj, "dir_"+k); ok {
			f := model.Coerce(v)
			up[i].Dir = &f
		}
	}
	return up
}

func (s *Scene) Name() string                 { return "windmills" }
func (s *Scene) Title() string                { return "Prompting Realities - Virtual Windmills" }
func (s *Scene) Size() (int, int)             { return Width, Height }
func (s *Scene) Units() []*model.AnimatedUnit { return s.units }

func (s *Scene) Apply(raw []byte) (payload.Status, error) {
	res := s.decoder.Decode(raw)
	if res.Status != payload.Decoded {
		return res.Status, res.Err
	}
	s.ApplyUpdate(res.Value)
	return res.Status, nil
}

// ApplyUpdate merges present fields per unit; everything else is untouched.
func (s *Scene) ApplyUpdate(up Update) {
	for i, u := range up {
		if i >= len(s.units) {
			break
		}
		s.units[i].Set(u.Speed, u.Dir)
	}
}

func (s *Scene) Advance() {
	for _, u := range s.units {
		u.Advance(model.BladeStep)
	}
}

func (s *Scene) Draw(c *render.Canvas, hud render.HUD) {
	c.Background(render.Gray(240))

	c.Stroke(render.Gray(180))
	c.Line(0, GroundY, Width, GroundY)

	for _, u := range s.units {
		drawUnit(c, u)
	}

	hud.Draw(c, hudLayout)
}

func drawUnit(c *render.Canvas, u *model.AnimatedUnit) {
	col := render.FromNRGBA(u.Color)

	c.Push()
	c.Translate(u.X, u.Y)

	// tower
	c.Stroke(render.Gray(100))
	c.Fill(render.Gray(180))
	c.Rect(-6, 0, 12, 100)

	// hub and blades
	c.Stroke(col)
	c.StrokeWeight(3)
	c.Fill(col)
	c.Ellipse(0, 0, 18, 18)
	for i := 0; i < blades; i++ {
		a := (u.Angle + float64(i)*90) * math.Pi / 180
		c.Line(0, 0, math.Cos(a)*bladeLen, math.Sin(a)*bladeLen)
	}
	c.Pop()

	c.Push()
	c.NoStroke()
	c.Fill(render.Gray(50))
	c.TextAlign(render.AlignCenter)
	c.TextSize(14)
	c.Text(u.Label, u.X, u.Y+130)
	c.Pop()
}
