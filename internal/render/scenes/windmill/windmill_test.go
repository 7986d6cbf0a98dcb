package windmill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-promptviz/internal/payload"
	"github.com/coreman2200/funtimes-promptviz/internal/render"
)

func newScene(t *testing.T) *Scene {
	t.Helper()
	s, err := New(DefaultUnits)
	require.NoError(t, err)
	return s
}

func TestNewValidatesUnits(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New([]UnitSpec{{Key: ""}})
	assert.Error(t, err)

	_, err = New([]UnitSpec{{Key: "a"}, {Key: "a"}})
	assert.ErrorContains(t, err, "duplicate")
}

func TestPartialUpdateTouchesOnlyNamedField(t *testing.T) {
	s := newScene(t)

	st, err := s.Apply([]byte(`{"speed_para": 0.5}`))
	require.NoError(t, err)
	require.Equal(t, payload.Decoded, st)

	units := s.Units()
	assert.Equal(t, 0.5, units[0].Speed)
	assert.Equal(t, 1.0, units[0].Direction)
	for _, u := range units[1:] {
		assert.Equal(t, 0.0, u.Speed)
		assert.Equal(t, 1.0, u.Direction)
	}
}

func TestFullUpdate(t *testing.T) {
	s := newScene(t)
	_, err := s.Apply([]byte(`{
		"speed_para": 0.5, "dir_para": 1,
		"speed_reg": 0.3, "dir_reg": -1,
		"speed_old": 1, "dir_old": 0
	}`))
	require.NoError(t, err)

	u := s.Units()
	assert.Equal(t, []float64{0.5, 0.3, 1}, []float64{u[0].Speed, u[1].Speed, u[2].Speed})
	assert.Equal(t, []float64{1, -1, 1}, []float64{u[0].Direction, u[1].Direction, u[2].Direction})
}

func TestDirectionAloneIsApplied(t *testing.T) {
	s := newScene(t)
	_, err := s.Apply([]byte(`{"dir_reg": -0.2}`))
	require.NoError(t, err)
	assert.Equal(t, -1.0, s.Units()[1].Direction)
	assert.Equal(t, 0.0, s.Units()[1].Speed)
}

func TestNullFieldsAreIgnored(t *testing.T) {
	s := newScene(t)
	_, err := s.Apply([]byte(`{"speed_old": 2}`))
	require.NoError(t, err)
	_, err = s.Apply([]byte(`{"speed_old": null, "dir_old": null}`))
	require.NoError(t, err)
	assert.Equal(t, 2.0, s.Units()[2].Speed)
	assert.Equal(t, 1.0, s.Units()[2].Direction)
}

func TestNegativeSpeedPassesThrough(t *testing.T) {
	s := newScene(t)
	_, err := s.Apply([]byte(`{"speed_para": -1}`))
	require.NoError(t, err)
	assert.Equal(t, -1.0, s.Units()[0].Speed)
}

func TestBadPayloadsLeaveStateAlone(t *testing.T) {
	s := newScene(t)
	_, err := s.Apply([]byte(`{"speed_para": 0.5}`))
	require.NoError(t, err)

	cases := map[string]payload.Status{
		`{not json`: payload.Malformed,
		`[1,2,3]`:   payload.Rejected,
		`"speed"`:   payload.Rejected,
		`null`:      payload.Rejected,
	}
	for raw, want := range cases {
		st, err := s.Apply([]byte(raw))
		assert.Equal(t, want, st, raw)
		assert.Error(t, err, raw)
	}
	assert.Equal(t, 0.5, s.Units()[0].Speed)
	assert.Equal(t, 1.0, s.Units()[0].Direction)
}

func TestBadValueOnlyAffectsItsOwnField(t *testing.T) {
	s := newScene(t)
	_, err := s.Apply([]byte(`{"speed_para": 0.5, "dir_para": -1}`))
	require.NoError(t, err)

	st, err := s.Apply([]byte(`{"speed_para": "fast", "speed_reg": 0.7, "dir_old": -1}`))
	require.NoError(t, err)
	require.Equal(t, payload.Decoded, st)

	u := s.Units()
	assert.Equal(t, 0.0, u[0].Speed, "non-numeric speed coerces to 0")
	assert.Equal(t, -1.0, u[0].Direction, "absent dir is untouched")
	assert.Equal(t, 0.7, u[1].Speed)
	assert.Equal(t, -1.0, u[2].Direction)
}

func TestFieldValuesAreCoerced(t *testing.T) {
	s := newScene(t)
	_, err := s.Apply([]byte(`{"speed_para": "0.25", "speed_reg": true, "speed_old": [2], "dir_reg": "left", "dir_old": "-1"}`))
	require.NoError(t, err)

	u := s.Units()
	assert.Equal(t, []float64{0.25, 1, 2}, []float64{u[0].Speed, u[1].Speed, u[2].Speed})
	assert.Equal(t, 1.0, u[1].Direction, "junk direction coerces to 0, which normalizes to +1")
	assert.Equal(t, -1.0, u[2].Direction)
}

func TestUnknownFieldsAreAllowed(t *testing.T) {
	s := newScene(t)
	st, err := s.Apply([]byte(`{"speed_reg": 1, "note": "hello"}`))
	require.NoError(t, err)
	assert.Equal(t, payload.Decoded, st)
	assert.Equal(t, 1.0, s.Units()[1].Speed)
}

func TestAngleAfterTicks(t *testing.T) {
	s := newScene(t)
	_, err := s.Apply([]byte(`{"speed_para": 1.5, "dir_para": 1}`))
	require.NoError(t, err)

	const n = 50
	for i := 0; i < n; i++ {
		s.Advance()
	}
	u := s.Units()[0]
	assert.InDelta(t, n*1.5*10, u.Angle, 1e-9)
	assert.InDelta(t, 30.0, u.DisplayAngle(), 1e-9) // 750 mod 360
	assert.Equal(t, 0.0, s.Units()[1].Angle)
}

func TestDraw(t *testing.T) {
	s := newScene(t)
	c := render.NewCanvas(s.Size())
	hud := render.HUD{Title: s.Title(), Enabled: true, Connected: true, Broker: "wss://b", Topic: "wind", SecondsSinceMessage: 4}
	s.Draw(c, hud)

	ops := c.Ops()
	require.NotEmpty(t, ops)
	assert.Equal(t, render.KindBackground, ops[0].Kind)
	assert.Equal(t, render.Gray(240), *ops[0].Fill)

	var lines, labels []string
	blades := 0
	for _, op := range ops {
		switch {
		case op.Kind == render.KindLine && op.StrokeWeight == 3:
			blades++
		case op.Kind == render.KindText && op.Align == render.AlignCenter:
			labels = append(labels, op.Text)
		case op.Kind == render.KindText:
			lines = append(lines, op.Text)
		}
	}
	assert.Equal(t, 12, blades)
	assert.Equal(t, []string{"Para", "Reg", "Old"}, labels)
	assert.Equal(t, []string{
		"Prompting Realities - Virtual Windmills",
		"MQTT Connected",
		"Broker: wss://b",
		"Topic: wind",
		"Last update: 4s ago",
	}, lines)
}

func TestBladeGeometryFollowsAngle(t *testing.T) {
	s, err := New([]UnitSpec{{Key: "a", X: 100, Y: 100}})
	require.NoError(t, err)
	_, err = s.Apply([]byte(`{"speed_a": 9}`))
	require.NoError(t, err)
	s.Advance() // 90 degrees

	c := render.NewCanvas(s.Size())
	s.Draw(c, render.HUD{})
	var first *render.Op
	for i, op := range c.Ops() {
		if op.Kind == render.KindLine && op.StrokeWeight == 3 {
			first = &c.Ops()[i]
			break
		}
	}
	require.NotNil(t, first)
	assert.InDelta(t, 100.0, first.X2, 1e-9)
	assert.InDelta(t, 140.0, first.Y2, 1e-9)
}
