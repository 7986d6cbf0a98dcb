package model

import (
	"image/color"
	"math"
)

// BladeStep is the angle advanced per tick for speed 1.
const BladeStep = 10.0

// NormalizeDirection maps any direction to +1 (d >= 0) or -1.
func NormalizeDirection(d float64) float64 {
	if d >= 0 {
		return 1
	}
	return -1
}

// AnimatedUnit is one windmill. Position, label and color are fixed at
// creation; speed and direction change only through Set.
type AnimatedUnit struct {
	X, Y  float64
	Label string
	Color color.NRGBA

	Angle     float64 // degrees, unbounded
	Speed     float64
	Direction float64
}

func NewAnimatedUnit(x, y float64, label string, c color.NRGBA) *AnimatedUnit {
	return &AnimatedUnit{
		X:         x,
		Y:         y,
		Label:     label,
		Color:     c,
		Direction: 1,
	}
}

// Set merges the fields that are present. Negative speed is kept as is; a
// non-finite speed is stored as 0.
func (u *AnimatedUnit) Set(speed, dir *float64) {
	if speed != nil {
		u.Speed = *speed
		if math.IsInf(u.Speed, 0) || math.IsNaN(u.Speed) {
			u.Speed = 0
		}
	}
	if dir != nil {
		u.Direction = NormalizeDirection(*dir)
	}
}

// Advance moves the blades by one tick. The angle stays finite: a step that
// would overflow it is dropped.
func (u *AnimatedUnit) Advance(step float64) {
	next := u.Angle + u.Speed*u.Direction*step
	if math.IsInf(next, 0) || math.IsNaN(next) {
		return
	}
	u.Angle = next
}

// DisplayAngle is Angle wrapped into [0,360).
func (u *AnimatedUnit) DisplayAngle() float64 {
	a := math.Mod(u.Angle, 360)
	if a < 0 {
		a += 360
	}
	return a
}
