package render

import (
	"errors"
	"fmt"
	"time"
)

// Engine renders the active scene into a Frame and writes it to every driver.
type Engine struct {
	Scene   Scene
	Drivers []Driver

	frameID uint64

	// last durations in ms
	Last struct {
		RenderMS float64
		WriteMS  float64
		TotalMS  float64
	}
}

func NewEngine(s Scene, drivers ...Driver) (*Engine, error) {
	if s == nil {
		return nil, errors.New("scene is nil")
	}
	if w, h := s.Size(); w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid scene size %dx%d", w, h)
	}
	return &Engine{Scene: s, Drivers: drivers}, nil
}

func (e *Engine) AddDriver(d Driver) {
	if d != nil {
		e.Drivers = append(e.Drivers, d)
	}
}

// RenderOnce draws the scene and HUD for tick and writes the frame. Every
// driver is written even if an earlier one fails; the errors are joined.
func (e *Engine) RenderOnce(tick uint64, hud HUD) (Frame, error) {
	start := time.Now()

	w, h := e.Scene.Size()
	c := NewCanvas(w, h)
	e.Scene.Draw(c, hud)

	e.frameID++
	f := Frame{
		ID:     e.frameID,
		Tick:   tick,
		Scene:  e.Scene.Name(),
		Width:  w,
		Height: h,
		Ops:    c.Ops(),
		HUD:    hud,
	}
	if ps, ok := e.Scene.(PixelSource); ok {
		f.Pixels = ps.Pixels()
	}
	e.Last.RenderMS = float64(time.Since(start).Microseconds()) / 1000.0

	writeStart := time.Now()
	var errs []error
	for _, d := range e.Drivers {
		if err := d.Write(f); err != nil {
			errs = append(errs, err)
		}
	}
	e.Last.WriteMS = float64(time.Since(writeStart).Microseconds()) / 1000.0
	e.Last.TotalMS = float64(time.Since(start).Microseconds()) / 1000.0

	return f, errors.Join(errs...)
}
