package render

import "fmt"

// HUD is the status overlay state for one frame.
type HUD struct {
	Title     string `json:"title"`
	Enabled   bool   `json:"enabled"`
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
	Topic     string `json:"topic"`
	// SecondsSinceMessage is only drawn while Connected.
	SecondsSinceMessage int `json:"seconds_since_message"`
}

// HUDLayout positions the overlay lines.
type HUDLayout struct {
	X      float64
	TitleY float64
	FirstY float64
	Step   float64
	Size   float64
	Ink    Color
}

func (h HUD) StatusLine() string {
	if h.Connected {
		return "MQTT Connected"
	}
	return "MQTT Disconnected"
}

// Lines returns the overlay text in draw order, title first.
func (h HUD) Lines() []string {
	lines := []string{h.Title}
	if !h.Enabled {
		return append(lines, "MQTT disabled (no config)")
	}
	lines = append(lines,
		h.StatusLine(),
		"Broker: "+h.Broker,
		"Topic: "+h.Topic,
	)
	if h.Connected {
		lines = append(lines, fmt.Sprintf("Last update: %ds ago", h.SecondsSinceMessage))
	}
	return lines
}

func (h HUD) Draw(c *Canvas, l HUDLayout) {
	c.Push()
	c.NoStroke()
	c.Fill(l.Ink)
	c.TextAlign(AlignLeft)
	c.TextSize(l.Size)
	for i, line := range h.Lines() {
		y := l.TitleY
		if i > 0 {
			y = l.FirstY + float64(i-1)*l.Step
		}
		c.Text(line, l.X, y)
	}
	c.Pop()
}
