package render

type canvasState struct {
	style    Style
	textSize float64
	align    Align
	dx, dy   float64
}

// Canvas records drawing calls as a display list. It keeps a paint state and
// a translation that Push/Pop save and restore.
type Canvas struct {
	w, h  int
	ops   []Op
	cur   canvasState
	stack []canvasState
}

func NewCanvas(w, h int) *Canvas {
	white, black := Gray(255), Gray(0)
	return &Canvas{
		w: w,
		h: h,
		cur: canvasState{
			style:    Style{Fill: &white, Stroke: &black, StrokeWeight: 1},
			textSize: 12,
			align:    AlignLeft,
		},
	}
}

func (c *Canvas) Width() int  { return c.w }
func (c *Canvas) Height() int { return c.h }
func (c *Canvas) Ops() []Op   { return c.ops }

func (c *Canvas) Push() { c.stack = append(c.stack, c.cur) }

func (c *Canvas) Pop() {
	if len(c.stack) == 0 {
		return
	}
	c.cur = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

func (c *Canvas) Translate(x, y float64) {
	c.cur.dx += x
	c.cur.dy += y
}

func (c *Canvas) Fill(col Color)         { c.cur.style.Fill = &col }
func (c *Canvas) NoFill()                { c.cur.style.Fill = nil }
func (c *Canvas) Stroke(col Color)       { c.cur.style.Stroke = &col }
func (c *Canvas) NoStroke()              { c.cur.style.Stroke = nil }
func (c *Canvas) StrokeWeight(w float64) { c.cur.style.StrokeWeight = w }
func (c *Canvas) TextSize(s float64)     { c.cur.textSize = s }
func (c *Canvas) TextAlign(a Align)      { c.cur.align = a }

func (c *Canvas) Background(col Color) {
	c.ops = append(c.ops, Op{Kind: KindBackground, W: float64(c.w), H: float64(c.h), Style: Style{Fill: &col}})
}

func (c *Canvas) Line(x1, y1, x2, y2 float64) {
	c.ops = append(c.ops, Op{
		Kind: KindLine,
		X:    x1 + c.cur.dx, Y: y1 + c.cur.dy,
		X2: x2 + c.cur.dx, Y2: y2 + c.cur.dy,
		Style: Style{Stroke: c.cur.style.Stroke, StrokeWeight: c.cur.style.StrokeWeight},
	})
}

func (c *Canvas) Rect(x, y, w, h float64) {
	c.ops = append(c.ops, Op{Kind: KindRect, X: x + c.cur.dx, Y: y + c.cur.dy, W: w, H: h, Style: c.cur.style})
}

func (c *Canvas) Ellipse(x, y, w, h float64) {
	c.ops = append(c.ops, Op{Kind: KindEllipse, X: x + c.cur.dx, Y: y + c.cur.dy, W: w, H: h, Style: c.cur.style})
}

// Text draws with the current fill only; strokes are never applied to text.
func (c *Canvas) Text(s string, x, y float64) {
	c.ops = append(c.ops, Op{
		Kind: KindText,
		X:    x + c.cur.dx, Y: y + c.cur.dy,
		Text: s, Size: c.cur.textSize, Align: c.cur.align,
		Style: Style{Fill: c.cur.style.Fill},
	})
}
