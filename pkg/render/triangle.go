package render

import "image"

// span is the horizontal extent of one row of a triangle.
type span struct {
	lo, hi int
	set    bool
}

func (s *span) include(x int) {
	if !s.set {
		s.lo, s.hi, s.set = x, x, true
		return
	}
	s.lo = min(s.lo, x)
	s.hi = max(s.hi, x)
}

// DrawTriangle rasterizes one triangle in col and reports whether its
// interior was filled. The three edges are walked with the line stepper;
// when the vertices have three distinct y values the rows between them are
// filled from the long edge (top to bottom vertex) to the short edges
// (through the middle vertex). A triangle with two vertices on one row, or
// any triangle in wireframe mode, is drawn as edges only.
//
// The framebuffer lock is held for the whole triangle.
func (c *Context) DrawTriangle(pts [3]image.Point, col Color) bool {
	c.fb.Lock()
	defer c.fb.Unlock()

	for i := range 3 {
		a, b := pts[i], pts[(i+1)%3]
		c.edges[i] = appendLine(c.edges[i][:0], a.X, a.Y, b.X, b.Y)
	}

	filled := false
	if !c.opts.Wireframe {
		filled = c.fill(pts, col)
	}
	if !filled {
		for _, edge := range c.edges {
			for _, p := range edge {
				c.SetPixel(p.X, p.Y, col)
			}
		}
	}
	if c.opts.HighlightVertices {
		c.markVertices(pts, col)
	}
	return filled
}

// fill paints every row of the triangle between its left and right
// boundaries. It returns false without drawing when no vertex lies
// strictly between the other two in y.
func (c *Context) fill(pts [3]image.Point, col Color) bool {
	top, mid, bot := 0, 1, 2
	if pts[mid].Y < pts[top].Y {
		top, mid = mid, top
	}
	if pts[bot].Y < pts[mid].Y {
		mid, bot = bot, mid
	}
	if pts[mid].Y < pts[top].Y {
		top, mid = mid, top
	}
	y0, ym, y1 := pts[top].Y, pts[mid].Y, pts[bot].Y
	if y0 == ym || ym == y1 {
		return false
	}

	// Edge i joins pts[i] and pts[i+1]; the long edge is the one that does
	// not touch the middle vertex.
	long := c.edges[(mid+1)%3]
	shortA, shortB := c.edges[mid], c.edges[(mid+2)%3]

	rows := y1 - y0 + 1
	for k := range c.spans {
		c.spans[k] = resetSpans(c.spans[k], rows)
	}
	longSpans, shortSpans := c.spans[0], c.spans[1]
	for _, p := range long {
		longSpans[p.Y-y0].include(p.X)
	}
	for _, edge := range [2][]image.Point{shortA, shortB} {
		for _, p := range edge {
			shortSpans[p.Y-y0].include(p.X)
		}
	}

	for r := range rows {
		a, b := longSpans[r], shortSpans[r]
		if !a.set || !b.set {
			continue
		}
		c.hline(min(a.lo, b.lo), max(a.hi, b.hi), y0+r, col)
	}
	return true
}

func resetSpans(s []span, n int) []span {
	if cap(s) < n {
		return make([]span, n)
	}
	s = s[:n]
	clear(s)
	return s
}

// hline draws the inclusive run x0..x1 on row y, clipped to the buffer.
func (c *Context) hline(x0, x1, y int, col Color) {
	if y < 0 || y >= c.fb.Height {
		return
	}
	x0 = max(x0, 0)
	x1 = min(x1, c.fb.Width-1)
	for x := x0; x <= x1; x++ {
		c.SetPixel(x, y, col)
	}
}

// markVertices draws the in-bounds vertices in the highlight color, or in
// the triangle color when the triangle is black.
func (c *Context) markVertices(pts [3]image.Point, col Color) {
	marker := c.opts.HighlightColor
	if col.IsBlack() {
		marker = col
	}
	for _, p := range pts {
		if c.fb.InBounds(p.X, p.Y) {
			c.SetPixel(p.X, p.Y, marker)
		}
	}
}

// DrawLine draws the segment from (x1, y1) to (x2, y2) in col, honoring
// the mixing mode.
func (c *Context) DrawLine(x1, y1, x2, y2 int, col Color) {
	c.fb.Lock()
	defer c.fb.Unlock()
	s := NewLineStepper(x1, y1, x2, y2)
	for p, ok := s.Next(); ok; p, ok = s.Next() {
		c.SetPixel(p.X, p.Y, col)
	}
}
