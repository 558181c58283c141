package render

import (
	"image"
	"slices"
)

// LineStepper walks the pixels of a segment with the integer Bresenham
// algorithm, one pixel per call to Next.
//
// Endpoints are put in canonical order (left to right, then top to bottom)
// before stepping, so both orientations of a segment cover the same pixels.
type LineStepper struct {
	x, y      int
	dx, dy    int // Absolute deltas
	ystep     int
	xMajor    bool
	acc       int
	remaining int
	reversed  bool
}

// NewLineStepper prepares a walk from (x1, y1) to (x2, y2).
func NewLineStepper(x1, y1, x2, y2 int) *LineStepper {
	s := &LineStepper{}
	s.Reset(x1, y1, x2, y2)
	return s
}

// Reset reuses the stepper for a new segment.
func (s *LineStepper) Reset(x1, y1, x2, y2 int) {
	s.reversed = x1 > x2 || (x1 == x2 && y1 > y2)
	if s.reversed {
		x1, y1, x2, y2 = x2, y2, x1, y1
	}
	s.x, s.y = x1, y1
	s.dx = x2 - x1
	s.dy = y2 - y1
	s.ystep = 1
	if s.dy < 0 {
		s.dy = -s.dy
		s.ystep = -1
	}
	s.xMajor = s.dx > s.dy
	if s.xMajor {
		s.acc = s.dx / 2
		s.remaining = s.dx + 1
	} else {
		s.acc = s.dy / 2
		s.remaining = s.dy + 1
	}
}

// Len returns the number of points the full walk produces:
// max(|dx|, |dy|) + 1.
func (s *LineStepper) Len() int {
	return max(s.dx, s.dy) + 1
}

// Reversed reports whether the caller's endpoint order was swapped to reach
// canonical order.
func (s *LineStepper) Reversed() bool {
	return s.reversed
}

// Next returns the next pixel of the walk in canonical order.
// ok is false once the segment is exhausted.
func (s *LineStepper) Next() (p image.Point, ok bool) {
	if s.remaining == 0 {
		return image.Point{}, false
	}
	p = image.Pt(s.x, s.y)
	s.remaining--
	if s.xMajor {
		bresenhamStep(&s.acc, &s.x, &s.y, s.dx, s.dy, 1, s.ystep)
	} else {
		bresenhamStep(&s.acc, &s.y, &s.x, s.dy, s.dx, s.ystep, 1)
	}
	return p, true
}

// bresenhamStep advances one pixel along the major axis and steps the minor
// axis whenever the error accumulator goes negative.
func bresenhamStep(acc, major, minor *int, majorDelta, minorDelta, majorStep, minorStep int) {
	*acc -= minorDelta
	if *acc < 0 {
		*minor += minorStep
		*acc += majorDelta
	}
	*major += majorStep
}

// Line returns every pixel from (x1, y1) to (x2, y2), in the caller's
// order. Reversing the endpoints yields the same pixels in reverse order.
// A zero-length segment yields its single point.
func Line(x1, y1, x2, y2 int) []image.Point {
	return appendLine(nil, x1, y1, x2, y2)
}

func appendLine(dst []image.Point, x1, y1, x2, y2 int) []image.Point {
	s := NewLineStepper(x1, y1, x2, y2)
	base := len(dst)
	dst = slices.Grow(dst, s.Len())
	for p, ok := s.Next(); ok; p, ok = s.Next() {
		dst = append(dst, p)
	}
	if s.Reversed() {
		slices.Reverse(dst[base:])
	}
	return dst
}
