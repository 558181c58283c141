package render

import (
	"image"
	"testing"
)

func newTestContext(t *testing.T, w, h int, mutate func(*Options)) *Context {
	t.Helper()
	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	rc, err := NewContext(NewFramebuffer(w, h), nil, opts)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	return rc
}

func tri(x1, y1, x2, y2, x3, y3 int) [3]image.Point {
	return [3]image.Point{image.Pt(x1, y1), image.Pt(x2, y2), image.Pt(x3, y3)}
}

func countColor(fb *Framebuffer, c Color) int {
	n := 0
	for _, p := range fb.Pix {
		if p == c.Packed() {
			n++
		}
	}
	return n
}

func TestDrawTriangleFills(t *testing.T) {
	rc := newTestContext(t, 12, 12, nil)
	fb := rc.Framebuffer()

	if !rc.DrawTriangle(tri(0, 0, 9, 4, 0, 9), ColorRed) {
		t.Fatal("triangle with distinct y values was not filled")
	}

	// Every edge pixel is covered.
	pts := tri(0, 0, 9, 4, 0, 9)
	for i := range 3 {
		a, b := pts[i], pts[(i+1)%3]
		for _, p := range Line(a.X, a.Y, b.X, b.Y) {
			if got := fb.GetPixel(p.X, p.Y); got != ColorRed {
				t.Errorf("edge pixel %v = %v", p, got)
			}
		}
	}
	// The middle row spans the full width of the triangle.
	for x := 0; x <= 9; x++ {
		if got := fb.GetPixel(x, 4); got != ColorRed {
			t.Errorf("row 4 pixel %d not filled", x)
		}
	}
	for _, p := range []image.Point{{9, 0}, {9, 9}, {11, 4}, {5, 10}} {
		if got := fb.GetPixel(p.X, p.Y); got != ColorBlack {
			t.Errorf("outside pixel %v = %v", p, got)
		}
	}
}

func TestDrawTriangleFillIgnoresVertexOrder(t *testing.T) {
	orders := [][3]image.Point{
		tri(2, 1, 10, 6, 4, 11),
		tri(10, 6, 4, 11, 2, 1),
		tri(4, 11, 10, 6, 2, 1),
	}
	var want []uint32
	for i, pts := range orders {
		rc := newTestContext(t, 14, 14, nil)
		rc.DrawTriangle(pts, ColorGreen)
		got := rc.Framebuffer().Pix
		if i == 0 {
			want = append([]uint32(nil), got...)
			continue
		}
		for j := range got {
			if got[j] != want[j] {
				t.Fatalf("order %d differs at pixel %d", i, j)
			}
		}
	}
}

func TestDrawTriangleDegenerateDrawsEdges(t *testing.T) {
	rc := newTestContext(t, 8, 8, nil)
	fb := rc.Framebuffer()

	if rc.DrawTriangle(tri(0, 0, 5, 0, 2, 5), ColorRed) {
		t.Fatal("flat-top triangle reported as filled")
	}
	if got := fb.GetPixel(2, 2); got != ColorBlack {
		t.Errorf("interior pixel drawn for an edge-only triangle: %v", got)
	}
	for _, p := range []image.Point{{0, 0}, {3, 0}, {5, 0}, {1, 2}, {4, 2}, {2, 5}} {
		if got := fb.GetPixel(p.X, p.Y); got != ColorRed {
			t.Errorf("edge pixel %v = %v", p, got)
		}
	}
}

func TestDrawTriangleCollapsed(t *testing.T) {
	rc := newTestContext(t, 4, 4, nil)
	if rc.DrawTriangle(tri(1, 1, 1, 1, 1, 1), ColorBlue) {
		t.Fatal("point triangle reported as filled")
	}
	if got := countColor(rc.Framebuffer(), ColorBlue); got != 1 {
		t.Errorf("point triangle painted %d pixels, want 1", got)
	}
}

func TestDrawTriangleWireframe(t *testing.T) {
	rc := newTestContext(t, 12, 12, func(o *Options) { o.Wireframe = true })
	if rc.DrawTriangle(tri(0, 0, 9, 4, 0, 9), ColorRed) {
		t.Fatal("wireframe triangle reported as filled")
	}
	fb := rc.Framebuffer()
	if got := fb.GetPixel(2, 4); got != ColorBlack {
		t.Errorf("wireframe interior pixel = %v", got)
	}
	if got := fb.GetPixel(9, 4); got != ColorRed {
		t.Errorf("wireframe vertex pixel = %v", got)
	}
}

func TestDrawTriangleVertexMarkers(t *testing.T) {
	highlight := RGB(255, 255, 0)
	tests := []struct {
		name  string
		color Color
		want  Color
	}{
		{"highlight color", ColorRed, highlight},
		{"black triangle keeps its color", ColorBlack, ColorBlack},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := newTestContext(t, 10, 10, func(o *Options) {
				o.HighlightVertices = true
				o.HighlightColor = highlight
			})
			rc.Framebuffer().BG = ColorBlue
			rc.ClearBuffer()
			rc.DrawTriangle(tri(1, 1, 8, 3, 2, 20), tt.color)
			fb := rc.Framebuffer()
			for _, p := range []image.Point{{1, 1}, {8, 3}} {
				if got := fb.GetPixel(p.X, p.Y); got != tt.want {
					t.Errorf("marker at %v = %v, want %v", p, got, tt.want)
				}
			}
			if got := fb.GetPixel(3, 5); got != tt.color {
				t.Errorf("interior pixel = %v, want %v", got, tt.color)
			}
		})
	}
}

func TestDrawTriangleOffscreen(t *testing.T) {
	rc := newTestContext(t, 10, 10, nil)
	rc.DrawTriangle(tri(-50, -50, 100, 20, 5, 200), ColorRed)
	rc.DrawTriangle(tri(-50, -50, -40, -20, -45, -10), ColorGreen)
	if got := countColor(rc.Framebuffer(), ColorGreen); got != 0 {
		t.Errorf("fully offscreen triangle painted %d pixels", got)
	}
}

func BenchmarkDrawTriangle(b *testing.B) {
	rc, err := NewContext(NewFramebuffer(640, 480), nil, DefaultOptions())
	if err != nil {
		b.Fatal(err)
	}
	pts := tri(20, 10, 600, 200, 150, 470)
	for b.Loop() {
		rc.DrawTriangle(pts, ColorCyan)
	}
}
