package render

import (
	"cmp"
	"errors"
	"fmt"
	"image"
	"math"
	"slices"

	"github.com/taigrr/cyclops/pkg/math3d"
)

var (
	// ErrDegenerateScreen is returned for a world rectangle with zero width
	// or height.
	ErrDegenerateScreen = errors.New("render: screen rectangle has zero size")
	// ErrShape is returned when the faces and colors matrices do not
	// describe whole triangles with one color per vertex.
	ErrShape = errors.New("render: bad matrix shape")
)

// guardBand bounds projected pixel coordinates. Vertices that land further
// out than this (nearly in the eye plane) make their triangle degenerate.
const guardBand = 1 << 16

// ScreenRect is the world-space rectangle that is stretched over the
// framebuffer.
type ScreenRect struct {
	XMin, YMin, XMax, YMax float64
}

// Validate rejects rectangles that would divide by zero when mapping.
func (r ScreenRect) Validate() error {
	if r.XMax == r.XMin || r.YMax == r.YMin {
		return fmt.Errorf("%w: %+v", ErrDegenerateScreen, r)
	}
	for _, v := range [4]float64{r.XMin, r.YMin, r.XMax, r.YMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite bound in %+v", ErrDegenerateScreen, r)
		}
	}
	return nil
}

// Map scales a point of the image plane into pixel coordinates of a
// width x height buffer. Screen y grows downward while world y grows upward.
func (r ScreenRect) Map(p math3d.Vec2, width, height int) (x, y float64) {
	xscale := float64(width) / (r.XMax - r.XMin)
	yscale := float64(height) / (r.YMax - r.YMin)
	x = math.Ceil((p.X - r.XMin) * xscale)
	y = -math.Ceil((p.Y - r.YMax) * yscale)
	return x, y
}

// ScreenVertex is a projected vertex with its shading attributes.
type ScreenVertex struct {
	X, Y    int
	Depth   float64     // Squared distance to the eye
	K       [3]float64  // Diffuse color coefficients (kr, kg, kb)
	Ambient [3]float64  // K scaled by the ambient light
	Normal  math3d.Vec3 // Face normal, shared by the three vertices
}

// ScreenTriangle is a visible triangle ready for rasterization.
type ScreenTriangle struct {
	V      [3]ScreenVertex
	Normal math3d.Vec3
	Color  Color
	Index  int // Triangle number in the faces matrix
}

// Points returns the pixel positions of the three vertices.
func (t *ScreenTriangle) Points() [3]image.Point {
	return [3]image.Point{
		image.Pt(t.V[0].X, t.V[0].Y),
		image.Pt(t.V[1].X, t.V[1].Y),
		image.Pt(t.V[2].X, t.V[2].Y),
	}
}

// Depth returns the mean squared eye distance of the vertices.
func (t *ScreenTriangle) Depth() float64 {
	return (t.V[0].Depth + t.V[1].Depth + t.V[2].Depth) / 3
}

// FaceNormal returns (v2 - v1) × (v3 - v2).
func FaceNormal(v1, v2, v3 math3d.Vec3) math3d.Vec3 {
	return v2.Sub(v1).Cross(v3.Sub(v2))
}

// IsBackFacing reports whether a triangle with normal n and first vertex v1
// faces away from eye.
func IsBackFacing(n, v1, eye math3d.Vec3) bool {
	return n.Dot(v1.Sub(eye)) >= 0
}

// Perspective projects (x, y) at depth pz through a pinhole at eye.
// The result is undefined when pz == eye.Z.
func Perspective(x, y, pz float64, eye math3d.Vec3) math3d.Vec2 {
	d := pz - eye.Z
	return math3d.V2(
		eye.X-eye.Z*(x-eye.X)/d,
		eye.Y-eye.Z*(y-eye.Y)/d,
	)
}

// SortByDepth orders triangles far to near for painter's-order drawing.
// Equal depths keep their input order.
func SortByDepth(tris []ScreenTriangle) {
	slices.SortStableFunc(tris, func(a, b ScreenTriangle) int {
		return cmp.Compare(b.Depth(), a.Depth())
	})
}

func checkShapes(faces, colors *math3d.Matrix) error {
	switch {
	case faces == nil || colors == nil:
		return fmt.Errorf("%w: nil matrix", ErrShape)
	case faces.Rows() < 3:
		return fmt.Errorf("%w: faces have %d rows, need x, y, z", ErrShape, faces.Rows())
	case faces.Cols()%3 != 0:
		return fmt.Errorf("%w: %d face columns is not a multiple of 3", ErrShape, faces.Cols())
	case colors.Rows() < 3:
		return fmt.Errorf("%w: colors have %d rows, need kr, kg, kb", ErrShape, colors.Rows())
	case colors.Cols() != faces.Cols():
		return fmt.Errorf("%w: %d color columns for %d face columns", ErrShape, colors.Cols(), faces.Cols())
	}
	return nil
}

// Project transforms every triangle of faces into screen space, in input
// order, dropping back-facing triangles when culling is enabled and
// triangles with a vertex that cannot be projected.
func (c *Context) Project(faces, colors *math3d.Matrix, eye math3d.Vec3) ([]ScreenTriangle, error) {
	if err := checkShapes(faces, colors); err != nil {
		return nil, err
	}
	c.stats = FrameStats{Triangles: faces.Cols() / 3}

	lightDir := c.opts.Light.Dir.Normalize()
	tris := make([]ScreenTriangle, 0, faces.Cols()/3)
	for col := 0; col < faces.Cols(); col += 3 {
		v := [3]math3d.Vec3{
			faces.Column(col).Vec3(),
			faces.Column(col + 1).Vec3(),
			faces.Column(col + 2).Vec3(),
		}
		n := FaceNormal(v[0], v[1], v[2])
		if c.opts.Cull && IsBackFacing(n, v[0], eye) {
			c.stats.Culled++
			continue
		}

		tri := ScreenTriangle{Normal: n, Index: col / 3}
		ok := true
		for i := range 3 {
			k := colors.Column(col + i)
			sv := ScreenVertex{
				Depth:  v[i].Sub(eye).LenSq(),
				K:      [3]float64{k.X, k.Y, k.Z},
				Normal: n,
			}
			for ch := range 3 {
				sv.Ambient[ch] = sv.K[ch] * c.opts.Light.Ambient[ch]
			}
			if sv.X, sv.Y, ok = c.toScreen(v[i], eye); !ok {
				break
			}
			tri.V[i] = sv
		}
		if !ok {
			c.stats.Degenerate++
			continue
		}
		tri.Color = c.shade(&tri, lightDir)
		tris = append(tris, tri)
	}
	return tris, nil
}

// toScreen runs the perspective divide and the screen mapping for one
// vertex. ok is false when the vertex lies in the eye plane or lands
// outside the guard band.
func (c *Context) toScreen(v, eye math3d.Vec3) (x, y int, ok bool) {
	if v.Z == eye.Z {
		return 0, 0, false
	}
	p := Perspective(v.X, v.Y, v.Z, eye)
	fx, fy := c.opts.Screen.Map(p, c.fb.Width, c.fb.Height)
	if !(math.Abs(fx) <= guardBand && math.Abs(fy) <= guardBand) { // also catches NaN
		return 0, 0, false
	}
	return int(fx), int(fy), true
}

// shade averages the per-vertex colors of a triangle: the ambient term
// plus the Lambert term of the shared face normal.
func (c *Context) shade(t *ScreenTriangle, lightDir math3d.Vec3) Color {
	lambert := math.Max(0, t.Normal.Normalize().Dot(lightDir))
	var sum [3]float64
	for _, v := range t.V {
		for ch := range 3 {
			sum[ch] += v.Ambient[ch] + v.K[ch]*c.opts.Light.Diffuse[ch]*lambert
		}
	}
	return UnitRGB(sum[0]/3, sum[1]/3, sum[2]/3)
}
