package models

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/taigrr/cyclops/pkg/math3d"
)

// ErrUnknownModel is returned for an unrecognized builtin name or file
// extension.
var ErrUnknownModel = errors.New("models: unknown model")

// cubeCorners are the corners of an axis-aligned cube of half-size half,
// numbered by bits (x, y, z) = (i&1, i&2, i&4).
func cubeCorners(half float64) [8]math3d.Vec3 {
	var c [8]math3d.Vec3
	for i := range c {
		c[i] = math3d.V3(-half, -half, -half)
		if i&1 != 0 {
			c[i].X = half
		}
		if i&2 != 0 {
			c[i].Y = half
		}
		if i&4 != 0 {
			c[i].Z = half
		}
	}
	return c
}

// Cube returns a cube with edge length size centered on the origin, one
// color per side pair.
func Cube(size float64) *Mesh {
	m := NewMesh("cube")
	for _, p := range cubeCorners(size / 2) {
		m.AddVertex(p)
	}
	m.Materials = []Material{
		{Name: "x", BaseColor: math3d.V3(1, 0.2, 0.2)},
		{Name: "y", BaseColor: math3d.V3(0.2, 1, 0.2)},
		{Name: "z", BaseColor: math3d.V3(0.2, 0.4, 1)},
	}
	// Outward counter-clockwise quads.
	quads := []struct {
		v   [4]int
		mat int
	}{
		{[4]int{1, 3, 7, 5}, 0}, // +x
		{[4]int{0, 4, 6, 2}, 0}, // -x
		{[4]int{2, 6, 7, 3}, 1}, // +y
		{[4]int{0, 1, 5, 4}, 1}, // -y
		{[4]int{4, 5, 7, 6}, 2}, // +z
		{[4]int{0, 2, 3, 1}, 2}, // -z
	}
	for _, q := range quads {
		m.Faces = append(m.Faces,
			Face{V: [3]int{q.v[0], q.v[1], q.v[2]}, Material: q.mat},
			Face{V: [3]int{q.v[0], q.v[2], q.v[3]}, Material: q.mat},
		)
	}
	m.CalculateBounds()
	return m
}

// Tetrahedron returns a regular tetrahedron inscribed in the cube of edge
// length size, with a different color at every vertex.
func Tetrahedron(size float64) *Mesh {
	m := NewMesh("tetrahedron")
	c := cubeCorners(size / 2)
	colors := []math3d.Vec3{
		math3d.V3(1, 0, 0), math3d.V3(0, 1, 0), math3d.V3(0, 0, 1), math3d.V3(1, 1, 0),
	}
	for i, corner := range []int{0, 3, 5, 6} {
		m.Vertices = append(m.Vertices, Vertex{Position: c[corner], Color: colors[i], HasColor: true})
	}
	m.AddFace(0, 1, 2)
	m.AddFace(0, 3, 1)
	m.AddFace(0, 2, 3)
	m.AddFace(1, 3, 2)
	m.CalculateBounds()
	return m
}

// Pyramid returns a square pyramid with base edge and height size, its base
// centered below the origin.
func Pyramid(size float64) *Mesh {
	m := NewMesh("pyramid")
	h := size / 2
	m.AddVertex(math3d.V3(-h, -h, -h))
	m.AddVertex(math3d.V3(h, -h, -h))
	m.AddVertex(math3d.V3(h, -h, h))
	m.AddVertex(math3d.V3(-h, -h, h))
	m.AddVertex(math3d.V3(0, h, 0))
	m.Materials = []Material{
		{Name: "base", BaseColor: math3d.V3(0.6, 0.6, 0.6)},
		{Name: "side", BaseColor: math3d.V3(1, 0.8, 0.2)},
	}
	m.Faces = []Face{
		{V: [3]int{0, 1, 2}, Material: 0},
		{V: [3]int{0, 2, 3}, Material: 0},
		{V: [3]int{0, 4, 1}, Material: 1},
		{V: [3]int{1, 4, 2}, Material: 1},
		{V: [3]int{2, 4, 3}, Material: 1},
		{V: [3]int{3, 4, 0}, Material: 1},
	}
	m.CalculateBounds()
	return m
}

var builtins = map[string]func(float64) *Mesh{
	"cube":        Cube,
	"tetrahedron": Tetrahedron,
	"pyramid":     Pyramid,
}

// BuiltinNames lists the builtin models in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Builtin returns a builtin model of the given size.
func Builtin(name string, size float64) (*Mesh, error) {
	build, ok := builtins[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (builtins: %s)", ErrUnknownModel, name, strings.Join(BuiltinNames(), ", "))
	}
	return build(size), nil
}

// Load returns a builtin model when source names one, and otherwise loads
// the file, choosing the loader by extension.
func Load(source string) (*Mesh, error) {
	if _, ok := builtins[strings.ToLower(source)]; ok {
		return Builtin(source, 2)
	}
	switch ext := strings.ToLower(filepath.Ext(source)); ext {
	case ".obj":
		return LoadOBJ(source)
	case ".stl":
		return LoadSTL(source)
	case ".gltf", ".glb":
		return LoadGLTF(source)
	default:
		return nil, fmt.Errorf("%w: %q is neither a builtin nor a .obj, .stl, .gltf or .glb file", ErrUnknownModel, source)
	}
}
