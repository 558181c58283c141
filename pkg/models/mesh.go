// Package models loads triangle meshes (OBJ, STL, glTF/GLB, builtin
// primitives) and converts them into the faces and colors matrices the
// renderer consumes.
//
// Every loader produces counter-clockwise winding when a face is seen from
// outside the solid, so face normals computed as (v2-v1)×(v3-v2) point
// outward.
package models

import (
	"fmt"
	"math"

	"github.com/taigrr/cyclops/pkg/math3d"
)

// Mesh is an indexed triangle mesh.
type Mesh struct {
	Name      string
	Vertices  []Vertex
	Faces     []Face
	Materials []Material

	// Axis-aligned bounds, refreshed by CalculateBounds
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// Vertex is a mesh vertex with an optional color.
type Vertex struct {
	Position math3d.Vec3
	Color    math3d.Vec3 // Diffuse coefficients in [0, 1], valid when HasColor
	HasColor bool
}

// Face is a triangle referencing three vertices.
type Face struct {
	V        [3]int // Indices into Mesh.Vertices
	Material int    // Index into Mesh.Materials, -1 for none
}

// Material is a flat diffuse color.
type Material struct {
	Name      string
	BaseColor math3d.Vec3
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// AddVertex appends an uncolored vertex and returns its index.
func (m *Mesh) AddVertex(p math3d.Vec3) int {
	m.Vertices = append(m.Vertices, Vertex{Position: p})
	return len(m.Vertices) - 1
}

// AddFace appends a triangle without material.
func (m *Mesh) AddFace(a, b, c int) {
	m.Faces = append(m.Faces, Face{V: [3]int{a, b, c}, Material: -1})
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Vertices) == 0 {
		m.BoundsMin, m.BoundsMax = math3d.Vec3{}, math3d.Vec3{}
		return
	}
	m.BoundsMin = m.Vertices[0].Position
	m.BoundsMax = m.Vertices[0].Position
	for _, v := range m.Vertices[1:] {
		m.BoundsMin = m.BoundsMin.Min(v.Position)
		m.BoundsMax = m.BoundsMax.Max(v.Position)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int { return len(m.Faces) }

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// FaceNormal returns the unnormalized normal of face i using the renderer's
// convention (v2-v1)×(v3-v2).
func (m *Mesh) FaceNormal(i int) math3d.Vec3 {
	f := m.Faces[i]
	v1 := m.Vertices[f.V[0]].Position
	v2 := m.Vertices[f.V[1]].Position
	v3 := m.Vertices[f.V[2]].Position
	return v2.Sub(v1).Cross(v3.Sub(v2))
}

// FlipWinding reverses the vertex order of every face.
func (m *Mesh) FlipWinding() {
	for i := range m.Faces {
		f := &m.Faces[i]
		f.V[1], f.V[2] = f.V[2], f.V[1]
	}
}

// Transform applies a 4x4 homogeneous matrix to every vertex position.
func (m *Mesh) Transform(t *math3d.Matrix) {
	if len(m.Vertices) == 0 {
		return
	}
	pts := make([]math3d.Vec4, len(m.Vertices))
	for i, v := range m.Vertices {
		pts[i] = math3d.Point(v.Position)
	}
	out := math3d.Mul(t, math3d.FromColumns(pts))
	for i := range m.Vertices {
		m.Vertices[i].Position = out.Column(i).Vec3()
	}
	m.CalculateBounds()
}

// Fit centers the mesh on the origin and scales it uniformly so that its
// largest dimension equals extent. Flat or empty meshes are only centered.
func (m *Mesh) Fit(extent float64) {
	m.CalculateBounds()
	size := m.Size()
	largest := math.Max(size.X, math.Max(size.Y, size.Z))
	scale := 1.0
	if largest > 0 && extent > 0 {
		scale = extent / largest
	}
	c := m.Center()
	m.Transform(math3d.Mul(
		math3d.Scaling(math3d.V3(scale, scale, scale)),
		math3d.Translation(c.Scale(-1)),
	))
}

// Clone creates a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	c := *m
	c.Vertices = append([]Vertex(nil), m.Vertices...)
	c.Faces = append([]Face(nil), m.Faces...)
	c.Materials = append([]Material(nil), m.Materials...)
	return &c
}

// vertexColor picks the color of one corner of face f: the vertex color,
// then the face material, then def.
func (m *Mesh) vertexColor(f Face, corner int, def math3d.Vec3) math3d.Vec3 {
	if v := m.Vertices[f.V[corner]]; v.HasColor {
		return v.Color
	}
	if f.Material >= 0 && f.Material < len(m.Materials) {
		return m.Materials[f.Material].BaseColor
	}
	return def
}

// ToMatrices flattens the mesh into a 4 x 3N faces matrix of homogeneous
// vertices and a parallel 3 x 3N colors matrix of (kr, kg, kb) columns,
// three consecutive columns per triangle.
func (m *Mesh) ToMatrices(def math3d.Vec3) (faces, colors *math3d.Matrix, err error) {
	n := 3 * len(m.Faces)
	if faces, err = math3d.New(4, n); err != nil {
		return nil, nil, fmt.Errorf("faces matrix for %s: %w", m.Name, err)
	}
	if colors, err = math3d.New(3, n); err != nil {
		return nil, nil, fmt.Errorf("colors matrix for %s: %w", m.Name, err)
	}
	for i, f := range m.Faces {
		for k := range 3 {
			idx := f.V[k]
			if idx < 0 || idx >= len(m.Vertices) {
				return nil, nil, fmt.Errorf("face %d references vertex %d of %d", i, idx, len(m.Vertices))
			}
			col := 3*i + k
			faces.SetColumn(col, math3d.Point(m.Vertices[idx].Position))
			c := m.vertexColor(f, k, def)
			colors.SetColumn(col, math3d.V4(c.X, c.Y, c.Z, 0))
		}
	}
	return faces, colors, nil
}

// faceKey creates a canonical key for a face by sorting vertex indices, so
// the same three vertices in any order share a key.
func faceKey(v0, v1, v2 int) [3]int {
	if v0 > v1 {
		v0, v1 = v1, v0
	}
	if v1 > v2 {
		v1, v2 = v2, v1
	}
	if v0 > v1 {
		v0, v1 = v1, v0
	}
	return [3]int{v0, v1, v2}
}

// DeduplicateFaces keeps the first of every set of faces that use the same
// three vertices, in any order. It returns the number of faces removed.
func (m *Mesh) DeduplicateFaces() int {
	seen := make(map[[3]int]struct{}, len(m.Faces))
	kept := m.Faces[:0]
	for _, f := range m.Faces {
		key := faceKey(f.V[0], f.V[1], f.V[2])
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, f)
	}
	removed := len(m.Faces) - len(kept)
	m.Faces = kept
	return removed
}

// RemoveDegenerateFaces drops faces with repeated indices or near-zero
// area. It returns the number of faces removed.
func (m *Mesh) RemoveDegenerateFaces() int {
	const minArea = 1e-10
	kept := m.Faces[:0]
	for i, f := range m.Faces {
		if f.V[0] == f.V[1] || f.V[1] == f.V[2] || f.V[0] == f.V[2] {
			continue
		}
		if m.FaceNormal(i).Len()*0.5 <= minArea {
			continue
		}
		kept = append(kept, f)
	}
	removed := len(m.Faces) - len(kept)
	m.Faces = kept
	return removed
}

// RemoveUnreferencedVertices compacts the vertex list to the vertices used
// by some face and renumbers the faces.
func (m *Mesh) RemoveUnreferencedVertices() {
	if len(m.Vertices) == 0 {
		return
	}
	newIndex := make([]int, len(m.Vertices))
	for i := range newIndex {
		newIndex[i] = -1
	}
	for _, f := range m.Faces {
		for _, v := range f.V {
			newIndex[v] = 0
		}
	}
	kept := make([]Vertex, 0, len(m.Vertices))
	for i, v := range m.Vertices {
		if newIndex[i] < 0 {
			continue
		}
		newIndex[i] = len(kept)
		kept = append(kept, v)
	}
	for i := range m.Faces {
		for k := range 3 {
			m.Faces[i].V[k] = newIndex[m.Faces[i].V[k]]
		}
	}
	m.Vertices = kept
}

// windingParity reports whether a face lists its vertices as an odd
// permutation of faceKey order, i.e. with the opposite winding.
func windingParity(f Face) bool {
	inversions := 0
	for i := range 3 {
		for j := i + 1; j < 3; j++ {
			if f.V[i] > f.V[j] {
				inversions++
			}
		}
	}
	return inversions%2 == 1
}

// RemoveInternalFaces removes pairs of faces on the same three vertices
// wound in opposite directions. Such back-to-back pairs appear where meshes
// were merged and enclose no volume. It returns the number of faces
// removed.
func (m *Mesh) RemoveInternalFaces() int {
	type pending struct {
		even, odd []int
	}
	groups := make(map[[3]int]*pending)
	for i, f := range m.Faces {
		key := faceKey(f.V[0], f.V[1], f.V[2])
		g := groups[key]
		if g == nil {
			g = &pending{}
			groups[key] = g
		}
		if windingParity(f) {
			g.odd = append(g.odd, i)
		} else {
			g.even = append(g.even, i)
		}
	}

	drop := make(map[int]bool)
	for _, g := range groups {
		for k := range min(len(g.even), len(g.odd)) {
			drop[g.even[k]] = true
			drop[g.odd[k]] = true
		}
	}
	if len(drop) == 0 {
		return 0
	}
	kept := m.Faces[:0]
	for i, f := range m.Faces {
		if !drop[i] {
			kept = append(kept, f)
		}
	}
	removed := len(m.Faces) - len(kept)
	m.Faces = kept
	return removed
}

// Clean removes degenerate faces, back-to-back internal pairs and
// duplicates, then unused vertices. It returns the number of faces removed.
func (m *Mesh) Clean() int {
	removed := m.RemoveDegenerateFaces()
	removed += m.RemoveInternalFaces()
	removed += m.DeduplicateFaces()
	m.RemoveUnreferencedVertices()
	m.CalculateBounds()
	return removed
}
