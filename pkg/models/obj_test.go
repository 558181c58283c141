package models

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/taigrr/cyclops/pkg/math3d"
)

func TestLoadSimpleOBJ(t *testing.T) {
	objData := `
# Simple triangle
v 0 0 0
v 1 0 0
v 0.5 1 0
f 1 2 3
`
	mesh, err := NewOBJLoader().Load(strings.NewReader(objData), "triangle")
	if err != nil {
		t.Fatalf("failed to load OBJ: %v", err)
	}
	if mesh.VertexCount() != 3 {
		t.Errorf("expected 3 vertices, got %d", mesh.VertexCount())
	}
	if mesh.TriangleCount() != 1 {
		t.Fatalf("expected 1 triangle, got %d", mesh.TriangleCount())
	}
	// File order is kept: counter-clockwise seen from +z.
	if n := mesh.FaceNormal(0); n.Z <= 0 {
		t.Errorf("normal %v should point at +z", n)
	}
	if mesh.Faces[0].Material != -1 {
		t.Errorf("material = %d, want -1", mesh.Faces[0].Material)
	}
}

const cubeOBJ = `
v -0.5 -0.5 -0.5
v  0.5 -0.5 -0.5
v  0.5  0.5 -0.5
v -0.5  0.5 -0.5
v -0.5 -0.5  0.5
v  0.5 -0.5  0.5
v  0.5  0.5  0.5
v -0.5  0.5  0.5
f 1 4 3 2
f 5 6 7 8
f 1 5 8 4
f 2 3 7 6
f 4 8 7 3
f 1 2 6 5
`

func TestLoadCubeOBJ(t *testing.T) {
	mesh, err := NewOBJLoader().Load(strings.NewReader(cubeOBJ), "cube")
	if err != nil {
		t.Fatalf("failed to load cube: %v", err)
	}
	if mesh.TriangleCount() != 12 {
		t.Errorf("expected 12 triangles (6 quads), got %d", mesh.TriangleCount())
	}
	if mesh.BoundsMin != math3d.V3(-0.5, -0.5, -0.5) || mesh.BoundsMax != math3d.V3(0.5, 0.5, 0.5) {
		t.Errorf("bounds = %v..%v", mesh.BoundsMin, mesh.BoundsMax)
	}
	for i, f := range mesh.Faces {
		var centroid math3d.Vec3
		for _, v := range f.V {
			centroid = centroid.Add(mesh.Vertices[v].Position)
		}
		if mesh.FaceNormal(i).Dot(centroid) <= 0 {
			t.Errorf("face %d points inward", i)
		}
	}
}

func TestOBJTexturedFaceSyntax(t *testing.T) {
	objData := `
v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 0
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1
f 1//1 2//1 3//1
`
	mesh, err := NewOBJLoader().Load(strings.NewReader(objData), "textured")
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	// Vertices are shared by position regardless of texture or normal index.
	if mesh.VertexCount() != 3 || mesh.TriangleCount() != 2 {
		t.Errorf("got %d vertices, %d triangles", mesh.VertexCount(), mesh.TriangleCount())
	}
}

func TestOBJNegativeIndices(t *testing.T) {
	objData := `
v 0 0 0
v 1 0 0
v 0 1 0
f -3 -2 -1
`
	mesh, err := NewOBJLoader().Load(strings.NewReader(objData), "negative")
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if mesh.Faces[0].V != [3]int{0, 1, 2} {
		t.Errorf("face = %v", mesh.Faces[0].V)
	}
}

func TestOBJVertexColors(t *testing.T) {
	objData := `
v 0 0 0 1 0 0
v 1 0 0 0 1 0
v 0 1 0
f 1 2 3
`
	mesh, err := NewOBJLoader().Load(strings.NewReader(objData), "colored")
	if err != nil {
		t.Fatal(err)
	}
	if !mesh.Vertices[0].HasColor || mesh.Vertices[0].Color != math3d.V3(1, 0, 0) {
		t.Errorf("vertex 0 = %+v", mesh.Vertices[0])
	}
	if mesh.Vertices[2].HasColor {
		t.Error("vertex 2 has no color in the file")
	}
}

func TestOBJErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"short vertex", "v 1 2\n"},
		{"bad coordinate", "v 1 x 2\n"},
		{"short face", "v 0 0 0\nf 1 1\n"},
		{"index out of range", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n"},
		{"bad index", "v 0 0 0\nf a b c\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewOBJLoader().Load(strings.NewReader(tt.data), tt.name); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestOBJMaterialLibrary(t *testing.T) {
	dir := t.TempDir()
	mtl := "newmtl paint\nKd 0.25 0.5 1\nnewmtl plain\n"
	obj := "mtllib scene.mtl\nmtllib missing.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nv 1 1 0\n" +
		"usemtl paint\nf 1 2 3\nusemtl plain\nf 2 4 3\nusemtl nope\nf 1 2 4\n"
	if err := os.WriteFile(filepath.Join(dir, "scene.mtl"), []byte(mtl), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "scene.obj")
	if err := os.WriteFile(path, []byte(obj), 0o644); err != nil {
		t.Fatal(err)
	}

	mesh, err := LoadOBJ(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(mesh.Materials) != 2 {
		t.Fatalf("got %d materials, want 2", len(mesh.Materials))
	}
	if got := mesh.Materials[0].BaseColor; got != math3d.V3(0.25, 0.5, 1) {
		t.Errorf("paint color = %v", got)
	}
	if got := mesh.Materials[1].BaseColor; got != math3d.V3(1, 1, 1) {
		t.Errorf("plain color = %v, want white default", got)
	}
	wantMat := []int{0, 1, -1}
	for i, f := range mesh.Faces {
		if f.Material != wantMat[i] {
			t.Errorf("face %d material = %d, want %d", i, f.Material, wantMat[i])
		}
	}
	if mesh.Name != "scene.obj" {
		t.Errorf("name = %q", mesh.Name)
	}
}
