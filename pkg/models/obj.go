package models

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/taigrr/cyclops/pkg/math3d"
)

// OBJLoader loads Wavefront OBJ files. Faces with more than three vertices
// are fan-triangulated, keeping the file's counter-clockwise winding.
// Per-vertex colors ("v x y z r g b") and diffuse colors (Kd) from
// referenced MTL libraries are carried into the mesh.
type OBJLoader struct {
	// MaterialDir is where mtllib references are resolved. Empty disables
	// material loading.
	MaterialDir string
}

// NewOBJLoader creates an OBJ loader that does not read material libraries.
func NewOBJLoader() *OBJLoader {
	return &OBJLoader{}
}

// LoadFile loads an OBJ file from disk, resolving material libraries next
// to it.
func (l *OBJLoader) LoadFile(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open OBJ file: %w", err)
	}
	defer f.Close()

	withDir := *l
	if withDir.MaterialDir == "" {
		withDir.MaterialDir = filepath.Dir(path)
	}
	return withDir.Load(f, filepath.Base(path))
}

// Load parses an OBJ from a reader.
func (l *OBJLoader) Load(r io.Reader, name string) (*Mesh, error) {
	mesh := NewMesh(name)
	var positions []Vertex
	// OBJ faces index positions; each position becomes one mesh vertex the
	// first time a face uses it.
	vertexOf := make(map[int]int)
	materialIdx := make(map[string]int)
	current := -1

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: invalid vertex (need x y z)", lineNum)
			}
			vals, err := parseFloats(fields[1:min(len(fields), 7)])
			if err != nil {
				return nil, fmt.Errorf("line %d: vertex: %w", lineNum, err)
			}
			v := Vertex{Position: math3d.V3(vals[0], vals[1], vals[2])}
			if len(vals) == 6 {
				v.Color = math3d.V3(vals[3], vals[4], vals[5])
				v.HasColor = true
			}
			positions = append(positions, v)

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices", lineNum)
			}
			corners := make([]int, 0, len(fields)-1)
			for _, field := range fields[1:] {
				pos, err := parseFaceVertex(field)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNum, err)
				}
				pos = resolveIndex(pos, len(positions))
				if pos < 0 || pos >= len(positions) {
					return nil, fmt.Errorf("line %d: position index %s out of range", lineNum, field)
				}
				idx, ok := vertexOf[pos]
				if !ok {
					idx = len(mesh.Vertices)
					mesh.Vertices = append(mesh.Vertices, positions[pos])
					vertexOf[pos] = idx
				}
				corners = append(corners, idx)
			}
			for i := 1; i < len(corners)-1; i++ {
				mesh.Faces = append(mesh.Faces, Face{
					V:        [3]int{corners[0], corners[i], corners[i+1]},
					Material: current,
				})
			}

		case "o", "g":
			if len(fields) > 1 {
				mesh.Name = fields[1]
			}

		case "mtllib":
			if l.MaterialDir == "" || len(fields) < 2 {
				continue
			}
			for _, lib := range fields[1:] {
				mats, err := loadMTL(filepath.Join(l.MaterialDir, lib))
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNum, err)
				}
				for _, m := range mats {
					materialIdx[m.Name] = len(mesh.Materials)
					mesh.Materials = append(mesh.Materials, m)
				}
			}

		case "usemtl":
			current = -1
			if len(fields) > 1 {
				if idx, ok := materialIdx[fields[1]]; ok {
					current = idx
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read OBJ: %w", err)
	}

	mesh.CalculateBounds()
	return mesh, nil
}

// loadMTL reads the diffuse colors of a material library.
func loadMTL(path string) ([]Material, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var mats []Material
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "newmtl":
			if len(fields) < 2 {
				return nil, fmt.Errorf("%s:%d: newmtl without a name", filepath.Base(path), lineNum)
			}
			mats = append(mats, Material{Name: fields[1], BaseColor: math3d.V3(1, 1, 1)})
		case "Kd":
			if len(mats) == 0 || len(fields) < 4 {
				continue
			}
			rgb, err := parseFloats(fields[1:4])
			if err != nil {
				return nil, fmt.Errorf("%s:%d: Kd: %w", filepath.Base(path), lineNum, err)
			}
			mats[len(mats)-1].BaseColor = math3d.V3(rgb[0], rgb[1], rgb[2])
		}
	}
	return mats, scanner.Err()
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// parseFaceVertex returns the position index of a face vertex written as
// v, v/vt, v/vt/vn or v//vn.
func parseFaceVertex(s string) (int, error) {
	head, _, _ := strings.Cut(s, "/")
	pos, err := strconv.Atoi(head)
	if err != nil {
		return 0, fmt.Errorf("invalid vertex index %q", s)
	}
	return pos, nil
}

// resolveIndex converts a 1-based (or negative, counted from the end) OBJ
// index to 0-based. Zero maps to -1.
func resolveIndex(idx, count int) int {
	switch {
	case idx == 0:
		return -1
	case idx < 0:
		return count + idx
	}
	return idx - 1
}

// LoadOBJ loads an OBJ file with default settings.
func LoadOBJ(path string) (*Mesh, error) {
	return NewOBJLoader().LoadFile(path)
}
