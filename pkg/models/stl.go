package models

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/taigrr/cyclops/pkg/math3d"
)

// STLLoader loads STL (stereolithography) files in both ASCII and binary
// formats. Facets keep the file's counter-clockwise vertex order.
type STLLoader struct {
	NoDedupe       bool    // Give every facet its own three vertices
	MergeTolerance float64 // Grid size for merging nearby vertices (0 = exact match)
	FixWinding     bool    // Flip facets whose stored normal opposes their winding
	Clean          bool    // Drop degenerate and duplicate facets after loading
}

// NewSTLLoader creates an STL loader that merges identical vertices and
// trusts the stored facet normals to fix inconsistent winding.
func NewSTLLoader() *STLLoader {
	return &STLLoader{FixWinding: true}
}

// LoadFile loads an STL file from disk.
func (l *STLLoader) LoadFile(path string) (*Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read STL file: %w", err)
	}
	return l.LoadBytes(data, filepath.Base(path))
}

// Load parses STL from a reader. The whole stream is read to detect the
// format.
func (l *STLLoader) Load(r io.Reader, name string) (*Mesh, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read STL data: %w", err)
	}
	return l.LoadBytes(data, name)
}

// LoadBytes parses STL from a byte slice.
func (l *STLLoader) LoadBytes(data []byte, name string) (*Mesh, error) {
	b := l.newBuilder(name)
	var err error
	if isBinarySTL(data) {
		err = b.readBinary(data)
	} else {
		err = b.readASCII(data)
	}
	if err != nil {
		return nil, err
	}
	if l.Clean {
		b.mesh.Clean()
	}
	b.mesh.CalculateBounds()
	return b.mesh, nil
}

// isBinarySTL reports whether data is a binary STL: an 80-byte header and
// a triangle count that matches the file size. ASCII files start with
// "solid", but so do some binary headers.
func isBinarySTL(data []byte) bool {
	if len(data) < 84 {
		return false
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return true
	}
	triCount := uint64(binary.LittleEndian.Uint32(data[80:84]))
	return uint64(len(data)) == 84+triCount*50
}

// gridKey is a vertex position snapped to the merge grid.
type gridKey struct {
	x, y, z int64
}

func snap(p math3d.Vec3, tolerance float64) gridKey {
	if tolerance <= 0 {
		tolerance = 1e-12
	}
	s := 1 / tolerance
	return gridKey{
		x: int64(math.Round(p.X * s)),
		y: int64(math.Round(p.Y * s)),
		z: int64(math.Round(p.Z * s)),
	}
}

type stlBuilder struct {
	*STLLoader
	mesh     *Mesh
	vertexOf map[gridKey]int
}

func (l *STLLoader) newBuilder(name string) *stlBuilder {
	return &stlBuilder{
		STLLoader: l,
		mesh:      NewMesh(name),
		vertexOf:  make(map[gridKey]int),
	}
}

func (b *stlBuilder) vertex(p math3d.Vec3) int {
	if b.NoDedupe {
		return b.mesh.AddVertex(p)
	}
	key := snap(p, b.MergeTolerance)
	if idx, ok := b.vertexOf[key]; ok {
		return idx
	}
	idx := b.mesh.AddVertex(p)
	b.vertexOf[key] = idx
	return idx
}

func (b *stlBuilder) facet(normal math3d.Vec3, pos [3]math3d.Vec3) {
	if b.FixWinding {
		wound := pos[1].Sub(pos[0]).Cross(pos[2].Sub(pos[1]))
		if wound.Dot(normal) < 0 {
			pos[1], pos[2] = pos[2], pos[1]
		}
	}
	b.mesh.AddFace(b.vertex(pos[0]), b.vertex(pos[1]), b.vertex(pos[2]))
}

func (b *stlBuilder) readBinary(data []byte) error {
	triCount := uint64(binary.LittleEndian.Uint32(data[80:84]))
	if want := 84 + triCount*50; uint64(len(data)) < want {
		return fmt.Errorf("binary STL truncated: expected %d bytes, got %d", want, len(data))
	}

	vec := func(off int) math3d.Vec3 {
		return math3d.V3(
			float64(readFloat32LE(data[off:])),
			float64(readFloat32LE(data[off+4:])),
			float64(readFloat32LE(data[off+8:])),
		)
	}
	off := 84
	for range triCount {
		normal := vec(off)
		b.facet(normal, [3]math3d.Vec3{vec(off + 12), vec(off + 24), vec(off + 36)})
		off += 50 // normal, three vertices, attribute byte count
	}
	return nil
}

func readFloat32LE(data []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data))
}

func (b *stlBuilder) readASCII(data []byte) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNum := 0

	var (
		normal  math3d.Vec3
		corners []math3d.Vec3
		inFacet bool
		inLoop  bool
	)
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch strings.ToLower(fields[0]) {
		case "solid":
			if len(fields) > 1 {
				b.mesh.Name = fields[1]
			}

		case "facet":
			normal = math3d.Vec3{}
			if len(fields) >= 5 && strings.EqualFold(fields[1], "normal") {
				n, err := parseXYZ(fields[2:5])
				if err != nil {
					return fmt.Errorf("line %d: facet normal: %w", lineNum, err)
				}
				normal = n
			}
			inFacet = true
			corners = corners[:0]

		case "outer":
			if len(fields) >= 2 && strings.EqualFold(fields[1], "loop") {
				inLoop = true
			}

		case "vertex":
			if !inFacet || !inLoop {
				return fmt.Errorf("line %d: vertex outside facet/loop", lineNum)
			}
			if len(fields) < 4 {
				return fmt.Errorf("line %d: vertex needs x y z", lineNum)
			}
			p, err := parseXYZ(fields[1:4])
			if err != nil {
				return fmt.Errorf("line %d: vertex: %w", lineNum, err)
			}
			corners = append(corners, p)

		case "endloop":
			inLoop = false

		case "endfacet":
			if len(corners) >= 3 {
				b.facet(normal, [3]math3d.Vec3{corners[0], corners[1], corners[2]})
			}
			inFacet = false
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read ASCII STL: %w", err)
	}
	return nil
}

func parseXYZ(fields []string) (math3d.Vec3, error) {
	var v [3]float64
	for i := range v {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return math3d.Vec3{}, err
		}
		v[i] = f
	}
	return math3d.V3(v[0], v[1], v[2]), nil
}

// LoadSTL loads an STL file with default settings.
func LoadSTL(path string) (*Mesh, error) {
	return NewSTLLoader().LoadFile(path)
}
