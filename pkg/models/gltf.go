package models

import (
	"fmt"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/taigrr/cyclops/pkg/math3d"
)

// GLTFLoader loads glTF (.gltf) and binary glTF (.glb) scenes into a single
// mesh, baking node transforms into vertex positions. Only triangle list
// primitives are read; material base colors become mesh materials.
type GLTFLoader struct{}

// NewGLTFLoader creates a glTF loader.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{}
}

// LoadGLTF loads a .gltf or .glb file.
func LoadGLTF(path string) (*Mesh, error) {
	return NewGLTFLoader().LoadFile(path)
}

// LoadFile opens and converts a glTF document.
func (l *GLTFLoader) LoadFile(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return l.FromDocument(doc, filepath.Base(path))
}

// FromDocument converts an already decoded document.
func (l *GLTFLoader) FromDocument(doc *gltf.Document, name string) (*Mesh, error) {
	mesh := NewMesh(name)
	mesh.Materials = gltfMaterials(doc)

	roots, err := sceneRoots(doc)
	if err != nil {
		return nil, err
	}
	for _, idx := range roots {
		if err := l.walk(doc, idx, mgl64.Ident4(), mesh, 0); err != nil {
			return nil, err
		}
	}
	mesh.CalculateBounds()
	return mesh, nil
}

// sceneRoots returns the root nodes of the default scene, or every node
// that is nobody's child when the document has no scenes.
func sceneRoots(doc *gltf.Document) ([]int, error) {
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil {
			idx = *doc.Scene
		}
		if idx < 0 || idx >= len(doc.Scenes) {
			return nil, fmt.Errorf("gltf: default scene %d of %d", idx, len(doc.Scenes))
		}
		return doc.Scenes[idx].Nodes, nil
	}
	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i, child := range isChild {
		if !child {
			roots = append(roots, i)
		}
	}
	return roots, nil
}

// maxNodeDepth guards against cyclic node graphs in malformed files.
const maxNodeDepth = 64

func (l *GLTFLoader) walk(doc *gltf.Document, idx int, parent mgl64.Mat4, mesh *Mesh, depth int) error {
	if idx < 0 || idx >= len(doc.Nodes) {
		return fmt.Errorf("gltf: node %d of %d", idx, len(doc.Nodes))
	}
	if depth > maxNodeDepth {
		return fmt.Errorf("gltf: node hierarchy deeper than %d", maxNodeDepth)
	}
	node := doc.Nodes[idx]
	world := parent.Mul4(nodeTransform(node))

	if node.Mesh != nil {
		if *node.Mesh < 0 || *node.Mesh >= len(doc.Meshes) {
			return fmt.Errorf("gltf: node %d mesh %d of %d", idx, *node.Mesh, len(doc.Meshes))
		}
		if err := appendPrimitives(doc, doc.Meshes[*node.Mesh], world, mesh); err != nil {
			return fmt.Errorf("gltf mesh %d: %w", *node.Mesh, err)
		}
	}
	for _, child := range node.Children {
		if err := l.walk(doc, child, world, mesh, depth+1); err != nil {
			return err
		}
	}
	return nil
}

var (
	zeroMatrix     [16]float64
	identityMatrix = [16]float64(mgl64.Ident4())
)

// nodeTransform returns the local transform of a node: its matrix when one
// is given, otherwise translation * rotation * scale. Zero-valued fields of
// documents built in memory are read as their identity defaults.
func nodeTransform(n *gltf.Node) mgl64.Mat4 {
	if n.Matrix != zeroMatrix && n.Matrix != identityMatrix {
		return mgl64.Mat4(n.Matrix)
	}
	t := mgl64.Translate3D(n.Translation[0], n.Translation[1], n.Translation[2])

	r := mgl64.QuatIdent()
	if q := n.Rotation; q != [4]float64{} {
		r = mgl64.Quat{W: q[3], V: mgl64.Vec3{q[0], q[1], q[2]}}.Normalize()
	}

	s := n.Scale
	if s == [3]float64{} {
		s = [3]float64{1, 1, 1}
	}
	return t.Mul4(r.Mat4()).Mul4(mgl64.Scale3D(s[0], s[1], s[2]))
}

func appendPrimitives(doc *gltf.Document, m *gltf.Mesh, world mgl64.Mat4, mesh *Mesh) error {
	// A mirroring transform turns counter-clockwise faces clockwise.
	mirrored := world.Mat3().Det() < 0

	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			continue
		}
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		if posIdx < 0 || posIdx >= len(doc.Accessors) {
			return fmt.Errorf("position accessor %d of %d", posIdx, len(doc.Accessors))
		}
		positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var indices []uint32
		if prim.Indices != nil {
			if *prim.Indices < 0 || *prim.Indices >= len(doc.Accessors) {
				return fmt.Errorf("index accessor %d of %d", *prim.Indices, len(doc.Accessors))
			}
			if indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		material := -1
		if prim.Material != nil && *prim.Material < len(mesh.Materials) {
			material = *prim.Material
		}

		base := len(mesh.Vertices)
		for _, p := range positions {
			w := mgl64.TransformCoordinate(mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}, world)
			mesh.AddVertex(math3d.V3(w[0], w[1], w[2]))
		}
		for i := 0; i+2 < len(indices); i += 3 {
			a, b, c := int(indices[i]), int(indices[i+1]), int(indices[i+2])
			if max(a, b, c) >= len(positions) {
				return fmt.Errorf("index %d past %d positions", max(a, b, c), len(positions))
			}
			if mirrored {
				b, c = c, b
			}
			mesh.Faces = append(mesh.Faces, Face{V: [3]int{base + a, base + b, base + c}, Material: material})
		}
	}
	return nil
}

// gltfMaterials converts PBR base color factors to flat materials.
func gltfMaterials(doc *gltf.Document) []Material {
	mats := make([]Material, len(doc.Materials))
	for i, m := range doc.Materials {
		mats[i] = Material{Name: m.Name, BaseColor: math3d.V3(1, 1, 1)}
		if pbr := m.PBRMetallicRoughness; pbr != nil && pbr.BaseColorFactor != nil {
			f := pbr.BaseColorFactor
			mats[i].BaseColor = math3d.V3(f[0], f[1], f[2])
		}
	}
	return mats
}
