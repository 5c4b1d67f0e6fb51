package models

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"

	"github.com/taigrr/modelviewer/pkg/math3d"
	"github.com/taigrr/modelviewer/pkg/render"
	"github.com/taigrr/modelviewer/pkg/scene"
)

// GLTFLoader loads GLTF/GLB files into Mesh format.
type GLTFLoader struct {
	// Options
	CalculateNormals bool
	SmoothNormals    bool
	LoadTextures     bool
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals: true,
		SmoothNormals:    true,
		LoadTextures:     true,
	}
}

// LoadGLB loads a binary GLTF (.glb) file with the default options.
func LoadGLB(path string) (*Mesh, error) {
	return NewGLTFLoader().Load(path)
}

// Load loads a GLTF or GLB file and returns a Mesh.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh := NewMesh(filepath.Base(path))
	mesh.Materials = l.readMaterials(doc, filepath.Dir(path))

	for _, m := range doc.Meshes {
		if err := l.processMesh(doc, m, mesh); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}

	if l.CalculateNormals && !mesh.HasNormals() {
		if l.SmoothNormals {
			mesh.CalculateSmoothNormals()
		} else {
			mesh.CalculateNormals()
		}
	}

	mesh.CalculateBounds()
	return mesh, nil
}

// readMaterials converts the document materials. A texture that fails to
// decode leaves the material untextured.
func (l *GLTFLoader) readMaterials(doc *gltf.Document, dir string) []Material {
	materials := make([]Material, len(doc.Materials))
	for i, m := range doc.Materials {
		mat := Material{Name: m.Name, BaseColor: [4]float64{1, 1, 1, 1}}
		if pbr := m.PBRMetallicRoughness; pbr != nil {
			mat.BaseColor = pbr.BaseColorFactorOrDefault()
			if l.LoadTextures && pbr.BaseColorTexture != nil {
				if img, err := readTextureImage(doc, pbr.BaseColorTexture.Index, dir); err == nil {
					mat.BaseMap = img
					mat.HasTexture = true
				}
			}
		}
		materials[i] = mat
	}
	return materials
}

// processMesh extracts geometry from a GLTF mesh. Positions, normals and
// texture coordinates share one index per vertex, as glTF requires.
func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			// Skip non-triangle primitives (lines, points, etc)
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}

		positions, err := readVec3Accessor(doc, posIdx)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals []math3d.Vec3
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = readVec3Accessor(doc, normIdx)
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		var uvs []math3d.Vec2
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = readVec2Accessor(doc, uvIdx)
			if err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}

		var indices []int
		if prim.Indices != nil {
			indices, err = readIndices(doc, *prim.Indices)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]int, len(positions))
			for i := range indices {
				indices[i] = i
			}
		}

		material := -1
		if prim.Material != nil {
			material = *prim.Material
		}

		if err := mesh.appendPrimitive(positions, normals, uvs, indices, material); err != nil {
			return err
		}
	}

	return nil
}

// appendPrimitive adds one glTF primitive. glTF triangles are
// counter-clockwise when front-facing, the same as the scene, and glTF UVs
// start at the top-left like texture rows, so both pass through unchanged.
func (m *Mesh) appendPrimitive(positions, normals []math3d.Vec3, uvs []math3d.Vec2, indices []int, material int) error {
	if len(normals) > 0 && len(normals) != len(positions) {
		return fmt.Errorf("%d normals for %d positions", len(normals), len(positions))
	}
	if len(uvs) > 0 && len(uvs) != len(positions) {
		return fmt.Errorf("%d texture coordinates for %d positions", len(uvs), len(positions))
	}

	vBase, nBase, tBase := len(m.Positions), len(m.Normals), len(m.UVs)
	for _, p := range positions {
		m.Positions = append(m.Positions, p.Vec4(1))
	}
	m.Normals = append(m.Normals, normals...)
	m.UVs = append(m.UVs, uvs...)

	for i := 0; i+2 < len(indices); i += 3 {
		for _, v := range indices[i : i+3] {
			if v < 0 || v >= len(positions) {
				return fmt.Errorf("index %d out of range (have %d vertices)", v, len(positions))
			}
			idx := scene.Index{Vertex: vBase + v, Texture: -1, Normal: -1}
			if len(normals) > 0 {
				idx.Normal = nBase + v
			}
			if len(uvs) > 0 {
				idx.Texture = tBase + v
			}
			m.Indices = append(m.Indices, idx)
		}
		m.FaceMaterials = append(m.FaceMaterials, material)
	}
	return nil
}

// readVec3Accessor reads Vec3 data from a GLTF accessor.
func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec3 {
		return nil, fmt.Errorf("expected VEC3, got %v", accessor.Type)
	}

	data, err := readAccessorData(doc, accessor)
	if err != nil {
		return nil, err
	}

	floats, ok := data.([][3]float32)
	if !ok {
		return nil, fmt.Errorf("unexpected data type for VEC3")
	}

	result := make([]math3d.Vec3, len(floats))
	for i, f := range floats {
		result[i] = math3d.V3(float64(f[0]), float64(f[1]), float64(f[2]))
	}

	return result, nil
}

// readVec2Accessor reads Vec2 data from a GLTF accessor.
func readVec2Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec2, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec2 {
		return nil, fmt.Errorf("expected VEC2, got %v", accessor.Type)
	}

	data, err := readAccessorData(doc, accessor)
	if err != nil {
		return nil, err
	}

	floats, ok := data.([][2]float32)
	if !ok {
		return nil, fmt.Errorf("unexpected data type for VEC2")
	}

	result := make([]math3d.Vec2, len(floats))
	for i, f := range floats {
		result[i] = math3d.V2(float64(f[0]), float64(f[1]))
	}

	return result, nil
}

// readIndices reads index data from a GLTF accessor.
func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	accessor := doc.Accessors[accessorIdx]

	data, err := readAccessorData(doc, accessor)
	if err != nil {
		return nil, err
	}

	switch v := data.(type) {
	case []uint8:
		return widen(v), nil
	case []uint16:
		return widen(v), nil
	case []uint32:
		return widen(v), nil
	default:
		return nil, fmt.Errorf("unexpected index type: %T", data)
	}
}

func widen[T uint8 | uint16 | uint32](v []T) []int {
	result := make([]int, len(v))
	for i, x := range v {
		result[i] = int(x)
	}
	return result
}

// bufferViewData returns the bytes of a buffer view. Only embedded (GLB)
// buffers are supported.
func bufferViewData(doc *gltf.Document, view int) ([]byte, error) {
	bufferView := doc.BufferViews[view]
	buffer := doc.Buffers[bufferView.Buffer]
	if buffer.URI != "" {
		return nil, fmt.Errorf("external buffer %q not supported", buffer.URI)
	}
	if buffer.Data == nil {
		return nil, fmt.Errorf("buffer has no data")
	}
	end := bufferView.ByteOffset + bufferView.ByteLength
	if end > len(buffer.Data) {
		return nil, fmt.Errorf("buffer view %d ends at %d past buffer size %d", view, end, len(buffer.Data))
	}
	return buffer.Data[bufferView.ByteOffset:end], nil
}

// readAccessorData reads raw data from a GLTF accessor.
func readAccessorData(doc *gltf.Document, accessor *gltf.Accessor) (any, error) {
	if accessor.BufferView == nil {
		return nil, fmt.Errorf("accessor has no buffer view")
	}

	bufData, err := bufferViewData(doc, *accessor.BufferView)
	if err != nil {
		return nil, err
	}

	start := accessor.ByteOffset
	stride := doc.BufferViews[*accessor.BufferView].ByteStride
	count := accessor.Count

	elemSize := 0
	switch accessor.Type {
	case gltf.AccessorVec3:
		elemSize = 12
	case gltf.AccessorVec2:
		elemSize = 8
	case gltf.AccessorScalar:
		switch accessor.ComponentType {
		case gltf.ComponentUbyte:
			elemSize = 1
		case gltf.ComponentUshort:
			elemSize = 2
		case gltf.ComponentUint:
			elemSize = 4
		}
	}
	if elemSize == 0 {
		return nil, fmt.Errorf("unsupported accessor type: %v / %v", accessor.Type, accessor.ComponentType)
	}
	if stride == 0 {
		stride = elemSize
	}
	if count > 0 && start+(count-1)*stride+elemSize > len(bufData) {
		return nil, fmt.Errorf("accessor reads past its buffer view")
	}

	le := binary.LittleEndian
	switch accessor.Type {
	case gltf.AccessorVec3:
		result := make([][3]float32, count)
		for i := range count {
			offset := start + i*stride
			for j := range 3 {
				result[i][j] = math.Float32frombits(le.Uint32(bufData[offset+j*4:]))
			}
		}
		return result, nil

	case gltf.AccessorVec2:
		result := make([][2]float32, count)
		for i := range count {
			offset := start + i*stride
			for j := range 2 {
				result[i][j] = math.Float32frombits(le.Uint32(bufData[offset+j*4:]))
			}
		}
		return result, nil
	}

	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		result := make([]uint8, count)
		for i := range count {
			result[i] = bufData[start+i*stride]
		}
		return result, nil
	case gltf.ComponentUshort:
		result := make([]uint16, count)
		for i := range count {
			result[i] = le.Uint16(bufData[start+i*stride:])
		}
		return result, nil
	default:
		result := make([]uint32, count)
		for i := range count {
			result[i] = le.Uint32(bufData[start+i*stride:])
		}
		return result, nil
	}
}

// readTextureImage decodes the image behind a texture index, from the GLB
// binary chunk or a file next to the document.
func readTextureImage(doc *gltf.Document, texture int, dir string) (image.Image, error) {
	if texture < 0 || texture >= len(doc.Textures) || doc.Textures[texture].Source == nil {
		return nil, fmt.Errorf("texture %d has no image", texture)
	}
	img := doc.Images[*doc.Textures[texture].Source]

	var data []byte
	switch {
	case img.BufferView != nil:
		b, err := bufferViewData(doc, *img.BufferView)
		if err != nil {
			return nil, err
		}
		data = b
	case img.URI != "":
		b, err := os.ReadFile(filepath.Join(dir, img.URI))
		if err != nil {
			return nil, fmt.Errorf("read texture: %w", err)
		}
		data = b
	default:
		return nil, fmt.Errorf("image %q has no data", img.Name)
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode texture: %w", err)
	}
	return decoded, nil
}

// LoadGLBWithTexture loads a GLB file and returns the mesh plus the first
// material texture as a diffuse map. The map is nil if none is embedded.
func LoadGLBWithTexture(path string) (*Mesh, *render.DiffuseMap, error) {
	mesh, err := LoadGLB(path)
	if err != nil {
		return nil, nil, err
	}
	if img := mesh.BaseMap(); img != nil {
		return mesh, render.DiffuseMapFromImage(img), nil
	}
	return mesh, nil, nil
}
