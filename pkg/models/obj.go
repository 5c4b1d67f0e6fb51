package models

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/taigrr/modelviewer/pkg/math3d"
	"github.com/taigrr/modelviewer/pkg/scene"
)

var (
	// ErrMalformedRecord is returned for an OBJ line that cannot be parsed,
	// including face indices that point outside the data read so far.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrUnsupportedFormat is returned by Load for unknown file extensions.
	ErrUnsupportedFormat = errors.New("unsupported model format")
)

// Load reads a model file, choosing the parser by extension: .obj, .glb or
// .gltf.
func Load(path string) (*Mesh, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		return LoadOBJ(path)
	case ".glb", ".gltf":
		return LoadGLB(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// LoadOBJ reads a Wavefront OBJ file.
func LoadOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()

	mesh, err := ParseOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	mesh.Name = filepath.Base(path)
	return mesh, nil
}

// ParseOBJ reads OBJ records from r.
//
// It understands v, vt, vn and f. A v record may carry a nonzero weight w
// (default 1), which is divided into x, y and z. Face corners are v, v/vt,
// v//vn or v/vt/vn with 1-based indices; a negative index counts back from
// the last record of its kind read so far. Faces with more than three
// corners are split into a fan. Other records, such as
// o, g, s, usemtl and mtllib, and comments are skipped.
func ParseOBJ(r io.Reader) (*Mesh, error) {
	mesh := NewMesh("")
	scanner := bufio.NewScanner(r)

	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		var err error
		switch fields[0] {
		case "v":
			err = parseVertex(mesh, fields[1:])
		case "vt":
			err = parseTexCoord(mesh, fields[1:])
		case "vn":
			err = parseNormal(mesh, fields[1:])
		case "f":
			err = parseFace(mesh, fields[1:])
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}

	mesh.CalculateBounds()
	return mesh, nil
}

func parseFloats(args []string, minN, maxN int, record string) ([]float64, error) {
	if len(args) < minN || len(args) > maxN {
		return nil, fmt.Errorf("%w: %s wants %d to %d values, got %d", ErrMalformedRecord, record, minN, maxN, len(args))
	}
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformedRecord, record, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseVertex(mesh *Mesh, args []string) error {
	v, err := parseFloats(args, 3, 4, "v")
	if err != nil {
		return err
	}
	p := math3d.V4(v[0], v[1], v[2], 1)
	if len(v) == 4 {
		// Positions are stored with W = 1.
		w := v[3]
		if w == 0 {
			return fmt.Errorf("%w: v has weight 0", ErrMalformedRecord)
		}
		p = math3d.V4(v[0]/w, v[1]/w, v[2]/w, 1)
	}
	mesh.Positions = append(mesh.Positions, p)
	return nil
}

func parseTexCoord(mesh *Mesh, args []string) error {
	v, err := parseFloats(args, 1, 3, "vt")
	if err != nil {
		return err
	}
	// OBJ puts v = 0 at the bottom of the image; textures index rows from
	// the top.
	uv := math3d.V2(v[0], 1)
	if len(v) > 1 {
		uv.Y = 1 - v[1]
	}
	mesh.UVs = append(mesh.UVs, uv)
	return nil
}

func parseNormal(mesh *Mesh, args []string) error {
	v, err := parseFloats(args, 3, 3, "vn")
	if err != nil {
		return err
	}
	mesh.Normals = append(mesh.Normals, math3d.V3(v[0], v[1], v[2]))
	return nil
}

func parseFace(mesh *Mesh, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("%w: f wants at least 3 corners, got %d", ErrMalformedRecord, len(args))
	}

	corners := make([]scene.Index, len(args))
	for i, a := range args {
		idx, err := parseCorner(mesh, a)
		if err != nil {
			return err
		}
		corners[i] = idx
	}

	for i := 1; i+1 < len(corners); i++ {
		mesh.Indices = append(mesh.Indices, corners[0], corners[i], corners[i+1])
	}
	return nil
}

// parseCorner resolves one v/vt/vn face corner to zero-based indices.
func parseCorner(mesh *Mesh, s string) (scene.Index, error) {
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return scene.Index{}, fmt.Errorf("%w: face corner %q", ErrMalformedRecord, s)
	}

	idx := scene.Index{Texture: -1, Normal: -1}
	var err error
	if idx.Vertex, err = resolveIndex(parts[0], len(mesh.Positions), "vertex"); err != nil {
		return idx, err
	}
	if len(parts) > 1 && parts[1] != "" {
		if idx.Texture, err = resolveIndex(parts[1], len(mesh.UVs), "texture"); err != nil {
			return idx, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if idx.Normal, err = resolveIndex(parts[2], len(mesh.Normals), "normal"); err != nil {
			return idx, err
		}
	}
	return idx, nil
}

// resolveIndex turns a 1-based or negative OBJ index into a zero-based one
// for an array of count elements.
func resolveIndex(s string, count int, kind string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s index %q", ErrMalformedRecord, kind, s)
	}
	i := n - 1
	if n < 0 {
		i = count + n
	}
	if n == 0 || i < 0 || i >= count {
		return 0, fmt.Errorf("%w: %s index %d out of range (have %d)", ErrMalformedRecord, kind, n, count)
	}
	return i, nil
}
