package scene

import (
	"fmt"

	"github.com/taigrr/modelviewer/pkg/math3d"
	"github.com/taigrr/modelviewer/pkg/render"
)

// ObjectID refers to an object owned by a Scene.
type ObjectID int

// CameraID refers to a camera owned by a Scene.
type CameraID int

// Scene owns a flat list of objects and cameras, one of which is active.
// It also owns the buffers Render fills, which are reused every frame.
type Scene struct {
	objects []Object
	cameras []Camera
	active  CameraID

	buf RenderResult
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{active: -1}
}

// AddObject moves o into the scene and returns its handle.
func (s *Scene) AddObject(o Object) ObjectID {
	s.objects = append(s.objects, o)
	return ObjectID(len(s.objects) - 1)
}

// Object returns the object behind id. The pointer is valid until the next
// AddObject.
func (s *Scene) Object(id ObjectID) *Object {
	return &s.objects[id]
}

// ObjectCount returns the number of objects.
func (s *Scene) ObjectCount() int {
	return len(s.objects)
}

// AddCamera moves c into the scene. The first camera added becomes active.
func (s *Scene) AddCamera(c Camera) CameraID {
	s.cameras = append(s.cameras, c)
	id := CameraID(len(s.cameras) - 1)
	if s.active < 0 {
		s.active = id
	}
	return id
}

// Camera returns the camera behind id. The pointer is valid until the next
// AddCamera.
func (s *Scene) Camera(id CameraID) *Camera {
	return &s.cameras[id]
}

// SetActiveCamera selects the camera Render looks through. It panics on an
// unknown id.
func (s *Scene) SetActiveCamera(id CameraID) {
	if id < 0 || int(id) >= len(s.cameras) {
		panic(fmt.Sprintf("scene: camera %d does not exist", id))
	}
	s.active = id
}

// ActiveCamera returns the active camera, or nil when there is none.
func (s *Scene) ActiveCamera() *Camera {
	if s.active < 0 {
		return nil
	}
	return &s.cameras[s.active]
}

// TriangleCount returns the number of triangles over all objects.
func (s *Scene) TriangleCount() int {
	n := 0
	for i := range s.objects {
		n += s.objects[i].TriangleCount()
	}
	return n
}

// Batch is the run of triangles in a RenderResult that came from one object.
type Batch struct {
	Object ObjectID
	First  int // first triangle
	Count  int

	// Material is nil when the object has no texture maps.
	Material *render.Material

	// Visible is false when the object's bounds lie outside the view
	// frustum; its triangles need not be drawn.
	Visible bool
}

// RenderResult is the output of the vertex pipeline. Its slices belong to
// the Scene and are overwritten by the next Render.
type RenderResult struct {
	// Vertices are in screen space: X and Y in pixels, Z the raw depth and
	// W the camera distance.
	Vertices []math3d.Vec4
	World    []math3d.Vec3
	Normals  []math3d.Vec3 // world space
	UVs      []math3d.Vec2

	// Indices address the slices above; every three form a triangle.
	Indices []Index
	// Colors holds one base color per triangle.
	Colors  []render.Color
	Batches []Batch

	// Eye is the camera position in world space.
	Eye math3d.Vec3
}

// TriangleCount returns the number of triangles.
func (r *RenderResult) TriangleCount() int {
	return len(r.Indices) / 3
}

// WorldTriangle returns the world-space corners of triangle i.
func (r *RenderResult) WorldTriangle(i int) [3]math3d.Vec3 {
	idx := r.Indices[i*3 : i*3+3]
	return [3]math3d.Vec3{r.World[idx[0].Vertex], r.World[idx[1].Vertex], r.World[idx[2].Vertex]}
}

// Triangle assembles the pipeline vertices of triangle i. Corners without a
// normal get the face normal; corners without texture coordinates get (0, 0).
func (r *RenderResult) Triangle(i int) [3]render.Vertex {
	var tri [3]render.Vertex
	missingNormal := false
	for k, idx := range r.Indices[i*3 : i*3+3] {
		v := render.Vertex{
			Position: r.Vertices[idx.Vertex],
			World:    r.World[idx.Vertex],
		}
		if idx.Normal >= 0 {
			v.Normal = r.Normals[idx.Normal]
		} else {
			missingNormal = true
		}
		if idx.Texture >= 0 {
			v.UV = r.UVs[idx.Texture]
		}
		tri[k] = v
	}
	if missingNormal {
		n := render.TriangleNormal(r.WorldTriangle(i))
		for k := range tri {
			if r.Indices[i*3+k].Normal < 0 {
				tri[k].Normal = n
			}
		}
	}
	return tri
}

// VertexIndex returns the position index of corner k of triangle i, which
// identifies the corner across triangles.
func (r *RenderResult) VertexIndex(i, k int) int {
	return r.Indices[i*3+k].Vertex
}

func (r *RenderResult) reset() {
	r.Vertices = r.Vertices[:0]
	r.World = r.World[:0]
	r.Normals = r.Normals[:0]
	r.UVs = r.UVs[:0]
	r.Indices = r.Indices[:0]
	r.Colors = r.Colors[:0]
	r.Batches = r.Batches[:0]
}

// Render runs every object through the vertex pipeline for the active
// camera and vp: model matrix to world space, normal matrix for normals,
// then viewport·projection·view and the X/Y divide. Objects whose bounds
// miss the view frustum are still transformed but marked not visible.
//
// It fails with ErrNoActiveCamera before any camera is added and with
// ErrNoGeometry when no object has a triangle.
func (s *Scene) Render(vp *Viewport) (RenderResult, error) {
	cam := s.ActiveCamera()
	if cam == nil {
		return RenderResult{}, ErrNoActiveCamera
	}
	if s.TriangleCount() == 0 {
		return RenderResult{}, ErrNoGeometry
	}

	view, err := cam.ViewMatrix()
	if err != nil {
		return RenderResult{}, fmt.Errorf("view matrix: %w", err)
	}
	projView := cam.ProjectionMatrix().Mul(view)
	screen := vp.Matrix().Mul(projView)
	frustum := render.NewFrustum(projView)

	out := &s.buf
	out.reset()
	out.Eye = cam.Position()

	for id := range s.objects {
		o := &s.objects[id]
		model := o.ModelMatrix()
		normal := o.NormalMatrix()

		vOff, nOff, tOff := len(out.Vertices), len(out.Normals), len(out.UVs)

		for _, v := range o.Vertices {
			world := model.MulVec4(v)
			out.World = append(out.World, world.Vec3())
			out.Vertices = append(out.Vertices, screen.MulVec4(world).DivideXY())
		}
		for _, n := range o.Normals {
			out.Normals = append(out.Normals, normal.MulVec3(n).Normalize())
		}
		out.UVs = append(out.UVs, o.UVs...)

		for _, idx := range o.Indices {
			idx.Vertex += vOff
			if idx.Normal >= 0 {
				idx.Normal += nOff
			}
			if idx.Texture >= 0 {
				idx.Texture += tOff
			}
			out.Indices = append(out.Indices, idx)
		}

		first := len(out.Colors)
		for i := range o.TriangleCount() {
			out.Colors = append(out.Colors, o.faceColor(i))
		}

		out.Batches = append(out.Batches, Batch{
			Object:   ObjectID(id),
			First:    first,
			Count:    o.TriangleCount(),
			Material: o.material(),
			Visible:  frustum.IntersectsAABB(o.WorldBounds()),
		})
	}

	return *out, nil
}
