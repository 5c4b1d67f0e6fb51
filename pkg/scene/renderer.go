package scene

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/taigrr/modelviewer/internal/workerpool"
	"github.com/taigrr/modelviewer/pkg/math3d"
	"github.com/taigrr/modelviewer/pkg/render"
)

// Partition selects how a frame is split into pool tasks.
type Partition int

const (
	// PartitionTiles submits one task per screen tile. Each task draws every
	// candidate triangle overlapping its tile, confined to the tile.
	PartitionTiles Partition = iota
	// PartitionTriangles submits one task per candidate triangle.
	PartitionTriangles
)

// DrawMode selects filled or outlined triangles.
type DrawMode int

const (
	ModeSolid DrawMode = iota
	ModeWireframe
)

// Shading selects how solid triangles are colored.
type Shading int

const (
	ShadingPhong Shading = iota
	ShadingLambert
	ShadingUnlit
)

var (
	partitionNames = []string{"tiles", "triangles"}
	modeNames      = []string{"solid", "wireframe"}
	shadingNames   = []string{"phong", "lambert", "unlit"}
)

func (p Partition) String() string { return enumName(partitionNames, int(p)) }
func (m DrawMode) String() string  { return enumName(modeNames, int(m)) }
func (s Shading) String() string   { return enumName(shadingNames, int(s)) }

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("unknown(%d)", i)
	}
	return names[i]
}

func parseEnum(kind string, names []string, s string) (int, error) {
	for i, name := range names {
		if strings.EqualFold(s, name) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q (want one of %s)", kind, s, strings.Join(names, ", "))
}

// ParsePartition parses "tiles" or "triangles".
func ParsePartition(s string) (Partition, error) {
	i, err := parseEnum("partition", partitionNames, s)
	return Partition(i), err
}

// ParseDrawMode parses "solid" or "wireframe".
func ParseDrawMode(s string) (DrawMode, error) {
	i, err := parseEnum("draw mode", modeNames, s)
	return DrawMode(i), err
}

// ParseShading parses "phong", "lambert" or "unlit".
func ParseShading(s string) (Shading, error) {
	i, err := parseEnum("shading", shadingNames, s)
	return Shading(i), err
}

// Executor runs closures concurrently. Wait blocks until every submitted
// closure has returned. *workerpool.Pool implements it.
type Executor interface {
	Submit(task func()) error
	Wait() error
}

// Options configures a Renderer.
type Options struct {
	Background    render.Color
	Mode          DrawMode
	Shading       Shading
	Partition     Partition
	TileSize      int
	CullBackFaces bool

	// Logger receives frame failures at Warn and per-frame stats at Debug.
	// nil disables logging.
	Logger *zap.Logger
}

// DefaultOptions returns solid Phong shading over black, tiled, with
// back-face culling.
func DefaultOptions() Options {
	return Options{
		Background:    render.ColorBlack,
		Mode:          ModeSolid,
		Shading:       ShadingPhong,
		Partition:     PartitionTiles,
		TileSize:      workerpool.DefaultTileSize,
		CullBackFaces: true,
	}
}

// FrameStats describes one DrawFrame call.
type FrameStats struct {
	Frame         uint64
	Objects       int
	ObjectsCulled int // outside the view frustum
	Triangles     int
	Culled        int // facing away from the camera
	ClippedAway   int // behind the near plane or off screen
	Submitted     int // triangles handed to the pool
	Tasks         int
	Duration      time.Duration
}

// spanPadding widens a candidate's box by the extra pixels a scanline span
// may cover past the triangle edges.
const spanPadding = 2

// candidate is a triangle that survived culling and clipping.
type candidate struct {
	tri     [3]render.Vertex
	poly    render.Polygon
	bounds  image.Rectangle
	shader  render.Shader
	color   render.Color
	corners [3]int // position indices, for wireframe edge identity
}

// Renderer draws scenes through a rasterizer, spreading the fill over an
// executor.
//
// A Renderer drives one frame at a time and is not safe for concurrent use.
type Renderer struct {
	raster *render.Rasterizer
	exec   Executor
	opts   Options
	log    *zap.Logger

	frame      uint64
	candidates []candidate
	edges      *render.EdgeSet
}

// NewRenderer creates a renderer drawing into raster with tasks run by exec.
func NewRenderer(raster *render.Rasterizer, exec Executor, opts Options) *Renderer {
	if opts.TileSize <= 0 {
		opts.TileSize = workerpool.DefaultTileSize
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{
		raster: raster,
		exec:   exec,
		opts:   opts,
		log:    log,
		edges:  render.NewEdgeSet(),
	}
}

// Options returns the current options.
func (r *Renderer) Options() Options {
	return r.opts
}

// SetMode switches between solid and wireframe drawing.
func (r *Renderer) SetMode(m DrawMode) { r.opts.Mode = m }

// SetShading changes the solid shading model.
func (r *Renderer) SetShading(s Shading) { r.opts.Shading = s }

// SetCullBackFaces turns back-face culling on or off.
func (r *Renderer) SetCullBackFaces(on bool) { r.opts.CullBackFaces = on }

// Rasterizer returns the target rasterizer.
func (r *Renderer) Rasterizer() *render.Rasterizer {
	return r.raster
}

// DrawFrame draws one frame: Begin, the vertex pipeline, culling and
// clipping, the parallel fill with a barrier, then End.
//
// Any failure, including a panic in a fill task, aborts the frame and is
// returned wrapped in ErrFrameAborted. The caller can skip the frame and go
// on with the next one.
func (r *Renderer) DrawFrame(s *Scene, vp *Viewport) (stats FrameStats, err error) {
	start := time.Now()
	r.frame++
	stats.Frame = r.frame

	defer func() {
		if rec := recover(); rec != nil {
			// Let tasks already queued finish before the next Begin.
			_ = r.exec.Wait()
			err = fmt.Errorf("panic: %v", rec)
		}
		stats.Duration = time.Since(start)
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrFrameAborted, err)
			r.log.Warn("frame aborted",
				zap.Uint64("frame", stats.Frame),
				zap.Error(err),
			)
			return
		}
		r.log.Debug("frame drawn",
			zap.Uint64("frame", stats.Frame),
			zap.Int("triangles", stats.Triangles),
			zap.Int("submitted", stats.Submitted),
			zap.Int("tasks", stats.Tasks),
			zap.Duration("duration", stats.Duration),
		)
	}()

	r.raster.Begin(r.opts.Background)

	res, err := s.Render(vp)
	if err != nil {
		return stats, err
	}

	clip := vp.Rect().Intersect(r.raster.Bounds())
	r.collect(&res, clip, &stats)

	if err := r.submit(clip, &stats); err != nil {
		return stats, err
	}
	if err := r.raster.End(); err != nil {
		return stats, err
	}
	return stats, nil
}

// collect fills r.candidates with the triangles left after frustum,
// back-face and clip tests.
func (r *Renderer) collect(res *RenderResult, clip image.Rectangle, stats *FrameStats) {
	r.candidates = r.candidates[:0]

	for _, b := range res.Batches {
		stats.Objects++
		stats.Triangles += b.Count
		if !b.Visible {
			stats.ObjectsCulled++
			continue
		}

		for i := b.First; i < b.First+b.Count; i++ {
			world := res.WorldTriangle(i)
			if r.opts.CullBackFaces && !render.FacesCamera(world, res.Eye) {
				stats.Culled++
				continue
			}

			tri := res.Triangle(i)
			poly, ok := render.ClipTriangle(clip, tri)
			if !ok {
				stats.ClippedAway++
				continue
			}

			base := res.Colors[i]
			r.candidates = append(r.candidates, candidate{
				tri:     tri,
				poly:    poly,
				bounds:  poly.Bounds().Inset(-spanPadding),
				shader:  r.shader(b.Material, base, world),
				color:   base,
				corners: [3]int{res.VertexIndex(i, 0), res.VertexIndex(i, 1), res.VertexIndex(i, 2)},
			})
		}
	}
	stats.Submitted = len(r.candidates)
}

func (r *Renderer) shader(m *render.Material, base render.Color, world [3]math3d.Vec3) render.Shader {
	switch r.opts.Shading {
	case ShadingLambert:
		return render.Flat(render.Lambert(base, world))
	case ShadingUnlit:
		return render.UnlitShader{Material: m, Base: base}
	default:
		return render.PhongShader{Material: m, Base: base}
	}
}

// submit hands the candidates to the executor and waits for all of them.
func (r *Renderer) submit(clip image.Rectangle, stats *FrameStats) error {
	if len(r.candidates) == 0 {
		return nil
	}

	var submitErr error
	switch r.opts.Partition {
	case PartitionTriangles:
		submitErr = r.submitTriangles(stats)
	default:
		submitErr = r.submitTiles(clip, stats)
	}

	// Wait even after a failed submit so no task outlives the frame.
	waitErr := r.exec.Wait()
	return errors.Join(submitErr, waitErr)
}

func (r *Renderer) submitTriangles(stats *FrameStats) error {
	var edges *render.EdgeSet
	if r.opts.Mode == ModeWireframe {
		r.edges.Reset()
		edges = r.edges
	}
	for i := range r.candidates {
		c := &r.candidates[i]
		err := r.exec.Submit(func() {
			r.draw(r.raster, c, edges)
		})
		if err != nil {
			return fmt.Errorf("submit triangle: %w", err)
		}
		stats.Tasks++
	}
	return nil
}

func (r *Renderer) submitTiles(clip image.Rectangle, stats *FrameStats) error {
	for _, tile := range workerpool.Tiles(clip, r.opts.TileSize) {
		var hits []*candidate
		for i := range r.candidates {
			if r.candidates[i].bounds.Overlaps(tile) {
				hits = append(hits, &r.candidates[i])
			}
		}
		if len(hits) == 0 {
			continue
		}

		region := r.raster.Region(tile)
		err := r.exec.Submit(func() {
			for _, c := range hits {
				// Every tile draws its own part of shared edges, so no
				// edge set here.
				r.draw(region, c, nil)
			}
		})
		if err != nil {
			return fmt.Errorf("submit tile %v: %w", tile, err)
		}
		stats.Tasks++
	}
	return nil
}

// draw rasterizes one candidate. In wireframe mode a non-nil edges set
// keeps shared edges from being drawn twice.
func (r *Renderer) draw(raster *render.Rasterizer, c *candidate, edges *render.EdgeSet) {
	if r.opts.Mode == ModeWireframe {
		for k := range 3 {
			n := (k + 1) % 3
			if edges != nil && !edges.Claim(render.MakeEdge(c.corners[k], c.corners[n])) {
				continue
			}
			raster.DrawEdge(c.tri[k], c.tri[n], c.color)
		}
		return
	}
	for tri := range c.poly.Triangles() {
		raster.DrawTriangleShaded(tri, c.shader)
	}
}
