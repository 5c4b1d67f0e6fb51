package viewer

import (
	"fmt"
	"strings"
	"time"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/modelviewer/pkg/scene"
)

// ANSI styling for the status line.
const (
	reset   = "\x1b[0m"
	bold    = "\x1b[1m"
	bgBlack = "\x1b[40m"
	fgGreen = "\x1b[92m"
	fgRed   = "\x1b[91m"
)

// HUD is a one-line status overlay: frame rate, model name, triangle count
// and the current draw settings. It implements uv.Drawable.
type HUD struct {
	Visible bool

	filename  string
	triangles int

	fps       float64
	fpsFrames int
	fpsTime   time.Time

	mode    scene.DrawMode
	shading scene.Shading
	cull    bool
	stats   scene.FrameStats
	aborted int
}

// NewHUD creates a visible HUD for a model.
func NewHUD(filename string, triangles int) *HUD {
	return &HUD{
		Visible:   true,
		filename:  filename,
		triangles: triangles,
		fpsTime:   time.Now(),
	}
}

// Tick counts one presented frame at now and refreshes the frame rate
// about once per second.
func (h *HUD) Tick(now time.Time) {
	h.fpsFrames++
	elapsed := now.Sub(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = now
	}
}

// FPS returns the last measured frame rate.
func (h *HUD) FPS() float64 { return h.fps }

// Update records the renderer settings and the last frame's statistics.
func (h *HUD) Update(opts scene.Options, stats scene.FrameStats, aborted int) {
	h.mode = opts.Mode
	h.shading = opts.Shading
	h.cull = opts.CullBackFaces
	h.stats = stats
	h.aborted = aborted
}

// Line returns the status text without styling.
func (h *HUD) Line() string {
	var b strings.Builder
	fmt.Fprintf(&b, " %.0f FPS │ %s │ %d tris", h.fps, h.filename, h.triangles)
	if h.stats.Submitted > 0 || h.stats.Culled > 0 {
		fmt.Fprintf(&b, " (%d drawn)", h.stats.Submitted)
	}
	fmt.Fprintf(&b, " │ %s", h.mode)
	if h.mode == scene.ModeSolid {
		fmt.Fprintf(&b, "/%s", h.shading)
	}
	if h.cull {
		b.WriteString(" │ cull")
	}
	if h.aborted > 0 {
		fmt.Fprintf(&b, " │ %d dropped", h.aborted)
	}
	b.WriteString(" ")
	return b.String()
}

// Draw paints the status line over the first row of area.
func (h *HUD) Draw(scr uv.Screen, area uv.Rectangle) {
	if !h.Visible || area.Dy() < 1 {
		return
	}
	color := fgGreen
	if h.aborted > 0 {
		color = fgRed
	}
	text := bgBlack + bold + color + h.Line() + reset
	row := uv.Rect(area.Min.X, area.Min.Y, area.Dx(), 1)
	uv.NewStyledString(text).Draw(scr, row)
}

// Help lists the key bindings.
const Help = `Controls:
  Mouse drag    rotate the model
  Scroll, +/-   zoom in and out
  W/S, A/D      pitch and yaw
  Q/E           roll
  Space         random spin
  R             reset the view
  X             toggle wireframe
  L             cycle shading (phong, lambert, unlit)
  T             toggle textures
  C             toggle back-face culling
  ?             toggle the status line
  Esc, Ctrl+C   quit`
