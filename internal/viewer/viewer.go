// Package viewer runs the interactive model viewer: it turns terminal input
// into spring-damped rotation and zoom and draws one frame per tick.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"go.uber.org/zap"

	"github.com/taigrr/modelviewer/pkg/math3d"
	"github.com/taigrr/modelviewer/pkg/render"
	"github.com/taigrr/modelviewer/pkg/scene"
)

const (
	torqueStrength = 3.0
	torqueDecay    = 0.9
	dragSpeed      = 0.03
	zoomStep       = 0.5
	maxStep        = 0.1 // seconds; longer pauses are not replayed

	// maxAborted consecutive failed frames end the session.
	maxAborted = 30
)

// Screen is the part of the terminal the viewer needs on resize.
type Screen interface {
	Erase()
	Resize(width, height int) error
}

// Options configures a Viewer.
type Options struct {
	Scene    *scene.Scene
	Object   scene.ObjectID
	Renderer *scene.Renderer
	Viewport scene.Viewport

	Title string
	FPS   int

	// FixedSize keeps the framebuffer size when the terminal resizes.
	FixedSize bool
	// MinDistance and MaxDistance bound the zoom. Zero values default to
	// the camera's near plane and twenty times the start distance.
	MinDistance, MaxDistance float64

	HUD    *HUD
	Screen Screen
	Logger *zap.Logger
}

type maps struct {
	diffuse  *render.DiffuseMap
	normal   *render.NormalMap
	specular *render.SpecularMap
}

// Viewer owns the interaction state for one model. It is driven from a
// single goroutine.
type Viewer struct {
	scene    *scene.Scene
	object   scene.ObjectID
	renderer *scene.Renderer
	vp       scene.Viewport
	hud      *HUD
	screen   Screen
	log      *zap.Logger
	fps      int
	fixed    bool

	rotation *RotationState
	zoom     *Zoom
	home     float64

	torque struct{ pitch, yaw, roll float64 }

	mouseDown    bool
	lastX, lastY int

	textures    maps
	texturesOff bool

	aborted int
	frames  uint64
}

// New creates a viewer. The scene must have an active camera.
func New(opts Options) *Viewer {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	hud := opts.HUD
	if hud == nil {
		hud = NewHUD(opts.Title, opts.Scene.TriangleCount())
	}

	cam := opts.Scene.ActiveCamera()
	home := cam.Distance()
	near, _ := cam.ClipPlanes()
	lo, hi := opts.MinDistance, opts.MaxDistance
	if lo <= 0 {
		lo = near
	}
	if hi <= 0 {
		hi = home * 20
	}

	o := opts.Scene.Object(opts.Object)
	return &Viewer{
		scene:    opts.Scene,
		object:   opts.Object,
		renderer: opts.Renderer,
		vp:       opts.Viewport,
		hud:      hud,
		screen:   opts.Screen,
		log:      log,
		fps:      opts.FPS,
		fixed:    opts.FixedSize,
		rotation: NewRotationState(opts.FPS),
		zoom:     NewZoom(opts.FPS, home, lo, hi),
		home:     home,
		textures: maps{o.Diffuse, o.NormalMap, o.Specular},
	}
}

// HUD returns the status overlay.
func (v *Viewer) HUD() *HUD { return v.hud }

// Rotation returns the rotation state.
func (v *Viewer) Rotation() *RotationState { return v.rotation }

// Zoom returns the zoom state.
func (v *Viewer) Zoom() *Zoom { return v.zoom }

// Viewport returns the viewport frames are drawn into.
func (v *Viewer) Viewport() *scene.Viewport { return &v.vp }

// HandleEvent applies one terminal event. It reports whether the viewer
// should quit.
func (v *Viewer) HandleEvent(ev uv.Event) (quit bool) {
	switch ev := ev.(type) {
	case uv.WindowSizeEvent:
		v.resize(ev.Width, ev.Height)

	case uv.KeyPressEvent:
		return v.keyPress(ev)

	case uv.KeyReleaseEvent:
		switch {
		case ev.MatchString("w", "up", "s", "down"):
			v.torque.pitch = 0
		case ev.MatchString("a", "left", "d", "right"):
			v.torque.yaw = 0
		case ev.MatchString("q", "e"):
			v.torque.roll = 0
		}

	case uv.MouseClickEvent:
		v.mouseDown = true
		v.lastX, v.lastY = ev.X, ev.Y

	case uv.MouseReleaseEvent:
		v.mouseDown = false

	case uv.MouseMotionEvent:
		if v.mouseDown {
			dx, dy := ev.X-v.lastX, ev.Y-v.lastY
			v.rotation.ApplyImpulse(float64(dy)*dragSpeed, float64(dx)*dragSpeed, 0)
			v.lastX, v.lastY = ev.X, ev.Y
		}

	case uv.MouseWheelEvent:
		switch ev.Button {
		case uv.MouseWheelUp:
			v.zoom.Add(-zoomStep)
		case uv.MouseWheelDown:
			v.zoom.Add(zoomStep)
		}
	}
	return false
}

func (v *Viewer) keyPress(ev uv.KeyPressEvent) bool {
	switch {
	case ev.MatchString("esc", "ctrl+c"):
		return true
	case ev.MatchString("w", "up"):
		v.torque.pitch = -torqueStrength
	case ev.MatchString("s", "down"):
		v.torque.pitch = torqueStrength
	case ev.MatchString("a", "left"):
		v.torque.yaw = -torqueStrength
	case ev.MatchString("d", "right"):
		v.torque.yaw = torqueStrength
	case ev.MatchString("q"):
		v.torque.roll = -torqueStrength
	case ev.MatchString("e"):
		v.torque.roll = torqueStrength
	case ev.MatchString("space"):
		v.rotation.ApplyImpulse(
			(rand.Float64()-0.5)*1.5,
			(rand.Float64()-0.5)*1.5,
			(rand.Float64()-0.5)*1.5,
		)
	case ev.MatchString("r"):
		v.rotation.Reset()
		v.zoom.Jump(v.home)
		v.torque.pitch, v.torque.yaw, v.torque.roll = 0, 0, 0
	case ev.Text == "+" || ev.MatchString("="):
		v.zoom.Add(-zoomStep)
	case ev.MatchString("-", "_"):
		v.zoom.Add(zoomStep)
	case ev.MatchString("x"):
		if v.renderer.Options().Mode == scene.ModeWireframe {
			v.renderer.SetMode(scene.ModeSolid)
		} else {
			v.renderer.SetMode(scene.ModeWireframe)
		}
	case ev.MatchString("l"):
		v.renderer.SetShading((v.renderer.Options().Shading + 1) % (scene.ShadingUnlit + 1))
	case ev.MatchString("c"):
		v.renderer.SetCullBackFaces(!v.renderer.Options().CullBackFaces)
	case ev.MatchString("t"):
		v.toggleTextures()
	case ev.MatchString("?", "shift+/"):
		v.hud.Visible = !v.hud.Visible
	}
	return false
}

func (v *Viewer) toggleTextures() {
	o := v.scene.Object(v.object)
	v.texturesOff = !v.texturesOff
	if v.texturesOff {
		o.SetTextures(nil, nil, nil)
		return
	}
	o.SetTextures(v.textures.diffuse, v.textures.normal, v.textures.specular)
}

// resize follows a terminal of cols x rows cells.
func (v *Viewer) resize(cols, rows int) {
	if v.screen != nil {
		v.screen.Erase()
		if err := v.screen.Resize(cols, rows); err != nil {
			v.log.Warn("resize terminal", zap.Error(err))
		}
	}
	if v.fixed {
		return
	}
	w, h := render.FramebufferSize(cols, rows)
	if w <= 0 || h <= 0 {
		return
	}
	v.renderer.Rasterizer().Resize(w, h)
	v.vp.SetDimensions(w, h)
	v.scene.ActiveCamera().SetAspectRatio(v.vp.AspectRatio())
	v.log.Debug("resized", zap.Int("width", w), zap.Int("height", h))
}

// Step advances the motion by dt seconds of held-key torque and one spring
// step, then moves the object and camera.
func (v *Viewer) Step(dt float64) {
	dt = min(dt, maxStep)
	v.rotation.ApplyImpulse(v.torque.pitch*dt, v.torque.yaw*dt, v.torque.roll*dt)
	// Key releases are not reported by every terminal, so held torque fades.
	v.torque.pitch *= torqueDecay
	v.torque.yaw *= torqueDecay
	v.torque.roll *= torqueDecay

	v.rotation.Update()
	v.zoom.Update()

	v.scene.Object(v.object).SetRotation(math3d.V3(
		v.rotation.Pitch.Position,
		v.rotation.Yaw.Position,
		v.rotation.Roll.Position,
	))
	v.scene.ActiveCamera().SetDistance(v.zoom.Distance)
}

// Frame draws one frame. An aborted frame is skipped; only a long run of
// them is returned as an error.
func (v *Viewer) Frame(now time.Time) error {
	stats, err := v.renderer.DrawFrame(v.scene, &v.vp)
	if err != nil {
		if !errors.Is(err, scene.ErrFrameAborted) {
			return err
		}
		v.aborted++
		if v.aborted >= maxAborted {
			return fmt.Errorf("%d frames in a row failed: %w", v.aborted, err)
		}
	} else {
		v.aborted = 0
		v.frames++
	}
	v.hud.Tick(now)
	v.hud.Update(v.renderer.Options(), stats, v.aborted)
	return nil
}

// Run handles events and draws at the configured frame rate until ctx ends,
// the event channel closes, or the user quits.
func (v *Viewer) Run(ctx context.Context, events <-chan uv.Event) error {
	ticker := time.NewTicker(time.Second / time.Duration(v.fps))
	defer ticker.Stop()

	v.log.Info("viewer started", zap.Int("fps", v.fps), zap.Int("triangles", v.scene.TriangleCount()))
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if v.HandleEvent(ev) {
				v.log.Info("viewer stopped", zap.Uint64("frames", v.frames))
				return nil
			}
		case now := <-ticker.C:
			v.Step(now.Sub(last).Seconds())
			last = now
			if err := v.Frame(now); err != nil {
				return err
			}
		}
	}
}
