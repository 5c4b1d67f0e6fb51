package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	uv "github.com/charmbracelet/ultraviolet"
	"go.uber.org/zap"

	"github.com/taigrr/modelviewer/internal/config"
	"github.com/taigrr/modelviewer/internal/logger"
	"github.com/taigrr/modelviewer/internal/viewer"
	"github.com/taigrr/modelviewer/internal/workerpool"
	"github.com/taigrr/modelviewer/pkg/models"
	"github.com/taigrr/modelviewer/pkg/render"
	"github.com/taigrr/modelviewer/pkg/scene"
)

// Snapshot size when the config leaves it to the terminal.
const (
	snapshotWidth  = 320
	snapshotHeight = 180
)

// loadScene reads the model and textures and places them in a scene with
// the configured camera.
func loadScene(ctx context.Context, cfg *config.Config, path string, aspect float64) (*scene.Scene, scene.ObjectID, error) {
	mesh, err := models.Load(path)
	if err != nil {
		return nil, 0, fmt.Errorf("load model: %w", err)
	}
	mesh.FitUnitCube()
	logger.Log.Info("model loaded",
		zap.String("path", path),
		zap.Int("vertices", mesh.VertexCount()),
		zap.Int("triangles", mesh.TriangleCount()),
		zap.Int("materials", len(mesh.Materials)),
	)

	textures, err := models.LoadTextureSet(ctx, models.TexturePaths{
		Diffuse:  cfg.Textures.Diffuse,
		Normal:   cfg.Textures.Normal,
		Specular: cfg.Textures.Specular,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("load textures: %w", err)
	}

	obj := mesh.Object()
	if !textures.Empty() {
		// A configured diffuse map replaces an embedded one; otherwise the
		// embedded one stays.
		if textures.Diffuse == nil {
			textures.Diffuse = obj.Diffuse
		}
		textures.Apply(&obj)
		logger.Log.Info("textures loaded",
			zap.Bool("diffuse", textures.Diffuse != nil),
			zap.Bool("normal", textures.Normal != nil),
			zap.Bool("specular", textures.Specular != nil),
		)
	}
	if len(mesh.UVs) == 0 && obj.Diffuse != nil {
		logger.Log.Warn("model has no texture coordinates; textures sample one texel")
	}

	s := scene.New()
	id := s.AddObject(obj)
	s.AddCamera(cfg.NewCamera(aspect))
	return s, id, nil
}

// runSnapshot renders one frame headlessly and writes it as a PNG.
func runSnapshot(ctx context.Context, cfg *config.Config, modelPath, out string) error {
	logOpts := cfg.LoggerOptions()
	logOpts.Console = os.Stderr
	if err := logger.Init(logOpts); err != nil {
		return err
	}
	defer logger.Sync()

	w, h := cfg.Render.Width, cfg.Render.Height
	if w == 0 || h == 0 {
		w, h = snapshotWidth, snapshotHeight
	}
	vp := scene.NewViewport(0, 0, w, h)

	s, _, err := loadScene(ctx, cfg, modelPath, vp.AspectRatio())
	if err != nil {
		return err
	}

	pool := workerpool.New(cfg.Render.Workers)
	defer pool.Close()

	opts := cfg.RenderOptions()
	opts.Logger = logger.Log
	fb := render.NewFramebuffer(w, h)
	r := scene.NewRenderer(render.NewRasterizer(fb), pool, opts)

	stats, err := r.DrawFrame(s, &vp)
	if err != nil {
		return err
	}
	if err := fb.SavePNG(out); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	logger.Log.Info("snapshot written",
		zap.String("path", out),
		zap.Int("width", w),
		zap.Int("height", h),
		zap.Int("submitted", stats.Submitted),
		zap.Duration("duration", stats.Duration),
	)
	return nil
}

// runInteractive takes over the terminal until the user quits. Logs go
// only to the configured file while the screen is in use.
func runInteractive(ctx context.Context, cfg *config.Config, modelPath string) error {
	if err := logger.Init(cfg.LoggerOptions()); err != nil {
		return err
	}
	defer logger.Sync()

	term := uv.DefaultTerminal()
	cols, rows, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	w, h := render.FramebufferSize(cols, rows)
	fixed := cfg.Render.Width > 0 && cfg.Render.Height > 0
	if fixed {
		w, h = cfg.Render.Width, cfg.Render.Height
	}
	vp := scene.NewViewport(0, 0, w, h)

	s, id, err := loadScene(ctx, cfg, modelPath, vp.AspectRatio())
	if err != nil {
		return err
	}

	pool := workerpool.New(cfg.Render.Workers)
	defer pool.Close()

	opts := cfg.RenderOptions()
	opts.Logger = logger.Log
	raster := render.NewRasterizer(render.NewFramebuffer(w, h))
	r := scene.NewRenderer(raster, pool, opts)

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	if err := term.Resize(cols, rows); err != nil {
		logger.Log.Warn("resize terminal", zap.Error(err))
	}
	// Any-event mouse tracking with SGR coordinates.
	_, _ = term.WriteString("\x1b[?1003h\x1b[?1006h")
	_ = term.Flush()

	defer func() {
		_, _ = term.WriteString("\x1b[?1003l\x1b[?1006l")
		_ = term.Flush()
		term.ExitAltScreen()
		term.ShowCursor()
		if err := term.Shutdown(context.Background()); err != nil {
			logger.Log.Warn("shutdown terminal", zap.Error(err))
		}
	}()

	v := viewer.New(viewer.Options{
		Scene:     s,
		Object:    id,
		Renderer:  r,
		Viewport:  vp,
		Title:     filepath.Base(modelPath),
		FPS:       cfg.Render.FPS,
		FixedSize: fixed,
		Screen:    term,
		Logger:    logger.Log,
	})
	v.HUD().Visible = cfg.Render.ShowHUD

	presenter := render.NewTerminalPresenter(term)
	presenter.SetOverlay(v.HUD())
	raster.SetPresenter(presenter)

	return v.Run(ctx, term.Events())
}
