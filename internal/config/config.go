// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/taigrr/modelviewer/internal/logger"
	"github.com/taigrr/modelviewer/pkg/math3d"
	"github.com/taigrr/modelviewer/pkg/render"
	"github.com/taigrr/modelviewer/pkg/scene"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all viewer settings.
type Config struct {
	Render   RenderConfig   `yaml:"render"`
	Camera   CameraConfig   `yaml:"camera"`
	Textures TexturesConfig `yaml:"textures"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// RenderConfig holds framebuffer and pipeline settings. Width and Height of
// zero follow the terminal size.
type RenderConfig struct {
	Width         int    `yaml:"width"`
	Height        int    `yaml:"height"`
	FPS           int    `yaml:"fps"`
	Workers       int    `yaml:"workers"` // 0 means GOMAXPROCS
	Partition     string `yaml:"partition"`
	TileSize      int    `yaml:"tile_size"`
	Mode          string `yaml:"mode"`
	Shading       string `yaml:"shading"`
	Background    string `yaml:"background"` // hex, e.g. "#14141e"
	CullBackfaces bool   `yaml:"cull_backfaces"`
	ShowHUD       bool   `yaml:"show_hud"`
}

// CameraConfig places the camera.
type CameraConfig struct {
	Position   [3]float64 `yaml:"position"`
	Target     [3]float64 `yaml:"target"`
	FOVDegrees float64    `yaml:"fov_degrees"`
	Near       float64    `yaml:"near"`
	Far        float64    `yaml:"far"`
}

// TexturesConfig names optional texture files applied to the model.
type TexturesConfig struct {
	Diffuse  string `yaml:"diffuse"`
	Normal   string `yaml:"normal"`
	Specular string `yaml:"specular"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			FPS:           30,
			Partition:     scene.PartitionTiles.String(),
			TileSize:      64,
			Mode:          scene.ModeSolid.String(),
			Shading:       scene.ShadingPhong.String(),
			Background:    "#14141e",
			CullBackfaces: true,
			ShowHUD:       true,
		},
		Camera: CameraConfig{
			Position:   [3]float64{0, 0, 3},
			FOVDegrees: 60,
			Near:       0.1,
			Far:        100,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	r := c.Render
	if r.Width < 0 || r.Height < 0 {
		return fmt.Errorf("%w: render size %dx%d", ErrInvalid, r.Width, r.Height)
	}
	if r.FPS <= 0 {
		return fmt.Errorf("%w: render.fps must be positive, got %d", ErrInvalid, r.FPS)
	}
	if r.Workers < 0 {
		return fmt.Errorf("%w: render.workers must not be negative, got %d", ErrInvalid, r.Workers)
	}
	if r.TileSize <= 0 {
		return fmt.Errorf("%w: render.tile_size must be positive, got %d", ErrInvalid, r.TileSize)
	}
	if _, err := scene.ParsePartition(r.Partition); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := scene.ParseDrawMode(r.Mode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := scene.ParseShading(r.Shading); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := c.BackgroundColor(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	cam := c.Camera
	if cam.FOVDegrees <= 0 || cam.FOVDegrees >= 180 {
		return fmt.Errorf("%w: camera.fov_degrees must be in (0, 180), got %v", ErrInvalid, cam.FOVDegrees)
	}
	if cam.Near <= 0 || cam.Far <= cam.Near {
		return fmt.Errorf("%w: camera clip planes near=%v far=%v", ErrInvalid, cam.Near, cam.Far)
	}
	if cam.Position == cam.Target {
		return fmt.Errorf("%w: camera position equals target", ErrInvalid)
	}

	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// BackgroundColor parses the hex background color.
func (c *Config) BackgroundColor() (render.Color, error) {
	col, err := colorful.Hex(c.Render.Background)
	if err != nil {
		return render.Color{}, fmt.Errorf("render.background %q: %w", c.Render.Background, err)
	}
	r, g, b := col.RGB255()
	return render.RGB(r, g, b), nil
}

// RenderOptions converts the render section into renderer options. The
// config must have passed Validate.
func (c *Config) RenderOptions() scene.Options {
	opts := scene.DefaultOptions()
	opts.Partition, _ = scene.ParsePartition(c.Render.Partition)
	opts.Mode, _ = scene.ParseDrawMode(c.Render.Mode)
	opts.Shading, _ = scene.ParseShading(c.Render.Shading)
	opts.Background, _ = c.BackgroundColor()
	opts.TileSize = c.Render.TileSize
	opts.CullBackFaces = c.Render.CullBackfaces
	return opts
}

// NewCamera builds the configured camera for the given aspect ratio.
func (c *Config) NewCamera(aspect float64) scene.Camera {
	cam := c.Camera
	return scene.NewCamera(
		math3d.V3(cam.Position[0], cam.Position[1], cam.Position[2]),
		math3d.V3(cam.Target[0], cam.Target[1], cam.Target[2]),
		cam.FOVDegrees*math.Pi/180,
		aspect,
		cam.Near,
		cam.Far,
	)
}

// LoggerOptions converts the logging section, leaving the console unset.
func (c *Config) LoggerOptions() logger.Options {
	opts := logger.Options{Level: c.Logging.Level}
	if c.Logging.LogFile != "" {
		opts.File = logger.DefaultFileConfig(c.Logging.LogFile)
	}
	return opts
}
