package config

import (
	"github.com/spf13/pflag"

	"github.com/taigrr/modelviewer/pkg/math3d"
)

// Flags holds command-line overrides. Only flags the user actually set are
// applied on top of the file configuration.
type Flags struct {
	fs *pflag.FlagSet

	width, height int
	fps, workers  int
	partition     string
	tileSize      int
	mode, shading string
	background    string
	noCull        bool
	noHUD         bool
	fov           float64
	distance      float64
	diffuse       string
	normal        string
	specular      string
	logLevel      string
	logFile       string
	debug         bool
}

// BindFlags registers the override flags on fs.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.IntVar(&f.width, "width", 0, "framebuffer width in pixels (0 follows the terminal)")
	fs.IntVar(&f.height, "height", 0, "framebuffer height in pixels (0 follows the terminal)")
	fs.IntVar(&f.fps, "fps", 0, "target frames per second")
	fs.IntVarP(&f.workers, "workers", "j", 0, "rasterizer worker goroutines (0 uses GOMAXPROCS)")
	fs.StringVar(&f.partition, "partition", "", "work partition: tiles or triangles")
	fs.IntVar(&f.tileSize, "tile-size", 0, "tile edge in pixels for the tiles partition")
	fs.StringVarP(&f.mode, "mode", "m", "", "draw mode: solid or wireframe")
	fs.StringVarP(&f.shading, "shading", "s", "", "shading: phong, lambert or unlit")
	fs.StringVar(&f.background, "background", "", "background color as hex, e.g. #000000")
	fs.BoolVar(&f.noCull, "no-cull", false, "draw back faces")
	fs.BoolVar(&f.noHUD, "no-hud", false, "hide the status line")
	fs.Float64Var(&f.fov, "fov", 0, "vertical field of view in degrees")
	fs.Float64VarP(&f.distance, "distance", "d", 0, "camera distance from the target")
	fs.StringVar(&f.diffuse, "texture", "", "diffuse texture image")
	fs.StringVar(&f.normal, "normal-map", "", "normal map image")
	fs.StringVar(&f.specular, "specular-map", "", "specular map image")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.StringVar(&f.logFile, "log-file", "", "write logs to this file")
	fs.BoolVar(&f.debug, "debug", false, "enable debug logging")
	return f
}

func (f *Flags) changed(name string) bool {
	return f.fs != nil && f.fs.Changed(name)
}

// apply copies every flag the user set into cfg.
func (f *Flags) apply(cfg *Config) {
	if f.changed("width") {
		cfg.Render.Width = f.width
	}
	if f.changed("height") {
		cfg.Render.Height = f.height
	}
	if f.changed("fps") {
		cfg.Render.FPS = f.fps
	}
	if f.changed("workers") {
		cfg.Render.Workers = f.workers
	}
	if f.changed("partition") {
		cfg.Render.Partition = f.partition
	}
	if f.changed("tile-size") {
		cfg.Render.TileSize = f.tileSize
	}
	if f.changed("mode") {
		cfg.Render.Mode = f.mode
	}
	if f.changed("shading") {
		cfg.Render.Shading = f.shading
	}
	if f.changed("background") {
		cfg.Render.Background = f.background
	}
	if f.changed("no-cull") {
		cfg.Render.CullBackfaces = !f.noCull
	}
	if f.changed("no-hud") {
		cfg.Render.ShowHUD = !f.noHUD
	}
	if f.changed("fov") {
		cfg.Camera.FOVDegrees = f.fov
	}
	if f.changed("distance") {
		// Keep the direction from the target, change only the length.
		pos, target := vec(cfg.Camera.Position), vec(cfg.Camera.Target)
		dir := pos.Sub(target).Normalize()
		if dir == math3d.Zero3() {
			dir = math3d.V3(0, 0, 1)
		}
		p := target.Add(dir.Scale(f.distance))
		cfg.Camera.Position = [3]float64{p.X, p.Y, p.Z}
	}
	if f.changed("texture") {
		cfg.Textures.Diffuse = f.diffuse
	}
	if f.changed("normal-map") {
		cfg.Textures.Normal = f.normal
	}
	if f.changed("specular-map") {
		cfg.Textures.Specular = f.specular
	}
	if f.changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if f.changed("log-file") {
		cfg.Logging.LogFile = f.logFile
	}
	if f.debug {
		cfg.Logging.Level = "debug"
	}
}

func vec(a [3]float64) math3d.Vec3 {
	return math3d.V3(a[0], a[1], a[2])
}
