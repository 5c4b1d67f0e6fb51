package main

import (
	"context"
	"errors"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/taigrr/modelviewer/internal/config"
	"github.com/taigrr/modelviewer/pkg/models"
)

const cubeOBJ = `v -0.5 -0.5  0.5
v  0.5 -0.5  0.5
v  0.5  0.5  0.5
v -0.5  0.5  0.5
v -0.5 -0.5 -0.5
v  0.5 -0.5 -0.5
v  0.5  0.5 -0.5
v -0.5  0.5 -0.5
f 1 2 3 4
f 6 5 8 7
f 5 1 4 8
f 2 6 7 3
f 4 3 7 8
f 5 6 2 1
`

// execute runs the root command with an isolated config directory.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(context.Background())
}

func writeModel(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSnapshot(t *testing.T) {
	model := writeModel(t, "cube.obj", cubeOBJ)
	out := filepath.Join(t.TempDir(), "frame.png")

	err := execute(t, "--snapshot", out, "--width", "64", "--height", "48", "--background", "#000000", "-j", "2", model)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("snapshot is %dx%d, want 64x48", b.Dx(), b.Dy())
	}
	if r, g, b, _ := img.At(32, 24).RGBA(); r == 0 && g == 0 && b == 0 {
		t.Error("model not drawn at the center")
	}
	if r, g, b, _ := img.At(0, 0).RGBA(); r != 0 || g != 0 || b != 0 {
		t.Error("corner is not background")
	}
}

func TestSnapshotWireframe(t *testing.T) {
	model := writeModel(t, "cube.obj", cubeOBJ)
	out := filepath.Join(t.TempDir(), "wire.png")

	if err := execute(t, "-o", out, "--width", "64", "--height", "48", "-m", "wireframe", "--partition", "triangles", model); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
}

func TestCommandErrors(t *testing.T) {
	model := writeModel(t, "cube.obj", cubeOBJ)
	out := filepath.Join(t.TempDir(), "frame.png")

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"unsupported format", []string{"-o", out, writeModel(t, "cube.stl", "solid")}, models.ErrUnsupportedFormat},
		{"malformed model", []string{"-o", out, writeModel(t, "bad.obj", "f 1 2 3\n")}, models.ErrMalformedRecord},
		{"invalid shading", []string{"-o", out, "--shading", "toon", model}, config.ErrInvalid},
		{"missing texture", []string{"-o", out, "--texture", "/nonexistent/wood.png", model}, os.ErrNotExist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := execute(t, tt.args...); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCommandNeedsModel(t *testing.T) {
	if err := execute(t, "--snapshot", "x.png"); err == nil {
		t.Error("command without a model succeeded")
	}
}

func TestSaveConfig(t *testing.T) {
	model := writeModel(t, "cube.obj", cubeOBJ)
	out := filepath.Join(t.TempDir(), "frame.png")
	xdg := t.TempDir()

	cmd := newRootCmd()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	cmd.SetArgs([]string{"--save-config", "--fps", "24", "--width", "32", "--height", "32", "-o", out, model})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}

	cfg, err := config.Load(filepath.Join(xdg, "modelviewer", "config.yaml"), nil)
	if err != nil {
		t.Fatalf("load saved config: %v", err)
	}
	if cfg.Render.FPS != 24 {
		t.Errorf("saved fps = %d, want 24", cfg.Render.FPS)
	}
}
