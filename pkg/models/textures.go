package models

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/taigrr/modelviewer/pkg/render"
	"github.com/taigrr/modelviewer/pkg/scene"
)

// TexturePaths names the image files of a texture set. Empty paths are
// skipped.
type TexturePaths struct {
	Diffuse  string
	Normal   string
	Specular string
}

// TextureSet holds the decoded maps of a model. Any of them may be nil.
type TextureSet struct {
	Diffuse  *render.DiffuseMap
	Normal   *render.NormalMap
	Specular *render.SpecularMap
}

// Empty reports whether no map is loaded.
func (s TextureSet) Empty() bool {
	return s.Diffuse == nil && s.Normal == nil && s.Specular == nil
}

// Apply attaches the maps to o.
func (s TextureSet) Apply(o *scene.Object) {
	o.SetTextures(s.Diffuse, s.Normal, s.Specular)
}

// LoadTextureSet decodes the three maps concurrently. The first failure
// cancels the loads that have not started and is returned.
func LoadTextureSet(ctx context.Context, paths TexturePaths) (TextureSet, error) {
	var set TextureSet
	g, ctx := errgroup.WithContext(ctx)

	if paths.Diffuse != "" {
		g.Go(func() error {
			m, err := loadMap(ctx, paths.Diffuse, render.DecodeDiffuseMap)
			set.Diffuse = m
			return err
		})
	}
	if paths.Normal != "" {
		g.Go(func() error {
			m, err := loadMap(ctx, paths.Normal, render.DecodeNormalMap)
			set.Normal = m
			return err
		})
	}
	if paths.Specular != "" {
		g.Go(func() error {
			m, err := loadMap(ctx, paths.Specular, render.DecodeSpecularMap)
			set.Specular = m
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return TextureSet{}, err
	}
	return set, nil
}

func loadMap[T any](ctx context.Context, path string, decode func(io.Reader) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("open texture: %w", err)
	}
	defer f.Close()

	m, err := decode(f)
	if err != nil {
		return zero, fmt.Errorf("texture %s: %w", path, err)
	}
	return m, nil
}
