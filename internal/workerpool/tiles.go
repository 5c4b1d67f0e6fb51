package workerpool

import "image"

// DefaultTileSize is the edge length of a square tile in pixels.
const DefaultTileSize = 64

// Tiles splits bounds into a row-major grid of disjoint tiles of the given
// size. Edge tiles are cut to fit. A size of 0 or less uses DefaultTileSize.
func Tiles(bounds image.Rectangle, size int) []image.Rectangle {
	if bounds.Empty() {
		return nil
	}
	if size <= 0 {
		size = DefaultTileSize
	}

	tilesX := (bounds.Dx() + size - 1) / size
	tilesY := (bounds.Dy() + size - 1) / size

	tiles := make([]image.Rectangle, 0, tilesX*tilesY)
	for ty := range tilesY {
		for tx := range tilesX {
			x := bounds.Min.X + tx*size
			y := bounds.Min.Y + ty*size
			tiles = append(tiles, image.Rect(x, y, x+size, y+size).Intersect(bounds))
		}
	}
	return tiles
}
