package renderer

import (
	"image"
	"time"
)

// RenderStats summarizes one call to Rasterizer.Render.
type RenderStats struct {
	Tiles         int           // Tiles the framebuffer was split into
	Models        int           // Models submitted
	ModelsCulled  int           // Models rejected by the frustum test
	Triangles     int           // Triangles submitted from visible models
	Culled        int           // Triangles dropped: back facing, degenerate, behind the camera or off screen
	Fragments     int           // Fragments that passed the depth test and were shaded
	DepthRejected int           // Fragments that failed the depth test
	Duration      time.Duration // Wall time of the whole render
}

// Tile is a rectangular region of the framebuffer rendered by one task.
type Tile struct {
	ID     int
	Bounds image.Rectangle
}

// NewTileGrid splits a width x height framebuffer into tiles of tileSize
// pixels. Edge tiles are clipped to the framebuffer.
func NewTileGrid(width, height, tileSize int) []Tile {
	if width <= 0 || height <= 0 || tileSize <= 0 {
		return nil
	}

	tilesX := (width + tileSize - 1) / tileSize // Ceiling division
	tilesY := (height + tileSize - 1) / tileSize

	tiles := make([]Tile, 0, tilesX*tilesY)
	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := tileX * tileSize
			y0 := tileY * tileSize
			x1 := min(x0+tileSize, width)
			y1 := min(y0+tileSize, height)
			tiles = append(tiles, Tile{
				ID:     len(tiles),
				Bounds: image.Rect(x0, y0, x1, y1),
			})
		}
	}
	return tiles
}
