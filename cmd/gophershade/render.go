package main

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"GopherShade/internal/logger"
	"GopherShade/internal/renderer"
	"GopherShade/internal/scene"
	"GopherShade/internal/shading"
	"GopherShade/internal/texture"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	renderScene    string
	renderOut      string
	renderWidth    int
	renderHeight   int
	renderMode     string
	renderWorkers  int
	renderTileSize int
	renderNoCull   bool
)

// renderCmd rasterizes a scene to a PNG in software
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a scene to a PNG with the software rasterizer",
	Long: `Rasterizes a scene file (or the built-in scene) on the CPU. The
framebuffer is split into tiles that are shaded concurrently.

Example:
  gophershade render --scene scene.yaml --out frame.png --mode unlit`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	defaults := renderer.DefaultConfig()
	renderCmd.Flags().StringVar(&renderScene, "scene", "", "Scene file (default: built-in scene)")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "frame.png", "Output PNG path")
	renderCmd.Flags().IntVar(&renderWidth, "width", 0, "Image width (default: scene width)")
	renderCmd.Flags().IntVar(&renderHeight, "height", 0, "Image height (default: scene height)")
	renderCmd.Flags().StringVar(&renderMode, "mode", "", "Force every object to lit or unlit")
	renderCmd.Flags().IntVar(&renderWorkers, "workers", defaults.Workers, "Concurrent tile workers")
	renderCmd.Flags().IntVar(&renderTileSize, "tile-size", defaults.TileSize, "Tile edge in pixels")
	renderCmd.Flags().BoolVar(&renderNoCull, "no-cull", false, "Disable back-face culling")
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var mode shading.Mode
	if renderMode != "" {
		var err error
		if mode, err = shading.ParseMode(renderMode); err != nil {
			return err
		}
	}

	file, baseDir, err := loadSceneFile(renderScene)
	if err != nil {
		return err
	}

	textures := texture.NewManager(texture.DefaultLoadOptions())
	defer textures.Clear()

	s, err := scene.Build(ctx, file, baseDir, textures)
	if err != nil {
		return err
	}

	if renderMode != "" {
		for _, model := range s.Models {
			model.Mode = mode
		}
	}

	width, height := file.Size()
	if renderWidth > 0 {
		width = renderWidth
	}
	if renderHeight > 0 {
		height = renderHeight
	}
	s.Camera.SetViewport(width, height)

	config := renderer.DefaultConfig()
	config.Workers = renderWorkers
	config.TileSize = renderTileSize
	config.CullBackFaces = !renderNoCull

	rast := renderer.NewRasterizer(config)
	defer rast.Close()

	fb := renderer.NewFramebuffer(width, height)
	stats, err := rast.Render(ctx, s, fb)
	if err != nil {
		return err
	}

	if err := writePNG(renderOut, fb); err != nil {
		return err
	}

	logger.Log.Info("Rendered scene",
		zap.String("out", renderOut),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("models", stats.Models),
		zap.Int("triangles", stats.Triangles),
		zap.Int("fragments", stats.Fragments),
		zap.Duration("duration", stats.Duration))
	textures.LogStats()
	return nil
}

// loadSceneFile returns the parsed scene and the directory its asset paths
// are relative to.
func loadSceneFile(path string) (*scene.File, string, error) {
	if path == "" {
		file, err := scene.Default()
		return file, "", err
	}
	file, err := scene.LoadFile(path)
	if err != nil {
		return nil, "", err
	}
	return file, filepath.Dir(path), nil
}

func writePNG(path string, fb *renderer.Framebuffer) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, fb.ToImage()); err != nil {
		out.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return out.Close()
}
