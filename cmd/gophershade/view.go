package main

import (
	"GopherShade/internal/engine"

	"github.com/spf13/cobra"
)

var (
	viewScene  string
	viewWidth  int
	viewHeight int
)

// viewCmd opens the OpenGL viewer
var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Show a scene in an OpenGL window",
	Long: `Opens a window and draws the scene with the GLSL shaders.

Controls:
  W/A/S/D  move        Q/E    down/up       Shift  faster
  Right mouse drag     look around
  Left click           log the model under the cursor
  Esc                  quit

The scene file is reloaded whenever it changes on disk.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return engine.NewViewer(viewWidth, viewHeight, viewScene).Run(cmd.Context())
	},
}

func init() {
	viewCmd.Flags().StringVar(&viewScene, "scene", "", "Scene file (default: built-in scene)")
	viewCmd.Flags().IntVar(&viewWidth, "width", 0, "Window width (default: scene width)")
	viewCmd.Flags().IntVar(&viewHeight, "height", 0, "Window height (default: scene height)")
}
