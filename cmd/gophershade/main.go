package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"GopherShade/internal/logger"

	"github.com/spf13/cobra"
)

var verbose bool

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gophershade",
	Short: "Gamma-correct Phong and unlit shading on the CPU or GPU",
	Long: `gophershade renders scenes with two fragment shaders: a Phong model with
gamma 2.2 and shininess 32, and an unlit texture pass-through.

The render command rasterizes a scene in software and writes a PNG. The view
command opens an OpenGL window running the same shaders as GLSL. The shade
command evaluates a single fragment.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.InitWithLevel(verbose)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	// GLFW and GL calls must happen on the main thread.
	runtime.LockOSThread()

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(shadeCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
