// cyclops - software 3D renderer
// Renders OBJ, STL and glTF models (or a builtin shape) with perspective
// projection, backface culling and flat shading into an SDL window or an
// image file.
//
// Commands:
//
//	view      - Render once and wait for a key press or window close
//	spin      - Rotate the model by a fixed increment every frame
//	snapshot  - Render headless into .png/.ppm/.webp/.tga/.bmp
//	info      - Print model statistics
//	config    - Write the default configuration
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taigrr/cyclops/internal/config"
	"github.com/taigrr/cyclops/internal/display"
	"github.com/taigrr/cyclops/internal/logger"
	"github.com/taigrr/cyclops/pkg/models"
)

var version = "dev"

// app carries the merged configuration and the raw flag values of one
// invocation.
type app struct {
	cfg *config.Config

	configPath string
	logLevel   string
	logFile    string
	width      int
	height     int
	eye        []float64
	color      []float64
	rotate     []float64
	extent     float64
	cull       bool
	highlight  bool
	mix        bool
	wireframe  bool
	depthSort  bool
	diffuse    float64

	spinX, spinY, spinZ float64
	delay               string
	frames              int

	out   string
	scale int
	force bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := fang.Execute(ctx, newRootCmd(), fang.WithVersion(version))
	stop()
	if err != nil {
		var ie *display.InitError
		if errors.As(err, &ie) {
			logger.Log.Error("display initialization failed", zap.String("op", ie.Op), zap.Error(ie.Err))
		}
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func newRootCmd() *cobra.Command {
	a := &app{}
	builtins := fmt.Sprint(models.BuiltinNames())

	root := &cobra.Command{
		Use:   "cyclops",
		Short: "Software 3D renderer",
		Long: `cyclops - software 3D renderer

Renders a model with perspective projection, backface culling and flat
ambient/Lambert shading using its own line and triangle rasterizer.

Models are .obj, .stl, .gltf or .glb files, or one of the builtins ` + builtins + `.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Path to config file (default: ./"+config.FileName+" or the user config dir)")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&a.logFile, "log-file", "", "Also log to this rotating file")
	pf.IntVar(&a.width, "width", 0, "Frame width in pixels")
	pf.IntVar(&a.height, "height", 0, "Frame height in pixels")
	pf.Float64SliceVar(&a.eye, "eye", nil, "Eye position x,y,z")
	pf.Float64SliceVar(&a.color, "color", nil, "Diffuse coefficients r,g,b for faces without color")
	pf.Float64SliceVar(&a.rotate, "rotate", nil, "Rotate the model by x,y,z degrees before rendering")
	pf.Float64Var(&a.extent, "extent", 0, "Scale the model so its largest dimension is this long (0 keeps file units)")
	pf.BoolVar(&a.cull, "cull", true, "Discard back-facing triangles")
	pf.BoolVar(&a.highlight, "highlight", false, "Mark triangle vertices")
	pf.BoolVar(&a.mix, "mix", false, "Add colors into the framebuffer instead of replacing")
	pf.BoolVar(&a.wireframe, "wireframe", false, "Draw triangle edges only")
	pf.BoolVar(&a.depthSort, "depth-sort", false, "Draw far triangles first")
	pf.Float64Var(&a.diffuse, "diffuse", 0, "Directional light intensity (0 disables)")

	root.AddCommand(
		a.viewCmd(),
		a.spinCmd(),
		a.snapshotCmd(),
		a.infoCmd(),
		a.configCmd(),
	)
	return root
}

func (a *app) viewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view <model>",
		Short: "Render a model once into a window",
		Long:  "Render a model once into a window and wait until a key is pressed or the window is closed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runView(cmd.Context(), args[0])
		},
	}
}

func (a *app) spinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spin <model>",
		Short: "Spin a model in a window",
		Long: `Rotate the model by a fixed increment about each axis every frame until a
key is pressed, the window is closed or --frames frames were shown. The
unrotated model is shown again at the end.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSpin(cmd.Context(), args[0])
		},
	}
	f := cmd.Flags()
	f.Float64Var(&a.spinX, "x", 0, "Degrees per frame about the x axis")
	f.Float64Var(&a.spinY, "y", 0, "Degrees per frame about the y axis")
	f.Float64Var(&a.spinZ, "z", 0, "Degrees per frame about the z axis")
	f.StringVar(&a.delay, "delay", "", "Pause after each frame (e.g. 10ms)")
	f.IntVar(&a.frames, "frames", 0, "Stop after this many frames (0 = until a key press)")
	return cmd
}

func (a *app) snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot <model>",
		Short: "Render a model into an image file",
		Long:  "Render a model headless and save the frame. The format follows the extension of --out: .png, .ppm, .webp, .tga or .bmp.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSnapshot(cmd, args[0])
		},
	}
	cmd.Flags().StringVarP(&a.out, "out", "o", "cyclops.png", "Output image path")
	cmd.Flags().IntVar(&a.scale, "scale", 1, "Integer upscale factor")
	return cmd
}

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <model>",
		Short: "Display model information",
		Long:  "Display vertex and triangle counts, materials and bounds of a model, and how its triangles fare in the configured view.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInfo(cmd, args[0])
		},
	}
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Long:  "Write the default configuration to path, or to " + config.FileName + " in the user config directory.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return a.runConfigInit(cmd, path)
		},
	}
	initCmd.Flags().BoolVar(&a.force, "force", false, "Overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}
