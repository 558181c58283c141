package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taigrr/cyclops/internal/config"
	"github.com/taigrr/cyclops/internal/display"
	"github.com/taigrr/cyclops/internal/logger"
	"github.com/taigrr/cyclops/pkg/math3d"
	"github.com/taigrr/cyclops/pkg/models"
	"github.com/taigrr/cyclops/pkg/render"
)

// pollInterval is how often view checks the event queue.
const pollInterval = 16 * time.Millisecond

// setup loads the configuration, applies explicitly set flags over it and
// initializes logging.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := a.applyFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func vec3Flag(name string, v []float64) ([3]float64, error) {
	if len(v) != 3 {
		return [3]float64{}, fmt.Errorf("--%s needs three comma-separated values, got %d", name, len(v))
	}
	return [3]float64{v[0], v[1], v[2]}, nil
}

// applyFlags overrides config values with the flags given on the command
// line. Unset flags leave the file and default values alone.
func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	var err error

	if changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if changed("log-file") {
		cfg.Logging.LogFile = a.logFile
	}
	if changed("width") {
		cfg.Display.Width = a.width
	}
	if changed("height") {
		cfg.Display.Height = a.height
	}
	if changed("eye") {
		if cfg.Camera.Eye, err = vec3Flag("eye", a.eye); err != nil {
			return err
		}
	}
	if changed("color") {
		if cfg.Model.Color, err = vec3Flag("color", a.color); err != nil {
			return err
		}
	}
	if changed("rotate") {
		if _, err = vec3Flag("rotate", a.rotate); err != nil {
			return err
		}
	}
	if changed("extent") {
		cfg.Model.Extent = a.extent
	}
	if changed("cull") {
		cfg.Render.Cull = a.cull
	}
	if changed("highlight") {
		cfg.Render.HighlightVertices = a.highlight
	}
	if changed("mix") {
		cfg.Render.Mix = a.mix
	}
	if changed("wireframe") {
		cfg.Render.Wireframe = a.wireframe
	}
	if changed("depth-sort") {
		cfg.Render.DepthSort = a.depthSort
	}
	if changed("diffuse") {
		cfg.Render.LightIntensity = [3]float64{a.diffuse, a.diffuse, a.diffuse}
	}

	if changed("x") {
		cfg.Spin.XDeg = a.spinX
	}
	if changed("y") {
		cfg.Spin.YDeg = a.spinY
	}
	if changed("z") {
		cfg.Spin.ZDeg = a.spinZ
	}
	if changed("delay") {
		d, err := time.ParseDuration(a.delay)
		if err != nil {
			return fmt.Errorf("--delay: %w", err)
		}
		cfg.Spin.Delay = d
	}
	if changed("frames") {
		cfg.Spin.MaxFrames = a.frames
	}
	return nil
}

// scene is a loaded model flattened into render matrices.
type scene struct {
	mesh   *models.Mesh
	faces  *math3d.Matrix
	colors *math3d.Matrix
}

// loadScene loads a model or builtin, fits it to the configured extent,
// applies --rotate and builds the faces and colors matrices.
func (a *app) loadScene(source string) (*scene, error) {
	mesh, err := models.Load(source)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	if a.cfg.Model.Extent > 0 {
		mesh.Fit(a.cfg.Model.Extent)
	}
	if len(a.rotate) == 3 {
		mesh.Transform(math3d.Spin(a.rotate[0], a.rotate[1], a.rotate[2]))
	}
	faces, colors, err := mesh.ToMatrices(a.cfg.ModelColor())
	if err != nil {
		return nil, err
	}
	logger.Log.Debug("model loaded",
		zap.String("source", source),
		zap.Int("vertices", mesh.VertexCount()),
		zap.Int("triangles", mesh.TriangleCount()),
	)
	return &scene{mesh: mesh, faces: faces, colors: colors}, nil
}

// newContext creates a framebuffer of the configured size and a render
// context presenting to p, which may be nil.
func (a *app) newContext(p render.Presenter) (*render.Context, error) {
	fb := render.NewFramebuffer(a.cfg.Display.Width, a.cfg.Display.Height)
	fb.BG = a.cfg.BackgroundColor()
	fb.Clear()
	return render.NewContext(fb, p, a.cfg.RenderOptions())
}

func (a *app) openWindow(source string) (*display.Window, error) {
	win, err := display.New(display.Config{
		Title:  a.cfg.Display.Title + " - " + filepath.Base(source),
		Width:  a.cfg.Display.Width,
		Height: a.cfg.Display.Height,
		VSync:  a.cfg.Display.VSync,
	}, logger.Log.Named("display"))
	if err != nil {
		return nil, err
	}
	if err := win.Clear(); err != nil {
		win.Close()
		return nil, err
	}
	return win, nil
}

func logStats(msg string, st render.FrameStats) {
	logger.Log.Info(msg,
		zap.Int("triangles", st.Triangles),
		zap.Int("drawn", st.Drawn),
		zap.Int("culled", st.Culled),
		zap.Int("degenerate", st.Degenerate),
		zap.Int("edge_only", st.EdgeOnly),
	)
}

func (a *app) runView(ctx context.Context, source string) error {
	sc, err := a.loadScene(source)
	if err != nil {
		return err
	}
	win, err := a.openWindow(source)
	if err != nil {
		return err
	}
	defer win.Close()

	rc, err := a.newContext(win)
	if err != nil {
		return err
	}
	if err := rc.RenderFrame(sc.faces, sc.colors, a.cfg.Eye()); err != nil {
		return err
	}
	logStats("frame rendered", rc.Stats())

	input := display.NewInput()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for !input.ShouldTerminate() {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		// Re-present so the window survives expose and resize events.
		if err := rc.Present(); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) runSpin(ctx context.Context, source string) error {
	sc, err := a.loadScene(source)
	if err != nil {
		return err
	}
	win, err := a.openWindow(source)
	if err != nil {
		return err
	}
	defer win.Close()

	rc, err := a.newContext(win)
	if err != nil {
		return err
	}
	spinner := render.NewSpinner(rc, display.NewInput(), a.cfg.SpinConfig(), logger.Log.Named("spin"))
	return spinner.Run(ctx, sc.faces, sc.colors, a.cfg.Eye())
}

func (a *app) runSnapshot(cmd *cobra.Command, source string) error {
	if a.scale < 1 {
		return fmt.Errorf("--scale must be at least 1, got %d", a.scale)
	}
	sc, err := a.loadScene(source)
	if err != nil {
		return err
	}
	rc, err := a.newContext(nil)
	if err != nil {
		return err
	}
	if err := rc.RenderFrame(sc.faces, sc.colors, a.cfg.Eye()); err != nil {
		return err
	}
	logStats("frame rendered", rc.Stats())

	if err := rc.Framebuffer().Save(a.out, a.scale); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d)\n", a.out, a.cfg.Display.Width*a.scale, a.cfg.Display.Height*a.scale)
	return nil
}

func (a *app) runInfo(cmd *cobra.Command, source string) error {
	sc, err := a.loadScene(source)
	if err != nil {
		return err
	}
	rc, err := a.newContext(nil)
	if err != nil {
		return err
	}
	if err := rc.Render(sc.faces, sc.colors, a.cfg.Eye()); err != nil {
		return err
	}
	printInfo(cmd.OutOrStdout(), source, sc.mesh, rc.Stats())
	return nil
}

func printInfo(w io.Writer, source string, mesh *models.Mesh, st render.FrameStats) {
	size := mesh.Size()
	center := mesh.Center()

	fmt.Fprintf(w, "Model:      %s\n", mesh.Name)
	fmt.Fprintf(w, "Source:     %s\n", source)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Vertices:   %d\n", mesh.VertexCount())
	fmt.Fprintf(w, "Triangles:  %d\n", mesh.TriangleCount())
	fmt.Fprintf(w, "Materials:  %d\n", len(mesh.Materials))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Bounds Min: (%.3f, %.3f, %.3f)\n", mesh.BoundsMin.X, mesh.BoundsMin.Y, mesh.BoundsMin.Z)
	fmt.Fprintf(w, "Bounds Max: (%.3f, %.3f, %.3f)\n", mesh.BoundsMax.X, mesh.BoundsMax.Y, mesh.BoundsMax.Z)
	fmt.Fprintf(w, "Dimensions: %.3f x %.3f x %.3f\n", size.X, size.Y, size.Z)
	fmt.Fprintf(w, "Center:     (%.3f, %.3f, %.3f)\n", center.X, center.Y, center.Z)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Drawn:      %d\n", st.Drawn)
	fmt.Fprintf(w, "Culled:     %d\n", st.Culled)
	fmt.Fprintf(w, "Degenerate: %d\n", st.Degenerate)
	fmt.Fprintf(w, "Edge only:  %d\n", st.EdgeOnly)
}

func (a *app) runConfigInit(cmd *cobra.Command, path string) error {
	if path == "" {
		dir := config.ConfigDir()
		if dir == "" {
			return errors.New("no user config directory; pass a path")
		}
		path = filepath.Join(dir, config.FileName)
	}
	if !a.force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if err := config.Default().SaveTo(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
