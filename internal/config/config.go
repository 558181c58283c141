// Package config handles cyclops configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/taigrr/cyclops/internal/logger"
	"github.com/taigrr/cyclops/pkg/math3d"
	"github.com/taigrr/cyclops/pkg/render"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all settings.
type Config struct {
	Display DisplayConfig `yaml:"display"`
	Render  RenderConfig  `yaml:"render"`
	Camera  CameraConfig  `yaml:"camera"`
	Spin    SpinConfig    `yaml:"spin"`
	Model   ModelConfig   `yaml:"model"`
	Logging LoggingConfig `yaml:"logging"`
}

// DisplayConfig holds window settings.
type DisplayConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	VSync  bool   `yaml:"vsync"`
}

// RenderConfig holds the projection, lighting and rasterizer flags.
type RenderConfig struct {
	Screen            ScreenConfig `yaml:"screen"`
	Ambient           [3]float64   `yaml:"ambient,flow"`
	LightDir          [3]float64   `yaml:"light_dir,flow"`
	LightIntensity    [3]float64   `yaml:"light_intensity,flow"`
	Cull              bool         `yaml:"cull"`
	HighlightVertices bool         `yaml:"highlight_vertices"`
	HighlightColor    [3]uint8     `yaml:"highlight_color,flow"`
	Mix               bool         `yaml:"mix"`
	Wireframe         bool         `yaml:"wireframe"`
	DepthSort         bool         `yaml:"depth_sort"`
	Background        [3]uint8     `yaml:"background,flow"`
}

// ScreenConfig is the visible rectangle of the projection plane.
type ScreenConfig struct {
	XMin float64 `yaml:"xmin"`
	YMin float64 `yaml:"ymin"`
	XMax float64 `yaml:"xmax"`
	YMax float64 `yaml:"ymax"`
}

// CameraConfig holds the eye position.
type CameraConfig struct {
	Eye [3]float64 `yaml:"eye,flow"`
}

// SpinConfig holds animation settings.
type SpinConfig struct {
	XDeg      float64       `yaml:"x_deg"`
	YDeg      float64       `yaml:"y_deg"`
	ZDeg      float64       `yaml:"z_deg"`
	Delay     time.Duration `yaml:"delay"`
	MaxFrames int           `yaml:"max_frames"`
}

// ModelConfig holds model preparation settings.
type ModelConfig struct {
	Color  [3]float64 `yaml:"color,flow"` // Diffuse coefficients for uncolored faces
	Extent float64    `yaml:"extent"`     // Largest dimension after fitting; 0 keeps file units
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	opts := render.DefaultOptions()
	spin := render.DefaultSpinConfig()
	return &Config{
		Display: DisplayConfig{
			Title:  "cyclops",
			Width:  800,
			Height: 800,
			VSync:  true,
		},
		Render: RenderConfig{
			Screen: ScreenConfig{
				XMin: opts.Screen.XMin,
				YMin: opts.Screen.YMin,
				XMax: opts.Screen.XMax,
				YMax: opts.Screen.YMax,
			},
			Ambient:        opts.Light.Ambient,
			LightDir:       [3]float64{opts.Light.Dir.X, opts.Light.Dir.Y, opts.Light.Dir.Z},
			Cull:           opts.Cull,
			HighlightColor: [3]uint8{opts.HighlightColor.R, opts.HighlightColor.G, opts.HighlightColor.B},
		},
		Camera: CameraConfig{
			Eye: [3]float64{0, 0, 10},
		},
		Spin: SpinConfig{
			XDeg:  spin.XDeg,
			YDeg:  spin.YDeg,
			ZDeg:  spin.ZDeg,
			Delay: spin.Delay,
		},
		Model: ModelConfig{
			Color:  [3]float64{0.8, 0.8, 0.8},
			Extent: 4,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch {
	case c.Display.Width <= 0 || c.Display.Height <= 0:
		return fmt.Errorf("%w: display size %dx%d", ErrInvalid, c.Display.Width, c.Display.Height)
	case render.CheckSize(c.Display.Width, c.Display.Height) != nil:
		return fmt.Errorf("%w: display size %dx%d exceeds %d pixels", ErrInvalid, c.Display.Width, c.Display.Height, render.MaxPixels)
	case c.Spin.Delay < 0:
		return fmt.Errorf("%w: negative spin delay %v", ErrInvalid, c.Spin.Delay)
	case c.Spin.MaxFrames < 0:
		return fmt.Errorf("%w: negative max_frames %d", ErrInvalid, c.Spin.MaxFrames)
	case c.Model.Extent < 0:
		return fmt.Errorf("%w: negative model extent %v", ErrInvalid, c.Model.Extent)
	}
	if err := c.ScreenRect().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	for _, v := range c.Camera.Eye {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: eye %v", ErrInvalid, c.Camera.Eye)
		}
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// ScreenRect returns the configured projection rectangle.
func (c *Config) ScreenRect() render.ScreenRect {
	s := c.Render.Screen
	return render.ScreenRect{XMin: s.XMin, YMin: s.YMin, XMax: s.XMax, YMax: s.YMax}
}

// RenderOptions converts the render section to rasterizer options.
func (c *Config) RenderOptions() render.Options {
	r := c.Render
	return render.Options{
		Screen: c.ScreenRect(),
		Light: render.Light{
			Ambient: r.Ambient,
			Dir:     math3d.V3(r.LightDir[0], r.LightDir[1], r.LightDir[2]),
			Diffuse: r.LightIntensity,
		},
		Cull:              r.Cull,
		HighlightVertices: r.HighlightVertices,
		HighlightColor:    render.RGB(r.HighlightColor[0], r.HighlightColor[1], r.HighlightColor[2]),
		Mix:               r.Mix,
		Wireframe:         r.Wireframe,
		DepthSort:         r.DepthSort,
	}
}

// BackgroundColor returns the color frames are cleared to.
func (c *Config) BackgroundColor() render.Color {
	bg := c.Render.Background
	return render.RGB(bg[0], bg[1], bg[2])
}

// SpinConfig converts the spin section.
func (c *Config) SpinConfig() render.SpinConfig {
	return render.SpinConfig{
		XDeg:      c.Spin.XDeg,
		YDeg:      c.Spin.YDeg,
		ZDeg:      c.Spin.ZDeg,
		Delay:     c.Spin.Delay,
		MaxFrames: c.Spin.MaxFrames,
	}
}

// Eye returns the camera position.
func (c *Config) Eye() math3d.Vec3 {
	e := c.Camera.Eye
	return math3d.V3(e[0], e[1], e[2])
}

// ModelColor returns the default diffuse coefficients.
func (c *Config) ModelColor() math3d.Vec3 {
	k := c.Model.Color
	return math3d.V3(k[0], k[1], k[2])
}
