// Package render implements the cyclops software rendering pipeline:
// perspective projection with backface culling, integer line and triangle
// scan conversion, and a presentable framebuffer.
package render

import (
	"fmt"
	"image"

	"github.com/taigrr/cyclops/pkg/math3d"
)

// Presenter pushes a completed frame to a display. Present is called with
// the framebuffer lock held.
type Presenter interface {
	Present(fb *Framebuffer) error
}

// Terminator reports whether a close or key-press signal arrived since the
// previous call. Implementations must not block.
type Terminator interface {
	ShouldTerminate() bool
}

// Light describes the ambient term and an optional directional term.
type Light struct {
	Ambient [3]float64  // Per-channel ambient intensity
	Dir     math3d.Vec3 // Direction toward the light
	Diffuse [3]float64  // Per-channel directional intensity (zero disables)
}

// Options configures a render Context.
type Options struct {
	Screen            ScreenRect
	Light             Light
	Cull              bool  // Discard triangles whose normal faces away from the eye
	HighlightVertices bool  // Mark in-bounds vertices with HighlightColor
	HighlightColor    Color //
	Mix               bool  // Add new colors to stored pixels instead of replacing
	Wireframe         bool  // Draw edges only
	DepthSort         bool  // Draw far triangles first (painter's order)
}

// DefaultOptions returns the options the CLI starts from.
func DefaultOptions() Options {
	return Options{
		Screen: ScreenRect{XMin: -5, YMin: -5, XMax: 5, YMax: 5},
		Light: Light{
			Ambient: [3]float64{1, 1, 1},
			Dir:     math3d.V3(0.5, 1, 0.3),
		},
		Cull:           true,
		HighlightColor: ColorWhite,
	}
}

// FrameStats counts what happened to the triangles of the last Render.
type FrameStats struct {
	Triangles  int // Triangles in the faces matrix
	Culled     int // Discarded by the backface test
	Degenerate int // Skipped because a vertex could not be projected
	EdgeOnly   int // Drawn without interior fill (no distinct middle y)
	Drawn      int // Handed to the rasterizer
}

// Context holds everything a render call needs: the target buffer, the
// presenter, the screen mapping and the shading flags. It replaces any
// process-wide rendering state and is owned by the caller.
type Context struct {
	fb        *Framebuffer
	presenter Presenter
	opts      Options
	stats     FrameStats

	// Scratch storage reused between triangles
	edges [3][]image.Point
	spans [2][]span
}

// NewContext creates a render context. presenter may be nil for headless
// rendering. The screen rectangle is validated here so that no later call
// can divide by a zero-size rectangle.
func NewContext(fb *Framebuffer, presenter Presenter, opts Options) (*Context, error) {
	if fb == nil {
		return nil, fmt.Errorf("render: nil framebuffer")
	}
	if err := opts.Screen.Validate(); err != nil {
		return nil, err
	}
	return &Context{fb: fb, presenter: presenter, opts: opts}, nil
}

// Framebuffer returns the target buffer.
func (c *Context) Framebuffer() *Framebuffer { return c.fb }

// Options returns the active options.
func (c *Context) Options() Options { return c.opts }

// Stats returns the counters of the last Render.
func (c *Context) Stats() FrameStats { return c.stats }

// SetMix toggles additive color mixing.
func (c *Context) SetMix(on bool) { c.opts.Mix = on }

// SetPixel writes a pixel honoring the mixing mode. Out-of-range
// coordinates are ignored. The caller holds the framebuffer lock when the
// buffer is shared.
func (c *Context) SetPixel(x, y int, col Color) {
	if c.opts.Mix {
		c.fb.AddPixel(x, y, col)
		return
	}
	c.fb.SetPixel(x, y, col)
}

// Present hands the framebuffer to the presenter.
func (c *Context) Present() error {
	if c.presenter == nil {
		return nil
	}
	c.fb.Lock()
	defer c.fb.Unlock()
	if err := c.presenter.Present(c.fb); err != nil {
		return fmt.Errorf("present: %w", err)
	}
	return nil
}

// ClearBuffer fills the framebuffer with its background color without
// presenting.
func (c *Context) ClearBuffer() {
	c.fb.Lock()
	c.fb.Clear()
	c.fb.Unlock()
}

// Clear fills the framebuffer with its background color and presents it.
func (c *Context) Clear() error {
	c.ClearBuffer()
	return c.Present()
}

// Render projects faces as seen from eye and rasterizes the visible
// triangles into the framebuffer. Triangles are drawn in input order unless
// DepthSort is set. Render neither clears nor presents.
func (c *Context) Render(faces, colors *math3d.Matrix, eye math3d.Vec3) error {
	tris, err := c.Project(faces, colors, eye)
	if err != nil {
		return err
	}
	if c.opts.DepthSort {
		SortByDepth(tris)
	}
	for i := range tris {
		if !c.DrawTriangle(tris[i].Points(), tris[i].Color) && !c.opts.Wireframe {
			c.stats.EdgeOnly++
		}
		c.stats.Drawn++
	}
	return nil
}

// RenderFrame clears the buffer, renders one view and presents it.
func (c *Context) RenderFrame(faces, colors *math3d.Matrix, eye math3d.Vec3) error {
	c.ClearBuffer()
	if err := c.Render(faces, colors, eye); err != nil {
		return err
	}
	return c.Present()
}
