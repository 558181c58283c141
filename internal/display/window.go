// Package display shows cyclops framebuffers in an SDL2 window and reports
// quit requests from its event queue.
package display

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/taigrr/cyclops/pkg/render"
)

func init() {
	// SDL video calls must come from the main thread
	runtime.LockOSThread()
}

// InitError reports a failed SDL call during window setup or presentation.
type InitError struct {
	Op  string // SDL function that failed
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("display: %s: %v", e.Op, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// Config holds window configuration.
type Config struct {
	Title  string
	Width  int
	Height int
	VSync  bool
}

func (c Config) validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return &InitError{Op: "SDL_CreateWindow", Err: fmt.Errorf("invalid size %dx%d", c.Width, c.Height)}
	}
	return nil
}

// Window is an SDL window with an accelerated renderer and a streaming
// ARGB8888 texture the size of the presented framebuffer.
type Window struct {
	log      *zap.Logger
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	texW     int
	texH     int
}

// New initializes SDL video and opens a window. log may be nil.
func New(cfg Config, log *zap.Logger) (*Window, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	w := &Window{log: log}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, &InitError{Op: "SDL_Init", Err: err}
	}

	var err error
	w.window, err = sdl.CreateWindow(
		cfg.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width),
		int32(cfg.Height),
		uint32(sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE),
	)
	if err != nil {
		sdl.Quit()
		return nil, &InitError{Op: "SDL_CreateWindow", Err: err}
	}

	flags := uint32(sdl.RENDERER_ACCELERATED)
	if cfg.VSync {
		flags |= uint32(sdl.RENDERER_PRESENTVSYNC)
	}
	w.renderer, err = sdl.CreateRenderer(w.window, -1, flags)
	if err != nil {
		w.window.Destroy()
		sdl.Quit()
		return nil, &InitError{Op: "SDL_CreateRenderer", Err: err}
	}

	if err := w.ensureTexture(cfg.Width, cfg.Height); err != nil {
		w.renderer.Destroy()
		w.window.Destroy()
		sdl.Quit()
		return nil, err
	}

	log.Info("window created",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Bool("vsync", cfg.VSync),
	)
	return w, nil
}

// ensureTexture recreates the streaming texture when the framebuffer size
// changes.
func (w *Window) ensureTexture(width, height int) error {
	if w.texture != nil && w.texW == width && w.texH == height {
		return nil
	}
	if w.texture != nil {
		w.texture.Destroy()
		w.texture = nil
	}
	tex, err := w.renderer.CreateTexture(
		uint32(sdl.PIXELFORMAT_ARGB8888),
		int(sdl.TEXTUREACCESS_STREAMING),
		int32(width),
		int32(height),
	)
	if err != nil {
		return &InitError{Op: "SDL_CreateTexture", Err: err}
	}
	if err := w.renderer.SetLogicalSize(int32(width), int32(height)); err != nil {
		w.log.Warn("failed to set logical size", zap.Error(err))
	}
	w.texture, w.texW, w.texH = tex, width, height
	return nil
}

// Present copies the framebuffer to the window. It implements
// render.Presenter; the caller holds the framebuffer lock.
func (w *Window) Present(fb *render.Framebuffer) error {
	if w.renderer == nil {
		return &InitError{Op: "SDL_RenderPresent", Err: errors.New("window closed")}
	}
	if fb.Width == 0 || fb.Height == 0 {
		return nil
	}
	if err := w.ensureTexture(fb.Width, fb.Height); err != nil {
		return err
	}
	if err := w.texture.UpdateRGBA(nil, fb.Pix, fb.Stride); err != nil {
		return &InitError{Op: "SDL_UpdateTexture", Err: err}
	}
	if err := w.renderer.Clear(); err != nil {
		return &InitError{Op: "SDL_RenderClear", Err: err}
	}
	if err := w.renderer.Copy(w.texture, nil, nil); err != nil {
		return &InitError{Op: "SDL_RenderCopy", Err: err}
	}
	w.renderer.Present()
	return nil
}

// Clear blanks the window without touching any framebuffer.
func (w *Window) Clear() error {
	if w.renderer == nil {
		return &InitError{Op: "SDL_RenderClear", Err: errors.New("window closed")}
	}
	if err := w.renderer.SetDrawColor(0, 0, 0, 255); err != nil {
		return &InitError{Op: "SDL_SetRenderDrawColor", Err: err}
	}
	if err := w.renderer.Clear(); err != nil {
		return &InitError{Op: "SDL_RenderClear", Err: err}
	}
	w.renderer.Present()
	return nil
}

// Close destroys the texture, renderer and window and shuts SDL down. It
// is safe to call more than once.
func (w *Window) Close() {
	if w.window == nil {
		return
	}
	w.log.Debug("closing window")
	if w.texture != nil {
		w.texture.Destroy()
		w.texture = nil
	}
	if w.renderer != nil {
		w.renderer.Destroy()
		w.renderer = nil
	}
	w.window.Destroy()
	w.window = nil
	sdl.Quit()
}

var _ render.Presenter = (*Window)(nil)
