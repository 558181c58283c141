package display

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/taigrr/cyclops/pkg/render"
)

// Input drains the SDL event queue and latches quit requests.
type Input struct {
	poll func() sdl.Event

	quit    bool
	keyDown bool
}

// NewInput creates an input handler reading the SDL event queue.
func NewInput() *Input {
	return &Input{poll: sdl.PollEvent}
}

// Update drains every pending event without blocking. It returns true when
// a quit request or a key press was seen.
func (i *Input) Update() bool {
	for event := i.poll(); event != nil; event = i.poll() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.quit = true
		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_CLOSE {
				i.quit = true
			}
		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN {
				i.keyDown = true
			}
		}
	}
	return i.quit || i.keyDown
}

// ShouldTerminate drains the queue and reports whether a quit or key-down
// event arrived since the previous call. It implements render.Terminator.
func (i *Input) ShouldTerminate() bool {
	stop := i.Update()
	i.quit, i.keyDown = false, false
	return stop
}

var _ render.Terminator = (*Input)(nil)
