package display

import (
	"errors"
	"testing"

	"github.com/veandco/go-sdl2/sdl"
)

func TestInitError(t *testing.T) {
	cause := errors.New("no video device")
	var err error = &InitError{Op: "SDL_Init", Err: cause}

	if got, want := err.Error(), "display: SDL_Init: no video device"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("InitError does not unwrap to its cause")
	}
	var ie *InitError
	if !errors.As(err, &ie) || ie.Op != "SDL_Init" {
		t.Errorf("errors.As gave %+v", ie)
	}
}

func TestNewRejectsEmptyWindow(t *testing.T) {
	tests := []Config{
		{Title: "zero", Width: 0, Height: 100},
		{Title: "negative", Width: 100, Height: -1},
	}
	for _, cfg := range tests {
		t.Run(cfg.Title, func(t *testing.T) {
			_, err := New(cfg, nil)
			var ie *InitError
			if !errors.As(err, &ie) || ie.Op != "SDL_CreateWindow" {
				t.Errorf("New(%+v) = %v, want SDL_CreateWindow InitError", cfg, err)
			}
		})
	}
}

// queue returns a poll function that yields events once each.
func queue(events ...sdl.Event) func() sdl.Event {
	return func() sdl.Event {
		if len(events) == 0 {
			return nil
		}
		e := events[0]
		events = events[1:]
		return e
	}
}

func TestShouldTerminate(t *testing.T) {
	tests := []struct {
		name   string
		events []sdl.Event
		want   bool
	}{
		{"empty queue", nil, false},
		{"quit", []sdl.Event{&sdl.QuitEvent{Type: sdl.QUIT}}, true},
		{"key down", []sdl.Event{&sdl.KeyboardEvent{Type: sdl.KEYDOWN}}, true},
		{"key up only", []sdl.Event{&sdl.KeyboardEvent{Type: sdl.KEYUP}}, false},
		{"mouse motion", []sdl.Event{&sdl.MouseMotionEvent{Type: sdl.MOUSEMOTION}}, false},
		{"window close", []sdl.Event{&sdl.WindowEvent{Type: sdl.WINDOWEVENT, Event: sdl.WINDOWEVENT_CLOSE}}, true},
		{
			"quit behind other events",
			[]sdl.Event{&sdl.MouseMotionEvent{Type: sdl.MOUSEMOTION}, &sdl.KeyboardEvent{Type: sdl.KEYUP}, &sdl.QuitEvent{Type: sdl.QUIT}},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := &Input{poll: queue(tt.events...)}
			if got := in.ShouldTerminate(); got != tt.want {
				t.Errorf("ShouldTerminate() = %v, want %v", got, tt.want)
			}
			// The queue is drained and the latch cleared.
			if in.ShouldTerminate() {
				t.Error("second call still reports termination")
			}
		})
	}
}
