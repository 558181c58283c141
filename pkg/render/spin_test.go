package render

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/taigrr/cyclops/pkg/math3d"
)

type recordingPresenter struct {
	frames [][]uint32
	err    error
}

func (p *recordingPresenter) Present(fb *Framebuffer) error {
	p.frames = append(p.frames, append([]uint32(nil), fb.Pix...))
	return p.err
}

// countdown terminates after n polls.
type countdown struct{ n int }

func (c *countdown) ShouldTerminate() bool {
	if c.n == 0 {
		return true
	}
	c.n--
	return false
}

func spinFixture(t *testing.T, p Presenter) (*Context, *math3d.Matrix, *math3d.Matrix) {
	t.Helper()
	opts := DefaultOptions()
	opts.Cull = false
	rc, err := NewContext(NewFramebuffer(32, 32), p, opts)
	if err != nil {
		t.Fatal(err)
	}
	faces, colors := faceMatrices(t, math3d.V3(1, 1, 0),
		math3d.V3(-2, -2, 0), math3d.V3(2, -1, 0), math3d.V3(0.1, 3.1, 0),
	)
	return rc, faces, colors
}

func TestSpinnerStopsOnTerminate(t *testing.T) {
	p := &recordingPresenter{}
	rc, faces, colors := spinFixture(t, p)
	original := faces.Clone()

	var slept []time.Duration
	// Large enough that one step moves vertices by several pixels on a 32x32 buffer.
	s := NewSpinner(rc, &countdown{n: 3}, SpinConfig{XDeg: 30, YDeg: 30, ZDeg: 30, Delay: 5 * time.Millisecond}, zap.NewNop())
	s.Sleep = func(d time.Duration) { slept = append(slept, d) }

	if s.State() != SpinIdle {
		t.Fatalf("initial state %v", s.State())
	}
	if err := s.Run(context.Background(), faces, colors, eye); err != nil {
		t.Fatal(err)
	}
	if s.State() != SpinFinished {
		t.Errorf("final state %v", s.State())
	}
	if s.Frames() != 3 {
		t.Errorf("frames = %d, want 3", s.Frames())
	}
	if len(slept) != 3 || slept[0] != 5*time.Millisecond {
		t.Errorf("sleeps = %v", slept)
	}
	// Three spin frames plus the final unrotated one.
	if len(p.frames) != 4 {
		t.Fatalf("presented %d frames, want 4", len(p.frames))
	}
	if !math3d.ApproxEqual(faces, original, 0) {
		t.Error("Run modified the caller's faces matrix")
	}

	// The last frame shows the original geometry.
	ref, refFaces, refColors := spinFixture(t, nil)
	if err := ref.RenderFrame(refFaces, refColors, eye); err != nil {
		t.Fatal(err)
	}
	last := p.frames[len(p.frames)-1]
	for i := range last {
		if last[i] != ref.Framebuffer().Pix[i] {
			t.Fatalf("final frame differs from a fresh render at pixel %d", i)
		}
	}
	if sameFrame(p.frames[0], last) {
		t.Error("first rotated frame matches the unrotated frame")
	}
	if sameFrame(p.frames[0], p.frames[1]) {
		t.Error("consecutive spin frames are identical")
	}
}

func sameFrame(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSpinnerMaxFrames(t *testing.T) {
	p := &recordingPresenter{}
	rc, faces, colors := spinFixture(t, p)
	s := NewSpinner(rc, nil, SpinConfig{ZDeg: 90, MaxFrames: 4}, nil)
	s.Sleep = func(time.Duration) { t.Fatal("sleep called with zero delay") }

	if err := s.Run(context.Background(), faces, colors, eye); err != nil {
		t.Fatal(err)
	}
	if s.Frames() != 4 || len(p.frames) != 5 {
		t.Fatalf("frames = %d, presented = %d", s.Frames(), len(p.frames))
	}
	// Four quarter turns about z bring the model back.
	if !sameFrame(p.frames[3], p.frames[4]) {
		t.Error("four 90 degree turns did not reproduce the original frame")
	}
}

func TestSpinnerContextCancel(t *testing.T) {
	p := &recordingPresenter{}
	rc, faces, colors := spinFixture(t, p)
	ctx, cancel := context.WithCancel(context.Background())
	s := NewSpinner(rc, nil, DefaultSpinConfig(), nil)
	n := 0
	s.Sleep = func(time.Duration) {
		n++
		if n == 2 {
			cancel()
		}
	}
	if err := s.Run(ctx, faces, colors, eye); err != nil {
		t.Fatal(err)
	}
	if s.Frames() != 2 {
		t.Errorf("frames = %d, want 2", s.Frames())
	}
}

func TestSpinnerPresentError(t *testing.T) {
	boom := errors.New("display gone")
	p := &recordingPresenter{err: boom}
	rc, faces, colors := spinFixture(t, p)
	s := NewSpinner(rc, nil, SpinConfig{XDeg: 1, MaxFrames: 10}, nil)
	if err := s.Run(context.Background(), faces, colors, eye); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if s.State() != SpinFinished || s.Frames() != 0 {
		t.Errorf("state %v frames %d", s.State(), s.Frames())
	}
}
