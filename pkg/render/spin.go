package render

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/taigrr/cyclops/pkg/math3d"
)

// SpinState is the phase of a Spinner.
type SpinState int

const (
	SpinIdle SpinState = iota
	SpinSpinning
	SpinFinished
)

func (s SpinState) String() string {
	switch s {
	case SpinIdle:
		return "idle"
	case SpinSpinning:
		return "spinning"
	case SpinFinished:
		return "finished"
	}
	return "unknown"
}

// SpinConfig controls the animation.
type SpinConfig struct {
	XDeg, YDeg, ZDeg float64       // Per-frame rotation about each axis
	Delay            time.Duration // Pause after each presented frame
	MaxFrames        int           // Stop after this many frames; 0 means until terminated
}

// DefaultSpinConfig rotates one degree about every axis per frame.
func DefaultSpinConfig() SpinConfig {
	return SpinConfig{XDeg: 1, YDeg: 1, ZDeg: 1, Delay: 10 * time.Millisecond}
}

// Spinner rotates a model by a constant increment every frame and
// re-renders it until the terminator fires, the context is cancelled, or
// MaxFrames is reached. On exit the original geometry is rendered again.
type Spinner struct {
	rc     *Context
	term   Terminator
	cfg    SpinConfig
	log    *zap.Logger
	state  SpinState
	frames int

	// Sleep pauses between frames. Tests replace it.
	Sleep func(time.Duration)
}

// NewSpinner creates an idle spinner. term may be nil when the animation is
// bounded by MaxFrames or the context; log may be nil.
func NewSpinner(rc *Context, term Terminator, cfg SpinConfig, log *zap.Logger) *Spinner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Spinner{rc: rc, term: term, cfg: cfg, log: log, Sleep: time.Sleep}
}

// State returns the current phase.
func (s *Spinner) State() SpinState { return s.state }

// Frames returns the number of rotated frames presented so far.
func (s *Spinner) Frames() int { return s.frames }

// Run animates faces, seen from eye, until a stop condition. faces and
// colors are only read; the rotated copies are owned by Run and only the
// latest one is kept. Run returns the first render or present error.
func (s *Spinner) Run(ctx context.Context, faces, colors *math3d.Matrix, eye math3d.Vec3) error {
	rot := math3d.Spin(s.cfg.XDeg, s.cfg.YDeg, s.cfg.ZDeg)
	current := faces
	s.state = SpinSpinning
	s.log.Info("spin started",
		zap.Int("triangles", faces.Cols()/3),
		zap.Float64("x_deg", s.cfg.XDeg),
		zap.Float64("y_deg", s.cfg.YDeg),
		zap.Float64("z_deg", s.cfg.ZDeg),
		zap.Duration("delay", s.cfg.Delay),
	)

	var err error
	for !s.stop(ctx) {
		current = math3d.Mul(rot, current)
		s.rc.ClearBuffer()
		if err = s.rc.Render(current, colors, eye); err != nil {
			break
		}
		if err = s.rc.Present(); err != nil {
			break
		}
		s.frames++
		st := s.rc.Stats()
		s.log.Debug("frame",
			zap.Int("frame", s.frames),
			zap.Int("drawn", st.Drawn),
			zap.Int("culled", st.Culled),
			zap.Int("degenerate", st.Degenerate),
			zap.Int("edge_only", st.EdgeOnly),
		)
		if s.cfg.Delay > 0 {
			s.Sleep(s.cfg.Delay)
		}
	}

	s.state = SpinFinished
	if err != nil {
		s.log.Error("spin aborted", zap.Int("frames", s.frames), zap.Error(err))
		return err
	}
	s.log.Info("spin finished", zap.Int("frames", s.frames))
	return s.rc.RenderFrame(faces, colors, eye)
}

func (s *Spinner) stop(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	if s.cfg.MaxFrames > 0 && s.frames >= s.cfg.MaxFrames {
		return true
	}
	return s.term != nil && s.term.ShouldTerminate()
}
