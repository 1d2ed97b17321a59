package viewer

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/taigrr/splatview/pkg/math3d"
)

// RotateMode selects the auto-rotation path.
type RotateMode int

const (
	RotateOff RotateMode = iota
	// RotateFull sweeps the azimuth through full circles.
	RotateFull
	// RotateSwing oscillates the azimuth within ±range/2.
	RotateSwing
)

func (m RotateMode) String() string {
	switch m {
	case RotateFull:
		return "full"
	case RotateSwing:
		return "swing"
	}
	return "off"
}

const (
	autoRotateRadius = 8.0
	autoRotateSpeed  = 0.5 // rad/s of the driving phase

	// SwingRange is the total swing in degrees.
	SwingRange = 20.0
)

// DefaultRotationRange returns the rotation range in degrees for a scene's
// orbit category. 360 means a full orbit; only frontFocus scenes swing.
func DefaultRotationRange(category OrbitCategory) float64 {
	if category == OrbitFrontFocus {
		return SwingRange
	}
	return 360
}

// RotationAngle returns the azimuth for elapsed seconds t.
func RotationAngle(mode RotateMode, rangeDeg, t float64) float64 {
	if mode == RotateFull || rangeDeg >= 360 {
		return t * autoRotateSpeed
	}
	maxRad := math3d.Radians(rangeDeg) / 2
	return math.Sin(t*autoRotateSpeed) * maxRad
}

// FrameSource delivers one tick per display frame.
type FrameSource interface {
	C() <-chan time.Time
	Stop()
}

type tickerFrames struct {
	t *time.Ticker
}

func (f tickerFrames) C() <-chan time.Time { return f.t.C }
func (f tickerFrames) Stop()               { f.t.Stop() }

// NewTickerFrames returns a FrameSource backed by a time.Ticker.
func NewTickerFrames(fps int) FrameSource {
	if fps <= 0 {
		fps = 60
	}
	return tickerFrames{t: time.NewTicker(time.Second / time.Duration(fps))}
}

// SessionHost exposes the Ready session. Guard implements it.
type SessionHost interface {
	WithSession(fn func(*Session)) bool
	// Holds reports whether s is still the live session, in any state.
	Holds(s *Session) bool
}

// AutoRotateConfig configures an AutoRotate driver.
type AutoRotateConfig struct {
	// Frames creates the frame clock for each activation. Defaults to a
	// 60 fps ticker.
	Frames func() FrameSource
	Logger *slog.Logger
	// OnStop is called from the loop goroutine when the driver stops
	// itself because its session went away.
	OnStop func()
}

// AutoRotate moves the camera of the Ready session along a circular or
// swinging path. It never creates or disposes sessions. Full and swing
// modes are mutually exclusive.
type AutoRotate struct {
	host SessionHost
	cfg  AutoRotateConfig
	log  *slog.Logger

	ctl sync.Mutex // held across check-then-act mode changes

	mu       sync.Mutex
	mode     RotateMode
	rangeDeg float64
	gen      uint64
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewAutoRotate creates a stopped driver.
func NewAutoRotate(host SessionHost, cfg AutoRotateConfig) *AutoRotate {
	if cfg.Frames == nil {
		cfg.Frames = func() FrameSource { return NewTickerFrames(60) }
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &AutoRotate{host: host, cfg: cfg, log: cfg.Logger.With("component", "autorotate")}
}

// Mode returns the active mode.
func (a *AutoRotate) Mode() RotateMode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// Active reports whether a rotation loop is running.
func (a *AutoRotate) Active() bool {
	return a.Mode() != RotateOff
}

// EnableFull starts a full orbit, replacing swing mode if active. It
// returns false if no session is Ready.
func (a *AutoRotate) EnableFull() bool {
	a.ctl.Lock()
	defer a.ctl.Unlock()
	return a.start(RotateFull, 360)
}

// EnableSwing starts a bounded swing of rangeDeg degrees, replacing full
// mode if active. It returns false if no session is Ready.
func (a *AutoRotate) EnableSwing(rangeDeg float64) bool {
	if rangeDeg <= 0 || rangeDeg >= 360 {
		rangeDeg = SwingRange
	}
	a.ctl.Lock()
	defer a.ctl.Unlock()
	return a.start(RotateSwing, rangeDeg)
}

// Toggle stops the driver if it is running, otherwise starts the mode the
// orbit category calls for. It returns the resulting mode.
func (a *AutoRotate) Toggle(category OrbitCategory) RotateMode {
	a.ctl.Lock()
	defer a.ctl.Unlock()
	if a.Active() {
		a.stop()
		return RotateOff
	}
	mode, r := RotateSwing, DefaultRotationRange(category)
	if r >= 360 {
		mode = RotateFull
	}
	if !a.start(mode, r) {
		return RotateOff
	}
	return mode
}

// Stop halts the loop. When Stop returns no further frame will touch the
// camera.
func (a *AutoRotate) Stop() {
	a.ctl.Lock()
	defer a.ctl.Unlock()
	a.stop()
}

func (a *AutoRotate) stop() {
	a.mu.Lock()
	done := a.stopLocked()
	a.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (a *AutoRotate) stopLocked() chan struct{} {
	if a.cancel == nil {
		return nil
	}
	a.cancel()
	done := a.done
	a.cancel, a.done = nil, nil
	a.mode = RotateOff
	a.gen++
	return done
}

func (a *AutoRotate) start(mode RotateMode, rangeDeg float64) bool {
	var sess *Session
	if !a.host.WithSession(func(s *Session) { sess = s }) {
		return false
	}

	a.mu.Lock()
	prev := a.stopLocked()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	a.mode, a.rangeDeg = mode, rangeDeg
	a.cancel, a.done = cancel, done
	gen := a.gen
	a.mu.Unlock()

	if prev != nil {
		<-prev
	}
	a.log.Debug("auto-rotate started", "mode", mode, "range", rangeDeg)
	go a.run(ctx, gen, sess, mode, rangeDeg, a.cfg.Frames(), done)
	return true
}

func (a *AutoRotate) run(ctx context.Context, gen uint64, sess *Session, mode RotateMode, rangeDeg float64, frames FrameSource, done chan struct{}) {
	defer close(done)
	defer frames.Stop()

	var start time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-frames.C():
			if ctx.Err() != nil {
				return
			}
			if start.IsZero() {
				start = now
			}
			angle := RotationAngle(mode, rangeDeg, now.Sub(start).Seconds())

			moved := false
			a.host.WithSession(func(s *Session) {
				if s != sess {
					return
				}
				moved = true
				orbitCamera(s, angle)
			})
			// A light reload keeps the session but leaves it Loading for a
			// while; those frames are skipped.
			if !moved && !a.host.Holds(sess) {
				a.expire(gen)
				return
			}
		}
	}
}

// expire turns the driver off after its session went away, unless the
// driver was restarted in the meantime.
func (a *AutoRotate) expire(gen uint64) {
	a.mu.Lock()
	if a.gen != gen {
		a.mu.Unlock()
		return
	}
	a.cancel()
	a.cancel, a.done = nil, nil
	a.mode = RotateOff
	a.gen++
	a.mu.Unlock()

	a.log.Debug("auto-rotate stopped: session gone")
	if a.cfg.OnStop != nil {
		a.cfg.OnStop()
	}
}

// orbitCamera places the camera at angle on a circle of autoRotateRadius
// around the controls target, keeping its height along the up axis.
func orbitCamera(s *Session, angle float64) {
	cam, ctl := s.Camera(), s.Controls()
	basis := math3d.UpBasis(cam.Up())
	target := ctl.Target()
	height := basis.MulVec3Dir(cam.Position().Sub(target)).Y

	local := math3d.V3(math.Sin(angle)*autoRotateRadius, height, math.Cos(angle)*autoRotateRadius)
	cam.SetPosition(target.Add(basis.Transpose().MulVec3Dir(local)))
	ctl.Update()
}
