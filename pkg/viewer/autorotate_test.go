package viewer

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taigrr/splatview/pkg/math3d"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func TestDefaultRotationRange(t *testing.T) {
	assert.Equal(t, 360.0, DefaultRotationRange(OrbitTopDown360))
	assert.Equal(t, SwingRange, DefaultRotationRange(OrbitFrontFocus))
	assert.Equal(t, 360.0, DefaultRotationRange(OrbitBase))
	assert.Equal(t, 360.0, DefaultRotationRange("other"))
}

func TestRotationAngle(t *testing.T) {
	assert.InDelta(t, 2.0, RotationAngle(RotateFull, 0, 4), 1e-12)
	assert.InDelta(t, 2.0, RotationAngle(RotateSwing, 360, 4), 1e-12)

	// Swing stays inside ±range/2.
	half := math3d.Radians(20) / 2
	for s := 0.0; s < 30; s += 0.1 {
		a := RotationAngle(RotateSwing, 20, s)
		assert.LessOrEqual(t, math.Abs(a), half+1e-12)
	}
	assert.InDelta(t, half, RotationAngle(RotateSwing, 20, math.Pi), 1e-12)
}

type rotateRig struct {
	*guardRig
	driver *AutoRotate
	frames chan *manualFrames
	stops  chan struct{}
}

func newRotateRig(t *testing.T) *rotateRig {
	rig := &rotateRig{
		guardRig: newGuardRig(t),
		frames:   make(chan *manualFrames, 8),
		stops:    make(chan struct{}, 8),
	}
	rig.driver = NewAutoRotate(rig.guard, AutoRotateConfig{
		Frames: func() FrameSource {
			f := newManualFrames()
			rig.frames <- f
			return f
		},
		OnStop: func() { rig.stops <- struct{}{} },
	})
	t.Cleanup(rig.driver.Stop)
	return rig
}

func (r *rotateRig) nextFrames(t *testing.T) *manualFrames {
	t.Helper()
	select {
	case f := <-r.frames:
		return f
	case <-time.After(waitFor):
		t.Fatal("auto-rotate did not start a frame source")
		return nil
	}
}

func (r *rotateRig) ready(t *testing.T, orbit OrbitCategory) *fakeRenderer {
	t.Helper()
	r.guard.Apply(sceneConfig("s", "s.splat", orbit))
	r.guard.Wait()
	require.Equal(t, StateReady, r.guard.Status().State)
	return r.engine.last()
}

func TestAutoRotateNeedsReadySession(t *testing.T) {
	rig := newRotateRig(t)
	assert.False(t, rig.driver.EnableFull())
	assert.False(t, rig.driver.Active())
	assert.Equal(t, RotateOff, rig.driver.Toggle(OrbitBase))
}

func TestAutoRotateMovesCamera(t *testing.T) {
	rig := newRotateRig(t)
	r := rig.ready(t, OrbitBase)
	require.True(t, rig.driver.EnableFull())
	frames := rig.nextFrames(t)

	start := time.Unix(100, 0)
	updates := func() int {
		n := 0
		rig.guard.WithSession(func(*Session) { n = r.ctl.updates })
		return n
	}
	before := updates()
	require.True(t, frames.tick(start))
	require.True(t, frames.tick(start.Add(time.Second)))
	require.Eventually(t, func() bool { return updates() >= before+2 }, waitFor, tick)

	var pos, target math3d.Vec3
	rig.guard.WithSession(func(*Session) { pos, target = r.cam.Position(), r.ctl.Target() })

	// Full orbit after one second at 0.5 rad/s, radius 8 in the up frame.
	basis := math3d.UpBasis(r.cam.Up())
	local := basis.MulVec3Dir(pos.Sub(target))
	assert.InDelta(t, 8, math.Hypot(local.X, local.Z), 1e-9)
	assert.InDelta(t, 0.5, math.Atan2(local.X, local.Z), 1e-9)
}

func TestAutoRotateModesExclusive(t *testing.T) {
	rig := newRotateRig(t)
	rig.ready(t, OrbitFrontFocus)

	require.True(t, rig.driver.EnableSwing(20))
	swing := rig.nextFrames(t)
	assert.Equal(t, RotateSwing, rig.driver.Mode())

	require.True(t, rig.driver.EnableFull())
	full := rig.nextFrames(t)
	assert.Equal(t, RotateFull, rig.driver.Mode())
	assert.False(t, swing.tick(time.Now()), "swing loop is gone")

	require.True(t, rig.driver.EnableSwing(20))
	rig.nextFrames(t)
	assert.Equal(t, RotateSwing, rig.driver.Mode())
	assert.False(t, full.tick(time.Now()), "full loop is gone")

	rig.driver.Stop()
	assert.False(t, rig.driver.Active())
}

func TestAutoRotateToggleUsesCategory(t *testing.T) {
	rig := newRotateRig(t)
	rig.ready(t, OrbitTopDown360)

	assert.Equal(t, RotateFull, rig.driver.Toggle(OrbitTopDown360))
	rig.nextFrames(t)
	assert.Equal(t, RotateOff, rig.driver.Toggle(OrbitTopDown360))
	assert.Equal(t, RotateSwing, rig.driver.Toggle(OrbitFrontFocus))
	rig.nextFrames(t)
	assert.Equal(t, RotateOff, rig.driver.Toggle(OrbitFrontFocus))

	// Plain scenes orbit fully.
	assert.Equal(t, RotateFull, rig.driver.Toggle(OrbitBase))
	rig.nextFrames(t)
	assert.Equal(t, RotateOff, rig.driver.Toggle(OrbitBase))
}

func TestAutoRotateSwingDefault(t *testing.T) {
	rig := newRotateRig(t)
	rig.ready(t, OrbitBase)

	require.True(t, rig.driver.EnableSwing(0))
	rig.nextFrames(t)
	rig.driver.mu.Lock()
	got := rig.driver.rangeDeg
	rig.driver.mu.Unlock()
	assert.Equal(t, SwingRange, got)
}

func TestAutoRotateToggleConcurrent(t *testing.T) {
	rig := newRotateRig(t)
	rig.ready(t, OrbitBase)
	go func() {
		for range rig.frames {
		}
	}()

	// Every toggle flips the mode, so an even number ends stopped.
	const n = 16
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rig.driver.Toggle(OrbitBase)
		}()
	}
	wg.Wait()
	assert.Equal(t, RotateOff, rig.driver.Mode())
}

func TestAutoRotateStopIsImmediate(t *testing.T) {
	rig := newRotateRig(t)
	rig.ready(t, OrbitBase)
	require.True(t, rig.driver.EnableFull())
	frames := rig.nextFrames(t)

	rig.driver.Stop()
	assert.False(t, frames.tick(time.Now()))
}

func TestAutoRotateStopsWhenSessionGone(t *testing.T) {
	rig := newRotateRig(t)
	r := rig.ready(t, OrbitBase)
	require.True(t, rig.driver.EnableFull())
	frames := rig.nextFrames(t)

	rig.guard.Unmount()
	pos := r.cam.Position()

	// The next frame notices and the loop ends without touching the camera.
	frames.tick(time.Now())
	select {
	case <-rig.stops:
	case <-time.After(waitFor):
		t.Fatal("driver did not stop")
	}
	assert.False(t, rig.driver.Active())
	assert.False(t, frames.tick(time.Now()))
	assert.Equal(t, pos, r.cam.Position())
}

func TestAutoRotateSurvivesLightReload(t *testing.T) {
	rig := newRotateRig(t)
	r := rig.ready(t, OrbitBase)
	require.True(t, rig.driver.EnableFull())
	frames := rig.nextFrames(t)

	rig.fetcher.gate("s.splat")
	cfg := sceneConfig("s", "s.splat", OrbitBase)
	cfg.Settings.AlphaThreshold = 9
	require.Equal(t, LightReload, rig.guard.Apply(cfg))
	require.Equal(t, StateLoading, rig.guard.Status().State)

	start := time.Unix(100, 0)
	require.True(t, frames.tick(start))
	require.True(t, frames.tick(start.Add(time.Second)), "loop keeps running while the asset reloads")
	assert.True(t, rig.driver.Active())

	rig.fetcher.release("s.splat")
	rig.guard.Wait()
	updates := func() int {
		n := 0
		rig.guard.WithSession(func(*Session) { n = r.ctl.updates })
		return n
	}
	before := updates()
	require.True(t, frames.tick(start.Add(2*time.Second)))
	require.True(t, frames.tick(start.Add(3*time.Second)))
	require.Eventually(t, func() bool { return updates() > before }, waitFor, tick)
	assert.Equal(t, RotateFull, rig.driver.Mode())
	assert.Empty(t, rig.stops)
}

func TestAutoRotateStopsOnRebuild(t *testing.T) {
	rig := newRotateRig(t)
	rig.ready(t, OrbitBase)
	require.True(t, rig.driver.EnableFull())
	frames := rig.nextFrames(t)

	// A rebuild replaces the session the driver was bound to.
	rig.guard.Apply(sceneConfig("other", "other.splat", OrbitBase))
	rig.guard.Wait()

	frames.tick(time.Now())
	select {
	case <-rig.stops:
	case <-time.After(waitFor):
		t.Fatal("driver did not stop")
	}
	assert.False(t, rig.driver.Active())
}
