package engine_test

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/splatview/pkg/engine"
	"github.com/taigrr/splatview/pkg/render"
	"github.com/taigrr/splatview/pkg/viewer"
)

func cube() []byte {
	var out []byte
	for _, x := range []float32{-1, 1} {
		for _, y := range []float32{-1, 1} {
			for _, z := range []float32{-1, 1} {
				for _, f := range []float32{x, y, z, 0.3, 0.3, 0.3} {
					out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
				}
				out = append(out, 40, 200, 90, 255, 255, 128, 128, 128)
			}
		}
	}
	return out
}

func TestGuardWithSoftwareEngine(t *testing.T) {
	surface := render.NewSurface(60, 20)
	g := viewer.NewGuard(surface, viewer.GuardConfig{
		Engine: engine.New(engine.Options{}),
		FPS:    60,
	})
	t.Cleanup(g.Unmount)

	g.Apply(viewer.Config{
		Scene: viewer.SceneDescriptor{ID: "cube", Orbit: viewer.OrbitBase},
		Asset: viewer.AssetDescriptor{Filename: "cube.splat", InlineBytes: cube()},
	})
	g.Wait()
	require.Equal(t, viewer.StateReady, g.Status().State)

	require.Eventually(t, func() bool {
		f := surface.Frame()
		if f == nil {
			return false
		}
		for _, c := range f.Pixels {
			if c.G > 150 {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	var stats engine.Stats
	g.WithSession(func(s *viewer.Session) {
		stats = s.Renderer().(*engine.Renderer).Stats()
	})
	assert.Equal(t, 8, stats.Primitives)

	g.Unmount()
	assert.False(t, surface.Attached())
}
