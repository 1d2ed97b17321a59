package viewer

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/taigrr/splatview/pkg/math3d"
)

func TestClassifySettings(t *testing.T) {
	tests := []struct {
		name       string
		prev, next Settings
		want       Action
	}{
		{"unchanged", Settings{false, 5}, Settings{false, 5}, NoOp},
		{"alpha only", Settings{false, 5}, Settings{false, 9}, LightReload},
		{"antialias on", Settings{false, 5}, Settings{true, 5}, FullRebuild},
		{"antialias off", Settings{true, 5}, Settings{false, 5}, FullRebuild},
		{"both", Settings{false, 5}, Settings{true, 9}, FullRebuild},
		{"nan unchanged", Settings{false, math.NaN()}, Settings{false, math.NaN()}, NoOp},
		{"nan to number", Settings{false, math.NaN()}, Settings{false, 5}, LightReload},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifySettings(tc.prev, tc.next))
		})
	}
}

func TestClassifySceneOrAssetChangeRebuilds(t *testing.T) {
	up := math3d.V3(0, 1, 0)
	base := Config{
		Scene:    SceneDescriptor{ID: "temple", Orbit: OrbitFrontFocus},
		Asset:    AssetDescriptor{Filename: "temple_low.splat", SizeBytes: 50 << 20},
		Settings: Settings{AlphaThreshold: 5},
	}
	assert.Equal(t, NoOp, Classify(base, base))

	settingsVariants := []Settings{{false, 5}, {false, 9}, {true, 5}}
	changes := map[string]func(c *Config){
		"scene id":    func(c *Config) { c.Scene.ID = "city" },
		"orbit":       func(c *Config) { c.Scene.Orbit = OrbitTopDown360 },
		"hints":       func(c *Config) { c.Scene.Hints.Up = &up },
		"filename":    func(c *Config) { c.Asset.Filename = "temple_high.splat" },
		"size":        func(c *Config) { c.Asset.SizeBytes++ },
		"inline data": func(c *Config) { c.Asset.InlineBytes = []byte{1} },
	}
	for name, change := range changes {
		for _, s := range settingsVariants {
			t.Run(fmt.Sprintf("%s/%v", name, s), func(t *testing.T) {
				next := base
				change(&next)
				next.Settings = s
				assert.Equal(t, FullRebuild, Classify(base, next))
			})
		}
	}
}

func TestHintEqualityIsByValue(t *testing.T) {
	a, b := math3d.V3(1, 2, 3), math3d.V3(1, 2, 3)
	assert.True(t, CameraHints{Position: &a}.Equal(CameraHints{Position: &b}))
	assert.False(t, CameraHints{Position: &a}.Equal(CameraHints{}))
}

func TestResolveOrbit(t *testing.T) {
	top := ResolveOrbit(OrbitTopDown360)
	assert.Equal(t, math.Pi/2, top.MaxPolarAngle)
	assert.False(t, top.AzimuthBounded())

	front := ResolveOrbit(OrbitFrontFocus)
	assert.True(t, front.AzimuthBounded())
	assert.Equal(t, -front.MinAzimuthAngle, front.MaxAzimuthAngle)
	assert.Less(t, front.MaxAzimuthAngle, math.Pi)
	assert.Less(t, front.MinPolarAngle, math.Pi/2)
	assert.Greater(t, front.MaxPolarAngle, math.Pi/2)

	assert.Equal(t, ResolveOrbit(OrbitBase), ResolveOrbit("unknown-category"))
	assert.Equal(t, ResolveOrbit(OrbitBase), ResolveOrbit(""))
}

func TestAlphaRemovalThreshold(t *testing.T) {
	tests := []struct {
		alpha float64
		want  uint8
	}{
		{0, 0},
		{1, 26},
		{5, 128},
		{10, 255},
		{42, 255},
		{-3, 0},
		{math.NaN(), 0},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, AlphaRemovalThreshold(tc.alpha), "alpha %v", tc.alpha)
	}
}

func TestSupportedFormat(t *testing.T) {
	for _, name := range []string{"a.splat", "b.PLY", "c.glb", "d.gltf", "e.obj"} {
		assert.True(t, SupportedFormat(name), name)
	}
	for _, name := range []string{"a.fbx", "b.ksplat", "noext", ""} {
		assert.False(t, SupportedFormat(name), name)
	}
}

func TestSequencer(t *testing.T) {
	var s Sequencer
	a := s.Next()
	b := s.Next()
	assert.Greater(t, b, a)
	assert.False(t, s.IsCurrent(a))
	assert.True(t, s.IsCurrent(b))
	assert.Equal(t, b, s.Current())
}

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", newError(KindLoadFailure, "x.splat", errNotFound))

	assert.ErrorIs(t, err, ErrLoadFailure)
	assert.ErrorIs(t, err, errNotFound)
	assert.NotErrorIs(t, err, ErrUnsupportedFormat)
	assert.Equal(t, KindLoadFailure, KindOf(err))
	assert.Contains(t, err.Error(), "x.splat")

	assert.True(t, Surfaced(err))
	assert.True(t, Surfaced(newError(KindUnsupportedFormat, "a.fbx", nil)))
	assert.True(t, Surfaced(newError(KindInitializationFailure, "", errors.New("no gpu"))))
	assert.False(t, Surfaced(newError(KindStaleResultDiscarded, "", nil)))
	assert.False(t, Surfaced(newError(KindDisposeRace, "", ErrContainerRemoved)))
	assert.False(t, Surfaced(errors.New("plain")))
}
