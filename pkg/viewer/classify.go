package viewer

import "math"

// Action is what a configuration change requires.
type Action int

const (
	// NoOp leaves the session untouched.
	NoOp Action = iota
	// LightReload keeps the renderer and camera and swaps the asset.
	LightReload
	// FullRebuild disposes the renderer and constructs a new one.
	FullRebuild
)

func (a Action) String() string {
	switch a {
	case NoOp:
		return "no-op"
	case LightReload:
		return "light reload"
	case FullRebuild:
		return "full rebuild"
	}
	return "unknown"
}

// ClassifySettings compares settings alone. Antialiasing is fixed when the
// renderer is constructed, so toggling it needs a rebuild.
func ClassifySettings(prev, next Settings) Action {
	switch {
	case prev.Antialiased != next.Antialiased:
		return FullRebuild
	case !sameAlpha(prev.AlphaThreshold, next.AlphaThreshold):
		return LightReload
	}
	return NoOp
}

// sameAlpha treats two NaN thresholds as equal.
func sameAlpha(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

// Classify compares two full configurations. Any scene or asset change is a
// rebuild since orbit limits and initial framing are per scene.
func Classify(prev, next Config) Action {
	if !prev.Scene.Equal(next.Scene) || !prev.Asset.Equal(next.Asset) {
		return FullRebuild
	}
	return ClassifySettings(prev.Settings, next.Settings)
}
