// Package viewer is the session controller for the splat viewer. It owns at
// most one live renderer per container, sequences asynchronous asset loads so
// that only the newest result is ever attached, decides whether a
// configuration change needs a full rebuild or only an asset reload, and
// drives optional camera auto-rotation.
//
// The rendering engine itself is an external capability described by the
// Engine, Renderer, Camera and Controls interfaces.
package viewer

import (
	"bytes"
	"fmt"

	"github.com/taigrr/splatview/pkg/math3d"
)

// OrbitCategory names a camera constraint profile.
type OrbitCategory string

const (
	OrbitTopDown360 OrbitCategory = "topDown360"
	OrbitFrontFocus OrbitCategory = "frontFocus"
	OrbitBase       OrbitCategory = "base"
)

// CameraHints are optional per-scene camera overrides. Nil fields fall back
// to DefaultHints.
type CameraHints struct {
	Up       *math3d.Vec3
	Position *math3d.Vec3
	LookAt   *math3d.Vec3
}

// Default camera placement for scenes that do not carry hints.
var (
	DefaultUp       = math3d.V3(0, -1, -0.6)
	DefaultPosition = math3d.V3(-1, -4, 6)
	DefaultLookAt   = math3d.V3(0, 4, 0)
)

// Resolved returns the hints with every nil field replaced by its default.
func (h CameraHints) Resolved() (up, position, lookAt math3d.Vec3) {
	up, position, lookAt = DefaultUp, DefaultPosition, DefaultLookAt
	if h.Up != nil {
		up = *h.Up
	}
	if h.Position != nil {
		position = *h.Position
	}
	if h.LookAt != nil {
		lookAt = *h.LookAt
	}
	return up, position, lookAt
}

// Equal reports whether both hint sets resolve to the same camera.
func (h CameraHints) Equal(o CameraHints) bool {
	return vecPtrEqual(h.Up, o.Up) && vecPtrEqual(h.Position, o.Position) && vecPtrEqual(h.LookAt, o.LookAt)
}

func vecPtrEqual(a, b *math3d.Vec3) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// SceneDescriptor identifies a scene. It is replaced wholesale, never edited.
type SceneDescriptor struct {
	ID    string
	Name  string
	Orbit OrbitCategory
	Hints CameraHints
}

// Equal reports whether two descriptors name the same scene setup.
func (s SceneDescriptor) Equal(o SceneDescriptor) bool {
	return s.ID == o.ID && s.Name == o.Name && s.Orbit == o.Orbit && s.Hints.Equal(o.Hints)
}

// AssetDescriptor identifies the binary asset to load. InlineBytes is set
// for locally supplied files; otherwise the bytes are fetched by filename.
// FallbackFilename, if set, is tried when the primary file fails to load.
type AssetDescriptor struct {
	Filename         string
	FallbackFilename string
	SizeBytes        int64
	InlineBytes      []byte
}

// Equal reports whether two descriptors refer to the same asset.
func (a AssetDescriptor) Equal(o AssetDescriptor) bool {
	return a.Filename == o.Filename &&
		a.FallbackFilename == o.FallbackFilename &&
		a.SizeBytes == o.SizeBytes &&
		bytes.Equal(a.InlineBytes, o.InlineBytes)
}

// Settings are the user-tunable viewer settings.
type Settings struct {
	Antialiased bool
	// AlphaThreshold is on a 0–10 scale; see AlphaRemovalThreshold.
	AlphaThreshold float64
}

// Config is everything the host hands the guard for one render.
type Config struct {
	Scene    SceneDescriptor
	Asset    AssetDescriptor
	Settings Settings
}

// State is the lifecycle state of the guard's session slot.
type State int

const (
	StateAbsent State = iota
	StateConstructing
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateConstructing:
		return "constructing"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Event is a lifecycle notification delivered to GuardConfig.Observer.
type Event interface {
	isEvent()
}

// Transition reports a session state change.
type Transition struct {
	From, To State
	Token    Token
}

// Discarded reports that a superseded load finished and its result was
// dropped without touching the current session. It is the Loading to
// Discarded side transition of that load; the guard's own state is
// unaffected.
type Discarded struct {
	Token    Token
	Filename string
}

// DisposeRaced reports that a session was disposed after its container had
// already been removed. The race is absorbed.
type DisposeRaced struct {
	Token Token
}

// Classified reports the action chosen for a configuration change.
type Classified struct {
	Action Action
}

func (Transition) isEvent()   {}
func (Discarded) isEvent()    {}
func (DisposeRaced) isEvent() {}
func (Classified) isEvent()   {}
