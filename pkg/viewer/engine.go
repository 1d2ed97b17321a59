package viewer

import (
	"context"
	"math"
	"path/filepath"
	"slices"
	"strings"

	"github.com/taigrr/splatview/pkg/math3d"
)

// Container is the host-owned region a renderer draws into. Only one
// renderer may be attached at a time.
type Container interface {
	Attach(owner any) error
	Detach(owner any) error
}

// Engine constructs renderers.
type Engine interface {
	Construct(c Container, opts RendererOptions) (Renderer, error)
}

// RendererOptions are fixed for the lifetime of a renderer.
type RendererOptions struct {
	Up          math3d.Vec3
	Position    math3d.Vec3
	LookAt      math3d.Vec3
	Antialiased bool
	FPS         int
}

// AssetOptions control how decoded content is added to the scene.
type AssetOptions struct {
	// AlphaRemovalThreshold drops splats whose alpha is below it.
	AlphaRemovalThreshold uint8
	// Offset translates the asset after decoding.
	Offset math3d.Vec3
}

// Renderer is one live rendering instance bound to a container.
type Renderer interface {
	Camera() Camera
	Controls() Controls
	// Decode parses data without touching the renderer. Safe to call from
	// any goroutine.
	Decode(ctx context.Context, filename string, data []byte, opts AssetOptions) (Asset, error)
	// Attach adds a decoded asset to the scene.
	Attach(a Asset) error
	RemoveAll()
	Start()
	Stop()
	Running() bool
	// Dispose releases everything the renderer holds. It returns
	// ErrContainerRemoved if the container went away first.
	Dispose() error
}

// Camera is the renderer's camera handle.
type Camera interface {
	Position() math3d.Vec3
	SetPosition(p math3d.Vec3)
	Up() math3d.Vec3
}

// Controls is the renderer's orbit controls handle.
type Controls interface {
	Target() math3d.Vec3
	SetTarget(t math3d.Vec3)
	SetConstraint(c OrbitConstraint)
	// Update re-applies constraints and re-aims the camera.
	Update()
}

// Asset is decoded scene content.
type Asset interface {
	Bounds() (min, max math3d.Vec3)
	Count() int
}

// SupportedExtensions lists the asset formats the viewer accepts.
var SupportedExtensions = []string{".splat", ".ply", ".glb", ".gltf", ".obj"}

// SupportedFormat reports whether filename has a supported extension.
func SupportedFormat(filename string) bool {
	return slices.Contains(SupportedExtensions, strings.ToLower(filepath.Ext(filename)))
}

// AssetOffset is applied to every loaded asset.
var AssetOffset = math3d.V3(0, 1, 0)

// AlphaRemovalThreshold converts the 0–10 alpha setting to the renderer's
// byte threshold.
func AlphaRemovalThreshold(alpha float64) uint8 {
	if math.IsNaN(alpha) {
		return 0
	}
	v := math.Round(alpha / 10 * 255)
	return uint8(math3d.Clamp(v, 0, 255))
}

func assetOptions(s Settings) AssetOptions {
	return AssetOptions{
		AlphaRemovalThreshold: AlphaRemovalThreshold(s.AlphaThreshold),
		Offset:                AssetOffset,
	}
}
