package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taigrr/splatview/pkg/math3d"
)

// Fetcher resolves an asset filename to its bytes.
type Fetcher interface {
	Fetch(ctx context.Context, filename string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, filename string) ([]byte, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, filename string) ([]byte, error) {
	return f(ctx, filename)
}

// fitDistance is how many bounding radii the camera backs off when framing
// content that has no hinted camera position.
const fitDistance = 2.5

// SessionOptions configure CreateSession.
type SessionOptions struct {
	Fetcher Fetcher
	FPS     int
	Logger  *slog.Logger
}

type cameraPose struct {
	position math3d.Vec3
	lookAt   math3d.Vec3
}

// Session owns one live renderer bound to one container. It is not safe for
// concurrent use; Guard serializes access to it.
type Session struct {
	r        Renderer
	scene    SceneDescriptor
	settings Settings
	fetcher  Fetcher
	log      *slog.Logger

	home     cameraPose
	framed   bool
	disposed bool
}

// CreateSession constructs a renderer in container for scene and starts its
// render loop. Construction errors are InitializationFailure.
func CreateSession(eng Engine, container Container, scene SceneDescriptor, settings Settings, opts SessionOptions) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	up, pos, lookAt := scene.Hints.Resolved()

	r, err := eng.Construct(container, RendererOptions{
		Up:          up,
		Position:    pos,
		LookAt:      lookAt,
		Antialiased: settings.Antialiased,
		FPS:         opts.FPS,
	})
	if err != nil {
		return nil, newError(KindInitializationFailure, "", err)
	}
	if r == nil {
		return nil, newError(KindInitializationFailure, "", errors.New("engine returned no renderer"))
	}

	s := &Session{
		r:        r,
		scene:    scene,
		settings: settings,
		fetcher:  opts.Fetcher,
		log:      opts.Logger.With("scene", scene.ID),
		home:     cameraPose{position: pos, lookAt: lookAt},
	}
	s.applyPose(s.home)
	r.Start()
	return s, nil
}

// Camera returns the renderer's camera.
func (s *Session) Camera() Camera { return s.r.Camera() }

// Renderer returns the engine renderer backing the session.
func (s *Session) Renderer() Renderer { return s.r }

// Controls returns the renderer's controls.
func (s *Session) Controls() Controls { return s.r.Controls() }

// Scene returns the scene the session was built for.
func (s *Session) Scene() SceneDescriptor { return s.scene }

// Settings returns the settings of the most recent load.
func (s *Session) Settings() Settings { return s.settings }

// Running reports whether the render loop is active.
func (s *Session) Running() bool { return !s.disposed && s.r.Running() }

// Disposed reports whether Dispose has run.
func (s *Session) Disposed() bool { return s.disposed }

// ApplyConstraint installs orbit limits on the controls.
func (s *Session) ApplyConstraint(c OrbitConstraint) {
	s.r.Controls().SetConstraint(c)
	s.r.Controls().Update()
}

// Load resolves and decodes asset without touching the renderer. It tries
// the fallback file when the primary one fails to load. Safe to call
// without holding the guard.
func (s *Session) Load(ctx context.Context, asset AssetDescriptor, settings Settings) (Asset, error) {
	a, err := s.load(ctx, asset.Filename, asset.InlineBytes, settings)
	if err == nil || asset.FallbackFilename == "" || KindOf(err) != KindLoadFailure {
		return a, err
	}
	s.log.Warn("primary asset failed, trying fallback", "file", asset.Filename, "fallback", asset.FallbackFilename, "err", err)
	return s.load(ctx, asset.FallbackFilename, nil, settings)
}

func (s *Session) load(ctx context.Context, filename string, inline []byte, settings Settings) (Asset, error) {
	if !SupportedFormat(filename) {
		return nil, newError(KindUnsupportedFormat, filename, nil)
	}

	data := inline
	if data == nil {
		if s.fetcher == nil {
			return nil, newError(KindLoadFailure, filename, errors.New("no fetcher configured"))
		}
		var err error
		data, err = s.fetcher.Fetch(ctx, filename)
		if err != nil {
			return nil, newError(KindLoadFailure, filename, err)
		}
	}

	a, err := s.r.Decode(ctx, filename, data, assetOptions(settings))
	if err != nil {
		return nil, newError(KindLoadFailure, filename, err)
	}
	s.log.Debug("asset decoded", "file", filename, "bytes", len(data), "primitives", a.Count())
	return a, nil
}

// Attach adds a decoded asset to the renderer. The first non-empty asset of
// a session also frames the camera on it.
func (s *Session) Attach(a Asset) error {
	if s.disposed {
		return newError(KindLoadFailure, "", errors.New("session disposed"))
	}
	if err := s.r.Attach(a); err != nil {
		return newError(KindLoadFailure, "", fmt.Errorf("attach: %w", err))
	}
	if !s.framed && a.Count() > 0 {
		s.frame(a)
		s.framed = true
	}
	return nil
}

// AddAsset is Load followed by Attach.
func (s *Session) AddAsset(ctx context.Context, asset AssetDescriptor) error {
	a, err := s.Load(ctx, asset, s.settings)
	if err != nil {
		return err
	}
	return s.Attach(a)
}

// RemoveAllAssets clears the scene and keeps the renderer and camera.
func (s *Session) RemoveAllAssets() {
	if s.disposed {
		return
	}
	s.r.RemoveAll()
}

// frame points the camera at the content. A hinted camera position is the
// scene author's framing and is kept; otherwise the camera backs off along
// its current direction until the bounds fit.
func (s *Session) frame(a Asset) {
	if s.scene.Hints.Position != nil {
		return
	}
	lo, hi := a.Bounds()
	center := lo.Add(hi).Scale(0.5)
	radius := max(hi.Sub(lo).Len()/2, 0.5)

	target := s.home.lookAt
	if s.scene.Hints.LookAt == nil {
		target = center
	}
	dir := s.home.position.Sub(s.home.lookAt).Normalize()
	if dir.LenSq() == 0 {
		dir = math3d.V3(0, 0, 1)
	}
	s.home = cameraPose{position: target.Add(dir.Scale(radius * fitDistance)), lookAt: target}
	s.applyPose(s.home)
}

// ResetCamera returns the camera to the scene's home pose: the hinted
// values, or the framing chosen when the first asset was attached.
func (s *Session) ResetCamera() {
	if s.disposed {
		return
	}
	s.applyPose(s.home)
}

func (s *Session) applyPose(p cameraPose) {
	s.r.Camera().SetPosition(p.position)
	s.r.Controls().SetTarget(p.lookAt)
	s.r.Controls().Update()
}

// Dispose stops the render loop and releases the renderer. Calling it again
// is a no-op. If the container was removed first the renderer is still
// released and a DisposeRace error is returned for diagnostics only.
func (s *Session) Dispose() error {
	if s.disposed {
		return nil
	}
	s.disposed = true
	s.r.Stop()
	err := s.r.Dispose()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrContainerRemoved):
		return newError(KindDisposeRace, "", err)
	default:
		return fmt.Errorf("dispose renderer: %w", err)
	}
}
