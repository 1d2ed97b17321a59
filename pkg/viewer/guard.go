package viewer

import (
	"context"
	"log/slog"
	"sync"
)

// GuardConfig configures a Guard.
type GuardConfig struct {
	Engine  Engine
	Fetcher Fetcher
	FPS     int
	Logger  *slog.Logger
	// Observer receives lifecycle events. It is called with the guard
	// locked and must not call back into the guard.
	Observer func(Event)
}

// Status is the host-visible view of the guard.
type Status struct {
	State   State
	Loading bool
	Err     error
	Message string
	Token   Token
}

// Guard is the only creator and disposer of sessions for one container. A
// single mutex orders every transition; loads run on their own goroutines
// and re-enter the guard only to compare tokens and attach.
type Guard struct {
	cfg       GuardConfig
	container Container
	log       *slog.Logger

	mu        sync.Mutex
	seq       Sequencer
	session   *Session
	state     State
	token     Token
	last      Config
	hasConfig bool
	loading   bool
	err       error
	cancel    context.CancelFunc
	unmounted bool

	inflight sync.WaitGroup
}

// NewGuard creates a guard for container. Nothing is constructed until the
// first Apply.
func NewGuard(container Container, cfg GuardConfig) *Guard {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Guard{
		cfg:       cfg,
		container: container,
		log:       cfg.Logger.With("component", "viewer"),
	}
}

// Apply hands the guard the host's current configuration. The first call
// builds a session; later calls are classified against the previous
// configuration. It returns the action taken.
func (g *Guard) Apply(next Config) Action {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unmounted {
		return NoOp
	}

	action := FullRebuild
	if g.hasConfig {
		action = Classify(g.last, next)
	}
	// A light reload needs a renderer to reload into.
	if action == LightReload && g.session == nil {
		action = FullRebuild
	}
	g.emit(Classified{Action: action})
	g.log.Debug("configuration change", "action", action, "scene", next.Scene.ID, "file", next.Asset.Filename)

	switch action {
	case FullRebuild:
		g.beginLoadLocked(next)
	case LightReload:
		g.lightReloadLocked(next)
	case NoOp:
		g.last = next
	}
	return action
}

// Retry rebuilds from the last configuration. It is the host's response to
// a surfaced load or initialization failure.
func (g *Guard) Retry() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unmounted || !g.hasConfig {
		return
	}
	g.emit(Classified{Action: FullRebuild})
	g.beginLoadLocked(g.last)
}

// Unmount invalidates any in-flight load and disposes the session. The
// guard ignores all later calls. Safe to call more than once.
func (g *Guard) Unmount() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unmounted {
		return
	}
	g.unmounted = true
	g.token = g.seq.Next()
	g.cancelLocked()
	g.disposeLocked()
	g.loading = false
	g.setState(StateAbsent)
	g.log.Debug("unmounted", "token", g.token)
}

// Wait blocks until every load goroutine has returned.
func (g *Guard) Wait() {
	g.inflight.Wait()
}

// Status returns the current state.
func (g *Guard) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := Status{
		State:   g.state,
		Loading: g.loading,
		Err:     g.err,
		Token:   g.token,
	}
	if g.err != nil && Surfaced(g.err) {
		st.Message = g.err.Error()
	}
	return st
}

// WithSession runs fn with the Ready session while holding the guard. It
// returns false without calling fn if no session is Ready.
func (g *Guard) WithSession(fn func(*Session)) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateReady || g.session == nil {
		return false
	}
	fn(g.session)
	return true
}

// Holds reports whether s is the guard's live session, whatever its state.
func (g *Guard) Holds(s *Session) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return s != nil && g.session == s
}

// ResetCamera returns the Ready session's camera to its home pose.
func (g *Guard) ResetCamera() bool {
	return g.WithSession(func(s *Session) { s.ResetCamera() })
}

// Scene returns the scene of the last applied configuration.
func (g *Guard) Scene() (SceneDescriptor, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last.Scene, g.hasConfig
}

func (g *Guard) setState(to State) {
	if g.state == to {
		return
	}
	from := g.state
	g.state = to
	g.emit(Transition{From: from, To: to, Token: g.token})
}

func (g *Guard) emit(ev Event) {
	if g.cfg.Observer != nil {
		g.cfg.Observer(ev)
	}
}

func (g *Guard) cancelLocked() {
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}

// disposeLocked tears down the current session. Dispose errors never leave
// the guard: a removed container is reported as DisposeRaced and anything
// else is logged.
func (g *Guard) disposeLocked() {
	s := g.session
	if s == nil {
		return
	}
	g.session = nil
	err := s.Dispose()
	switch {
	case err == nil:
	case KindOf(err) == KindDisposeRace:
		g.log.Debug("container removed before dispose", "err", err)
		g.emit(DisposeRaced{Token: g.token})
	default:
		g.log.Warn("dispose failed", "err", err)
	}
}

// fail records a surfaced error and drops the session.
func (g *Guard) failLocked(err error) {
	g.err = err
	g.loading = false
	g.cancelLocked()
	g.disposeLocked()
	g.setState(StateAbsent)
	g.log.Error("viewer failed", "err", err, "kind", KindOf(err))
}
