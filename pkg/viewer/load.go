package viewer

import (
	"context"
	"fmt"
)

// beginLoadLocked mints a token, tears down the current session, builds a
// new one for cfg and starts loading its asset.
func (g *Guard) beginLoadLocked(cfg Config) {
	g.last, g.hasConfig = cfg, true
	g.token = g.seq.Next()
	g.cancelLocked()
	g.disposeLocked()
	g.err = nil
	g.setState(StateAbsent)

	g.setState(StateConstructing)
	s, err := CreateSession(g.cfg.Engine, g.container, cfg.Scene, cfg.Settings, SessionOptions{
		Fetcher: g.cfg.Fetcher,
		FPS:     g.cfg.FPS,
		Logger:  g.cfg.Logger,
	})
	if err != nil {
		g.failLocked(err)
		return
	}
	s.ApplyConstraint(ResolveOrbit(cfg.Scene.Orbit))
	g.session = s

	g.startLoadLocked(s, cfg)
}

// lightReloadLocked swaps the asset in the current session, keeping the
// renderer and camera.
func (g *Guard) lightReloadLocked(cfg Config) {
	g.last = cfg
	g.token = g.seq.Next()
	g.cancelLocked()
	g.err = nil
	g.session.RemoveAllAssets()
	g.startLoadLocked(g.session, cfg)
}

func (g *Guard) startLoadLocked(s *Session, cfg Config) {
	s.settings = cfg.Settings
	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	g.loading = true
	g.setState(StateLoading)

	tok := g.token
	g.inflight.Add(1)
	go g.load(ctx, tok, s, cfg)
}

// load runs off the guard. Only the token comparison and the attach happen
// under the lock, so a dispose or newer load always orders before this
// result can touch a session.
func (g *Guard) load(ctx context.Context, tok Token, s *Session, cfg Config) {
	defer g.inflight.Done()

	asset, err := loadAsset(ctx, s, cfg)

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.seq.IsCurrent(tok) || g.session != s {
		g.log.Debug("discarding stale load", "token", tok, "current", g.seq.Current(), "file", cfg.Asset.Filename, "err", err)
		g.emit(Discarded{Token: tok, Filename: cfg.Asset.Filename})
		return
	}
	g.cancelLocked()

	if err == nil {
		err = s.Attach(asset)
	}
	if err != nil {
		g.failLocked(err)
		return
	}

	g.loading = false
	g.setState(StateReady)
	g.log.Info("scene ready", "scene", cfg.Scene.ID, "file", cfg.Asset.Filename, "primitives", asset.Count())
}

// loadAsset runs the session load with decoder panics reported as a
// LoadFailure. Nothing above this goroutine could recover them.
func loadAsset(ctx context.Context, s *Session, cfg Config) (a Asset, err error) {
	defer func() {
		if p := recover(); p != nil {
			a, err = nil, newError(KindLoadFailure, cfg.Asset.Filename, fmt.Errorf("decoder panic: %v", p))
		}
	}()
	return s.Load(ctx, cfg.Asset, cfg.Settings)
}
