package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/splatview/pkg/config"
	"github.com/taigrr/splatview/pkg/engine"
	"github.com/taigrr/splatview/pkg/render"
	"github.com/taigrr/splatview/pkg/viewer"
)

const (
	keyOrbitStep  = 0.08
	dragSpeed     = 0.03
	zoomStep      = 0.1
	alphaStep     = 1.0
	maxAlphaLevel = 10.0
)

// app is the interactive viewer: one surface, one guard and the input
// handling around them.
type app struct {
	log     *slog.Logger
	term    *uv.Terminal
	surface *render.Surface
	guard   *viewer.Guard
	rotate  *viewer.AutoRotate
	hud     *HUD
	fps     int

	cfg  viewer.Config
	xray bool

	mouseDown              bool
	lastMouseX, lastMouseY int
}

func runView(ctx context.Context, o *options, fileCfg *config.Config, src source, log *slog.Logger) error {
	bg, err := config.ParseColor(fileCfg.Background)
	if err != nil {
		return err
	}
	fps := fileCfg.FPS
	if fps <= 0 {
		fps = engine.DefaultFPS
	}

	term := uv.DefaultTerminal()
	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	// Any-event mouse tracking with SGR coordinates.
	fmt.Fprint(os.Stdout, "\x1b[?1003h")
	fmt.Fprint(os.Stdout, "\x1b[?1006h")
	defer func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}()

	surface := render.NewSurface(width, height)
	guard := viewer.NewGuard(surface, viewer.GuardConfig{
		Engine:  engine.New(engine.Options{Logger: log, Background: bg}),
		Fetcher: src.fetcher,
		FPS:     fps,
		Logger:  log,
		Observer: func(ev viewer.Event) {
			log.Debug("viewer event", "event", fmt.Sprintf("%T%+v", ev, ev))
		},
	})
	defer guard.Unmount()

	a := &app{
		log:     log,
		term:    term,
		surface: surface,
		guard:   guard,
		hud:     NewHUD(),
		fps:     fps,
		cfg:     src.cfg,
	}
	a.rotate = viewer.NewAutoRotate(guard, viewer.AutoRotateConfig{
		Frames: func() viewer.FrameSource { return viewer.NewTickerFrames(fps) },
		Logger: log,
	})
	defer a.rotate.Stop()

	guard.Apply(a.cfg)
	log.Info("viewer started", "scene", a.cfg.Scene.ID, "file", a.cfg.Asset.Filename)

	var reloads <-chan []byte
	if o.watch && src.path != "" {
		reloads, err = watchFile(ctx, src.path, log)
		if err != nil {
			return fmt.Errorf("watch %s: %w", src.path, err)
		}
	}
	rotateOnReady := o.autoRotate

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	events := term.Events()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if quit := a.handle(ev); quit {
				return nil
			}
		case data, ok := <-reloads:
			if !ok {
				reloads = nil
				continue
			}
			a.reload(data)
		case <-ticker.C:
			if rotateOnReady && a.guard.Status().State == viewer.StateReady {
				rotateOnReady = false
				a.rotate.Toggle(a.cfg.Scene.Orbit)
			}
			if err := a.draw(); err != nil {
				return err
			}
		}
	}
}

// handle processes one terminal event and reports whether to quit.
func (a *app) handle(ev uv.Event) bool {
	switch ev := ev.(type) {
	case uv.WindowSizeEvent:
		a.term.Erase()
		a.term.Resize(ev.Width, ev.Height)
		a.surface.Resize(ev.Width, ev.Height)

	case uv.KeyPressEvent:
		switch {
		case ev.MatchString("escape", "ctrl+c"):
			return true
		case ev.MatchString("r"):
			a.rotate.Stop()
			a.guard.ResetCamera()
		case ev.MatchString("o"):
			a.rotate.Toggle(a.cfg.Scene.Orbit)
		case ev.MatchString("f"):
			if a.rotate.Mode() == viewer.RotateFull {
				a.rotate.Stop()
			} else {
				a.rotate.EnableFull()
			}
		case ev.MatchString("g"):
			if a.rotate.Mode() == viewer.RotateSwing {
				a.rotate.Stop()
			} else {
				a.rotate.EnableSwing(viewer.SwingRange)
			}
		case ev.MatchString("a"):
			next := a.cfg
			next.Settings.Antialiased = !next.Settings.Antialiased
			a.apply(next)
		case ev.MatchString("["):
			next := a.cfg
			next.Settings.AlphaThreshold = math.Max(0, next.Settings.AlphaThreshold-alphaStep)
			a.apply(next)
		case ev.MatchString("]"):
			next := a.cfg
			next.Settings.AlphaThreshold = math.Min(maxAlphaLevel, next.Settings.AlphaThreshold+alphaStep)
			a.apply(next)
		case ev.MatchString("enter"):
			if a.guard.Status().Err != nil {
				a.guard.Retry()
			}
		case ev.MatchString("x"):
			a.xray = !a.xray
		case ev.MatchString("?", "shift+/"):
			a.hud.Visible = !a.hud.Visible
		case ev.MatchString("left", "h"):
			a.navigate(func(n engine.Navigator) { n.Rotate(-keyOrbitStep, 0) })
		case ev.MatchString("right", "l"):
			a.navigate(func(n engine.Navigator) { n.Rotate(keyOrbitStep, 0) })
		case ev.MatchString("up", "k"):
			a.navigate(func(n engine.Navigator) { n.Rotate(0, -keyOrbitStep) })
		case ev.MatchString("down", "j"):
			a.navigate(func(n engine.Navigator) { n.Rotate(0, keyOrbitStep) })
		case ev.MatchString("+", "="):
			a.navigate(func(n engine.Navigator) { n.Zoom(-zoomStep) })
		case ev.MatchString("-", "_"):
			a.navigate(func(n engine.Navigator) { n.Zoom(zoomStep) })
		}

	case uv.MouseClickEvent:
		a.mouseDown = true
		a.lastMouseX, a.lastMouseY = ev.X, ev.Y

	case uv.MouseReleaseEvent:
		a.mouseDown = false

	case uv.MouseMotionEvent:
		if a.mouseDown {
			dx := float64(ev.X - a.lastMouseX)
			dy := float64(ev.Y - a.lastMouseY)
			a.navigate(func(n engine.Navigator) { n.Rotate(dx*dragSpeed, dy*dragSpeed) })
			a.lastMouseX, a.lastMouseY = ev.X, ev.Y
		}

	case uv.MouseWheelEvent:
		switch ev.Button {
		case uv.MouseWheelUp:
			a.navigate(func(n engine.Navigator) { n.Zoom(-zoomStep) })
		case uv.MouseWheelDown:
			a.navigate(func(n engine.Navigator) { n.Zoom(zoomStep) })
		}
	}
	return false
}

// apply hands the guard a new configuration and keeps it as current.
func (a *app) apply(next viewer.Config) {
	action := a.guard.Apply(next)
	a.cfg = next
	a.log.Info("settings changed", "action", action,
		"antialiased", next.Settings.Antialiased, "alpha", next.Settings.AlphaThreshold)
}

// reload swaps in new bytes for the watched local file.
func (a *app) reload(data []byte) {
	next := a.cfg
	next.Asset.InlineBytes = data
	next.Asset.SizeBytes = int64(len(data))
	a.apply(next)
}

// navigate runs fn against the Ready session's controls. Manual input
// stops auto-rotate.
func (a *app) navigate(fn func(engine.Navigator)) {
	a.rotate.Stop()
	a.guard.WithSession(func(s *viewer.Session) {
		if n, ok := s.Controls().(engine.Navigator); ok {
			fn(n)
		}
	})
}

func (a *app) draw() error {
	st := hudState{
		Scene:    a.cfg.Scene,
		Asset:    a.cfg.Asset,
		Settings: a.cfg.Settings,
		Status:   a.guard.Status(),
		Rotate:   a.rotate.Mode(),
		XRay:     a.xray,
	}
	// A rebuilt renderer starts shaded, so x-ray is pushed every frame.
	a.guard.WithSession(func(s *viewer.Session) {
		if r, ok := s.Renderer().(*engine.Renderer); ok {
			r.SetXRay(a.xray)
			st.Splats = r.Stats().Primitives
		}
	})

	area := a.term.Bounds()
	clearArea(a.term, area)
	a.surface.Draw(a.term, area)
	a.hud.UpdateFPS()
	a.hud.Draw(a.term, area, st)
	return a.term.Display()
}

// clearArea blanks area so nothing from a previous frame survives while no
// frame is presented.
func clearArea(scr uv.Screen, area uv.Rectangle) {
	blank := &uv.Cell{Content: " ", Width: 1}
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			scr.SetCell(x, y, blank)
		}
	}
}
