package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/taigrr/splatview/pkg/math3d"
)

var errNotFound = errors.New("404 not found")

type fakeContainer struct {
	mu      sync.Mutex
	owner   any
	removed bool
}

func (c *fakeContainer) Attach(owner any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.owner != nil {
		return fmt.Errorf("container busy")
	}
	c.owner = owner
	return nil
}

func (c *fakeContainer) Detach(owner any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.removed {
		return ErrContainerRemoved
	}
	if c.owner == owner {
		c.owner = nil
	}
	return nil
}

func (c *fakeContainer) remove() {
	c.mu.Lock()
	c.removed = true
	c.owner = nil
	c.mu.Unlock()
}

type fakeEngine struct {
	mu           sync.Mutex
	live         int
	maxLive      int
	renderers    []*fakeRenderer
	constructErr error
	decodeErr    map[string]error
	decodePanic  map[string]bool
	keepAlpha    uint8 // decoded assets are empty above this threshold
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{decodeErr: map[string]error{}, decodePanic: map[string]bool{}, keepAlpha: 255}
}

func (e *fakeEngine) Construct(c Container, opts RendererOptions) (Renderer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.constructErr != nil {
		return nil, e.constructErr
	}
	r := &fakeRenderer{eng: e, container: c, opts: opts}
	r.cam = &fakeCamera{pos: opts.Position, up: opts.Up}
	r.ctl = &fakeControls{target: opts.LookAt}
	if err := c.Attach(r); err != nil {
		return nil, err
	}
	e.live++
	e.maxLive = max(e.maxLive, e.live)
	e.renderers = append(e.renderers, r)
	return r, nil
}

func (e *fakeEngine) liveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.live
}

func (e *fakeEngine) peakLive() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxLive
}

func (e *fakeEngine) built() []*fakeRenderer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*fakeRenderer(nil), e.renderers...)
}

func (e *fakeEngine) last() *fakeRenderer {
	rs := e.built()
	if len(rs) == 0 {
		return nil
	}
	return rs[len(rs)-1]
}

type fakeAsset struct {
	name  string
	count int
	alpha uint8
	lo    math3d.Vec3
	hi    math3d.Vec3
}

func (a *fakeAsset) Bounds() (min, max math3d.Vec3) { return a.lo, a.hi }
func (a *fakeAsset) Count() int                     { return a.count }

type fakeRenderer struct {
	eng       *fakeEngine
	container Container
	opts      RendererOptions
	cam       *fakeCamera
	ctl       *fakeControls

	mu        sync.Mutex
	attached  []*fakeAsset
	removeAll int
	running   bool
	disposed  int
}

func (r *fakeRenderer) Camera() Camera     { return r.cam }
func (r *fakeRenderer) Controls() Controls { return r.ctl }

func (r *fakeRenderer) Decode(ctx context.Context, filename string, data []byte, opts AssetOptions) (Asset, error) {
	r.eng.mu.Lock()
	err := r.eng.decodeErr[filename]
	boom := r.eng.decodePanic[filename]
	keep := r.eng.keepAlpha
	r.eng.mu.Unlock()
	if boom {
		panic("corrupt " + filename)
	}
	if err != nil {
		return nil, err
	}
	count := 10
	if opts.AlphaRemovalThreshold > keep {
		count = 0
	}
	return &fakeAsset{
		name:  filename,
		count: count,
		alpha: opts.AlphaRemovalThreshold,
		lo:    math3d.V3(-1, -1, -1).Add(opts.Offset),
		hi:    math3d.V3(1, 1, 1).Add(opts.Offset),
	}, nil
}

func (r *fakeRenderer) Attach(a Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed > 0 {
		return errors.New("attach after dispose")
	}
	r.attached = append(r.attached, a.(*fakeAsset))
	return nil
}

func (r *fakeRenderer) RemoveAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeAll++
	r.attached = nil
}

func (r *fakeRenderer) Start() {
	r.mu.Lock()
	r.running = true
	r.mu.Unlock()
}

func (r *fakeRenderer) Stop() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

func (r *fakeRenderer) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *fakeRenderer) Dispose() error {
	r.mu.Lock()
	r.disposed++
	first := r.disposed == 1
	r.mu.Unlock()
	if first {
		r.eng.mu.Lock()
		r.eng.live--
		r.eng.mu.Unlock()
	}
	return r.container.Detach(r)
}

func (r *fakeRenderer) assets() []*fakeAsset {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*fakeAsset(nil), r.attached...)
}

func (r *fakeRenderer) disposeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disposed
}

func (r *fakeRenderer) removeAllCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeAll
}

type fakeCamera struct {
	pos math3d.Vec3
	up  math3d.Vec3
}

func (c *fakeCamera) Position() math3d.Vec3     { return c.pos }
func (c *fakeCamera) SetPosition(p math3d.Vec3) { c.pos = p }
func (c *fakeCamera) Up() math3d.Vec3           { return c.up }

type fakeControls struct {
	target     math3d.Vec3
	constraint OrbitConstraint
	updates    int
}

func (c *fakeControls) Target() math3d.Vec3              { return c.target }
func (c *fakeControls) SetTarget(t math3d.Vec3)          { c.target = t }
func (c *fakeControls) SetConstraint(oc OrbitConstraint) { c.constraint = oc }
func (c *fakeControls) Update()                          { c.updates++ }

// gatedFetcher blocks fetches of gated files until released. It ignores
// cancellation, like a download nobody aborts.
type gatedFetcher struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	missing map[string]bool
	calls   []string
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{gates: map[string]chan struct{}{}, missing: map[string]bool{}}
}

func (f *gatedFetcher) gate(filename string) {
	f.mu.Lock()
	f.gates[filename] = make(chan struct{})
	f.mu.Unlock()
}

func (f *gatedFetcher) release(filename string) {
	f.mu.Lock()
	ch := f.gates[filename]
	delete(f.gates, filename)
	f.mu.Unlock()
	if ch != nil {
		close(ch)
	}
}

func (f *gatedFetcher) Fetch(ctx context.Context, filename string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, filename)
	ch := f.gates[filename]
	missing := f.missing[filename]
	f.mu.Unlock()
	if ch != nil {
		<-ch
	}
	if missing {
		return nil, errNotFound
	}
	return []byte("payload:" + filename), nil
}

func (f *gatedFetcher) fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// recorder collects guard events.
type recorder struct {
	mu     sync.Mutex
	events []Event
	engine *fakeEngine
	peak   int
}

func (r *recorder) observe(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	if r.engine != nil {
		r.peak = max(r.peak, r.engine.liveCount())
	}
}

func (r *recorder) transitions() []Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Transition
	for _, ev := range r.events {
		if t, ok := ev.(Transition); ok {
			out = append(out, t)
		}
	}
	return out
}

func (r *recorder) count(match func(Event) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if match(ev) {
			n++
		}
	}
	return n
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

func isDiscarded(ev Event) bool { _, ok := ev.(Discarded); return ok }

// manualFrames is a FrameSource driven by the test.
type manualFrames struct {
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func newManualFrames() *manualFrames {
	return &manualFrames{ch: make(chan time.Time), stopped: make(chan struct{})}
}

func (f *manualFrames) C() <-chan time.Time { return f.ch }
func (f *manualFrames) Stop()               { f.once.Do(func() { close(f.stopped) }) }

// tick delivers one frame, or reports false if the loop is gone.
func (f *manualFrames) tick(t time.Time) bool {
	select {
	case f.ch <- t:
		return true
	case <-f.stopped:
		return false
	case <-time.After(time.Second):
		return false
	}
}
