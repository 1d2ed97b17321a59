package render

import (
	"errors"
	"sync"

	uv "github.com/charmbracelet/ultraviolet"
)

var (
	// ErrSurfaceRemoved is returned when the host has already torn the
	// surface down.
	ErrSurfaceRemoved = errors.New("surface removed")
	// ErrSurfaceInUse is returned when a second renderer tries to attach.
	ErrSurfaceInUse = errors.New("surface already has a renderer attached")
)

// Surface is a rectangular region of the terminal that one renderer draws
// into. The host owns its lifetime: it sizes it, draws it onto the screen
// and may remove it at any time.
type Surface struct {
	mu      sync.Mutex
	cols    int
	rows    int
	frame   *Framebuffer
	owner   any
	removed bool
}

// NewSurface creates a surface of cols × rows terminal cells.
func NewSurface(cols, rows int) *Surface {
	return &Surface{cols: cols, rows: rows}
}

// Size returns the surface size in terminal cells.
func (s *Surface) Size() (cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cols, s.rows
}

// PixelSize returns the framebuffer size that fills the surface.
func (s *Surface) PixelSize() (width, height int) {
	cols, rows := s.Size()
	return cols, rows * 2
}

// Resize changes the surface size.
func (s *Surface) Resize(cols, rows int) {
	s.mu.Lock()
	s.cols, s.rows = cols, rows
	s.mu.Unlock()
}

// Attach binds owner to the surface.
func (s *Surface) Attach(owner any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed {
		return ErrSurfaceRemoved
	}
	if s.owner != nil && s.owner != owner {
		return ErrSurfaceInUse
	}
	s.owner = owner
	return nil
}

// Detach releases owner's binding and clears the presented frame.
func (s *Surface) Detach(owner any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed {
		return ErrSurfaceRemoved
	}
	if s.owner == owner {
		s.owner = nil
		s.frame = nil
	}
	return nil
}

// Attached reports whether a renderer is bound.
func (s *Surface) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner != nil
}

// Remove tears the surface down. Later Attach, Detach and Present calls fail
// with ErrSurfaceRemoved.
func (s *Surface) Remove() {
	s.mu.Lock()
	s.removed = true
	s.owner = nil
	s.frame = nil
	s.mu.Unlock()
}

// Removed reports whether the host removed the surface.
func (s *Surface) Removed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removed
}

// Present publishes a completed frame. The surface keeps its own copy.
func (s *Surface) Present(owner any, fb *Framebuffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed {
		return ErrSurfaceRemoved
	}
	if s.owner != owner {
		return nil
	}
	if s.frame == nil {
		s.frame = &Framebuffer{}
	}
	s.frame.CopyFrom(fb)
	return nil
}

// Frame returns a copy of the last presented frame, or nil.
func (s *Surface) Frame() *Framebuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return nil
	}
	return s.frame.Clone()
}

// Draw paints the last presented frame into area.
func (s *Surface) Draw(scr uv.Screen, area uv.Rectangle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return
	}
	s.frame.Draw(scr, area)
}
