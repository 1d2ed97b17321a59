package viewer

import (
	"errors"
	"fmt"
)

// Kind classifies viewer errors.
type Kind int

const (
	// KindUnsupportedFormat means the asset extension has no decoder.
	KindUnsupportedFormat Kind = iota + 1
	// KindLoadFailure covers fetch and decode errors.
	KindLoadFailure
	// KindInitializationFailure means the renderer could not be constructed.
	KindInitializationFailure
	// KindStaleResultDiscarded marks a superseded load. Never surfaced.
	KindStaleResultDiscarded
	// KindDisposeRace marks a teardown of an already removed container.
	// Never surfaced.
	KindDisposeRace
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedFormat:
		return "unsupported format"
	case KindLoadFailure:
		return "load failure"
	case KindInitializationFailure:
		return "initialization failure"
	case KindStaleResultDiscarded:
		return "stale result discarded"
	case KindDisposeRace:
		return "dispose race"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a classified viewer error.
type Error struct {
	Kind     Kind
	Filename string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Filename != "" {
		msg += " " + e.Filename
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err,
// ErrLoadFailure) works for every load failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrUnsupportedFormat     = &Error{Kind: KindUnsupportedFormat}
	ErrLoadFailure           = &Error{Kind: KindLoadFailure}
	ErrInitializationFailure = &Error{Kind: KindInitializationFailure}
	ErrStaleResultDiscarded  = &Error{Kind: KindStaleResultDiscarded}
	ErrDisposeRace           = &Error{Kind: KindDisposeRace}
)

// ErrContainerRemoved is returned by Renderer.Dispose when the host removed
// the container before the renderer was torn down.
var ErrContainerRemoved = errors.New("container removed")

// KindOf returns the kind of err, or 0 if err is not a viewer error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Surfaced reports whether err belongs to the kinds shown to the user.
func Surfaced(err error) bool {
	switch KindOf(err) {
	case KindUnsupportedFormat, KindLoadFailure, KindInitializationFailure:
		return true
	}
	return false
}

func newError(kind Kind, filename string, err error) *Error {
	return &Error{Kind: kind, Filename: filename, Err: err}
}
