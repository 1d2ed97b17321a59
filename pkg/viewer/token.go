package viewer

import "sync/atomic"

// Token identifies one load or teardown attempt. Larger is newer.
type Token uint64

// Sequencer mints monotonically increasing tokens. A result is applied only
// if the token captured when its work began is still current.
type Sequencer struct {
	cur atomic.Uint64
}

// Next invalidates every outstanding token and returns a fresh one.
func (s *Sequencer) Next() Token {
	return Token(s.cur.Add(1))
}

// Current returns the newest token.
func (s *Sequencer) Current() Token {
	return Token(s.cur.Load())
}

// IsCurrent reports whether t has not been superseded.
func (s *Sequencer) IsCurrent(t Token) bool {
	return s.Current() == t
}
