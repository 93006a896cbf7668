package deal

import (
	"errors"

	"go.uber.org/atomic"
)

// ErrRecomputeInProgress is returned when a recompute is requested while
// another one is running on the same worksheet.
var ErrRecomputeInProgress = errors.New("recompute already in progress")

// Session marks a worksheet as computing. Only one holder may own it at a
// time; nested acquisition attempts fail instead of blocking.
type Session struct {
	active atomic.Bool
}

// Token is proof of session ownership. Release is safe to call more than once.
type Token struct {
	session  *Session
	released atomic.Bool
}

// Acquire takes the session, reporting false when it is already held.
func (s *Session) Acquire() (*Token, bool) {
	if !s.active.CompareAndSwap(false, true) {
		return nil, false
	}
	return &Token{session: s}, true
}

// Active reports whether a compute cycle currently owns the session.
func (s *Session) Active() bool {
	return s.active.Load()
}

// Release frees the session.
func (t *Token) Release() {
	if t == nil {
		return
	}
	if t.released.CompareAndSwap(false, true) {
		t.session.active.Store(false)
	}
}
