package worker

import "sync/atomic"

// Latest hands out generation tokens so that a caller issuing requests
// faster than they complete can drop replies that have been superseded.
type Latest struct {
	gen atomic.Uint64
}

// Next starts a new generation and returns its token.
func (l *Latest) Next() uint64 {
	return l.gen.Add(1)
}

// IsCurrent reports whether token belongs to the most recent generation.
func (l *Latest) IsCurrent(token uint64) bool {
	return l.gen.Load() == token
}
