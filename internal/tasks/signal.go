package tasks

import (
	"context"
	"time"
)

// Signal is a coalescing wake-up. Any number of Notify calls between two waits
// wake the waiter once. The zero value is not usable; call [NewSignal].
type Signal struct {
	c chan struct{}
}

func NewSignal() *Signal {
	return &Signal{c: make(chan struct{}, 1)}
}

// Notify marks the signal. It never blocks.
func (s *Signal) Notify() {
	select {
	case s.c <- struct{}{}:
	default:
	}
}

// C returns the channel to select on. Receiving from it consumes the notification.
func (s *Signal) C() <-chan struct{} {
	return s.c
}

// Wait blocks until the signal is notified or ctx is done.
func (s *Signal) Wait(ctx context.Context) error {
	select {
	case <-s.c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitTimeout blocks for at most d and reports whether the signal was notified.
func (s *Signal) WaitTimeout(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-s.c:
		return true
	case <-t.C:
		return false
	}
}
