package generator

import "sync/atomic"

// RunLock provides non-blocking lock semantics using an atomic CAS. It
// guards the scratch directory against overlapping generation runs.
type RunLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking. Returns true if
// the lock was acquired.
func (l *RunLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock. Must only be called after a successful
// TryAcquire.
func (l *RunLock) Release() {
	l.state.Store(0)
}
