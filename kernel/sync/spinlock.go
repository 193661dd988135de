// Package sync provides the interrupt-aware spinlock used by every shared
// allocator state in this module (spec §4.5, §5). It intentionally shadows
// the standard library's sync package name the same way the teacher's
// kernel/sync does, since nothing in a freestanding kernel core may use
// sync.Mutex (it blocks by parking a goroutine, which requires a scheduler
// this module does not have).
package sync

import (
	"sync/atomic"

	"rvkernel/kernel/hal"
)

// Spinlock is a single atomic test-and-set lock. Acquire busy-waits until
// the lock is free; it does not disable interrupts, so it must not be taken
// from a context where an interrupt handler could try to reacquire the same
// lock (use IRQSpinlock there instead).
type Spinlock struct {
	state uint32
}

// Lock blocks until the lock can be acquired.
func (l *Spinlock) Lock() {
	for !atomic.CompareAndSwapUint32(&l.state, 0, 1) {
	}
}

// TryLock attempts to acquire the lock without blocking.
func (l *Spinlock) TryLock() bool {
	return atomic.CompareAndSwapUint32(&l.state, 0, 1)
}

// Unlock releases a held lock. Calling Unlock on a free lock has no effect
// on correctness but indicates a caller bug.
func (l *Spinlock) Unlock() {
	atomic.StoreUint32(&l.state, 0)
}

var (
	// isInterruptOnFn, interruptOnFn and interruptOffFn are indirections
	// over the hal package used by tests to simulate interrupt state
	// without touching real hardware registers.
	isInterruptOnFn = hal.IsInterruptOn
	interruptOnFn   = hal.InterruptOn
	interruptOffFn  = hal.InterruptOff
)

// IRQSpinlock is a Spinlock that also disables local interrupts for the
// duration of the critical section, so an interrupt handler running on the
// same hart can never deadlock against a lock its own kernel thread holds.
type IRQSpinlock struct {
	inner Spinlock
}

// IRQGuard is returned by Lock/TryLock and remembers whether interrupts were
// enabled before the lock was taken, so Unlock can restore that state.
type IRQGuard struct {
	l            *IRQSpinlock
	irqWasOn     bool
	acquiredLock bool
}

// Lock disables interrupts, acquires the underlying spinlock, and returns a
// guard that Unlock must be called on.
func (l *IRQSpinlock) Lock() IRQGuard {
	irqWasOn := isInterruptOnFn()
	interruptOffFn()
	l.inner.Lock()
	return IRQGuard{l: l, irqWasOn: irqWasOn, acquiredLock: true}
}

// TryLock disables interrupts and attempts to acquire the underlying
// spinlock without blocking. If it fails, interrupts are restored to their
// prior state and the returned guard's Unlock is a no-op.
func (l *IRQSpinlock) TryLock() (IRQGuard, bool) {
	irqWasOn := isInterruptOnFn()
	interruptOffFn()
	if !l.inner.TryLock() {
		if irqWasOn {
			interruptOnFn()
		}
		return IRQGuard{}, false
	}
	return IRQGuard{l: l, irqWasOn: irqWasOn, acquiredLock: true}, true
}

// Unlock releases the spinlock and, if interrupts were enabled at the time
// Lock was called, re-enables them.
func (g IRQGuard) Unlock() {
	if !g.acquiredLock {
		return
	}
	g.l.inner.Unlock()
	if g.irqWasOn {
		interruptOnFn()
	}
}
