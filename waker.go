// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coop

import "code.hybscloud.com/atomix"

// Waker is the capability to request re-scheduling of a suspended task.
//
// Wake must be safe to call from interrupt context: it never blocks and
// never allocates.
type Waker interface {
	Wake()
}

// WakerFunc adapts an ordinary function to a [Waker].
type WakerFunc func()

// Wake calls f().
func (f WakerFunc) Wake() {
	f()
}

// taskWaker pushes its task's id onto the ready queue.
// Value receiver: a copy and a pointer wake the same task.
type taskWaker struct {
	id     TaskID
	queued *atomix.Uint32
	ready  *readyQueue
}

// Wake enqueues the task unless it is already waiting in the ready queue.
func (w taskWaker) Wake() {
	if w.queued.CompareAndSwap(0, 1) {
		w.ready.push(w.id)
	}
}

type wakerCell struct {
	w Waker
}

// AtomicWaker is a single shared waker slot written by a consumer and
// fired by an interrupt handler.
//
// Register stores the consumer's waker, replacing any previous one. Wake
// takes the stored waker, if any, and invokes it. The zero value is empty
// and ready for use.
type AtomicWaker struct {
	slot atomix.Pointer[wakerCell]
}

// Register stores w as the waker to fire on the next Wake.
func (a *AtomicWaker) Register(w Waker) {
	a.slot.Store(&wakerCell{w: w})
}

// Take removes and returns the stored waker, or nil if the slot is empty.
func (a *AtomicWaker) Take() Waker {
	if c := a.slot.Swap(nil); c != nil {
		return c.w
	}
	return nil
}

// Wake fires and clears the stored waker. Allocation-free.
func (a *AtomicWaker) Wake() {
	if w := a.Take(); w != nil {
		w.Wake()
	}
}
