// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coop

import (
	"errors"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// DefaultPacketCapacity is the pointer-device packet queue capacity.
// A PS/2 mouse reports about 100 packets per second by default.
const DefaultPacketCapacity = 500

var (
	// ErrAlreadyInitialized is returned by a second [EventQueue.Init].
	ErrAlreadyInitialized = errors.New("coop: event queue already initialized")
	// ErrNotInitialized is returned by [EventQueue.Next] before Init.
	ErrNotInitialized = errors.New("coop: event queue not initialized")
	// ErrCapacity is returned by [EventQueue.Init] for a capacity below
	// [MinCapacity].
	ErrCapacity = errors.New("coop: event queue capacity below minimum")
)

const (
	queueUninit uint32 = iota
	queueIniting
	queueReady
)

// EventQueue turns an interrupt-fed hardware event into an awaitable
// sequence.
//
// The owning interrupt handler is the only producer and calls Push once per
// event; one async consumer drains it with Next. Transport is a bounded
// lock-free SPSC queue from lfq, paired with a single shared waker.
type EventQueue[T any] struct {
	state atomix.Uint32
	q     lfq.SPSC[T]
	bound bound
	waker AtomicWaker
}

// Init allocates the queue to hold exactly capacity events. It succeeds
// exactly once; later calls return [ErrAlreadyInitialized]. A capacity
// below [MinCapacity] returns [ErrCapacity] and leaves the queue
// uninitialized.
func (s *EventQueue[T]) Init(capacity int) error {
	if capacity < MinCapacity {
		return ErrCapacity
	}
	if !s.state.CompareAndSwap(queueUninit, queueIniting) {
		return ErrAlreadyInitialized
	}
	s.q.Init(capacity)
	s.bound.init(capacity)
	s.state.Store(queueReady)
	return nil
}

// Push enqueues v and wakes the consumer. It is called from interrupt
// context: it never blocks and never allocates. Events that arrive before
// Init or while the queue is full are dropped, and Push reports false.
func (s *EventQueue[T]) Push(v T) bool {
	if s.state.Load() != queueReady {
		return false
	}
	if !s.bound.acquire() {
		return false
	}
	if err := s.q.Enqueue(&v); err != nil {
		s.bound.release()
		return false
	}
	s.waker.Wake()
	return true
}

// Next returns the next event. When none is queued it registers w and
// checks once more before returning iox.ErrWouldBlock.
func (s *EventQueue[T]) Next(w Waker) (T, error) {
	var zero T
	if s.state.Load() != queueReady {
		return zero, ErrNotInitialized
	}
	if v, err := s.q.Dequeue(); err == nil {
		s.bound.release()
		return v, nil
	}
	s.waker.Register(w)
	if v, err := s.q.Dequeue(); err == nil {
		s.bound.release()
		s.waker.Take()
		return v, nil
	}
	return zero, iox.ErrWouldBlock
}

// ForEach returns a [Future] that passes every event to f, forever.
// It fails with [ErrNotInitialized] if the queue was never initialized.
func (s *EventQueue[T]) ForEach(f func(T)) Future {
	return FutureFunc(func(w Waker) error {
		for {
			v, err := s.Next(w)
			if err != nil {
				return err
			}
			f(v)
		}
	})
}

// Len returns the number of queued events.
func (s *EventQueue[T]) Len() int {
	return s.bound.len()
}

// PacketQueue carries raw pointer-device bytes, one per interrupt.
type PacketQueue = EventQueue[byte]

// NewPacketQueue returns an initialized packet queue of
// [DefaultPacketCapacity].
func NewPacketQueue() *PacketQueue {
	q := new(PacketQueue)
	if err := q.Init(DefaultPacketCapacity); err != nil {
		panic("coop: packet queue: " + err.Error())
	}
	return q
}
