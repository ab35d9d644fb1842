// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coop

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/lfq"
)

// Default capacities for the scheduler queues.
const (
	DefaultReadyCapacity = 100
	DefaultSpawnCapacity = 100
)

// MinCapacity is the smallest capacity any queue accepts.
const MinCapacity = 2

// bound enforces an exact element limit over an lfq queue, whose own
// capacity is rounded up to a power of two. A slot is acquired before the
// enqueue and released after the dequeue, so the queue never holds more
// than limit elements.
type bound struct {
	limit uint64
	n     atomix.Uint64
}

func (b *bound) init(limit int) {
	b.limit = uint64(limit)
}

// acquire reserves one slot. It fails without side effects when full.
func (b *bound) acquire() bool {
	for {
		cur := b.n.Load()
		if cur >= b.limit {
			return false
		}
		if b.n.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

func (b *bound) release() {
	b.n.Add(^uint64(0))
}

func (b *bound) len() int {
	return int(b.n.Load())
}

// readyQueue is the bounded ready queue of task ids.
// Any context may push; only the executor pops.
type readyQueue struct {
	q     *lfq.MPSC[TaskID]
	bound bound
}

func newReadyQueue(capacity int) *readyQueue {
	capacity = max(capacity, MinCapacity)
	r := &readyQueue{q: lfq.NewMPSC[TaskID](capacity)}
	r.bound.init(capacity)
	return r
}

// push enqueues id. A full ready queue means a wake would be lost,
// so it is fatal.
func (r *readyQueue) push(id TaskID) {
	if !r.bound.acquire() {
		panic("coop: ready queue full")
	}
	if err := r.q.Enqueue(&id); err != nil {
		r.bound.release()
		panic("coop: ready queue full")
	}
}

// pop dequeues the next id. Non-blocking.
func (r *readyQueue) pop() (TaskID, bool) {
	id, err := r.q.Dequeue()
	if err != nil {
		return 0, false
	}
	r.bound.release()
	return id, true
}

// handoffQueue carries freshly spawned tasks into the executor.
type handoffQueue struct {
	q     *lfq.MPSC[*Task]
	bound bound
}

func newHandoffQueue(capacity int) *handoffQueue {
	capacity = max(capacity, MinCapacity)
	h := &handoffQueue{q: lfq.NewMPSC[*Task](capacity)}
	h.bound.init(capacity)
	return h
}

func (h *handoffQueue) push(t *Task) {
	if !h.bound.acquire() {
		panic("coop: spawn queue full")
	}
	if err := h.q.Enqueue(&t); err != nil {
		h.bound.release()
		panic("coop: spawn queue full")
	}
}

func (h *handoffQueue) pop() (*Task, bool) {
	t, err := h.q.Dequeue()
	if err != nil {
		return nil, false
	}
	h.bound.release()
	return t, true
}
