// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coop

import (
	"testing"
	"time"
)

func TestExecutorTablesDrained(t *testing.T) {
	cpu := NewMachine()
	rt := New(cpu)
	q := NewPacketQueue()

	rt.Spawn(FutureFunc(func(Waker) error { return nil }))
	rt.Spawn(rt.Sleep(2 * time.Millisecond))
	rt.Spawn(FutureFunc(func(w Waker) error {
		_, err := q.Next(w)
		return err
	}))
	rt.RunPending()

	e := rt.Executor()
	if len(e.tasks) != 2 || len(e.wakers) != 2 {
		t.Fatalf("suspended tasks %d wakers %d, want 2 and 2", len(e.tasks), len(e.wakers))
	}
	for id := range e.wakers {
		if _, ok := e.tasks[id]; !ok {
			t.Fatalf("waker cached for finished task %d", id)
		}
	}

	cpu.Interrupt(func() { rt.TimerInterrupt(2 * time.Millisecond) })
	cpu.Interrupt(func() { q.Push(1) })
	rt.RunPending()

	if len(e.tasks) != 0 || len(e.wakers) != 0 {
		t.Fatalf("tables not drained: tasks %d wakers %d", len(e.tasks), len(e.wakers))
	}
	if _, ok := e.ready.pop(); ok {
		t.Fatal("ready queue not empty")
	}
	if e.carried {
		t.Fatal("idle carry left behind")
	}
}

func TestTaskWakerIdempotent(t *testing.T) {
	ready := newReadyQueue(4)
	task := NewTask(FutureFunc(func(Waker) error { return nil }))
	w := taskWaker{id: task.ID(), queued: &task.queued, ready: ready}

	w.Wake()
	w.Wake()
	if id, ok := ready.pop(); !ok || id != task.ID() {
		t.Fatalf("pop got %d, %v", id, ok)
	}
	if _, ok := ready.pop(); ok {
		t.Fatal("duplicate wake enqueued twice")
	}

	task.queued.Store(0)
	w.Wake()
	if _, ok := ready.pop(); !ok {
		t.Fatal("wake after poll not enqueued")
	}
}
