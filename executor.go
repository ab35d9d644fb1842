// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coop

import (
	"log/slog"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
)

// Executor is the run loop of a single-core cooperative scheduler.
//
// It owns the table of live tasks, a bounded ready queue of task ids, and a
// cache holding one [Waker] per suspended task. Each cycle adopts newly
// spawned tasks and polls every ready task; when nothing is ready it halts
// the [CPU].
//
// All methods except Stats must be called from the executor's own context.
type Executor struct {
	cpu     CPU
	spawner *Spawner
	ready   *readyQueue
	tasks   map[TaskID]*Task
	wakers  map[TaskID]Waker
	log     *slog.Logger

	// carry holds an id dequeued by the idle check.
	carry   TaskID
	carried bool

	adopted   atomix.Uint64
	polled    atomix.Uint64
	completed atomix.Uint64
	failed    atomix.Uint64
}

// Stats is a snapshot of executor counters.
type Stats struct {
	Adopted   uint64
	Polled    uint64
	Completed uint64
	Failed    uint64
}

// Live returns the number of adopted tasks that have not finished.
func (s Stats) Live() uint64 {
	return s.Adopted - s.Completed - s.Failed
}

// NewExecutor creates an executor running on cpu that adopts tasks from sp.
// If sp is nil the executor creates its own spawner, available through
// [Executor.Spawner].
func NewExecutor(cpu CPU, sp *Spawner, opts ...Option) *Executor {
	o := buildOptions(opts)
	if sp == nil {
		sp = NewSpawner(o.spawnCapacity)
	}
	return &Executor{
		cpu:     cpu,
		spawner: sp,
		ready:   newReadyQueue(o.readyCapacity),
		tasks:   make(map[TaskID]*Task),
		wakers:  make(map[TaskID]Waker),
		log:     o.logger,
	}
}

// Spawner returns the spawner the executor adopts tasks from.
func (e *Executor) Spawner() *Spawner {
	return e.spawner
}

// Stats returns the executor counters. Safe for concurrent use.
func (e *Executor) Stats() Stats {
	return Stats{
		Adopted:   e.adopted.Load(),
		Polled:    e.polled.Load(),
		Completed: e.completed.Load(),
		Failed:    e.failed.Load(),
	}
}

// Run runs the scheduling loop forever.
func (e *Executor) Run() {
	for {
		e.cycle()
	}
}

// RunUntil runs the scheduling loop until done is closed. done is checked
// once per cycle; a halted executor notices it after the next interrupt.
func (e *Executor) RunUntil(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}
		e.cycle()
	}
}

// RunPending adopts and polls tasks until both the hand-off queue and the
// ready queue are empty, without halting. It returns the number of polls.
func (e *Executor) RunPending() int {
	polls := 0
	for {
		n := e.adopt()
		p := e.runReady()
		polls += p
		if n == 0 && p == 0 {
			return polls
		}
	}
}

func (e *Executor) cycle() {
	e.adopt()
	e.runReady()
	e.idle()
}

// adopt drains the hand-off queue into the task table.
func (e *Executor) adopt() int {
	n := 0
	for {
		t, ok := e.spawner.q.pop()
		if !ok {
			return n
		}
		e.insert(t)
		n++
	}
}

func (e *Executor) insert(t *Task) {
	if _, ok := e.tasks[t.id]; ok {
		panic("coop: task with same id already in task table")
	}
	e.tasks[t.id] = t
	e.adopted.Add(1)
	e.log.Debug("task adopted", "task", t.id)
	t.queued.Store(1)
	e.ready.push(t.id)
}

// runReady polls ready tasks until the ready queue is empty.
func (e *Executor) runReady() int {
	polls := 0
	for {
		id, ok := e.next()
		if !ok {
			return polls
		}
		t, ok := e.tasks[id]
		if !ok {
			// Already finished; a stale wake.
			continue
		}
		w, ok := e.wakers[id]
		if !ok {
			w = taskWaker{id: id, queued: &t.queued, ready: e.ready}
			e.wakers[id] = w
		}
		polls++
		e.polled.Add(1)
		err := t.poll(w)
		switch {
		case err == nil:
			e.remove(id)
			e.completed.Add(1)
			e.log.Debug("task completed", "task", id)
		case iox.IsWouldBlock(err):
		default:
			e.remove(id)
			e.failed.Add(1)
			e.log.Error("task failed", "task", id, "err", err)
		}
	}
}

func (e *Executor) remove(id TaskID) {
	delete(e.tasks, id)
	delete(e.wakers, id)
}

func (e *Executor) next() (TaskID, bool) {
	if e.carried {
		e.carried = false
		return e.carry, true
	}
	return e.ready.pop()
}

// idle halts the processor if no work is ready. The check runs with
// interrupts disabled and the halt re-enables them in the same step, so a
// wake that races the check is never missed.
func (e *Executor) idle() {
	e.cpu.DisableInterrupts()
	if id, ok := e.ready.pop(); ok {
		e.carry, e.carried = id, true
		e.cpu.EnableInterrupts()
		return
	}
	if t, ok := e.spawner.q.pop(); ok {
		e.insert(t)
		e.cpu.EnableInterrupts()
		return
	}
	e.cpu.EnableInterruptsAndHalt()
}
