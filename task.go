// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coop

import "code.hybscloud.com/atomix"

// Future is a suspend/resume computation driven by polling.
//
// Poll makes as much progress as possible without blocking. It returns nil
// when the computation is done, or iox.ErrWouldBlock when it cannot make
// progress yet; in that case it must have arranged for w to be invoked once
// progress is possible again. Any other error also ends the computation and
// is reported by the executor as a task failure.
type Future interface {
	Poll(w Waker) error
}

// FutureFunc adapts an ordinary function to a [Future].
type FutureFunc func(w Waker) error

// Poll calls f(w).
func (f FutureFunc) Poll(w Waker) error {
	return f(w)
}

// Task is a uniquely identified unit of cooperative work.
//
// A Task is owned by its [Spawner] until the [Executor] adopts it, and by
// the Executor's task table thereafter. It is dropped the instant its
// Future reports completion.
type Task struct {
	id     TaskID
	future Future
	queued atomix.Uint32
}

// NewTask wraps f in a Task with a fresh id.
func NewTask(f Future) *Task {
	return &Task{id: nextTaskID(), future: f}
}

// ID returns the task's identity.
func (t *Task) ID() TaskID {
	return t.id
}

// poll advances the task once. The queued flag is cleared first so that
// any wake raised during or after the poll schedules the task again.
func (t *Task) poll(w Waker) error {
	t.queued.Store(0)
	return t.future.Poll(w)
}
