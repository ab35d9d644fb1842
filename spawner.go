// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coop

// Spawner accepts new tasks from any code location, including other tasks,
// and hands them to an [Executor] through a bounded lock-free queue.
//
// Spawning never touches the executor's task table; the executor adopts
// ownership inside its own loop iteration.
type Spawner struct {
	q *handoffQueue
}

// NewSpawner creates a Spawner whose hand-off queue holds exactly capacity
// tasks. Non-positive values select [DefaultSpawnCapacity]; a capacity of 1
// is raised to [MinCapacity].
func NewSpawner(capacity int) *Spawner {
	if capacity <= 0 {
		capacity = DefaultSpawnCapacity
	}
	capacity = max(capacity, MinCapacity)
	return &Spawner{q: newHandoffQueue(capacity)}
}

// Spawn enqueues t and returns immediately.
//
// Spawn panics if s was never initialized with [NewSpawner] or if the
// hand-off queue is full: a dropped task would be a silent liveness bug.
func (s *Spawner) Spawn(t *Task) {
	if s == nil || s.q == nil {
		panic("coop: task spawner not initialized")
	}
	s.q.push(t)
}

// SpawnFuture wraps f in a new [Task], spawns it, and returns its id.
func (s *Spawner) SpawnFuture(f Future) TaskID {
	t := NewTask(f)
	s.Spawn(t)
	return t.id
}
