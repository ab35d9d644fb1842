// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coop

import (
	"time"

	"code.hybscloud.com/kont"
)

// Runtime is the scheduler context of one processor: its [Executor],
// [Spawner], sleep [Timer] and uptime [Clock].
//
// A Runtime is created once at startup and passed explicitly to every
// component that spawns or sleeps. Independent Runtimes share nothing but
// the task id counter.
type Runtime struct {
	exec  *Executor
	timer *Timer
	clock Clock
}

// New creates a Runtime on cpu.
func New(cpu CPU, opts ...Option) *Runtime {
	return &Runtime{
		exec:  NewExecutor(cpu, nil, opts...),
		timer: NewTimer(cpu),
	}
}

// Executor returns the runtime's executor.
func (rt *Runtime) Executor() *Executor { return rt.exec }

// Spawner returns the runtime's spawner.
func (rt *Runtime) Spawner() *Spawner { return rt.exec.spawner }

// Timer returns the runtime's sleep timer.
func (rt *Runtime) Timer() *Timer { return rt.timer }

// Clock returns the runtime's uptime clock.
func (rt *Runtime) Clock() *Clock { return &rt.clock }

// Spawn wraps f in a new task and hands it to the executor.
func (rt *Runtime) Spawn(f Future) TaskID {
	return rt.exec.spawner.SpawnFuture(f)
}

// Sleep starts a delay on the runtime's timer.
func (rt *Runtime) Sleep(d time.Duration) *Sleep {
	return rt.timer.Sleep(d)
}

// TimerInterrupt is the body of the periodic timer interrupt handler.
// It advances the uptime clock and the sleep countdown by elapsed.
func (rt *Runtime) TimerInterrupt(elapsed time.Duration) {
	rt.clock.Tick(elapsed)
	rt.timer.Tick(elapsed)
}

// Go adapts an effectful task body to a [Future] bound to this runtime.
// The body may perform [Delay], [Next], [Yield], [Spawn] and [Now], and
// may throw with kont.ThrowError[error] to fail the task.
func (rt *Runtime) Go(body kont.Eff[struct{}]) Future {
	return rt.GoExpr(kont.Reify(body))
}

// GoExpr is the Expr-world form of [Runtime.Go].
func (rt *Runtime) GoExpr(body kont.Expr[struct{}]) Future {
	return &effectTask{
		ctx:  taskContext{timer: rt.timer, spawner: rt.exec.spawner, clock: &rt.clock},
		expr: body,
	}
}

// Run runs the executor forever.
func (rt *Runtime) Run() { rt.exec.Run() }

// RunUntil runs the executor until done is closed.
func (rt *Runtime) RunUntil(done <-chan struct{}) { rt.exec.RunUntil(done) }

// RunPending runs the executor until no task is ready, without halting.
func (rt *Runtime) RunPending() int { return rt.exec.RunPending() }
