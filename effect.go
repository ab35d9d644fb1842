// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coop

import (
	"time"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// taskContext is the scheduler state visible to a task's effects.
// It also carries the progress of the effect currently suspended.
type taskContext struct {
	timer   *Timer
	spawner *Spawner
	clock   *Clock
	waker   Waker

	sleep   *Sleep
	yielded bool
}

// taskDispatcher is the structural interface for scheduler effects.
// DispatchTask is non-blocking: it returns iox.ErrWouldBlock when the
// effect cannot complete yet, after arranging for ctx.waker to fire.
type taskDispatcher interface {
	DispatchTask(ctx *taskContext) (kont.Resumed, error)
}

// Delay is the effect operation for sleeping on the runtime's [Timer].
// Perform(Delay{Duration: d}) overwrites the shared countdown with d and
// resumes once it reaches zero.
type Delay struct {
	kont.Phantom[struct{}]
	Duration time.Duration
}

// DispatchTask starts the sleep on first dispatch and polls it after.
func (d Delay) DispatchTask(ctx *taskContext) (kont.Resumed, error) {
	if ctx.sleep == nil {
		ctx.sleep = ctx.timer.Sleep(d.Duration)
	}
	if err := ctx.sleep.Poll(ctx.waker); err != nil {
		return nil, err
	}
	ctx.sleep = nil
	return struct{}{}, nil
}

// Next is the effect operation for receiving the next event from an
// interrupt-fed queue. Perform(Next[T]{Queue: q}) resumes with the event.
type Next[T any] struct {
	kont.Phantom[T]
	Queue *EventQueue[T]
}

// DispatchTask pops an event or registers the task's waker on the queue.
func (n Next[T]) DispatchTask(ctx *taskContext) (kont.Resumed, error) {
	v, err := n.Queue.Next(ctx.waker)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Yield is the effect operation for giving other ready tasks a turn.
// Perform(Yield{}) re-queues the task and resumes on its next poll.
type Yield struct {
	kont.Phantom[struct{}]
}

// DispatchTask wakes the task and suspends it once.
func (Yield) DispatchTask(ctx *taskContext) (kont.Resumed, error) {
	if !ctx.yielded {
		ctx.yielded = true
		ctx.waker.Wake()
		return nil, iox.ErrWouldBlock
	}
	ctx.yielded = false
	return struct{}{}, nil
}

// Spawn is the effect operation for starting another task.
// Perform(Spawn{Future: f}) resumes with the new task's id. Never blocks.
type Spawn struct {
	kont.Phantom[TaskID]
	Future Future
}

// DispatchTask hands the future to the runtime's spawner.
func (s Spawn) DispatchTask(ctx *taskContext) (kont.Resumed, error) {
	return ctx.spawner.SpawnFuture(s.Future), nil
}

// Now is the effect operation for reading system uptime.
type Now struct {
	kont.Phantom[time.Duration]
}

// DispatchTask reads the runtime's clock. Never blocks.
func (Now) DispatchTask(ctx *taskContext) (kont.Resumed, error) {
	return ctx.clock.Uptime(), nil
}

// effectTask drives an effectful computation as a [Future], one effect at
// a time. The suspension survives across polls that return ErrWouldBlock.
type effectTask struct {
	ctx     taskContext
	expr    kont.Expr[struct{}]
	susp    *kont.Suspension[struct{}]
	started bool
}

// Poll implements [Future].
func (t *effectTask) Poll(w Waker) error {
	t.ctx.waker = w
	if !t.started {
		t.started = true
		_, t.susp = kont.StepExpr(t.expr)
		t.expr = kont.Expr[struct{}]{}
	}
	for t.susp != nil {
		v, err := t.dispatch(t.susp.Op())
		if err != nil {
			if iox.IsWouldBlock(err) {
				return err
			}
			t.susp.Discard()
			t.susp = nil
			return err
		}
		_, t.susp = t.susp.Resume(v)
	}
	return nil
}

// dispatch handles scheduler effects, then error effects. A thrown error
// ends the task with that error.
func (t *effectTask) dispatch(op kont.Operation) (kont.Resumed, error) {
	if top, ok := op.(taskDispatcher); ok {
		return top.DispatchTask(&t.ctx)
	}
	if eop, ok := op.(interface {
		DispatchError(ctx *kont.ErrorContext[error]) (kont.Resumed, bool)
	}); ok {
		var ctx kont.ErrorContext[error]
		v, _ := eop.DispatchError(&ctx)
		if ctx.HasErr {
			return nil, ctx.Err
		}
		return v, nil
	}
	panic("coop: unhandled effect in task")
}
