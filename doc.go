// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package coop is the concurrency core of a single-CPU kernel: a
// cooperative task scheduler that bridges hardware interrupts with
// asynchronously polled units of work.
//
// # Architecture
//
//   - Tasks: a [Task] wraps a [Future] and a unique [TaskID]. Poll returns nil
//     when done and [code.hybscloud.com/iox.ErrWouldBlock] when suspended.
//   - Spawning: [Spawner] hands new tasks to the [Executor] through a bounded
//     lock-free MPSC queue from [code.hybscloud.com/lfq].
//   - Scheduling: the [Executor] adopts spawned tasks, polls ready ones, and
//     halts the [CPU] when idle. The idle check masks interrupts and the halt
//     unmasks them atomically, so no wake is lost.
//   - Waking: a [Waker] pushes its task's id back onto the ready queue. It is
//     safe to call from interrupt context.
//   - Delays: [Timer] holds one shared countdown that the timer interrupt
//     decrements via [Timer.Tick]; [Sleep] awaits it.
//   - Devices: [EventQueue] turns an interrupt-fed event source into an
//     awaitable sequence with a register-then-recheck shared waker.
//
// # Failure Semantics
//
// Scheduler invariant violations panic, as there is no supervisor to
// restart the scheduler:
//
//   - a full ready or hand-off queue
//   - a task id already present in the task table
//   - spawning on an uninitialized [Spawner]
//
// A full device queue drops the event instead. A Future that fails is
// logged and removed; the executor keeps running.
//
// # Effectful Tasks
//
// Task bodies may be written as [code.hybscloud.com/kont] computations that
// perform [Delay], [Next], [Yield], [Spawn] and [Now], then adapted with
// [Runtime.Go]. The adapter evaluates one effect at a time.
//
// # Example
//
//	cpu := coop.NewMachine()
//	rt := coop.New(cpu)
//	rt.Spawn(rt.Go(coop.DelayThen(50*time.Millisecond, coop.Done())))
//	go func() {
//		for range time.Tick(10 * time.Millisecond) {
//			cpu.Interrupt(func() { rt.TimerInterrupt(10 * time.Millisecond) })
//		}
//	}()
//	rt.Run()
package coop
