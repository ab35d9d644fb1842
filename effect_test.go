// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coop_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"code.hybscloud.com/kont"

	"code.hybscloud.com/coop"
)

// record appends s to log when the task reaches it.
func record(log *[]string, s string) kont.Eff[struct{}] {
	return kont.Bind(kont.Pure(struct{}{}), func(struct{}) kont.Eff[struct{}] {
		*log = append(*log, s)
		return coop.Done()
	})
}

func TestGoDelayThenNow(t *testing.T) {
	rt, _ := newRuntime()
	var woke time.Duration
	rt.Spawn(rt.Go(coop.DelayThen(3*tick, coop.NowBind(func(d time.Duration) kont.Eff[struct{}] {
		woke = d
		return coop.Done()
	}))))
	rt.RunPending()

	for range 2 {
		rt.TimerInterrupt(tick)
		rt.RunPending()
	}
	if rt.Executor().Stats().Completed != 0 {
		t.Fatal("task finished before its delay")
	}
	rt.TimerInterrupt(tick)
	rt.RunPending()
	if rt.Executor().Stats().Completed != 1 {
		t.Fatal("task did not finish after its delay")
	}
	if woke != 3*tick {
		t.Fatalf("uptime at wake %v, want %v", woke, 3*tick)
	}
}

func TestGoNextBindForever(t *testing.T) {
	rt, cpu := newRuntime()
	q := coop.NewPacketQueue()
	var got []byte
	rt.Spawn(rt.Go(coop.Forever(func() kont.Eff[struct{}] {
		return coop.NextBind(q, func(b byte) kont.Eff[struct{}] {
			got = append(got, b)
			return coop.Done()
		})
	})))
	rt.RunPending()

	for _, b := range []byte("irq") {
		cpu.Interrupt(func() { q.Push(b) })
		rt.RunPending()
	}
	if string(got) != "irq" {
		t.Fatalf("got %q, want %q", got, "irq")
	}
	if rt.Executor().Stats().Live() != 1 {
		t.Fatal("event loop should stay live")
	}
}

func TestGoYieldInterleaves(t *testing.T) {
	rt, _ := newRuntime()
	var log []string
	for _, name := range []string{"a", "b"} {
		rt.Spawn(rt.Go(kont.Then(record(&log, name+"1"), coop.YieldThen(record(&log, name+"2")))))
	}
	rt.RunPending()
	if got := strings.Join(log, " "); got != "a1 b1 a2 b2" {
		t.Fatalf("order %q, want %q", got, "a1 b1 a2 b2")
	}
	if rt.Executor().Stats().Completed != 2 {
		t.Fatal("yielding tasks did not finish")
	}
}

func TestGoSpawnBind(t *testing.T) {
	rt, _ := newRuntime()
	child := &probe{finish: true}
	var childID coop.TaskID
	parent := rt.Spawn(rt.Go(coop.SpawnBind(child, func(id coop.TaskID) kont.Eff[struct{}] {
		childID = id
		return coop.Done()
	})))
	rt.RunPending()

	if child.polls != 1 {
		t.Fatalf("child polled %d times, want 1", child.polls)
	}
	if childID == 0 || childID == parent {
		t.Fatalf("child id %d, parent id %d", childID, parent)
	}
	if rt.Executor().Stats().Completed != 2 {
		t.Fatal("parent and child should both finish")
	}
}

func TestGoThrowErrorFailsTask(t *testing.T) {
	rt, _ := newRuntime()
	var log []string
	rt.Spawn(rt.Go(kont.Then(
		kont.ThrowError[error, struct{}](errors.New("disk on fire")),
		record(&log, "unreachable"),
	)))
	rt.RunPending()

	st := rt.Executor().Stats()
	if st.Failed != 1 || st.Live() != 0 {
		t.Fatalf("stats %+v, want one failed task", st)
	}
	if len(log) != 0 {
		t.Fatalf("task continued after throw: %v", log)
	}
}

func TestLoopYieldsUntilDone(t *testing.T) {
	rt, _ := newRuntime()
	body := coop.Loop(3, func(n int) kont.Eff[kont.Either[int, struct{}]] {
		if n == 0 {
			return kont.Pure(kont.Right[int, struct{}](struct{}{}))
		}
		return coop.YieldThen(kont.Pure(kont.Left[int, struct{}](n - 1)))
	})
	rt.Spawn(rt.Go(body))
	if polls := rt.RunPending(); polls != 4 {
		t.Fatalf("polls %d, want 4", polls)
	}
	if rt.Executor().Stats().Completed != 1 {
		t.Fatal("loop did not finish")
	}
}

func TestGoExprDelayThen(t *testing.T) {
	rt, _ := newRuntime()
	rt.Spawn(rt.GoExpr(coop.ExprYieldThen(coop.ExprDelayThen(2*tick, coop.ExprDone()))))
	rt.RunPending()
	rt.TimerInterrupt(tick)
	rt.RunPending()
	if rt.Executor().Stats().Completed != 0 {
		t.Fatal("task finished early")
	}
	rt.TimerInterrupt(tick)
	rt.RunPending()
	if rt.Executor().Stats().Completed != 1 {
		t.Fatal("task did not finish")
	}
}

func TestGoExprLoopNextBind(t *testing.T) {
	rt, cpu := newRuntime()
	q := coop.NewPacketQueue()
	var got []byte
	body := coop.ExprLoop(0, func(n int) kont.Expr[kont.Either[int, struct{}]] {
		if n == 3 {
			return kont.ExprReturn(kont.Right[int, struct{}](struct{}{}))
		}
		return coop.ExprNextBind(q, func(b byte) kont.Expr[kont.Either[int, struct{}]] {
			got = append(got, b)
			return kont.ExprReturn(kont.Left[int, struct{}](n + 1))
		})
	})
	rt.Spawn(rt.GoExpr(body))
	rt.RunPending()

	for _, b := range []byte{1, 2, 3, 4} {
		cpu.Interrupt(func() { q.Push(b) })
	}
	rt.RunPending()
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("got %v, want first three events", got)
	}
	if rt.Executor().Stats().Completed != 1 {
		t.Fatal("loop did not finish after three events")
	}
}

type unknownOp struct {
	kont.Phantom[struct{}]
}

func TestGoUnhandledEffectPanics(t *testing.T) {
	rt, _ := newRuntime()
	rt.Spawn(rt.Go(kont.Perform(unknownOp{})))
	msg := expectPanic(func() { rt.RunPending() })
	if msg != "coop: unhandled effect in task" {
		t.Fatalf("panic %q", msg)
	}
}
