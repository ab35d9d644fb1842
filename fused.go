// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coop

import (
	"time"

	"code.hybscloud.com/kont"
)

// DelayThen sleeps for d and then continues with next.
// Fuses Perform(Delay{Duration: d}) + Then.
func DelayThen[B any](d time.Duration, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(Delay{Duration: d}), next)
}

// NextBind receives the next event from q and passes it to f.
// Fuses Perform(Next[T]{Queue: q}) + Bind.
func NextBind[T, B any](q *EventQueue[T], f func(T) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Next[T]{Queue: q}), f)
}

// YieldThen yields to other ready tasks and then continues with next.
func YieldThen[B any](next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(Yield{}), next)
}

// SpawnBind spawns f and passes the new task's id to k.
func SpawnBind[B any](f Future, k func(TaskID) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Spawn{Future: f}), k)
}

// NowBind reads system uptime and passes it to f.
func NowBind[B any](f func(time.Duration) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Now{}), f)
}

// Done completes a task body.
func Done() kont.Eff[struct{}] {
	return kont.Pure(struct{}{})
}
