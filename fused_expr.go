// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coop

import (
	"time"

	"code.hybscloud.com/kont"
)

// Pre-allocated erased operations and frames to eliminate heap escapes
// when boxing empty structs into any/kont.Frame during Expr-world execution.
var (
	exprReturnFrame kont.Frame  = kont.ReturnFrame{}
	exprYield       kont.Erased = Yield{}
)

// identityResume is the identity resume function for EffectFrame construction.
func identityResume(v kont.Erased) kont.Erased { return v }

func thenFrame[B any](next kont.Expr[B]) kont.Frame {
	tf := kont.AcquireThenFrame()
	tf.Second = kont.Expr[kont.Erased]{Value: kont.Erased(next.Value), Frame: next.Frame}
	tf.Next = exprReturnFrame
	return tf
}

// ExprDelayThen sleeps for d and then continues with next.
// Fuses ExprPerform(Delay{Duration: d}) + ExprThen.
func ExprDelayThen[B any](d time.Duration, next kont.Expr[B]) kont.Expr[B] {
	ef := kont.AcquireEffectFrame()
	ef.Operation = Delay{Duration: d}
	ef.Resume = identityResume
	ef.Next = thenFrame(next)
	return kont.ExprSuspend[B](ef)
}

// ExprYieldThen yields to other ready tasks and then continues with next.
func ExprYieldThen[B any](next kont.Expr[B]) kont.Expr[B] {
	ef := kont.AcquireEffectFrame()
	ef.Operation = exprYield
	ef.Resume = identityResume
	ef.Next = thenFrame(next)
	return kont.ExprSuspend[B](ef)
}

func nextBindUnwind[T, B any](data, _, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	f := data.(func(T) kont.Expr[B])
	result := f(current.(T))
	return kont.Erased(result.Value), result.Frame
}

// ExprNextBind receives the next event from q and passes it to f.
// Fuses ExprPerform(Next[T]{Queue: q}) + ExprBind.
func ExprNextBind[T, B any](q *EventQueue[T], f func(T) kont.Expr[B]) kont.Expr[B] {
	bf := kont.AcquireUnwindFrame()
	bf.Data1 = f
	bf.Unwind = nextBindUnwind[T, B]
	ef := kont.AcquireEffectFrame()
	ef.Operation = Next[T]{Queue: q}
	ef.Resume = identityResume
	ef.Next = bf
	return kont.ExprSuspend[B](ef)
}

// ExprDone completes an Expr-world task body.
func ExprDone() kont.Expr[struct{}] {
	return kont.ExprReturn(struct{}{})
}
