// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coop_test

import (
	"code.hybscloud.com/iox"

	"code.hybscloud.com/coop"
)

// probe is a hand-written future that records its polls and the waker it
// was last given. It completes on the first poll after finish is set.
type probe struct {
	polls  int
	waker  coop.Waker
	finish bool
}

func (p *probe) Poll(w coop.Waker) error {
	p.polls++
	p.waker = w
	if p.finish {
		return nil
	}
	return iox.ErrWouldBlock
}

// recordingWaker counts wakes.
type recordingWaker struct {
	n int
}

func (w *recordingWaker) Wake() { w.n++ }

// newRuntime builds an isolated runtime on a fresh software machine.
func newRuntime(opts ...coop.Option) (*coop.Runtime, *coop.Machine) {
	cpu := coop.NewMachine()
	return coop.New(cpu, opts...), cpu
}

// expectPanic runs f and returns the recovered panic message.
func expectPanic(f func()) (msg string) {
	defer func() {
		r := recover()
		if s, ok := r.(string); ok {
			msg = s
		} else if r != nil {
			msg = "non-string panic"
		}
	}()
	f()
	return ""
}
