// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coop

import (
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"fortio.org/safecast"
)

// Timer is the delay primitive's shared countdown, decremented by a
// periodic timer interrupt.
//
// There is one countdown per Timer, not one per [Sleep]: starting a Sleep
// overwrites whatever delay was in progress, and every pending Sleep on the
// Timer completes when the countdown reaches zero.
type Timer struct {
	cpu       CPU
	remaining atomix.Uint64
	waiters   []Waker
}

// NewTimer creates a Timer whose waiter list is guarded by masking
// interrupts on cpu.
func NewTimer(cpu CPU) *Timer {
	return &Timer{cpu: cpu, waiters: make([]Waker, 0, 8)}
}

// Sleep sets the shared countdown to d and returns a [Sleep] that
// completes when it reaches zero. Non-positive durations complete at once.
func (t *Timer) Sleep(d time.Duration) *Sleep {
	n := nanos(d)
	if n == 0 {
		// The countdown expires here instead of in Tick.
		t.cpu.DisableInterrupts()
		t.remaining.Store(0)
		t.wakeAll()
		t.cpu.EnableInterrupts()
		return &Sleep{timer: t}
	}
	t.remaining.Store(n)
	return &Sleep{timer: t}
}

// Remaining returns the time left on the shared countdown.
func (t *Timer) Remaining() time.Duration {
	return duration(t.remaining.Load())
}

// Tick is called by the timer interrupt handler with the time elapsed since
// the previous tick. It decrements the countdown, floored at zero, and wakes
// every waiting task once the countdown is zero.
//
// Tick runs in interrupt context with interrupts masked. It must not block
// or allocate.
func (t *Timer) Tick(elapsed time.Duration) {
	step := nanos(elapsed)
	for {
		cur := t.remaining.Load()
		next := uint64(0)
		if cur > step {
			next = cur - step
		}
		if cur == next || t.remaining.CompareAndSwap(cur, next) {
			if next == 0 {
				t.wakeAll()
			}
			return
		}
	}
}

func (t *Timer) wakeAll() {
	for i, w := range t.waiters {
		t.waiters[i] = nil
		w.Wake()
	}
	t.waiters = t.waiters[:0]
}

// register adds w to the waiters unless the same task already waits.
// The countdown is checked again with interrupts masked; if it already
// expired, w is not kept and register reports false.
func (t *Timer) register(w Waker) bool {
	t.cpu.DisableInterrupts()
	defer t.cpu.EnableInterrupts()
	if t.remaining.Load() == 0 {
		return false
	}
	for _, x := range t.waiters {
		if sameWaker(x, w) {
			return true
		}
	}
	t.waiters = append(t.waiters, w)
	return true
}

// Waiters returns the number of registered waiters.
func (t *Timer) Waiters() int {
	t.cpu.DisableInterrupts()
	n := len(t.waiters)
	t.cpu.EnableInterrupts()
	return n
}

func sameWaker(a, b Waker) bool {
	ta, ok := a.(taskWaker)
	if !ok {
		return false
	}
	tb, ok := b.(taskWaker)
	return ok && ta.id == tb.id && ta.ready == tb.ready
}

// Sleep is an awaitable delay on a [Timer].
type Sleep struct {
	timer *Timer
}

// Poll reports completion once the shared countdown reads zero. Otherwise
// it registers w, checking the countdown again with interrupts masked, so
// a tick that lands between the first check and the registration is
// neither lost nor followed by a stale wake.
func (s *Sleep) Poll(w Waker) error {
	t := s.timer
	if t.remaining.Load() == 0 {
		return nil
	}
	if !t.register(w) {
		return nil
	}
	return iox.ErrWouldBlock
}

// Clock is the system uptime clock advanced by the timer interrupt.
// The zero value reads zero uptime.
type Clock struct {
	uptime atomix.Uint64
}

// Tick advances the clock by elapsed. Allocation-free.
func (c *Clock) Tick(elapsed time.Duration) {
	c.uptime.Add(nanos(elapsed))
}

// Uptime returns the time accumulated by Tick.
func (c *Clock) Uptime() time.Duration {
	return duration(c.uptime.Load())
}

func nanos(d time.Duration) uint64 {
	n, err := safecast.Conv[uint64](int64(d))
	if err != nil {
		return 0
	}
	return n
}

func duration(n uint64) time.Duration {
	v, err := safecast.Conv[int64](n)
	if err != nil {
		return time.Duration(1<<63 - 1)
	}
	return time.Duration(v)
}
