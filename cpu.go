// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coop

import (
	"sync"

	"code.hybscloud.com/atomix"
)

// CPU is the processor an [Executor] runs on.
//
// EnableInterruptsAndHalt must re-enable interrupts and halt as one
// indivisible sequence (sti; hlt on x86): an interrupt that becomes pending
// after the caller's last check either fires before the halt completes or
// ends the halt immediately.
type CPU interface {
	DisableInterrupts()
	EnableInterrupts()
	EnableInterruptsAndHalt()
}

// Machine is a software single-core CPU for hosted builds and tests.
//
// Masking interrupts excludes interrupt delivery: [Machine.Interrupt] runs
// its handler only while interrupts are enabled, and no two handlers run at
// once. Masking does not nest. A halt consumes one pending wakeup; every
// delivered interrupt leaves one behind, so an interrupt that lands between
// the idle check and the halt ends the halt at once.
type Machine struct {
	mask   sync.Mutex
	wakeup chan struct{}
	irqs   atomix.Uint64
	halts  atomix.Uint64
}

// NewMachine returns a Machine with interrupts enabled.
func NewMachine() *Machine {
	return &Machine{wakeup: make(chan struct{}, 1)}
}

// DisableInterrupts masks interrupt delivery.
func (m *Machine) DisableInterrupts() {
	m.mask.Lock()
}

// EnableInterrupts unmasks interrupt delivery.
func (m *Machine) EnableInterrupts() {
	m.mask.Unlock()
}

// EnableInterruptsAndHalt unmasks interrupts and sleeps until the next
// interrupt, or returns at once if one was delivered since the last halt.
func (m *Machine) EnableInterruptsAndHalt() {
	m.halts.Add(1)
	m.mask.Unlock()
	<-m.wakeup
}

// Interrupt delivers one interrupt: it waits until interrupts are enabled,
// runs handler with interrupts masked, then wakes a halted processor.
// handler may be nil to model a spurious interrupt.
func (m *Machine) Interrupt(handler func()) {
	m.mask.Lock()
	m.irqs.Add(1)
	if handler != nil {
		handler()
	}
	m.mask.Unlock()
	select {
	case m.wakeup <- struct{}{}:
	default:
	}
}

// Interrupts returns the number of interrupts delivered.
func (m *Machine) Interrupts() uint64 {
	return m.irqs.Load()
}

// Halts returns the number of times the processor entered the halted state.
func (m *Machine) Halts() uint64 {
	return m.halts.Load()
}
