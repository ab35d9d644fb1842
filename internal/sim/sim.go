// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sim boots the scheduler on a software machine with a periodic
// timer, a PS/2 mouse and a keyboard, each feeding it through interrupts.
package sim

import (
	"context"
	"log/slog"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/kont"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"

	"code.hybscloud.com/coop"
	"code.hybscloud.com/coop/internal/config"
)

// Text-mode screen bounds for the mouse cursor.
const (
	screenWidth  = 80
	screenHeight = 25
)

// Report summarizes one simulator run.
type Report struct {
	Uptime      time.Duration `msgpack:"uptime"`
	Interrupts  uint64        `msgpack:"interrupts"`
	Halts       uint64        `msgpack:"halts"`
	Adopted     uint64        `msgpack:"adopted"`
	Polled      uint64        `msgpack:"polled"`
	Completed   uint64        `msgpack:"completed"`
	Failed      uint64        `msgpack:"failed"`
	MouseStates int           `msgpack:"mouse_states"`
	CursorX     int           `msgpack:"cursor_x"`
	CursorY     int           `msgpack:"cursor_y"`
	Dropped     uint64        `msgpack:"dropped"`
	Keys        []byte        `msgpack:"keys"`
	Heartbeats  int           `msgpack:"heartbeats"`
}

// MarshalBinary encodes r as msgpack.
func (r Report) MarshalBinary() ([]byte, error) {
	return msgpack.Marshal(r)
}

// UnmarshalBinary decodes a msgpack report.
func (r *Report) UnmarshalBinary(data []byte) error {
	return msgpack.Unmarshal(data, r)
}

// Simulator is one simulated machine running the scheduler.
type Simulator struct {
	cfg   config.Config
	log   *slog.Logger
	cpu   *coop.Machine
	rt    *coop.Runtime
	mouse coop.PacketQueue
	kbd   coop.EventQueue[byte]

	// report is written only by tasks, on the executor goroutine.
	report  Report
	dropped atomix.Uint64
}

// New builds a simulator from a validated configuration.
func New(cfg config.Config, log *slog.Logger) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cpu := coop.NewMachine()
	s := &Simulator{
		cfg: cfg,
		log: log,
		cpu: cpu,
		rt: coop.New(cpu,
			coop.WithReadyCapacity(cfg.Scheduler.ReadyCapacity),
			coop.WithSpawnCapacity(cfg.Scheduler.SpawnCapacity),
			coop.WithLogger(log),
		),
	}
	if err := s.mouse.Init(cfg.Devices.PacketCapacity); err != nil {
		return nil, err
	}
	if err := s.kbd.Init(cfg.Devices.KeyboardCapacity); err != nil {
		return nil, err
	}
	return s, nil
}

// Run boots the machine and runs it for the configured duration or until
// ctx is done.
func (s *Simulator) Run(ctx context.Context) (Report, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RunDuration())
	defer cancel()

	s.rt.Spawn(s.rt.Go(s.boot()))
	s.log.Info("executor starting", "tick", s.cfg.TickInterval())

	stop := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.rt.RunUntil(stop)
		return nil
	})
	g.Go(func() error { return s.timerDevice(gctx) })
	g.Go(func() error { return s.mouseDevice(gctx) })
	g.Go(func() error { return s.keyboardDevice(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		close(stop)
		// Kick a halted executor so it sees stop.
		s.cpu.Interrupt(nil)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	st := s.rt.Executor().Stats()
	r := s.report
	r.Uptime = s.rt.Clock().Uptime()
	r.Interrupts = s.cpu.Interrupts()
	r.Halts = s.cpu.Halts()
	r.Adopted = st.Adopted
	r.Polled = st.Polled
	r.Completed = st.Completed
	r.Failed = st.Failed
	r.Dropped = s.dropped.Load()
	s.log.Info("executor stopped", "uptime", r.Uptime, "polled", r.Polled, "halts", r.Halts)
	return r, nil
}

// boot is the initial task: it starts the device and heartbeat tasks.
func (s *Simulator) boot() kont.Eff[struct{}] {
	return coop.SpawnBind(s.keyboardTask(), func(kbd coop.TaskID) kont.Eff[struct{}] {
		return coop.SpawnBind(coop.ProcessMousePackets(&s.mouse, s.moveCursor), func(mouse coop.TaskID) kont.Eff[struct{}] {
			return coop.SpawnBind(s.heartbeatTask(), func(hb coop.TaskID) kont.Eff[struct{}] {
				s.log.Debug("tasks spawned", "keyboard", kbd, "mouse", mouse, "heartbeat", hb)
				return coop.Done()
			})
		})
	})
}

func (s *Simulator) keyboardTask() coop.Future {
	return s.rt.Go(coop.Forever(func() kont.Eff[struct{}] {
		return coop.NextBind(&s.kbd, func(b byte) kont.Eff[struct{}] {
			s.report.Keys = append(s.report.Keys, b)
			s.log.Debug("key", "scancode", b)
			return coop.Done()
		})
	}))
}

func (s *Simulator) heartbeatTask() coop.Future {
	interval := s.cfg.HeartbeatInterval()
	return s.rt.Go(coop.Forever(func() kont.Eff[struct{}] {
		return coop.DelayThen(interval, coop.NowBind(func(up time.Duration) kont.Eff[struct{}] {
			s.report.Heartbeats++
			s.log.Info("heartbeat", "uptime", up)
			return coop.Done()
		}))
	}))
}

func (s *Simulator) moveCursor(st coop.MouseState) {
	s.report.MouseStates++
	if !st.Moved() {
		return
	}
	// PS/2 reports Y growing upward; the screen grows downward.
	s.report.CursorX = clamp(s.report.CursorX+int(st.X), 0, screenWidth-1)
	s.report.CursorY = clamp(s.report.CursorY-int(st.Y), 0, screenHeight-1)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// timerDevice raises the timer interrupt at the configured interval.
func (s *Simulator) timerDevice(ctx context.Context) error {
	interval := s.cfg.TickInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.cpu.Interrupt(func() { s.rt.TimerInterrupt(interval) })
		}
	}
}

// mouseDevice sends one 3-byte packet per period, one byte per interrupt,
// moving the cursor along a square.
func (s *Simulator) mouseDevice(ctx context.Context) error {
	if s.cfg.Devices.MouseRate == 0 {
		return nil
	}
	ticker := time.NewTicker(time.Second / time.Duration(s.cfg.Devices.MouseRate))
	defer ticker.Stop()
	for n := 0; ; n++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, b := range squarePacket(n) {
				s.cpu.Interrupt(func() {
					if !s.mouse.Push(b) {
						s.dropped.Add(1)
					}
				})
			}
		}
	}
}

// squarePacket encodes step n of a walk that moves right, down, left and
// up, ten packets per side.
func squarePacket(n int) [3]byte {
	const flags = 1 << 3
	switch (n / 10) % 4 {
	case 0:
		return [3]byte{flags, 1, 0}
	case 1:
		return [3]byte{flags | 1<<5, 0, 0xff}
	case 2:
		return [3]byte{flags | 1<<4, 0xff, 0}
	default:
		return [3]byte{flags, 0, 1}
	}
}

// keyboardDevice replays the configured keys, one byte per interrupt.
func (s *Simulator) keyboardDevice(ctx context.Context) error {
	keys := []byte(s.cfg.Devices.Keys)
	if len(keys) == 0 {
		return nil
	}
	ticker := time.NewTicker(2 * s.cfg.TickInterval())
	defer ticker.Stop()
	for _, b := range keys {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.cpu.Interrupt(func() {
				if !s.kbd.Push(b) {
					s.dropped.Add(1)
				}
			})
		}
	}
	return nil
}
