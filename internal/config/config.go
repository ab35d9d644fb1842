// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads the simulator configuration from TOML.
package config

import (
	"errors"
	"fmt"
	"time"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"

	"code.hybscloud.com/coop"
)

// Config is the simulated machine and scheduler configuration.
type Config struct {
	Scheduler SchedulerConfig `toml:"scheduler"`
	Timer     TimerConfig     `toml:"timer"`
	Devices   DevicesConfig   `toml:"devices"`
	Log       LogConfig       `toml:"log"`
	Run       RunConfig       `toml:"run"`
}

// SchedulerConfig sizes the scheduler queues.
type SchedulerConfig struct {
	ReadyCapacity int `toml:"ready_capacity"`
	SpawnCapacity int `toml:"spawn_capacity"`
}

// TimerConfig configures the periodic timer interrupt.
type TimerConfig struct {
	Interval string `toml:"interval"` // e.g. "10ms"
}

// DevicesConfig configures the simulated interrupt-fed devices.
type DevicesConfig struct {
	PacketCapacity   int    `toml:"packet_capacity"`
	KeyboardCapacity int    `toml:"keyboard_capacity"`
	MouseRate        int    `toml:"mouse_rate"` // packets per second, 0 disables
	Keys             string `toml:"keys"`       // bytes replayed by the keyboard
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text, json
}

// RunConfig bounds a simulator run.
type RunConfig struct {
	Duration  string `toml:"duration"`  // e.g. "2s"
	Heartbeat string `toml:"heartbeat"` // delay between heartbeat task wakeups
}

// MaxMouseRate bounds devices.mouse_rate in packets per second.
const MaxMouseRate = 1000

// Default returns the default configuration.
func Default() Config {
	return Config{
		Scheduler: SchedulerConfig{ReadyCapacity: 100, SpawnCapacity: 100},
		Timer:     TimerConfig{Interval: "10ms"},
		Devices: DevicesConfig{
			PacketCapacity:   500,
			KeyboardCapacity: 100,
			MouseRate:        100,
			Keys:             "help\n",
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Run: RunConfig{Duration: "2s", Heartbeat: "500ms"},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses TOML text over the defaults and validates the result.
func Decode(data string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks capacities and durations.
func (c Config) Validate() error {
	var errs []error
	for _, f := range []struct {
		name string
		v    int
	}{
		{"scheduler.ready_capacity", c.Scheduler.ReadyCapacity},
		{"scheduler.spawn_capacity", c.Scheduler.SpawnCapacity},
		{"devices.packet_capacity", c.Devices.PacketCapacity},
		{"devices.keyboard_capacity", c.Devices.KeyboardCapacity},
	} {
		if _, err := Capacity(f.v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.name, err))
		}
	}
	if c.Devices.MouseRate < 0 || c.Devices.MouseRate > MaxMouseRate {
		errs = append(errs, fmt.Errorf("devices.mouse_rate: must be between 0 and %d", MaxMouseRate))
	}
	for _, f := range []struct{ name, v string }{
		{"timer.interval", c.Timer.Interval},
		{"run.duration", c.Run.Duration},
		{"run.heartbeat", c.Run.Heartbeat},
	} {
		if _, err := positiveDuration(f.v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.name, err))
		}
	}
	return errors.Join(errs...)
}

// Capacity checks that n is a usable queue capacity.
func Capacity(n int) (uint32, error) {
	if n < coop.MinCapacity {
		return 0, fmt.Errorf("capacity must be at least %d", coop.MinCapacity)
	}
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return 0, fmt.Errorf("capacity out of range: %w", err)
	}
	return v, nil
}

// TickInterval returns the parsed timer interval.
func (c Config) TickInterval() time.Duration { return mustDuration(c.Timer.Interval) }

// RunDuration returns the parsed run duration.
func (c Config) RunDuration() time.Duration { return mustDuration(c.Run.Duration) }

// HeartbeatInterval returns the parsed heartbeat delay.
func (c Config) HeartbeatInterval() time.Duration { return mustDuration(c.Run.Heartbeat) }

func positiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return d, nil
}

// mustDuration parses a duration already checked by Validate.
func mustDuration(s string) time.Duration {
	d, err := positiveDuration(s)
	if err != nil {
		panic("config: unvalidated duration " + s)
	}
	return d
}
