// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if got := cfg.TickInterval(); got != 10*time.Millisecond {
		t.Fatalf("tick interval got %v, want 10ms", got)
	}
}

func TestDecodeOverridesDefaults(t *testing.T) {
	cfg, err := Decode(`
[scheduler]
ready_capacity = 64

[timer]
interval = "1ms"

[devices]
mouse_rate = 0
keys = "ls\n"
`)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Scheduler.ReadyCapacity != 64 {
		t.Fatalf("ready_capacity got %d, want 64", cfg.Scheduler.ReadyCapacity)
	}
	if cfg.Scheduler.SpawnCapacity != 100 {
		t.Fatalf("spawn_capacity got %d, want default 100", cfg.Scheduler.SpawnCapacity)
	}
	if cfg.TickInterval() != time.Millisecond {
		t.Fatalf("interval got %v, want 1ms", cfg.TickInterval())
	}
	if cfg.Devices.MouseRate != 0 || cfg.Devices.Keys != "ls\n" {
		t.Fatalf("devices got %+v", cfg.Devices)
	}
}

func TestDecodeRejectsInvalid(t *testing.T) {
	_, err := Decode(`
[scheduler]
ready_capacity = 0

[timer]
interval = "soon"
`)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"scheduler.ready_capacity", "timer.interval"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not mention %s", msg, want)
		}
	}
}

func TestDecodeSyntaxError(t *testing.T) {
	if _, err := Decode("[scheduler"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coop.toml")
	if err := os.WriteFile(path, []byte("[run]\nduration = \"250ms\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RunDuration() != 250*time.Millisecond {
		t.Fatalf("duration got %v, want 250ms", cfg.RunDuration())
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestCapacity(t *testing.T) {
	if _, err := Capacity(-1); err == nil {
		t.Fatal("negative capacity accepted")
	}
	if _, err := Capacity(0); err == nil {
		t.Fatal("zero capacity accepted")
	}
	if _, err := Capacity(1); err == nil {
		t.Fatal("capacity 1 accepted")
	}
	if v, err := Capacity(2); err != nil || v != 2 {
		t.Fatalf("Capacity(2) = %d, %v", v, err)
	}
	v, err := Capacity(500)
	if err != nil || v != 500 {
		t.Fatalf("Capacity(500) = %d, %v", v, err)
	}
}

func TestDecodeRejectsSingleSlotQueue(t *testing.T) {
	_, err := Decode("[devices]\npacket_capacity = 1\n")
	if err == nil || !strings.Contains(err.Error(), "devices.packet_capacity") {
		t.Fatalf("got %v, want devices.packet_capacity error", err)
	}
}

func TestDecodeMouseRateBounds(t *testing.T) {
	for _, rate := range []int{-1, MaxMouseRate + 1, 2_000_000_000} {
		cfg := Default()
		cfg.Devices.MouseRate = rate
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "devices.mouse_rate") {
			t.Errorf("mouse_rate %d: got %v, want devices.mouse_rate error", rate, err)
		}
	}
	cfg := Default()
	cfg.Devices.MouseRate = MaxMouseRate
	if err := cfg.Validate(); err != nil {
		t.Fatalf("mouse_rate %d rejected: %v", MaxMouseRate, err)
	}
}
