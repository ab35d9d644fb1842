// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coop

import "log/slog"

// Option configures an [Executor] or a [Runtime].
type Option func(*options)

type options struct {
	readyCapacity int
	spawnCapacity int
	logger        *slog.Logger
}

func defaultOptions() options {
	return options{
		readyCapacity: DefaultReadyCapacity,
		spawnCapacity: DefaultSpawnCapacity,
		logger:        slog.New(slog.DiscardHandler),
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithReadyCapacity sets the ready queue capacity. Non-positive values
// keep the default; a capacity of 1 is raised to [MinCapacity].
func WithReadyCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.readyCapacity = max(n, MinCapacity)
		}
	}
}

// WithSpawnCapacity sets the hand-off queue capacity of a spawner the
// executor creates for itself. Non-positive values keep the default; a
// capacity of 1 is raised to [MinCapacity].
func WithSpawnCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.spawnCapacity = max(n, MinCapacity)
		}
	}
}

// WithLogger sets the logger for task lifecycle events.
// Nothing is logged from wake or tick paths.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
