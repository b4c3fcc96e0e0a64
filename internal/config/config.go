// Copyright 2025 The go-zynq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the YAML configuration shared by the blink
// commands.
package config // import "github.com/go-zynq/blink/internal/config"

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config gathers the tunables of both sides of the system. The zero
// value is not usable: obtain one from Default or Load.
type Config struct {
	Host HostConfig `yaml:"host"`
	Loop LoopConfig `yaml:"loop"`
}

// HostConfig tunes the dispatcher handshake.
type HostConfig struct {
	Devmem    string `yaml:"devmem"`     // memory device to map registers from
	TimeoutMs int    `yaml:"timeout_ms"` // acknowledgment wait bound
	PollUs    int    `yaml:"poll_us"`    // acknowledgment poll granularity
	SettleUs  int    `yaml:"settle_us"`  // delay between ring and first poll
}

// LoopConfig tunes the real-time loop (simulation only: on hardware
// these live in the firmware).
type LoopConfig struct {
	TickMs   int   `yaml:"tick_ms"`   // fast inter-frame delay
	RotateMs int   `yaml:"rotate_ms"` // autonomous rotation period
	Seed     int64 `yaml:"seed"`      // pseudo-random frame seed
}

// Default returns the configuration matching the hardware defaults.
func Default() Config {
	return Config{
		Host: HostConfig{
			Devmem:    "/dev/mem",
			TimeoutMs: 1000,
			PollUs:    100,
			SettleUs:  100,
		},
		Loop: LoopConfig{
			TickMs:   200,
			RotateMs: 10000,
			Seed:     1234,
		},
	}
}

// Load reads the YAML file at path over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: could not read %q: %w", path, err)
	}

	err = yaml.Unmarshal(raw, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("config: could not parse %q: %w", path, err)
	}

	err = Validate(&cfg)
	if err != nil {
		return cfg, fmt.Errorf("config: invalid configuration %q: %w", path, err)
	}

	return cfg, nil
}

// Validate checks configuration correctness. It does not mutate the
// configuration.
func Validate(cfg *Config) error {
	if cfg.Host.Devmem == "" {
		return fmt.Errorf("config: empty host.devmem")
	}
	if cfg.Host.TimeoutMs <= 0 {
		return fmt.Errorf("config: host.timeout_ms must be positive (got %d)", cfg.Host.TimeoutMs)
	}
	if cfg.Host.PollUs <= 0 {
		return fmt.Errorf("config: host.poll_us must be positive (got %d)", cfg.Host.PollUs)
	}
	if cfg.Host.SettleUs < 0 {
		return fmt.Errorf("config: host.settle_us must not be negative (got %d)", cfg.Host.SettleUs)
	}
	if cfg.Loop.TickMs <= 0 {
		return fmt.Errorf("config: loop.tick_ms must be positive (got %d)", cfg.Loop.TickMs)
	}
	if cfg.Loop.RotateMs <= 0 {
		return fmt.Errorf("config: loop.rotate_ms must be positive (got %d)", cfg.Loop.RotateMs)
	}
	return nil
}

// Timeout returns the acknowledgment wait bound as a duration.
func (cfg HostConfig) Timeout() time.Duration {
	return time.Duration(cfg.TimeoutMs) * time.Millisecond
}

// Poll returns the acknowledgment poll granularity as a duration.
func (cfg HostConfig) Poll() time.Duration {
	return time.Duration(cfg.PollUs) * time.Microsecond
}

// Settle returns the post-ring settle delay as a duration.
func (cfg HostConfig) Settle() time.Duration {
	return time.Duration(cfg.SettleUs) * time.Microsecond
}

// Tick returns the fast inter-frame delay as a duration.
func (cfg LoopConfig) Tick() time.Duration {
	return time.Duration(cfg.TickMs) * time.Millisecond
}

// Rotate returns the rotation period as a duration.
func (cfg LoopConfig) Rotate() time.Duration {
	return time.Duration(cfg.RotateMs) * time.Millisecond
}
