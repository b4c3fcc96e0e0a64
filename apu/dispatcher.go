// Copyright 2025 The go-zynq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package apu implements the host side of the blink protocol: a
// dispatcher that serializes mode commands to the real-time unit and
// runs the write/doorbell/poll-for-ack handshake with a bounded wait.
package apu // import "github.com/go-zynq/blink/apu"

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/go-zynq/blink/internal/regs"
	"github.com/go-zynq/blink/ipi"
)

// ErrAckTimeout is returned by SendMode when the device does not
// acknowledge within the configured bound. The command is not rolled
// back: the device may or may not have applied it.
var ErrAckTimeout = errors.New("apu: timeout waiting for device acknowledgment")

// LastResult is the outcome of the most recent handshake.
type LastResult struct {
	Mode  uint32 `json:"mode"`  // last mode submitted
	Sent  bool   `json:"sent"`  // false until the first handshake completes
	Acked bool   `json:"acked"` // device acknowledged within the bound
}

// Option configures a dispatcher.
type Option func(*config)

type config struct {
	timeout time.Duration
	poll    time.Duration
	settle  time.Duration
	mask    uint32
}

// WithTimeout bounds the wait for the device acknowledgment.
func WithTimeout(d time.Duration) Option {
	return func(cfg *config) {
		cfg.timeout = d
	}
}

// WithPollInterval sets the sleep granularity of the acknowledgment
// poll loop. There is no cross-domain wake channel: a bounded poll
// with short sleeps is the synchronization primitive.
func WithPollInterval(d time.Duration) Option {
	return func(cfg *config) {
		cfg.poll = d
	}
}

// WithSettleDelay sets the delay between the doorbell ring and the
// first acknowledgment poll.
func WithSettleDelay(d time.Duration) Option {
	return func(cfg *config) {
		cfg.settle = d
	}
}

// WithTargetMask sets the doorbell target channel bitmask.
func WithTargetMask(mask uint32) Option {
	return func(cfg *config) {
		cfg.mask = mask
	}
}

// Dispatcher serializes concurrent callers onto the single-slot
// command/acknowledgment exchange of the shared control block.
type Dispatcher struct {
	msg *log.Logger
	cfg config

	mu   sync.Mutex // one handshake in flight at a time
	blk  *ipi.ControlBlock
	bell *ipi.Doorbell
	last LastResult
}

// New creates a dispatcher over the given control block and doorbell.
func New(blk *ipi.ControlBlock, bell *ipi.Doorbell, opts ...Option) *Dispatcher {
	cfg := config{
		timeout: 1 * time.Second,
		poll:    100 * time.Microsecond,
		settle:  100 * time.Microsecond,
		mask:    regs.MASK_RPU0,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Dispatcher{
		msg:  log.New(os.Stdout, "apu: ", 0),
		cfg:  cfg,
		blk:  blk,
		bell: bell,
	}
}

// SendMode submits a mode to the real-time unit and waits for its
// acknowledgment. The value is forwarded as-is: 0, 1 and 2 request
// concrete modes, anything else releases host control — the device,
// not this layer, defines the meaning.
//
// On success, the device is guaranteed to have applied the new state
// before the acknowledgment was observed. On ErrAckTimeout the outcome
// is unknown; the caller may re-issue the command, there is no
// automatic retry.
func (dsp *Dispatcher) SendMode(mode uint32) error {
	dsp.mu.Lock()
	defer dsp.mu.Unlock()

	// The wire carries no request id: the previous acknowledgment must
	// be cleared before the new command lands, or a stale ack could
	// satisfy this round's poll.
	dsp.blk.ClearAck()
	dsp.blk.SetCommand(mode)
	if err := dsp.blk.Err(); err != nil {
		return fmt.Errorf("apu: could not write command: %w", err)
	}

	dsp.bell.Ring(dsp.cfg.mask)
	if err := dsp.bell.Err(); err != nil {
		return fmt.Errorf("apu: could not ring doorbell: %w", err)
	}

	time.Sleep(dsp.cfg.settle)

	deadline := time.Now().Add(dsp.cfg.timeout)
	for {
		ack := dsp.blk.Ack()
		if err := dsp.blk.Err(); err != nil {
			return fmt.Errorf("apu: could not poll acknowledgment: %w", err)
		}
		if ack.Matches(mode) {
			dsp.last = LastResult{Mode: mode, Sent: true, Acked: true}
			dsp.msg.Printf("mode %d acknowledged", mode)
			return nil
		}
		if time.Now().After(deadline) {
			dsp.last = LastResult{Mode: mode, Sent: true, Acked: false}
			return fmt.Errorf("apu: no acknowledgment for mode=%d after %v: %w",
				mode, dsp.cfg.timeout, ErrAckTimeout)
		}
		time.Sleep(dsp.cfg.poll)
	}
}

// Status returns the outcome of the last handshake, without side
// effects. Before any SendMode call it reports the zero LastResult:
// no message sent yet.
func (dsp *Dispatcher) Status() LastResult {
	dsp.mu.Lock()
	defer dsp.mu.Unlock()
	return dsp.last
}
