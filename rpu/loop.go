// Copyright 2025 The go-zynq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rpu implements the real-time control loop of the blink
// system: a producer/consumer pair driving the output device, a
// periodic rotator that autonomously cycles the blink mode, and the
// IPI interrupt handler through which the host overrides that mode.
package rpu // import "github.com/go-zynq/blink/rpu"

import (
	"context"
	"log"
	"math/rand"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/go-zynq/blink/internal/regs"
	"github.com/go-zynq/blink/ipi"
)

const (
	// defaultTick is the fast inter-frame delay; the slow mode uses
	// five ticks, the rotator fifty.
	defaultTick   = 200 * time.Millisecond
	defaultPeriod = 10 * time.Second

	frameA = 0x1
	frameB = 0x2
)

// Output is the device register the consumer writes frames to.
type Output interface {
	WriteFrame(v uint32)
}

// Option configures a control loop.
type Option func(*config)

type config struct {
	tick   time.Duration
	period time.Duration
	seed   int64
	ext    func() uint32
}

// WithTick sets the fast inter-frame delay. The slow mode delays five
// ticks per frame.
func WithTick(d time.Duration) Option {
	return func(cfg *config) {
		cfg.tick = d
	}
}

// WithRotatePeriod sets the period of the autonomous mode rotation.
func WithRotatePeriod(d time.Duration) Option {
	return func(cfg *config) {
		cfg.period = d
	}
}

// WithSeed seeds the pseudo-random frame generator.
func WithSeed(seed int64) Option {
	return func(cfg *config) {
		cfg.seed = seed
	}
}

// WithExternalMode installs the secondary mode source the rotator
// consults each period. A returned value in the mode set is adopted
// directly, fire-and-forget, without an acknowledgment; anything else
// means "no external request".
func WithExternalMode(f func() uint32) Option {
	return func(cfg *config) {
		cfg.ext = f
	}
}

// Loop runs the producer, consumer and rotator over a shared mode.
type Loop struct {
	msg *log.Logger
	cfg config

	st  state
	rnd *rand.Rand

	out Output
	blk *ipi.ControlBlock
	ch  *ipi.Channel

	// frame queue between producer and consumer, capacity exactly one:
	// the consumer outranks the producer, so the queue drains as soon
	// as a frame is enqueued. A frame produced while the slot is still
	// occupied is dropped, not queued.
	queue chan uint32

	frame uint32 // producer toggle state
}

// New creates a control loop writing frames to out, servicing host
// commands from blk and doorbell interrupts from ch.
func New(out Output, blk *ipi.ControlBlock, ch *ipi.Channel, opts ...Option) *Loop {
	cfg := config{
		tick:   defaultTick,
		period: defaultPeriod,
		seed:   1234,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	lp := &Loop{
		msg:   log.New(os.Stdout, "rpu: ", 0),
		cfg:   cfg,
		out:   out,
		blk:   blk,
		ch:    ch,
		queue: make(chan uint32, 1),
		frame: frameA,
	}
	lp.rnd = rand.New(rand.NewSource(cfg.seed))
	lp.st.setMode(Slow)
	return lp
}

// Mode returns the mode the loop currently renders.
func (lp *Loop) Mode() Mode { return lp.st.Mode() }

// Override reports whether the host currently holds mode control.
func (lp *Loop) Override() bool { return lp.st.Override() }

// Run brings up the IPI channel and runs the producer, consumer and
// rotator until the context is canceled.
func (lp *Loop) Run(ctx context.Context) error {
	err := lp.ch.Setup(regs.MASK_APU)
	if err != nil {
		return err
	}

	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error { return lp.produce(ctx) })
	grp.Go(func() error { return lp.consume(ctx) })
	grp.Go(func() error { return lp.rotate(ctx) })
	return grp.Wait()
}

// produce computes one frame per iteration from the current mode,
// sleeps the mode's delay, then enqueues the frame. The enqueue is
// non-blocking: with the single-slot queue still full, the frame is
// dropped for this iteration.
func (lp *Loop) produce(ctx context.Context) error {
	for {
		frame, delay := lp.nextFrame()
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		select {
		case lp.queue <- frame:
		default:
		}
	}
}

func (lp *Loop) nextFrame() (uint32, time.Duration) {
	switch lp.st.Mode() {
	case Fast:
		lp.frame = lp.toggle()
		return lp.frame, lp.cfg.tick
	case Random:
		return uint32(lp.rnd.Intn(4)), lp.cfg.tick
	default: // slow, and anything unrecognized
		lp.frame = lp.toggle()
		return lp.frame, 5 * lp.cfg.tick
	}
}

func (lp *Loop) toggle() uint32 {
	if lp.frame == frameA {
		return frameB
	}
	return frameA
}

// consume drains the queue and writes each frame verbatim to the
// output device. It is the only writer of that register.
func (lp *Loop) consume(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame := <-lp.queue:
			lp.out.WriteFrame(frame)
		}
	}
}

// rotate advances the mode state machine once per period.
func (lp *Loop) rotate(ctx context.Context) error {
	tick := time.NewTicker(lp.cfg.period)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			lp.rotateOnce()
		}
	}
}

// rotateOnce runs one rotator period: a no-op while the host override
// is active; otherwise the external mode source wins if it requests a
// concrete mode, else the mode advances cyclically.
func (lp *Loop) rotateOnce() {
	if lp.st.Override() {
		return
	}

	if lp.cfg.ext != nil {
		if v := lp.cfg.ext(); !Release(v) {
			if m := Mode(v); m != lp.st.Mode() {
				lp.st.setMode(m)
				lp.msg.Printf("rotate: external source set mode to %v", m)
			}
			return
		}
	}

	m := lp.st.Mode().next()
	lp.st.setMode(m)
	lp.msg.Printf("rotate: switching to %v mode", m)
}
