// Copyright 2025 The go-zynq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rpu

import (
	"context"
	"testing"
	"time"

	"github.com/go-zynq/blink/internal/regs"
	"github.com/go-zynq/blink/ipi"
)

type frameSink struct {
	frames chan uint32
}

func newFrameSink() *frameSink {
	return &frameSink{frames: make(chan uint32, 16)}
}

func (sink *frameSink) WriteFrame(v uint32) {
	select {
	case sink.frames <- v:
	default:
	}
}

func newTestLoop(opts ...Option) *Loop {
	var (
		blk = ipi.NewControlBlock(ipi.NewRegion(regs.SHM_SPAN))
		ch  = ipi.NewChannel(ipi.NewRegion(regs.IPI_RPU0_SPAN))
	)
	return New(newFrameSink(), blk, ch, opts...)
}

func TestRotateCycle(t *testing.T) {
	lp := newTestLoop()

	if got, want := lp.Mode(), Slow; got != want {
		t.Fatalf("invalid initial mode: got=%v, want=%v", got, want)
	}

	want := []Mode{Fast, Random, Slow, Fast, Random, Slow}
	for i, w := range want {
		lp.rotateOnce()
		if got := lp.Mode(); got != w {
			t.Fatalf("period %d: invalid mode: got=%v, want=%v", i+1, got, w)
		}
	}
}

func TestRotateExternalSource(t *testing.T) {
	ext := uint32(3) // no external request
	lp := newTestLoop(WithExternalMode(func() uint32 { return ext }))

	// no request: normal rotation.
	lp.rotateOnce()
	if got, want := lp.Mode(), Fast; got != want {
		t.Fatalf("invalid mode: got=%v, want=%v", got, want)
	}

	// external request wins over rotation, adopted without override.
	ext = uint32(Random)
	lp.rotateOnce()
	if got, want := lp.Mode(), Random; got != want {
		t.Fatalf("invalid mode after external request: got=%v, want=%v", got, want)
	}
	if lp.Override() {
		t.Fatalf("external source must not raise the host override")
	}

	// same value again: last-write-wins, nothing changes.
	lp.rotateOnce()
	if got, want := lp.Mode(), Random; got != want {
		t.Fatalf("invalid mode after repeated request: got=%v, want=%v", got, want)
	}
}

func TestRotateHeldByOverride(t *testing.T) {
	lp := newTestLoop()
	lp.st.setMode(Fast)
	lp.st.setOverride(true)

	for i := 0; i < 3; i++ {
		lp.rotateOnce()
	}
	if got, want := lp.Mode(), Fast; got != want {
		t.Fatalf("rotator ran during host override: got=%v, want=%v", got, want)
	}
}

func TestProduceConsume(t *testing.T) {
	var (
		sink = newFrameSink()
		blk  = ipi.NewControlBlock(ipi.NewRegion(regs.SHM_SPAN))
		ch   = ipi.NewChannel(ipi.NewRegion(regs.IPI_RPU0_SPAN))
	)
	lp := New(sink, blk, ch,
		WithTick(2*time.Millisecond),
		WithRotatePeriod(time.Hour), // hold the slow mode for the whole test
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- lp.Run(ctx) }()

	var frames []uint32
	timeout := time.After(5 * time.Second)
	for len(frames) < 4 {
		select {
		case v := <-sink.frames:
			frames = append(frames, v)
		case <-timeout:
			t.Fatalf("timeout waiting for frames (got %d)", len(frames))
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("could not run loop: %+v", err)
	}

	// slow mode toggles between the two fixed patterns. A frame may be
	// dropped when the queue slot is still occupied, so assert the
	// pattern set and that both patterns show up, not strict alternation.
	var seenA, seenB bool
	for i, v := range frames {
		switch v {
		case frameA:
			seenA = true
		case frameB:
			seenB = true
		default:
			t.Fatalf("frame %d: invalid pattern 0x%x", i, v)
		}
	}
	if !seenA || !seenB {
		t.Fatalf("output did not toggle: frames=%v", frames)
	}
}

func TestProduceRandomFrames(t *testing.T) {
	var (
		sink = newFrameSink()
		blk  = ipi.NewControlBlock(ipi.NewRegion(regs.SHM_SPAN))
		ch   = ipi.NewChannel(ipi.NewRegion(regs.IPI_RPU0_SPAN))
	)
	lp := New(sink, blk, ch,
		WithTick(2*time.Millisecond),
		WithRotatePeriod(time.Hour),
		WithSeed(42),
	)
	lp.st.setMode(Random)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- lp.Run(ctx) }()

	var frames []uint32
	timeout := time.After(5 * time.Second)
	for len(frames) < 8 {
		select {
		case v := <-sink.frames:
			frames = append(frames, v)
		case <-timeout:
			t.Fatalf("timeout waiting for frames (got %d)", len(frames))
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("could not run loop: %+v", err)
	}

	for i, v := range frames {
		if v > 3 {
			t.Fatalf("frame %d: random frame 0x%x out of range", i, v)
		}
	}
}
