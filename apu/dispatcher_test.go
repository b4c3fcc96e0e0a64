// Copyright 2025 The go-zynq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package apu

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/go-zynq/blink/internal/regs"
	"github.com/go-zynq/blink/ipi"
)

// responder plays the device's role: it waits for the doorbell trigger,
// services the command and writes the acknowledgment.
type responder struct {
	shm  *ipi.Region
	page *ipi.Region
	stop chan struct{}
}

func newResponder(shm, page *ipi.Region) *responder {
	r := &responder{shm: shm, page: page, stop: make(chan struct{})}
	go r.run()
	return r
}

func (r *responder) Close() { close(r.stop) }

func (r *responder) run() {
	blk := ipi.NewControlBlock(r.shm)
	buf := make([]byte, 4)
	for {
		select {
		case <-r.stop:
			return
		default:
		}

		_, err := r.page.ReadAt(buf, regs.IPI_TRIG)
		if err != nil {
			return
		}
		trig := binary.LittleEndian.Uint32(buf)
		if trig&regs.MASK_RPU0 == 0 {
			time.Sleep(50 * time.Microsecond)
			continue
		}

		// consume the ring, service the command, ack it.
		binary.LittleEndian.PutUint32(buf, 0)
		_, _ = r.page.WriteAt(buf, regs.IPI_TRIG)
		blk.SetAck(ipi.AckOf(blk.Command()))
	}
}

func newTestDispatcher(opts ...Option) (*Dispatcher, *ipi.Region, *ipi.Region) {
	var (
		shm  = ipi.NewRegion(regs.SHM_SPAN)
		page = ipi.NewRegion(regs.IPI_APU_SPAN)
	)
	xopts := []Option{
		WithTimeout(500 * time.Millisecond),
		WithPollInterval(50 * time.Microsecond),
		WithSettleDelay(50 * time.Microsecond),
	}
	xopts = append(xopts, opts...)
	dsp := New(ipi.NewControlBlock(shm), ipi.NewDoorbell(page), xopts...)
	return dsp, shm, page
}

func TestStatusBeforeFirstSend(t *testing.T) {
	dsp, _, _ := newTestDispatcher()
	if got, want := dsp.Status(), (LastResult{}); got != want {
		t.Fatalf("invalid initial status: got=%#v, want=%#v", got, want)
	}
}

func TestSendMode(t *testing.T) {
	for _, mode := range []uint32{0, 1, 2, 99} {
		dsp, shm, page := newTestDispatcher()
		dev := newResponder(shm, page)

		err := dsp.SendMode(mode)
		if err != nil {
			t.Fatalf("mode=%d: could not send mode: %+v", mode, err)
		}

		if got, want := dsp.Status(), (LastResult{Mode: mode, Sent: true, Acked: true}); got != want {
			t.Fatalf("mode=%d: invalid status: got=%#v, want=%#v", mode, got, want)
		}
		dev.Close()
	}
}

func TestSendModeIdempotent(t *testing.T) {
	dsp, shm, page := newTestDispatcher()
	dev := newResponder(shm, page)
	defer dev.Close()

	for i := 0; i < 2; i++ {
		err := dsp.SendMode(1)
		if err != nil {
			t.Fatalf("round %d: could not send mode: %+v", i, err)
		}
		if got, want := dsp.Status(), (LastResult{Mode: 1, Sent: true, Acked: true}); got != want {
			t.Fatalf("round %d: invalid status: got=%#v, want=%#v", i, got, want)
		}
	}
}

func TestSendModeTimeout(t *testing.T) {
	dsp, _, _ := newTestDispatcher(WithTimeout(5 * time.Millisecond))

	err := dsp.SendMode(2)
	if !errors.Is(err, ErrAckTimeout) {
		t.Fatalf("invalid error: got=%+v, want=%+v", err, ErrAckTimeout)
	}

	// the attempted mode is retained; the outcome is unknown, not rolled back.
	if got, want := dsp.Status(), (LastResult{Mode: 2, Sent: true, Acked: false}); got != want {
		t.Fatalf("invalid status: got=%#v, want=%#v", got, want)
	}
}

func TestSendModeIgnoresStaleAck(t *testing.T) {
	dsp, shm, _ := newTestDispatcher(WithTimeout(5 * time.Millisecond))

	// leftover acknowledgment from a previous round, matching the mode
	// about to be sent. With no device, the handshake must still time
	// out: the stale ack is cleared before the new command lands.
	blk := ipi.NewControlBlock(shm)
	blk.SetAck(ipi.AckOf(1))

	err := dsp.SendMode(1)
	if !errors.Is(err, ErrAckTimeout) {
		t.Fatalf("stale ack satisfied the poll: got=%+v, want=%+v", err, ErrAckTimeout)
	}
}

func TestSendModeSerialized(t *testing.T) {
	dsp, shm, page := newTestDispatcher()
	dev := newResponder(shm, page)
	defer dev.Close()

	// each handshake validates its own acknowledgment against its own
	// mode. An interleaved command write (or an interleaved ack-clear)
	// would fail some caller's poll, so all callers succeeding shows
	// the exchanges were serialized.
	var grp errgroup.Group
	for i := 0; i < 8; i++ {
		mode := uint32(i % 3)
		grp.Go(func() error {
			return dsp.SendMode(mode)
		})
	}
	err := grp.Wait()
	if err != nil {
		t.Fatalf("could not send modes concurrently: %+v", err)
	}

	last := dsp.Status()
	if !last.Sent || !last.Acked {
		t.Fatalf("invalid final status: %#v", last)
	}
	if last.Mode > 2 {
		t.Fatalf("final mode not one of the submitted modes: %#v", last)
	}
}
