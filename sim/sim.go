// Copyright 2025 The go-zynq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sim runs the blink system fully in process: the host
// dispatcher and the real-time loop share in-memory register pages,
// with a software interconnect standing in for the IPI fabric and the
// interrupt line.
package sim // import "github.com/go-zynq/blink/sim"

import (
	"context"
	"encoding/binary"

	"golang.org/x/sync/errgroup"

	"github.com/go-zynq/blink/apu"
	"github.com/go-zynq/blink/internal/regs"
	"github.com/go-zynq/blink/ipi"
	"github.com/go-zynq/blink/rpu"
)

// Option configures a simulated unit.
type Option func(*config)

type config struct {
	loop []rpu.Option
	dsp  []apu.Option
}

// WithLoopOptions forwards options to the real-time loop.
func WithLoopOptions(opts ...rpu.Option) Option {
	return func(cfg *config) {
		cfg.loop = append(cfg.loop, opts...)
	}
}

// WithDispatcherOptions forwards options to the host dispatcher.
func WithDispatcherOptions(opts ...apu.Option) Option {
	return func(cfg *config) {
		cfg.dsp = append(cfg.dsp, opts...)
	}
}

// Unit ties a host dispatcher and a real-time loop over shared
// in-memory pages. A doorbell ring on the host page raises the status
// bit on the device page and delivers an interrupt; the loop's
// interrupt handler runs on a dedicated goroutine, one invocation per
// delivery.
type Unit struct {
	shm    *ipi.Region
	legacy *ipi.Region
	gpio   *ipi.Region

	host   *bellPage
	device *chanPage

	loop *rpu.Loop
	dsp  *apu.Dispatcher

	irq chan struct{}
}

// New builds the unit. The legacy shared word starts out-of-range, so
// the external source requests nothing until SetExternalMode is called.
func New(opts ...Option) *Unit {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	u := &Unit{
		shm:    ipi.NewRegion(regs.SHM_SPAN),
		legacy: ipi.NewRegion(regs.LEGACY_SPAN),
		gpio:   ipi.NewRegion(regs.GPIO_SPAN),
		host:   &bellPage{},
		device: newChanPage(),
		irq:    make(chan struct{}, 8),
	}

	// interconnect: trigger -> remote status + interrupt delivery;
	// status clear -> observation bit settles.
	u.host.ring = func(mask uint32) {
		if mask&regs.MASK_RPU0 == 0 {
			return
		}
		u.device.raise(regs.MASK_APU)
		select {
		case u.irq <- struct{}{}:
		default:
		}
	}
	u.device.onClear = func(cleared uint32) {
		if cleared&regs.MASK_APU != 0 {
			u.host.settle(regs.MASK_RPU0)
		}
	}

	u.SetExternalMode(3)

	out := rpu.NewGPIO(u.gpio)
	_ = out.Init()

	lopts := append([]rpu.Option{
		rpu.WithExternalMode(u.externalMode),
	}, cfg.loop...)
	u.loop = rpu.New(out, ipi.NewControlBlock(u.shm), ipi.NewChannel(u.device), lopts...)
	u.dsp = apu.New(ipi.NewControlBlock(u.shm), ipi.NewDoorbell(u.host), cfg.dsp...)

	return u
}

// Run services interrupts and runs the loop until the context is
// canceled.
func (u *Unit) Run(ctx context.Context) error {
	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error { return u.loop.Run(ctx) })
	grp.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-u.irq:
				u.loop.IRQ()
			}
		}
	})
	return grp.Wait()
}

// SendMode submits a mode through the host dispatcher.
func (u *Unit) SendMode(mode uint32) error {
	return u.dsp.SendMode(mode)
}

// Status returns the outcome of the last host handshake.
func (u *Unit) Status() apu.LastResult {
	return u.dsp.Status()
}

// Mode returns the mode the loop currently renders.
func (u *Unit) Mode() rpu.Mode { return u.loop.Mode() }

// Override reports whether the host holds mode control.
func (u *Unit) Override() bool { return u.loop.Override() }

// Frame returns the last frame written to the output data register.
func (u *Unit) Frame() uint32 {
	var buf [4]byte
	_, err := u.gpio.ReadAt(buf[:], regs.GPIO_DATA)
	if err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(buf[:])
}

// AckWord returns the raw acknowledgment word of the control block.
func (u *Unit) AckWord() uint32 {
	return ipi.NewControlBlock(u.shm).Ack().Word()
}

// Pending reports whether the last doorbell ring is still pending.
func (u *Unit) Pending() bool {
	return ipi.NewDoorbell(u.host).Pending(regs.MASK_RPU0)
}

// SetExternalMode writes the legacy shared word the rotator consults
// each period. Values 0-2 request a mode; anything else requests
// nothing.
func (u *Unit) SetExternalMode(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, _ = u.legacy.WriteAt(buf[:], regs.LEGACY_MODE)
}

func (u *Unit) externalMode() uint32 {
	var buf [4]byte
	_, err := u.legacy.ReadAt(buf[:], regs.LEGACY_MODE)
	if err != nil {
		return 3
	}
	return binary.LittleEndian.Uint32(buf[:])
}

// InjectIRQ delivers an interrupt with no pending source, as a glitchy
// line would.
func (u *Unit) InjectIRQ() {
	select {
	case u.irq <- struct{}{}:
	default:
	}
}
