// Copyright 2025 The go-zynq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ipi

import (
	"github.com/go-zynq/blink/internal/regs"
)

// Doorbell is the sender half of an IPI channel: a write-only trigger
// register that raises exactly one interrupt on the remote channel for
// each target bit written, and a read-only observation register that
// reflects which rings are still pending. The observation register is
// informational only; the protocol never relies on it for correctness.
type Doorbell struct {
	regFile
	trig reg32
	obs  reg32
}

// NewDoorbell binds a doorbell to the sender's IPI channel page.
func NewDoorbell(rw rwer) *Doorbell {
	bell := &Doorbell{}
	bell.regFile.rw = rw
	bell.trig = newReg32(&bell.regFile, regs.IPI_TRIG)
	bell.obs = newReg32(&bell.regFile, regs.IPI_OBS)
	return bell
}

// Ring raises an interrupt on every remote channel in mask.
func (bell *Doorbell) Ring(mask uint32) {
	bell.trig.w(mask)
}

// Pending reports whether a ring to the channels in mask has not yet
// been acknowledged by the remote side.
func (bell *Doorbell) Pending(mask uint32) bool {
	return bell.obs.r()&mask != 0
}

// Channel is the receiver half of an IPI channel: the interrupt
// status/mask/enable/disable registers of the local page. The status
// register is write-1-to-clear.
type Channel struct {
	regFile
	isr reg32
	imr reg32
	ier reg32
	idr reg32
}

// NewChannel binds a channel to the receiver's IPI page.
func NewChannel(rw rwer) *Channel {
	ch := &Channel{}
	ch.regFile.rw = rw
	ch.isr = newReg32(&ch.regFile, regs.IPI_ISR)
	ch.imr = newReg32(&ch.regFile, regs.IPI_IMR)
	ch.ier = newReg32(&ch.regFile, regs.IPI_IER)
	ch.idr = newReg32(&ch.regFile, regs.IPI_IDR)
	return ch
}

// Status returns the pending interrupt sources.
func (ch *Channel) Status() uint32 {
	return ch.isr.r()
}

// Clear acknowledges the pending sources in mask, leaving other
// channels' bits untouched.
func (ch *Channel) Clear(mask uint32) {
	ch.isr.w(mask)
}

// ClearAll acknowledges every pending source.
func (ch *Channel) ClearAll() {
	ch.isr.w(0xFFFFFFFF)
}

// Enable unmasks the interrupt sources in mask.
func (ch *Channel) Enable(mask uint32) {
	ch.ier.w(mask)
}

// Disable masks the interrupt sources in mask.
func (ch *Channel) Disable(mask uint32) {
	ch.idr.w(mask)
}

// Enabled reports whether every source in mask is unmasked.
// A zero IMR bit means the source is enabled.
func (ch *Channel) Enabled(mask uint32) bool {
	return ch.imr.r()&mask == 0
}

// Setup runs the standard bring-up sequence for the sources in mask:
// disable, clear any stale pending bit, then enable.
func (ch *Channel) Setup(mask uint32) error {
	ch.Disable(mask)
	ch.ClearAll()
	ch.Enable(mask)
	return ch.Err()
}
