// Copyright 2025 The go-zynq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ipi

import (
	"github.com/go-zynq/blink/internal/regs"
)

// Ack is the acknowledgment the real-time unit writes after servicing a
// command: a constant tag in the upper 24 bits, the processed mode in
// the low 8. The zero Ack means "no acknowledgment yet".
type Ack struct {
	Tag  uint32 // upper 24 bits, regs.ACK_TAG when valid
	Mode uint8  // processed command, masked to 8 bits
}

// AckOf returns the acknowledgment for the given command word.
func AckOf(cmd uint32) Ack {
	return Ack{Tag: regs.ACK_TAG, Mode: uint8(cmd)}
}

// ackFrom splits a raw acknowledgment word into its (tag, mode) fields.
func ackFrom(word uint32) Ack {
	return Ack{Tag: word &^ regs.ACK_MODE, Mode: uint8(word & regs.ACK_MODE)}
}

// Word serializes the acknowledgment to its on-wire 32-bit layout.
func (ack Ack) Word() uint32 {
	return ack.Tag | uint32(ack.Mode)
}

// Valid reports whether the tag matches the acknowledgment magic.
func (ack Ack) Valid() bool {
	return ack.Tag == regs.ACK_TAG
}

// Matches reports whether ack acknowledges the given command word.
func (ack Ack) Matches(cmd uint32) bool {
	return ack.Valid() && ack.Mode == uint8(cmd&regs.ACK_MODE)
}

// ControlBlock is the fixed-layout shared memory block: the command
// word at offset 0x00 (host writes, device reads) and the
// acknowledgment word at offset 0x04 (device writes, host reads).
type ControlBlock struct {
	regFile
	cmd reg32
	ack reg32
}

// NewControlBlock binds a control block to the given memory window.
func NewControlBlock(rw rwer) *ControlBlock {
	blk := &ControlBlock{}
	blk.regFile.rw = rw
	blk.cmd = newReg32(&blk.regFile, regs.SHM_CMD)
	blk.ack = newReg32(&blk.regFile, regs.SHM_ACK)
	return blk
}

// Command returns the last command word the host wrote.
func (blk *ControlBlock) Command() uint32 {
	return blk.cmd.r()
}

// SetCommand writes the command word. Only the host calls this.
func (blk *ControlBlock) SetCommand(v uint32) {
	blk.cmd.w(v)
}

// Ack returns the current acknowledgment.
func (blk *ControlBlock) Ack() Ack {
	return ackFrom(blk.ack.r())
}

// SetAck writes the acknowledgment. Only the device calls this.
func (blk *ControlBlock) SetAck(ack Ack) {
	blk.ack.w(ack.Word())
}

// ClearAck zeroes the acknowledgment word. The host clears it before
// each new command: the protocol has no sequence number, so a stale
// acknowledgment from a previous round would otherwise satisfy the
// next poll.
func (blk *ControlBlock) ClearAck() {
	blk.ack.w(0)
}
