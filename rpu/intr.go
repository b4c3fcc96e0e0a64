// Copyright 2025 The go-zynq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rpu

import (
	"github.com/go-zynq/blink/internal/regs"
	"github.com/go-zynq/blink/ipi"
)

// IRQ services the doorbell interrupt line. It runs in interrupt
// context: it never blocks, never fails, and its only observable
// effects are the mode/override stores and the acknowledgment write.
//
// The handler runs to completion before the host can observe the
// acknowledgment, so a successful handshake guarantees the new state
// was applied first.
func (lp *Loop) IRQ() {
	isr := lp.ch.Status()

	// A zero status means the line fired for no pending source
	// (startup glitch or another device sharing the line). Clear any
	// stuck state and return without touching the control block or
	// the loop state. No logging here: a storm of spurious interrupts
	// must not mask real events behind console traffic.
	if isr == 0 {
		lp.ch.ClearAll()
		return
	}

	if isr&regs.MASK_APU == 0 {
		// Not our channel: clear and leave.
		lp.ch.ClearAll()
		return
	}

	// Acknowledge only the host's bit; other channels keep theirs.
	lp.ch.Clear(regs.MASK_APU)

	cmd := lp.blk.Command()
	switch {
	case !Release(cmd):
		lp.st.setMode(Mode(cmd))
		lp.st.setOverride(true)
		lp.msg.Printf("irq: mode set to %v (host override active)", Mode(cmd))
	default:
		// Out-of-range command: a release signal, not an error. The
		// mode is left as-is; the rotator resumes on its next period.
		lp.st.setOverride(false)
		lp.msg.Printf("irq: host released control, rotation resuming")
	}

	// State first, acknowledgment last.
	lp.blk.SetAck(ipi.AckOf(cmd))
}
