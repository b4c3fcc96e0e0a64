// Copyright 2025 The go-zynq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package regs holds the ZynqMP register map used by blink: the shared
// control block, the APU and RPU0 IPI channel pages and the AXI GPIO
// the real-time unit drives.
package regs // import "github.com/go-zynq/blink/internal/regs"

const (
	// Shared control block (OCM page, uncached on both sides).
	SHM_BASE = 0xFF990000
	SHM_SPAN = 0x1000
	SHM_CMD  = 0x00 // command: host writes, device reads
	SHM_ACK  = 0x04 // acknowledgment: device writes, host reads

	ACK_MAGIC = 0xDEADBEEF
	ACK_TAG   = ACK_MAGIC & 0xFFFFFF00 // upper 24 bits of the ack word
	ACK_MODE  = 0x000000FF             // low 8 bits: processed mode

	// APU-side IPI channel page (source of the doorbell).
	IPI_APU_BASE = 0xFF300000
	IPI_APU_SPAN = 0x1000
	IPI_TRIG     = 0x00 // trigger register, write-only
	IPI_OBS      = 0x04 // observation register, read-only

	// RPU0-side IPI channel page (sink of the doorbell).
	IPI_RPU0_BASE = 0xFF310000
	IPI_RPU0_SPAN = 0x1000
	IPI_ISR       = 0x10 // interrupt status, write-1-to-clear
	IPI_IMR       = 0x14 // interrupt mask, read-only (0 = enabled)
	IPI_IER       = 0x18 // interrupt enable, write-only
	IPI_IDR       = 0x1C // interrupt disable, write-only

	MASK_APU  = 0x001 // APU source bit in the RPU0 ISR
	MASK_RPU0 = 0x100 // RPU0 target bit in the APU trigger register

	// AXI GPIO driven by the consumer task.
	GPIO_BASE = 0x80000000
	GPIO_SPAN = 0x1000
	GPIO_DATA = 0x00
	GPIO_TRI  = 0x04

	// Legacy shared word polled by the rotator (external mode source).
	LEGACY_BASE = 0x40000000
	LEGACY_SPAN = 0x1000
	LEGACY_MODE = 0x00
)
