// Copyright 2025 The go-zynq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rpu

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-zynq/blink/internal/regs"
)

type rwer interface {
	io.ReaderAt
	io.WriterAt
}

// GPIO is the AXI GPIO the consumer task drives. The frame value is
// written verbatim to the data register; its physical meaning (which
// LEDs light up) is irrelevant to the protocol.
type GPIO struct {
	rw  rwer
	err error
	buf [4]byte
}

// NewGPIO binds the output device to its register page.
func NewGPIO(rw rwer) *GPIO {
	return &GPIO{rw: rw}
}

// Init configures every pin of the port as an output by clearing the
// tri-state register.
func (gp *GPIO) Init() error {
	gp.writeU32(regs.GPIO_TRI, 0)
	return gp.err
}

// WriteFrame writes the frame to the data register.
func (gp *GPIO) WriteFrame(v uint32) {
	gp.writeU32(regs.GPIO_DATA, v)
}

// Frame returns the last frame written to the data register.
func (gp *GPIO) Frame() uint32 {
	return gp.readU32(regs.GPIO_DATA)
}

// Err returns the first access error, if any.
func (gp *GPIO) Err() error { return gp.err }

func (gp *GPIO) readU32(off int64) uint32 {
	if gp.err != nil {
		return 0
	}
	_, gp.err = gp.rw.ReadAt(gp.buf[:4], off)
	if gp.err != nil {
		gp.err = fmt.Errorf("rpu: could not read gpio register 0x%x: %w", off, gp.err)
		return 0
	}
	return binary.LittleEndian.Uint32(gp.buf[:4])
}

func (gp *GPIO) writeU32(off int64, v uint32) {
	if gp.err != nil {
		return
	}
	binary.LittleEndian.PutUint32(gp.buf[:4], v)
	_, gp.err = gp.rw.WriteAt(gp.buf[:4], off)
	if gp.err != nil {
		gp.err = fmt.Errorf("rpu: could not write gpio register 0x%x: %w", off, gp.err)
		return
	}
}
