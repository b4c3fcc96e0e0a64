// Copyright 2025 The go-zynq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ipi implements the inter-processor doorbell registers and the
// shared control block through which the application CPU and the
// real-time unit exchange one command and one acknowledgment.
package ipi // import "github.com/go-zynq/blink/ipi"

import (
	"encoding/binary"
	"fmt"
	"io"
)

type rwer interface {
	io.ReaderAt
	io.WriterAt
}

// regFile provides 32-bit register access over a memory window, with
// the sticky-error idiom: the first failure latches and subsequent
// accesses are no-ops until Err is consulted.
type regFile struct {
	rw  rwer
	err error
	buf [4]byte
}

func (f *regFile) readU32(off int64) uint32 {
	if f.err != nil {
		return 0
	}
	_, f.err = f.rw.ReadAt(f.buf[:4], off)
	if f.err != nil {
		f.err = fmt.Errorf("ipi: could not read register 0x%x: %w", off, f.err)
		return 0
	}
	return binary.LittleEndian.Uint32(f.buf[:4])
}

func (f *regFile) writeU32(off int64, v uint32) {
	if f.err != nil {
		return
	}
	binary.LittleEndian.PutUint32(f.buf[:4], v)
	_, f.err = f.rw.WriteAt(f.buf[:4], off)
	if f.err != nil {
		f.err = fmt.Errorf("ipi: could not write register 0x%x: %w", off, f.err)
		return
	}
}

// Err returns the first access error, if any.
func (f *regFile) Err() error { return f.err }

type reg32 struct {
	r func() uint32
	w func(v uint32)
}

func newReg32(f *regFile, off int64) reg32 {
	return reg32{
		r: func() uint32 {
			return f.readU32(off)
		},
		w: func(v uint32) {
			f.writeU32(off, v)
		},
	}
}
