// Copyright 2025 The go-zynq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ipi

import (
	"fmt"
	"io"
	"sync"
)

// Region is a shared memory window accessed concurrently from both
// sides of the protocol. Every access takes a lock, so each read and
// write carries a full memory barrier: the software analogue of the
// uncached, fenced accesses both CPUs perform on the physical block.
type Region struct {
	mu  sync.Mutex
	buf []byte
}

// NewRegion returns a zeroed region of the given size.
func NewRegion(size int) *Region {
	return &Region{buf: make([]byte, size)}
}

// ReadAt implements the io.ReaderAt interface.
func (reg *Region) ReadAt(p []byte, off int64) (int, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if off < 0 || int64(len(reg.buf)) < off {
		return 0, fmt.Errorf("ipi: invalid ReadAt offset %d", off)
	}
	n := copy(p, reg.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements the io.WriterAt interface.
func (reg *Region) WriteAt(p []byte, off int64) (int, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if off < 0 || int64(len(reg.buf)) < off {
		return 0, fmt.Errorf("ipi: invalid WriteAt offset %d", off)
	}
	n := copy(reg.buf[off:], p)
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

var (
	_ io.ReaderAt = (*Region)(nil)
	_ io.WriterAt = (*Region)(nil)
)
