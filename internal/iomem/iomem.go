// Copyright 2025 The go-zynq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package iomem maps physical device memory into the process address
// space and exposes it through io.ReaderAt/io.WriterAt.
package iomem // import "github.com/go-zynq/blink/internal/iomem"

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

var (
	errClosed = errors.New("iomem: closed")
)

// Segment is a memory-mapped window onto a physical address range.
type Segment struct {
	data []byte
}

// Map maps span bytes of f, starting at the physical address base.
// The file is typically /dev/mem opened with O_RDWR|O_SYNC, so that
// accesses bypass the CPU cache and act as their own memory barriers.
func Map(f *os.File, base int64, span int) (*Segment, error) {
	data, err := unix.Mmap(
		int(f.Fd()),
		base, span,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED,
	)
	if err != nil {
		return nil, fmt.Errorf("iomem: could not mmap 0x%x+0x%x: %w", base, span, err)
	}
	if data == nil || len(data) != span {
		return nil, fmt.Errorf("iomem: invalid mmap'd data: %d", len(data))
	}

	seg := &Segment{data: data}
	runtime.SetFinalizer(seg, (*Segment).Close)
	return seg, nil
}

// Close unmaps the segment.
func (seg *Segment) Close() error {
	if seg == nil {
		return os.ErrInvalid
	}

	if seg.data == nil {
		return nil
	}
	data := seg.data
	seg.data = nil
	runtime.SetFinalizer(seg, nil)

	return unix.Munmap(data)
}

// Len returns the length of the underlying memory-mapped segment.
func (seg *Segment) Len() int {
	return len(seg.data)
}

// ReadAt implements the io.ReaderAt interface.
func (seg *Segment) ReadAt(p []byte, off int64) (int, error) {
	if seg == nil {
		return 0, os.ErrInvalid
	}

	if seg.data == nil {
		return 0, errClosed
	}
	if off < 0 || int64(len(seg.data)) < off {
		return 0, fmt.Errorf("iomem: invalid ReadAt offset %d", off)
	}
	n := copy(p, seg.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements the io.WriterAt interface.
func (seg *Segment) WriteAt(p []byte, off int64) (int, error) {
	if seg == nil {
		return 0, os.ErrInvalid
	}

	if seg.data == nil {
		return 0, errClosed
	}
	if off < 0 || int64(len(seg.data)) < off {
		return 0, fmt.Errorf("iomem: invalid WriteAt offset %d", off)
	}
	n := copy(seg.data[off:], p)
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

var (
	_ io.ReaderAt = (*Segment)(nil)
	_ io.WriterAt = (*Segment)(nil)
	_ io.Closer   = (*Segment)(nil)
)
