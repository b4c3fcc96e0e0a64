// Copyright 2025 The go-zynq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/go-zynq/blink/internal/regs"
)

// bellPage emulates the sender's IPI channel page: a write-only
// trigger register and a read-only observation register. Writing a
// target bit to the trigger latches it in the observation register and
// raises the interrupt on the remote page; the bit settles when the
// remote side clears its status bit.
type bellPage struct {
	mu   sync.Mutex
	obs  uint32
	ring func(mask uint32)
}

func (pg *bellPage) ReadAt(p []byte, off int64) (int, error) {
	if len(p) != 4 {
		return 0, fmt.Errorf("sim: invalid register access size %d", len(p))
	}

	pg.mu.Lock()
	defer pg.mu.Unlock()

	switch off {
	case regs.IPI_OBS:
		binary.LittleEndian.PutUint32(p, pg.obs)
	default:
		// trigger register is write-only
		binary.LittleEndian.PutUint32(p, 0)
	}
	return 4, nil
}

func (pg *bellPage) WriteAt(p []byte, off int64) (int, error) {
	if len(p) != 4 {
		return 0, fmt.Errorf("sim: invalid register access size %d", len(p))
	}
	v := binary.LittleEndian.Uint32(p)

	switch off {
	case regs.IPI_TRIG:
		pg.mu.Lock()
		pg.obs |= v
		ring := pg.ring
		pg.mu.Unlock()
		if ring != nil {
			ring(v)
		}
	default:
		// observation register is read-only: drop the write.
	}
	return 4, nil
}

// settle clears the pending bits once the remote side acknowledged.
func (pg *bellPage) settle(mask uint32) {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	pg.obs &^= mask
}

// chanPage emulates the receiver's IPI channel page: a
// write-1-to-clear status register and the mask/enable/disable
// register triplet (a zero mask bit means the source is enabled).
type chanPage struct {
	mu      sync.Mutex
	isr     uint32
	imr     uint32
	onClear func(cleared uint32)
}

func newChanPage() *chanPage {
	return &chanPage{imr: 0xFFFFFFFF} // every source masked at reset
}

func (pg *chanPage) ReadAt(p []byte, off int64) (int, error) {
	if len(p) != 4 {
		return 0, fmt.Errorf("sim: invalid register access size %d", len(p))
	}

	pg.mu.Lock()
	defer pg.mu.Unlock()

	switch off {
	case regs.IPI_ISR:
		binary.LittleEndian.PutUint32(p, pg.isr)
	case regs.IPI_IMR:
		binary.LittleEndian.PutUint32(p, pg.imr)
	default:
		// enable/disable registers are write-only
		binary.LittleEndian.PutUint32(p, 0)
	}
	return 4, nil
}

func (pg *chanPage) WriteAt(p []byte, off int64) (int, error) {
	if len(p) != 4 {
		return 0, fmt.Errorf("sim: invalid register access size %d", len(p))
	}
	v := binary.LittleEndian.Uint32(p)

	var (
		cleared uint32
		notify  func(uint32)
	)

	pg.mu.Lock()
	switch off {
	case regs.IPI_ISR: // write-1-to-clear
		cleared = pg.isr & v
		pg.isr &^= v
		notify = pg.onClear
	case regs.IPI_IER:
		pg.imr &^= v
	case regs.IPI_IDR:
		pg.imr |= v
	}
	pg.mu.Unlock()

	if notify != nil && cleared != 0 {
		notify(cleared)
	}
	return 4, nil
}

// raise latches the given sources as pending.
func (pg *chanPage) raise(mask uint32) {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	pg.isr |= mask
}
