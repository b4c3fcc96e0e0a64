// Copyright 2025 The go-zynq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package apu

import (
	"fmt"
	"os"

	"github.com/go-zynq/blink/internal/iomem"
	"github.com/go-zynq/blink/internal/regs"
	"github.com/go-zynq/blink/ipi"
)

// Device is the host-side view of the physical system: the shared
// control block and the APU IPI channel page, mapped from /dev/mem.
type Device struct {
	mem struct {
		fd  *os.File
		shm *iomem.Segment
		ipi *iomem.Segment
	}

	bell *ipi.Doorbell
	dsp  *Dispatcher
}

// NewDevice maps the shared memory regions from devmem (typically
// /dev/mem) and returns a device ready to dispatch mode commands.
func NewDevice(devmem string, opts ...Option) (*Device, error) {
	mem, err := os.OpenFile(devmem, os.O_RDWR|os.O_SYNC, 0666)
	if err != nil {
		return nil, fmt.Errorf("apu: could not open %q: %w", devmem, err)
	}
	defer func() {
		if err != nil {
			_ = mem.Close()
		}
	}()

	dev := &Device{}
	dev.mem.fd = mem

	dev.mem.shm, err = iomem.Map(mem, regs.SHM_BASE, regs.SHM_SPAN)
	if err != nil {
		return nil, fmt.Errorf("apu: could not map shared control block: %w", err)
	}
	defer func() {
		if err != nil {
			_ = dev.mem.shm.Close()
		}
	}()

	dev.mem.ipi, err = iomem.Map(mem, regs.IPI_APU_BASE, regs.IPI_APU_SPAN)
	if err != nil {
		return nil, fmt.Errorf("apu: could not map IPI channel page: %w", err)
	}
	defer func() {
		if err != nil {
			_ = dev.mem.ipi.Close()
		}
	}()

	dev.bell = ipi.NewDoorbell(dev.mem.ipi)
	dev.dsp = New(ipi.NewControlBlock(dev.mem.shm), dev.bell, opts...)

	return dev, nil
}

// Dispatcher returns the underlying mode dispatcher.
func (dev *Device) Dispatcher() *Dispatcher {
	return dev.dsp
}

// SendMode submits a mode to the real-time unit. See Dispatcher.SendMode.
func (dev *Device) SendMode(mode uint32) error {
	return dev.dsp.SendMode(mode)
}

// Status returns the outcome of the last handshake.
func (dev *Device) Status() LastResult {
	return dev.dsp.Status()
}

// Pending reports whether the last doorbell ring is still pending on
// the remote channel. Informational only.
func (dev *Device) Pending() bool {
	return dev.bell.Pending(regs.MASK_RPU0)
}

// Close unmaps the shared regions.
func (dev *Device) Close() error {
	err := dev.mem.shm.Close()
	if err != nil {
		return fmt.Errorf("apu: could not unmap shared control block: %w", err)
	}
	err = dev.mem.ipi.Close()
	if err != nil {
		return fmt.Errorf("apu: could not unmap IPI channel page: %w", err)
	}
	err = dev.mem.fd.Close()
	if err != nil {
		return fmt.Errorf("apu: could not close dev-mem: %w", err)
	}
	return nil
}
