// Copyright 2025 The go-zynq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rpu

import "fmt"

// Mode is the blink mode the control loop renders.
type Mode uint32

const (
	Slow Mode = iota
	Fast
	Random
)

func (m Mode) String() string {
	switch m {
	case Slow:
		return "slow"
	case Fast:
		return "fast"
	case Random:
		return "random"
	}
	return fmt.Sprintf("Mode(%d)", uint32(m))
}

// next returns the mode the rotator advances to.
func (m Mode) next() Mode {
	switch m {
	case Slow:
		return Fast
	case Fast:
		return Random
	}
	return Slow
}

// Release reports whether a command word releases host control.
// Any value outside the mode set is a release signal, not an error.
func Release(cmd uint32) bool {
	return cmd > uint32(Random)
}
