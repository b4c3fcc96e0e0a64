// Copyright 2025 The go-zynq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rpu

import "sync/atomic"

// state is the mode/override pair shared between task context (the
// producer and the rotator) and interrupt context (the IPI handler).
// The two words are independent atomics: a reader may observe one
// updated before the other. That window is harmless, as every mode
// value is always valid to render.
type state struct {
	mode     atomic.Uint32
	override atomic.Bool
}

func (st *state) Mode() Mode {
	return Mode(st.mode.Load())
}

func (st *state) setMode(m Mode) {
	st.mode.Store(uint32(m))
}

func (st *state) Override() bool {
	return st.override.Load()
}

func (st *state) setOverride(v bool) {
	st.override.Store(v)
}
