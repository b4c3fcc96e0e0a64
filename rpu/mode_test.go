// Copyright 2025 The go-zynq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rpu

import "testing"

func TestModeRotation(t *testing.T) {
	for _, tc := range []struct {
		mode Mode
		want Mode
	}{
		{mode: Slow, want: Fast},
		{mode: Fast, want: Random},
		{mode: Random, want: Slow},
		{mode: Mode(42), want: Slow},
	} {
		if got, want := tc.mode.next(), tc.want; got != want {
			t.Errorf("%v: invalid next mode: got=%v, want=%v", tc.mode, got, want)
		}
	}
}

func TestModeString(t *testing.T) {
	for _, tc := range []struct {
		mode Mode
		want string
	}{
		{mode: Slow, want: "slow"},
		{mode: Fast, want: "fast"},
		{mode: Random, want: "random"},
		{mode: Mode(99), want: "Mode(99)"},
	} {
		if got, want := tc.mode.String(), tc.want; got != want {
			t.Errorf("invalid mode string: got=%q, want=%q", got, want)
		}
	}
}

func TestRelease(t *testing.T) {
	for _, tc := range []struct {
		cmd  uint32
		want bool
	}{
		{cmd: 0, want: false},
		{cmd: 1, want: false},
		{cmd: 2, want: false},
		{cmd: 3, want: true},
		{cmd: 99, want: true},
		{cmd: 0xFFFFFFFF, want: true},
	} {
		if got, want := Release(tc.cmd), tc.want; got != want {
			t.Errorf("cmd=%d: invalid release: got=%v, want=%v", tc.cmd, got, want)
		}
	}
}
