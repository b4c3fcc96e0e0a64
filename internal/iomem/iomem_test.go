// Copyright 2025 The go-zynq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iomem

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestSegment(t *testing.T) {
	const span = 4096

	tmp := t.TempDir()
	f, err := os.Create(filepath.Join(tmp, "dev.mem"))
	if err != nil {
		t.Fatalf("could not create fake dev-mem: %+v", err)
	}
	defer f.Close()

	err = f.Truncate(span)
	if err != nil {
		t.Fatalf("could not resize fake dev-mem: %+v", err)
	}

	seg, err := Map(f, 0, span)
	if err != nil {
		t.Fatalf("could not map segment: %+v", err)
	}
	defer seg.Close()

	if got, want := seg.Len(), span; got != want {
		t.Fatalf("invalid segment length: got=%d, want=%d", got, want)
	}

	_, err = seg.WriteAt([]byte{0xde, 0xad, 0xbe, 0xef}, 8)
	if err != nil {
		t.Fatalf("could not write segment: %+v", err)
	}

	buf := make([]byte, 4)
	_, err = seg.ReadAt(buf, 8)
	if err != nil {
		t.Fatalf("could not read segment: %+v", err)
	}
	if got, want := string(buf), "\xde\xad\xbe\xef"; got != want {
		t.Fatalf("invalid segment data: got=%q, want=%q", got, want)
	}

	_, err = seg.ReadAt(buf, span+1)
	if err == nil {
		t.Fatalf("expected an error for out-of-range read")
	}

	_, err = seg.ReadAt(buf, span-2)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("invalid short-read error: got=%+v, want=%+v", err, io.EOF)
	}

	err = seg.Close()
	if err != nil {
		t.Fatalf("could not close segment: %+v", err)
	}

	_, err = seg.ReadAt(buf, 0)
	if !errors.Is(err, errClosed) {
		t.Fatalf("invalid read-after-close error: got=%+v, want=%+v", err, errClosed)
	}

	err = seg.Close()
	if err != nil {
		t.Fatalf("could not double-close segment: %+v", err)
	}
}
