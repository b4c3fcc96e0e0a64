// Copyright 2025 The go-zynq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command blink-srv exposes the mode dispatcher as a TDAQ server: the
// run-control plane drives the shared-memory handshake with the
// real-time unit.
package main // import "github.com/go-zynq/blink/cmd/blink-srv"

import (
	"context"
	"log"
	"os"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"

	"github.com/go-zynq/blink/apu"
)

func main() {
	cmd := flags.New()

	name := "blink"
	if len(cmd.Args) > 0 {
		name = cmd.Args[0]
	}
	devmem := "/dev/mem"
	if len(cmd.Args) > 1 {
		devmem = cmd.Args[1]
	}

	dev, err := apu.NewDevice(devmem)
	if err != nil {
		log.Panicf("could not open device %q: %+v", devmem, err)
	}
	defer dev.Close()

	blink := apu.NewServer(name, dev.Dispatcher())

	srv := tdaq.New(cmd, os.Stdout)
	srv.CmdHandle("/config", blink.OnConfig)
	srv.CmdHandle("/init", blink.OnInit)
	srv.CmdHandle("/reset", blink.OnReset)
	srv.CmdHandle("/start", blink.OnStart)
	srv.CmdHandle("/stop", blink.OnStop)
	srv.CmdHandle("/quit", blink.OnQuit)

	srv.CmdHandle("/set-mode", blink.OnSetMode)
	srv.CmdHandle("/release", blink.OnRelease)
	srv.CmdHandle("/status", blink.OnStatus)

	err = srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}
