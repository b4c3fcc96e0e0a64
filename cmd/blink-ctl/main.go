// Copyright 2025 The go-zynq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command blink-ctl sends a single mode command to the real-time unit
// and waits for its acknowledgment.
package main // import "github.com/go-zynq/blink/cmd/blink-ctl"

import (
	"flag"
	"fmt"
	"log"

	"github.com/go-zynq/blink/apu"
	"github.com/go-zynq/blink/internal/config"
)

func main() {
	var (
		cfgFile = flag.String("cfg", "", "path to a YAML configuration file")
		devmem  = flag.String("dev", "", "memory device to map registers from")
		mode    = flag.Int("mode", -1, "mode to request (0=slow, 1=fast, 2=random)")
		release = flag.Bool("release", false, "hand mode control back to the device")
	)

	log.SetPrefix("blink-ctl: ")
	log.SetFlags(0)

	flag.Parse()

	switch {
	case *release && *mode >= 0:
		log.Fatalf("-mode and -release are mutually exclusive")
	case !*release && *mode < 0:
		log.Fatalf("missing -mode (or -release) argument")
	}

	cmd := uint32(*mode)
	if *release {
		// any out-of-range value releases control on the wire.
		cmd = 3
	}

	cfg := config.Default()
	if *cfgFile != "" {
		var err error
		cfg, err = config.Load(*cfgFile)
		if err != nil {
			log.Fatalf("could not load configuration: %+v", err)
		}
	}
	if *devmem != "" {
		cfg.Host.Devmem = *devmem
	}

	err := run(cfg, cmd)
	if err != nil {
		log.Fatalf("could not run blink-ctl: %+v", err)
	}
}

func run(cfg config.Config, mode uint32) error {
	dev, err := apu.NewDevice(cfg.Host.Devmem,
		apu.WithTimeout(cfg.Host.Timeout()),
		apu.WithPollInterval(cfg.Host.Poll()),
		apu.WithSettleDelay(cfg.Host.Settle()),
	)
	if err != nil {
		return fmt.Errorf("could not open device: %w", err)
	}
	defer dev.Close()

	err = dev.SendMode(mode)
	if err != nil {
		if dev.Pending() {
			log.Printf("doorbell still pending on the remote channel")
		}
		return fmt.Errorf("could not send mode=%d: %w", mode, err)
	}

	last := dev.Status()
	log.Printf("mode=%d sent=%v acked=%v", last.Mode, last.Sent, last.Acked)

	return nil
}
