// Copyright 2025 The go-zynq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command blink-sim runs the whole system in process: the real-time
// loop over in-memory registers, driven through the same host
// dispatcher the hardware uses.
package main // import "github.com/go-zynq/blink/cmd/blink-sim"

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/go-zynq/blink/apu"
	"github.com/go-zynq/blink/internal/config"
	"github.com/go-zynq/blink/rpu"
	"github.com/go-zynq/blink/sim"
)

func main() {
	var (
		cfgFile = flag.String("cfg", "", "path to a YAML configuration file")
		demo    = flag.Bool("demo", false, "drive a scripted mode sequence, then exit")
	)

	log.SetPrefix("blink-sim: ")
	log.SetFlags(0)

	flag.Parse()

	cfg := config.Default()
	if *cfgFile != "" {
		var err error
		cfg, err = config.Load(*cfgFile)
		if err != nil {
			log.Fatalf("could not load configuration: %+v", err)
		}
	}

	err := run(cfg, *demo)
	if err != nil {
		log.Fatalf("could not run blink-sim: %+v", err)
	}
}

func run(cfg config.Config, demo bool) error {
	unit := sim.New(
		sim.WithLoopOptions(
			rpu.WithTick(cfg.Loop.Tick()),
			rpu.WithRotatePeriod(cfg.Loop.Rotate()),
			rpu.WithSeed(cfg.Loop.Seed),
		),
		sim.WithDispatcherOptions(
			apu.WithTimeout(cfg.Host.Timeout()),
			apu.WithPollInterval(cfg.Host.Poll()),
			apu.WithSettleDelay(cfg.Host.Settle()),
		),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	defer signal.Stop(stop)

	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error { return unit.Run(ctx) })
	grp.Go(func() error {
		select {
		case <-ctx.Done():
		case <-stop:
			log.Printf("interrupted, shutting down...")
			cancel()
		}
		return nil
	})
	grp.Go(func() error {
		defer cancel()
		if demo {
			return script(ctx, unit)
		}
		return watch(ctx, unit)
	})

	return grp.Wait()
}

// script drives the canonical mode sequence and reports the outcome of
// each handshake.
func script(ctx context.Context, unit *sim.Unit) error {
	for _, mode := range []uint32{1, 2, 0, 99} {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(2 * time.Second):
		}

		err := unit.SendMode(mode)
		if err != nil {
			return fmt.Errorf("could not send mode=%d: %w", mode, err)
		}
		log.Printf("sent mode=%d ack=0x%08X device={mode: %v, override: %v}",
			mode, unit.AckWord(), unit.Mode(), unit.Override(),
		)
	}
	return nil
}

// watch periodically prints the device state until interrupted.
func watch(ctx context.Context, unit *sim.Unit) error {
	tick := time.NewTicker(1 * time.Second)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			log.Printf("device={mode: %v, override: %v, frame: 0x%X}",
				unit.Mode(), unit.Override(), unit.Frame(),
			)
		}
	}
}
