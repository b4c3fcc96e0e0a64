// Copyright 2025 The go-zynq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command blink-sh is an interactive shell over the mode dispatcher.
package main // import "github.com/go-zynq/blink/cmd/blink-sh"

import (
	"flag"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/go-zynq/blink/apu"
	"github.com/go-zynq/blink/internal/config"
)

func main() {
	var (
		cfgFile = flag.String("cfg", "", "path to a YAML configuration file")
		devmem  = flag.String("dev", "", "memory device to map registers from")
	)

	log.SetPrefix("blink-sh: ")
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
	if *devmem != "" {
		cfg.Host.Devmem = *devmem
	}

	err := run(cfg)
	if err != nil {
		log.Fatalf("could not run blink-sh: %+v", err)
	}
}

func run(cfg config.Config) error {
	dev, err := apu.NewDevice(cfg.Host.Devmem,
		apu.WithTimeout(cfg.Host.Timeout()),
		apu.WithPollInterval(cfg.Host.Poll()),
		apu.WithSettleDelay(cfg.Host.Settle()),
	)
	if err != nil {
		return fmt.Errorf("could not open device: %w", err)
	}
	defer dev.Close()

	term := liner.NewLiner()
	defer term.Close()
	term.SetCtrlCAborts(true)

	for {
		line, err := term.Prompt("blink> ")
		switch err {
		case nil:
			// ok
		case io.EOF, liner.ErrPromptAborted:
			fmt.Println()
			return nil
		default:
			return fmt.Errorf("could not read line: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		term.AppendHistory(line)

		quit, err := dispatch(dev, line)
		if err != nil {
			log.Printf("error: %+v", err)
			continue
		}
		if quit {
			return nil
		}
	}
}

func dispatch(dev *apu.Device, line string) (quit bool, err error) {
	toks := strings.Fields(line)
	switch toks[0] {
	case "mode":
		if len(toks) != 2 {
			return false, fmt.Errorf("usage: mode N (0=slow, 1=fast, 2=random)")
		}
		mode, err := strconv.ParseUint(toks[1], 10, 32)
		if err != nil {
			return false, fmt.Errorf("invalid mode %q: %w", toks[1], err)
		}
		err = dev.SendMode(uint32(mode))
		if err != nil {
			return false, err
		}
		fmt.Printf("mode %d acknowledged\n", mode)

	case "release":
		err := dev.SendMode(3)
		if err != nil {
			return false, err
		}
		fmt.Printf("control released\n")

	case "status":
		last := dev.Status()
		fmt.Printf("mode=%d sent=%v acked=%v pending=%v\n",
			last.Mode, last.Sent, last.Acked, dev.Pending(),
		)

	case "help":
		fmt.Print(`commands:
  mode N    request mode N (0=slow, 1=fast, 2=random)
  release   hand mode control back to the device
  status    show the last handshake outcome
  quit      exit the shell
`)

	case "quit", "exit":
		return true, nil

	default:
		return false, fmt.Errorf("unknown command %q (try %q)", toks[0], "help")
	}

	return false, nil
}
