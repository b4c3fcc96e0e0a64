// Copyright 2025 The go-zynq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package apu

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-daq/tdaq"
)

// Server exposes the dispatcher over the TDAQ run-control protocol.
// The control surface is deliberately small: submit a mode, release
// control, query the last outcome.
type Server struct {
	name string
	dsp  *Dispatcher
}

// NewServer wraps the dispatcher for use with tdaq.CmdHandle.
func NewServer(name string, dsp *Dispatcher) *Server {
	return &Server{name: name, dsp: dsp}
}

func (srv *Server) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")
	return nil
}

func (srv *Server) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	return nil
}

func (srv *Server) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	return nil
}

func (srv *Server) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	return nil
}

func (srv *Server) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /stop command...")
	return nil
}

func (srv *Server) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	return nil
}

// OnSetMode submits the mode carried in the request payload.
func (srv *Server) OnSetMode(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	dec := tdaq.NewDecoder(bytes.NewReader(req.Body))
	mode := dec.ReadU32()

	ctx.Msg.Infof("received /set-mode command: mode=%d", mode)
	err := srv.dsp.SendMode(mode)
	if err != nil {
		if errors.Is(err, ErrAckTimeout) {
			ctx.Msg.Errorf("device did not acknowledge mode=%d: %+v", mode, err)
		}
		return fmt.Errorf("could not set mode=%d: %w", mode, err)
	}

	return nil
}

// OnRelease hands mode control back to the device's own rotation.
func (srv *Server) OnRelease(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Infof("received /release command...")

	// any out-of-range value is a release signal on the wire.
	const release = 3
	err := srv.dsp.SendMode(release)
	if err != nil {
		return fmt.Errorf("could not release mode control: %w", err)
	}

	return nil
}

// OnStatus replies with the last handshake outcome, JSON-encoded.
func (srv *Server) OnStatus(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /status command...")

	body, err := json.Marshal(srv.dsp.Status())
	if err != nil {
		return fmt.Errorf("could not encode status: %w", err)
	}
	resp.Body = body

	return nil
}
