// Copyright © 2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package i2cd serves module queries and presence from the i2c adapters so
// that one process owns the buses.
package i2cd

import (
	"fmt"
	"sync"

	"github.com/platinasystems/atsock"
	"github.com/platinasystems/log"
	"github.com/platinasystems/optics/cmd"
	"github.com/platinasystems/optics/internal/bus"
	"github.com/platinasystems/optics/internal/config"
	"github.com/platinasystems/optics/internal/qrpc"
	"github.com/platinasystems/optics/lang"
	"github.com/platinasystems/parms"
)

type Command struct {
	once   sync.Once
	closer sync.Once
	done   chan struct{}
}

func (*Command) String() string { return "i2cd" }

func (*Command) Usage() string { return "i2cd [-config FILE]" }

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "i2c server daemon",
	}
}

func (*Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Serve transceiver module queries, one at a time, on the @SOCKET
	named by the port map (default @` + config.DefaultSocket + `).

OPTIONS
	-config FILE
		port map, default ` + config.DefaultFile,
	}
}

func (c *Command) Close() error {
	c.closer.Do(func() { close(c.stopped()) })
	return nil
}

// stopped is closed by Close, which may come before Main.
func (c *Command) stopped() chan struct{} {
	c.once.Do(func() { c.done = make(chan struct{}) })
	return c.done
}

func (*Command) Kind() cmd.Kind { return cmd.Daemon }

func (c *Command) Main(args ...string) error {
	done := c.stopped()
	select {
	case <-done:
		return nil
	default:
	}
	parm, args := parms.New(args, "-config")
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	fn := parm.ByName["-config"]
	if fn == "" {
		fn = config.DefaultFile
	}
	cfg, err := config.Load(fn)
	if err != nil {
		return err
	}
	srv := NewServer(cfg)
	if err = qrpc.Register(srv); err != nil {
		return err
	}
	rpc, err := atsock.NewRpcServer(cfg.Socket)
	if err != nil {
		return err
	}
	defer rpc.Close()
	log.Print("daemon", "info", "serving ", len(cfg.Ports),
		" ports on @", cfg.Socket)
	<-done
	return nil
}

// NewServer for the configured ports and presence expanders.
func NewServer(cfg *config.Config) *qrpc.Server {
	srv := &qrpc.Server{
		Channel: &bus.Channel{Ports: cfg.BusPorts()},
	}
	if d := cfg.Detector(); d != nil {
		srv.Presence = d.Present
	}
	return srv
}
