// Copyright © 2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package goes runs the transceiver commands of a multi-call binary.
package goes

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/platinasystems/log"
	"github.com/platinasystems/optics/cmd"
	"github.com/platinasystems/optics/lang"
)

type Goes struct {
	NAME    string
	USAGE   string
	APROPOS lang.Alt
	MAN     lang.Alt
	ByName  map[string]cmd.Cmd
}

func (g *Goes) String() string { return g.NAME }

// Names of the visible commands, sorted.
func (g *Goes) Names() []string {
	var names []string
	for name, v := range g.ByName {
		if !cmd.WhatKind(v).IsHidden() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// swap helper flags to the front; -h is help.
func (g *Goes) swap(args []string) {
	cmd.Swap(args)
}

// shift the program name unless the binary is linked as one of the
// commands.
func (g *Goes) shift(args []string) []string {
	if len(args) == 0 {
		return args
	}
	name := filepath.Base(args[0])
	if _, found := g.ByName[name]; found {
		args[0] = name
	} else if name == g.NAME {
		args = args[1:]
	}
	return args
}

// Main runs the command or helper named by args, which may start with the
// program name as in os.Args.
func (g *Goes) Main(args ...string) error {
	args = g.shift(args)
	g.swap(args)
	if len(args) == 0 {
		return g.usage()
	}
	name, args := args[0], args[1:]
	switch name {
	case "apropos":
		return g.apropos(args...)
	case "help":
		return g.help(args...)
	case "man":
		return g.man(args...)
	case "usage":
		return g.usage(args...)
	}
	v, found := g.ByName[name]
	if !found {
		return fmt.Errorf("%s: command not found", name)
	}
	if !cmd.WhatKind(v).IsDaemon() {
		return v.Main(args...)
	}
	return g.daemon(name, v, args...)
}

// daemon runs v until it returns or the process is told to stop, in which
// case v is closed so that its Main returns.
func (g *Goes) daemon(name string, v cmd.Cmd, args ...string) error {
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigch)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case sig := <-sigch:
			log.Print("daemon", "info", name, ": ", sig)
			if closer, found := v.(io.Closer); found {
				if err := closer.Close(); err != nil {
					log.Print("daemon", "err", name, ": close: ", err)
				}
			}
		case <-done:
		}
	}()
	err := v.Main(args...)
	if err != nil {
		log.Print("daemon", "err", name, ": ", err)
	}
	return err
}
