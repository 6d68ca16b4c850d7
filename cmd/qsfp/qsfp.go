// Copyright © 2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package qsfp reads transceiver module memory from the command line.
package qsfp

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/optics/internal/bus"
	"github.com/platinasystems/optics/internal/config"
	"github.com/platinasystems/optics/internal/qrpc"
	"github.com/platinasystems/optics/internal/query"
	"github.com/platinasystems/optics/internal/sfp"
	"github.com/platinasystems/optics/lang"
	"github.com/platinasystems/parms"
)

type Command struct {
	// Channel, when set, is used instead of the configured one.
	Channel query.Channel
	// Stdout defaults to os.Stdout.
	Stdout io.Writer
}

func (*Command) String() string { return "qsfp" }

func (*Command) Usage() string {
	return `qsfp [-direct] [-config FILE] [-slot N] MODULE [info]
	qsfp [OPTION]... MODULE temp
	qsfp [OPTION]... MODULE thresholds
	qsfp [OPTION]... MODULE eeprom [-offset N] [-length N] [-raw | -hex]`
}

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "read transceiver module memory",
	}
}

func (*Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Read the memory map of the SFP, QSFP or CMIS module in the given
	MODULE index of the line card SLOT (default 0).

	info	print the identifier, memory map type and length
	temp	print the module temperature in degrees Celsius
	thresholds
		print the module's temperature alarm and warning levels
	eeprom	dump memory from the flat offset; the length defaults to
		the module's memory map length less the offset

OPTIONS
	-direct	open the i2c adapters instead of asking i2cd
	-config FILE
		port map, default ` + config.DefaultFile + `
	-raw	write binary even to a terminal
	-hex	write a hex dump even when stdout isn't a terminal`,
	}
}

func (c *Command) Main(args ...string) error {
	flag, args := flags.New(args, "-direct", "-raw", "-hex")
	parm, args := parms.New(args, "-config", "-slot", "-offset", "-length")
	if len(args) == 0 {
		return fmt.Errorf("MODULE: missing")
	}
	module, err := parseUint(args[0], 8)
	if err != nil {
		return fmt.Errorf("MODULE: %w", err)
	}
	var slot uint64
	if s := parm.ByName["-slot"]; s != "" {
		if slot, err = parseUint(s, 8); err != nil {
			return fmt.Errorf("-slot: %w", err)
		}
	}
	op := "info"
	if len(args) > 1 {
		op = args[1]
	}
	if len(args) > 2 {
		return fmt.Errorf("%v: unexpected", args[2:])
	}

	ch := c.Channel
	if ch == nil {
		var done func() error
		ch, done, err = open(parm.ByName["-config"], flag.ByName["-direct"])
		if err != nil {
			return err
		}
		defer done()
	}
	w := c.Stdout
	if w == nil {
		w = os.Stdout
	}
	env := &sfp.Env{Channel: ch}
	s, m := uint8(slot), uint8(module)

	switch op {
	case "info":
		id, err := sfp.Identify(ch, s, m)
		if err != nil {
			return err
		}
		info, err := env.ModuleInfo(s, m)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "id: %v (0x%02x)\n", id, uint8(id.Id))
		fmt.Fprintln(w, "eeprom.type:", info.Type)
		fmt.Fprintln(w, "eeprom.length:", info.Length)
	case "temp":
		t, err := sfp.EepromThermometer{Channel: ch}.ModuleTemp(s, m)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "temperature.units.C:", sfp.Celsius(t))
	case "thresholds":
		for _, kind := range sfp.ThresholdKinds {
			t, err := env.ModuleTempThresholds(s, m, kind)
			if err != nil {
				return fmt.Errorf("%v: %w", kind, err)
			}
			fmt.Fprintf(w, "temperature.%vThreshold.units.C: %s\n",
				kind, sfp.Celsius(t))
		}
	case "eeprom":
		return eeprom(w, env, s, m, parm.ByName["-offset"],
			parm.ByName["-length"], dumper(w, flag))
	default:
		return fmt.Errorf("%s: unknown", op)
	}
	return nil
}

func eeprom(w io.Writer, env *sfp.Env, slot, module uint8, soffset,
	slength string, dump bool) error {
	var offset, length uint64
	var err error
	if soffset != "" {
		if offset, err = parseUint(soffset, 16); err != nil {
			return fmt.Errorf("-offset: %w", err)
		}
	}
	if slength != "" {
		if length, err = parseUint(slength, 16); err != nil {
			return fmt.Errorf("-length: %w", err)
		}
	} else {
		info, err := env.ModuleInfo(slot, module)
		if err != nil {
			return err
		}
		id, err := sfp.Identify(env.Channel, slot, module)
		if err != nil {
			return err
		}
		// SFP diagnostics count toward the reported length but only the
		// high address is mapped.
		end := info.Length
		if n := id.Extent(); end > n {
			end = n
		}
		if int(offset) >= end {
			return fmt.Errorf("-offset: %d: beyond %d byte eeprom",
				offset, end)
		}
		length = uint64(end) - offset
	}
	b, err := env.ModuleEeprom(slot, module, int(offset), int(length))
	if err != nil {
		return err
	}
	if !dump {
		_, err = w.Write(b)
		return err
	}
	d := hex.Dumper(w)
	if _, err = d.Write(b); err != nil {
		return err
	}
	return d.Close()
}

// dumper is true if the eeprom should be written as hex.
func dumper(w io.Writer, flag *flags.Flags) bool {
	switch {
	case flag.ByName["-hex"]:
		return true
	case flag.ByName["-raw"]:
		return false
	}
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func parseUint(s string, bits int) (uint64, error) {
	return strconv.ParseUint(s, 0, bits)
}

// open the configured channel; i2cd only needs the socket name so a missing
// default config file isn't an error unless direct.
func open(fn string, direct bool) (query.Channel, func() error, error) {
	explicit := fn != ""
	if !explicit {
		fn = config.DefaultFile
	}
	cfg, err := config.Load(fn)
	if err != nil {
		if direct || explicit || !os.IsNotExist(err) {
			return nil, nil, err
		}
		cfg = &config.Config{}
		config.Normalize(cfg)
	}
	if direct {
		ch := &bus.Channel{Ports: cfg.BusPorts()}
		return ch, func() error { return nil }, nil
	}
	cl := qrpc.NewClient(cfg.Socket)
	return cl, cl.Close, nil
}
