// Copyright © 2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package query defines the register-query channel used to read transceiver
// module memory. A Channel performs one bounded, synchronous transaction per
// call; implementations serialize access to the underlying bus.
package query

import "fmt"

// MaxSize is the largest number of bytes a single query may transfer.
const MaxSize = 48

// I2cAddr selects one of the two module i2c addresses. Legacy SFP modules
// keep identification memory at the low address and diagnostics at the high
// one; everything else uses the low address and a page select register.
type I2cAddr uint8

const (
	Low  I2cAddr = 0x50
	High I2cAddr = 0x51
)

func (a I2cAddr) String() string {
	switch a {
	case Low:
		return "low"
	case High:
		return "high"
	}
	return fmt.Sprintf("0x%02x", uint8(a))
}

type Request struct {
	// Line card slot, 0 for the main board.
	Slot   uint8
	Module uint8
	Page   uint8
	Bank   uint8
	// Offset within the selected page.
	Offset uint16
	Size   uint16
	Addr   I2cAddr
}

func (r Request) String() string {
	return fmt.Sprintf("slot %d module %d %v page %d bank %d offset %d size %d",
		r.Slot, r.Module, r.Addr, r.Page, r.Bank, r.Offset, r.Size)
}

// Status is the hardware completion code of a query; zero is success.
type Status uint8

const (
	StatusGood Status = iota
	StatusNoEeprom
	StatusNotSupported
	StatusNotConnected
	StatusI2cError
	StatusDisabled
)

func (s Status) String() string {
	var t = [...]string{
		StatusGood:         "good",
		StatusNoEeprom:     "no eeprom module",
		StatusNotSupported: "module not supported",
		StatusNotConnected: "module not connected",
		StatusI2cError:     "i2c error",
		StatusDisabled:     "module disabled",
	}
	if int(s) < len(t) {
		return t[s]
	}
	return fmt.Sprintf("status 0x%02x", uint8(s))
}

type Response struct {
	Data   []byte
	Status Status
}

type Channel interface {
	Query(Request) (Response, error)
}

// Func adapts an ordinary function to a Channel.
type Func func(Request) (Response, error)

func (f Func) Query(req Request) (Response, error) { return f(req) }
