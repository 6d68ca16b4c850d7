// Copyright © 2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package bus answers module memory queries over the host's i2c adapters.
package bus

import (
	"errors"
	"fmt"
	"sync"

	"github.com/platinasystems/i2c"
	"github.com/platinasystems/log"
	"github.com/platinasystems/optics/internal/query"
)

// SMBus is the part of i2c.Bus needed to reach a module. Selects are
// SMBus byte writes; memory is read with a combined I2C_RDWR transfer since
// i2c.SMBusData can't hold an SMBus block.
type SMBus interface {
	Open(index int) error
	ForceSlaveAddress(address int) error
	Do(rw i2c.RW, command uint8, size i2c.SMBusSize, data *i2c.SMBusData) error
	Send(messages []i2c.Message) error
	Close() error
}

// Mux is an i2c switch in front of a device; Value selects its channel.
type Mux struct {
	Bus   int
	Addr  int
	Value int
}

// Port is the adapter a device hangs off and the switches in the way.
type Port struct {
	Bus int
	Mux []Mux
}

type Key struct {
	Slot   uint8
	Module uint8
}

const (
	bankSelect = 126
	pageSelect = 127
	upperPage  = 128
	nRegs      = 256
)

var ErrSize = errors.New("query too large")

// NewBus returns the handle for one transaction.
type NewBus func() SMBus

func (f NewBus) bus() SMBus {
	if f != nil {
		return f()
	}
	return new(i2c.Bus)
}

// Do selects the switches in front of the port, calls f with the port's bus
// forced to the slave address and deselects the switches afterwards.
func Do(newBus NewBus, p Port, addr int, f func(SMBus) error) error {
	for i, mux := range p.Mux {
		if err := selectMux(newBus, mux, mux.Value); err != nil {
			closeMux(newBus, p.Mux[:i])
			return err
		}
	}
	defer closeMux(newBus, p.Mux)

	bus := newBus.bus()
	if err := bus.Open(p.Bus); err != nil {
		return err
	}
	defer bus.Close()
	if err := bus.ForceSlaveAddress(addr); err != nil {
		return err
	}
	return f(bus)
}

func selectMux(newBus NewBus, mux Mux, v int) error {
	bus := newBus.bus()
	if err := bus.Open(mux.Bus); err != nil {
		return err
	}
	defer bus.Close()
	if err := bus.ForceSlaveAddress(mux.Addr); err != nil {
		return err
	}
	var data i2c.SMBusData
	data[0] = byte(v)
	return bus.Do(i2c.Write, 0, i2c.ByteData, &data)
}

// closeMux deselects switches innermost first.
func closeMux(newBus NewBus, muxes []Mux) {
	for i := len(muxes) - 1; i >= 0; i-- {
		if err := selectMux(newBus, muxes[i], 0); err != nil {
			log.Printf("err", "mux 0x%x: %v", muxes[i].Addr, err)
		}
	}
}

// Channel serializes module queries onto the i2c adapters.
type Channel struct {
	Ports map[Key]Port
	// nil for i2c.Bus
	New NewBus

	mutex sync.Mutex
}

func (c *Channel) Query(req query.Request) (query.Response, error) {
	var resp query.Response
	if req.Size > query.MaxSize {
		return resp, fmt.Errorf("%v: %w", req, ErrSize)
	}
	port, found := c.Ports[Key{req.Slot, req.Module}]
	if !found {
		resp.Status = query.StatusNotConnected
		return resp, nil
	}
	paged := req.Addr == query.Low && req.Page != 0
	reg := int(req.Offset)
	if paged {
		reg += upperPage
	}
	if reg+int(req.Size) > nRegs {
		resp.Status = query.StatusNotSupported
		return resp, nil
	}
	if req.Size == 0 {
		resp.Data = []byte{}
		return resp, nil
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	err := Do(c.New, port, int(req.Addr), func(bus SMBus) error {
		var data i2c.SMBusData
		if paged {
			if req.Bank != 0 || req.Page >= 0x10 {
				data[0] = req.Bank
				if err := bus.Do(i2c.Write, bankSelect, i2c.ByteData, &data); err != nil {
					log.Printf("err", "%v: bank select: %v", req, err)
					resp.Status = query.StatusI2cError
					return nil
				}
			}
			data[0] = req.Page
			if err := bus.Do(i2c.Write, pageSelect, i2c.ByteData, &data); err != nil {
				log.Printf("err", "%v: page select: %v", req, err)
				resp.Status = query.StatusI2cError
				return nil
			}
		}
		buf := make([]byte, req.Size)
		err := bus.Send([]i2c.Message{
			{Address: uint16(req.Addr), Data: []byte{uint8(reg)}},
			{Address: uint16(req.Addr), Flags: i2c.ReadData, Data: buf},
		})
		if err != nil {
			log.Printf("err", "%v: %v", req, err)
			resp.Status = query.StatusI2cError
			return nil
		}
		resp.Data = buf
		return nil
	})
	return resp, err
}
