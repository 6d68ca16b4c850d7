// Copyright © 2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package presence reads the module present lines of a front panel. The
// lines are active low inputs of 16 bit gpio expanders (PCA9555 or alike),
// sixteen modules per expander.
package presence

import (
	"fmt"

	"github.com/platinasystems/i2c"
	"github.com/platinasystems/optics/internal/bus"
)

// MaxExpanders is the number of expanders a 64 bit mask covers.
const MaxExpanders = 4

const inputPort0 = 0

const evenBits = 0x5555555555555555

type Detector struct {
	Port bus.Port
	// Expander slave addresses in module order.
	Addrs []int
	// Swap even and odd modules; some boards cross their present lines.
	Swap bool
	New  bus.NewBus
}

// Present returns a mask with bit i set if module i is installed.
func (d *Detector) Present() (uint64, error) {
	if len(d.Addrs) > MaxExpanders {
		return 0, fmt.Errorf("%d expanders: too many", len(d.Addrs))
	}
	words := make([]uint16, len(d.Addrs))
	for i, addr := range d.Addrs {
		err := bus.Do(d.New, d.Port, addr, func(b bus.SMBus) error {
			var data i2c.SMBusData
			err := b.Do(i2c.Read, inputPort0, i2c.WordData, &data)
			if err != nil {
				return err
			}
			words[i] = uint16(data[0]) | uint16(data[1])<<8
			return nil
		})
		if err != nil {
			return 0, fmt.Errorf("expander 0x%x: %w", addr, err)
		}
	}
	return Decode(words, d.Swap), nil
}

// Decode expander input words into a present mask.
func Decode(words []uint16, swap bool) uint64 {
	var v uint64
	for i, w := range words {
		v |= uint64(^w) << (16 * uint(i))
	}
	if swap {
		v = (v&evenBits)<<1 | (v>>1)&evenBits
	}
	return v
}

// Changes splits the difference of two present masks.
func Changes(old, new uint64) (inserted, removed uint64) {
	d := old ^ new
	return d & new, d & old
}

// ForeachSetBit calls f with the index of each set bit, lowest first.
func ForeachSetBit(v uint64, f func(i int)) {
	for i := 0; v != 0; i, v = i+1, v>>1 {
		if v&1 != 0 {
			f(i)
		}
	}
}
