// Copyright © 2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package sfp

import (
	"fmt"

	"github.com/platinasystems/optics/internal/query"
)

// PageLength is the size of a module memory page and of the low memory
// window every module exposes at offset 0.
const PageLength = 128

// MaxOffset bounds the logical address space; page numbers are one byte.
const MaxOffset = 256 * PageLength

// Resolution is one legal query derived from a logical read.
type Resolution struct {
	Addr   query.I2cAddr
	Page   uint8
	Bank   uint8
	Offset uint16
	Size   uint16
}

// Resolve clamps a logical (offset, size) read to what a single query may
// cover and translates it to the module's address, page, bank and offset.
// Offsets from 128 up are upper memory: paged for QSFP and CMIS modules,
// the high i2c address for SFP.
func Resolve(id Identity, c Capability, offset, size uint16) Resolution {
	r := Resolution{
		Addr:   query.Low,
		Offset: offset,
		Size:   size,
	}
	if r.Size > query.MaxSize {
		r.Size = query.MaxSize
	}
	// Never cross a page, low/high boundary included.
	if in := offset % PageLength; int(in)+int(r.Size) > PageLength {
		r.Size = PageLength - in
	}
	if offset >= PageLength {
		if id.Qsfp {
			page := offset / PageLength
			r.Page = uint8(page)
			r.Offset = offset - PageLength*page
		} else {
			r.Addr = query.High
			r.Offset = offset - PageLength
		}
	}
	if id.Cmis && r.Page >= cmisOptionalPage {
		r.Page, r.Bank = MapPageBank(r.Page, c.Page3, c.Banks)
	}
	return r
}

// ReadChunk issues one query for as much of the logical read as a single
// transaction allows and returns the bytes the module reported.
func ReadChunk(ch query.Channel, slot, module uint8, id Identity,
	c Capability, offset, size uint16) ([]byte, error) {
	if int(offset) >= id.Extent() {
		return nil, fmt.Errorf("%w: offset %d", ErrInvalidArgument, offset)
	}
	r := Resolve(id, c, offset, size)
	return do(ch, query.Request{
		Slot:   slot,
		Module: module,
		Page:   r.Page,
		Bank:   r.Bank,
		Offset: r.Offset,
		Size:   r.Size,
		Addr:   r.Addr,
	})
}
