// Copyright © 2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package sfp

import (
	"fmt"

	"github.com/platinasystems/optics/internal/query"
)

const (
	// Page 01h byte 142, implemented management interface features.
	cmisOptionsOffset = 0x8e
	cmisPage3Bit      = 1 << 2
	cmisBanksMask     = 0x3

	// User EEPROM page; the only optional page below the banked ones.
	cmisOptionalPage = 3
	// First banked page, lane and data path control.
	cmisBankedPage = 0x10
)

// Capability is what a CMIS module advertises beyond its base memory.
type Capability struct {
	Page3 bool
	Banks int
}

// ExtraBytes is the memory a module adds to its 512 byte base.
func (c Capability) ExtraBytes() int {
	n := c.Banks * PageLength
	if c.Page3 {
		n += PageLength
	}
	return n
}

func decodeCapability(options byte) (Capability, error) {
	c := Capability{
		Page3: options&cmisPage3Bit != 0,
	}
	switch options & cmisBanksMask {
	case 0x0:
		c.Banks = 1
	case 0x1:
		c.Banks = 2
	case 0x2:
		c.Banks = 4
	default:
		return Capability{}, fmt.Errorf("%w: options 0x%02x",
			ErrInvalidBankEncoding, options)
	}
	return c, nil
}

// Probe reads the optional page and bank advertisement of a CMIS module.
func Probe(ch query.Channel, slot, module uint8) (Capability, error) {
	// Page 01h addressed as a plain paged module, no bank remap.
	plain := Identity{Id: IdQsfp, Family: FamilyQsfp, Qsfp: true}
	b, err := ReadChunk(ch, slot, module, plain, Capability{},
		cmisOptionsOffset, 1)
	if err != nil {
		return Capability{}, err
	}
	if len(b) < 1 {
		return Capability{}, fmt.Errorf("cmis options: %w", ErrShortRead)
	}
	return decodeCapability(b[0])
}

// MapPageBank translates a sequential page number of a CMIS module into the
// physical page and bank. Pages 16 and 17 hold one, two or four banks each;
// sequential numbering runs through every bank of page 16 and then page 17,
// starting right after the optional page 3 when the module has it and at 3
// when it doesn't.
//
//	banks	page 3 present		page 3 absent
//	1	4 (16,0) 5 (17,0)	3 (16,0) 4 (17,0)
//	2	4 (16,0) .. 7 (17,1)	3 (16,0) .. 6 (17,1)
//	4	4 (16,0) .. 11 (17,3)	3 (16,0) .. 10 (17,3)
func MapPageBank(page uint8, page3 bool, banks int) (uint8, uint8) {
	if page < cmisOptionalPage || page == cmisOptionalPage && page3 {
		return page, 0
	}
	switch banks {
	case 1, 2, 4:
	default:
		banks = 1
	}
	first := cmisOptionalPage
	if page3 {
		first++
	}
	seq := int(page) - first
	return uint8(cmisBankedPage + seq/banks), uint8(seq % banks)
}
