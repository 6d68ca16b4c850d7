// Copyright © 2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package sfp

import (
	"fmt"

	"github.com/platinasystems/optics/internal/query"
)

// SFF-8024 identifier, byte 0 of page 0.
type Id uint8

const (
	IdUnknown Id = iota
	IdGbic
	IdOnMotherboard
	IdSfp
	IdXbi
	IdXenpak
	IdXfp
	IdXff
	IdXfpE
	IdXpak
	IdX2
	IdDwdmSfp
	IdQsfp
	IdQsfpPlus
	IdCxp
	IdShieldedMiniMultilaneHD4X
	IdShieldedMiniMultilaneHD8X
	IdQsfp28
	IdCxp2
	IdCdfpStyle12
	IdShieldedMiniMultilaneHD4XFanout
	IdShieldedMiniMultilaneHD8XFanoutCable
	IdCdfpStyle3
	IdMicroQsfp
	IdQsfpDD
	IdOsfp
	IdSfpDD
	IdDsfp
	IdMiniLinkX4
	IdMiniLinkX8
	IdQsfpPlusCmis
	// - 0x7F: Reserved
	// 0x80 - 0xFF: Vendor Specific
)

func (i Id) String() string {
	var t = [...]string{
		0x00: "Unknown or unspecified",
		0x01: "GBIC",
		0x02: "Module/connector soldered to motherboard",
		0x03: "SFP/SFP+/SFP28",
		0x04: "300 pin XBI",
		0x05: "XENPAK",
		0x06: "XFP",
		0x07: "XFF",
		0x08: "XFP-E",
		0x09: "XPAK",
		0x0A: "X2",
		0x0B: "DWDM-SFP/SFP+",
		0x0C: "QSFP",
		0x0D: "QSFP+",
		0x0E: "CXP",
		0x0F: "Shielded Mini Multilane HD 4X",
		0x10: "Shielded Mini Multilane HD 8X",
		0x11: "QSFP28",
		0x12: "CXP2/CXP28",
		0x13: "CDFP (Style 1/Style2)",
		0x14: "Shielded Mini Multilane HD 4X Fanout Cable",
		0x15: "Shielded Mini Multilane HD 8X Fanout Cable",
		0x16: "CDFP (Style 3)",
		0x17: "Micro QSFP",
		0x18: "QSFP-DD",
		0x19: "OSFP",
		0x1A: "SFP-DD",
		0x1B: "DSFP",
		0x1C: "MiniLink x4",
		0x1D: "MiniLink x8",
		0x1E: "QSFP+ (CMIS)",
	}
	return stringer(t[:], int(i))
}

func stringer(t []string, i int) string {
	if i < len(t) && len(t[i]) > 0 {
		return t[i]
	}
	return fmt.Sprintf("0x%02x", i)
}

// Family is the closed set of module types this package can address.
type Family uint8

const (
	FamilySfp Family = iota
	FamilySfpDD
	FamilyQsfp
	FamilyQsfpPlus
	FamilyQsfp28
	FamilyQsfpDD
	FamilyQsfpPlusCmis
	nFamily
)

func (f Family) String() string {
	var t = [...]string{
		FamilySfp:          "SFP",
		FamilySfpDD:        "SFP-DD",
		FamilyQsfp:         "QSFP",
		FamilyQsfpPlus:     "QSFP+",
		FamilyQsfp28:       "QSFP28",
		FamilyQsfpDD:       "QSFP-DD",
		FamilyQsfpPlusCmis: "QSFP+ CMIS",
	}
	return stringer(t[:], int(f))
}

// Family maps an identifier to its module family.
func (i Id) Family() (Family, error) {
	switch i {
	case IdSfp:
		return FamilySfp, nil
	case IdSfpDD:
		return FamilySfpDD, nil
	case IdQsfp:
		return FamilyQsfp, nil
	case IdQsfpPlus:
		return FamilyQsfpPlus, nil
	case IdQsfp28:
		return FamilyQsfp28, nil
	case IdQsfpDD:
		return FamilyQsfpDD, nil
	case IdQsfpPlusCmis:
		return FamilyQsfpPlusCmis, nil
	}
	return nFamily, fmt.Errorf("%w: %v", ErrInvalidIdentifier, i)
}

// Every Family value must appear in both switches below; an unlisted value
// panics so a new family can't silently fall into the SFP path.

func (f Family) IsQsfp() bool {
	switch f {
	case FamilySfp, FamilySfpDD:
		return false
	case FamilyQsfp, FamilyQsfpPlus, FamilyQsfp28:
		return true
	case FamilyQsfpDD, FamilyQsfpPlusCmis:
		return true
	}
	panic(fmt.Errorf("unhandled module family %d", f))
}

func (f Family) IsCmis() bool {
	switch f {
	case FamilySfp, FamilySfpDD:
		return false
	case FamilyQsfp, FamilyQsfpPlus, FamilyQsfp28:
		return false
	case FamilyQsfpDD, FamilyQsfpPlusCmis:
		return true
	}
	panic(fmt.Errorf("unhandled module family %d", f))
}

type Identity struct {
	Id     Id
	Family Family
	Qsfp   bool
	Cmis   bool
}

// Extent is the end of the module's logical memory. SFP memory is the low
// address followed by the 256 bytes of the high address.
func (id Identity) Extent() int {
	if id.Qsfp {
		return MaxOffset
	}
	return PageLength + 2*PageLength
}

func (id Identity) String() string {
	s := id.Family.String()
	if id.Cmis {
		s += " (cmis)"
	}
	return s
}

// Classify derives the module identity from its identifier byte.
func Classify(i Id) (Identity, error) {
	f, err := i.Family()
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		Id:     i,
		Family: f,
		Qsfp:   f.IsQsfp(),
		Cmis:   f.IsCmis(),
	}, nil
}

// Identify reads the identifier byte of the module in the given slot.
func Identify(ch query.Channel, slot, module uint8) (Identity, error) {
	b, err := do(ch, query.Request{
		Slot:   slot,
		Module: module,
		Size:   1,
		Addr:   query.Low,
	})
	if err != nil {
		return Identity{}, err
	}
	if len(b) < 1 {
		return Identity{}, fmt.Errorf("identifier: %w", ErrShortRead)
	}
	return Classify(Id(b[0]))
}

// do issues one query and returns at most the requested number of bytes.
func do(ch query.Channel, req query.Request) ([]byte, error) {
	resp, err := ch.Query(req)
	if err != nil {
		return nil, fmt.Errorf("%v: %w: %w", req, ErrIO, err)
	}
	if resp.Status != query.StatusGood {
		return nil, fmt.Errorf("%v: %w: %v", req, ErrStatus, resp.Status)
	}
	b := resp.Data
	if len(b) > int(req.Size) {
		b = b[:req.Size]
	}
	return b, nil
}
