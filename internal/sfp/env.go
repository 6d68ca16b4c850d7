// Copyright © 2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package sfp

import (
	"encoding/binary"
	"fmt"

	"github.com/platinasystems/optics/internal/query"
)

// EepromType is the memory map standard, numbered as ethtool does.
type EepromType uint8

const (
	SFF8079 EepromType = 0x1
	SFF8472 EepromType = 0x2
	SFF8636 EepromType = 0x3
	SFF8436 EepromType = 0x4
)

func (t EepromType) String() string {
	var s = [...]string{
		SFF8079: "SFF-8079",
		SFF8472: "SFF-8472",
		SFF8636: "SFF-8636",
		SFF8436: "SFF-8436",
	}
	return stringer(s[:], int(t))
}

const (
	SFF8079Len    = 256
	SFF8472Len    = 512
	SFF8436Len    = 256
	SFF8436MaxLen = 640
	SFF8636Len    = 256
	SFF8636MaxLen = 640
)

const (
	headerId = iota
	headerRevision
	headerFlags
	headerSize
)

const (
	// SFF-8636 revision compliance from which QSFP+ uses SFF-8636.
	revision8636 = 0x03
	// CMIS byte 2, only page 00h is implemented.
	cmisFlatMemory = 1 << 7
	// SFF-8472 byte 92, diagnostic monitoring type.
	sfpDiagMonitor = 92
)

type Info struct {
	Type   EepromType
	Length int
}

// ThresholdKind is the offset of a temperature threshold in its block.
type ThresholdKind uint16

const (
	TempHighAlarm ThresholdKind = 0
	TempLowAlarm  ThresholdKind = 2
	TempHighWarn  ThresholdKind = 4
	TempLowWarn   ThresholdKind = 6
)

func (k ThresholdKind) String() string {
	var t = [...]string{
		TempHighAlarm: "highAlarm",
		TempLowAlarm:  "lowAlarm",
		TempHighWarn:  "highWarn",
		TempLowWarn:   "lowWarn",
	}
	return stringer(t[:], int(k))
}

var ThresholdKinds = []ThresholdKind{
	TempHighAlarm,
	TempLowAlarm,
	TempHighWarn,
	TempLowWarn,
}

const (
	legacyThresholdPage = 3
	cmisThresholdPage   = 2
	// Thresholds open the upper half of their page.
	qsfpThresholdOffset = 0
	thresholdSize       = 2
)

// Thermometer reports module temperature in milli-degrees Celsius; zero
// means no module or no sensor.
type Thermometer interface {
	ModuleTemp(slot, module uint8) (int, error)
}

// Env reads module memory through Channel. It keeps no state between calls;
// identity and capability are read again on every call.
type Env struct {
	Channel query.Channel
	// Optional; when set, thresholds of modules reporting a zero
	// temperature read as zero.
	Thermometer Thermometer
}

// ModuleInfo reports the memory map type and length of a module.
func (e *Env) ModuleInfo(slot, module uint8) (Info, error) {
	var info Info
	plain := Identity{}
	hdr, err := ReadChunk(e.Channel, slot, module, plain, Capability{},
		0, headerSize)
	if err != nil {
		return info, err
	}
	if len(hdr) < headerSize {
		return info, fmt.Errorf("module header: %w", ErrShortRead)
	}
	id := Id(hdr[headerId])
	f, err := id.Family()
	if err != nil {
		return info, err
	}
	switch f {
	case FamilyQsfp:
		info = Info{SFF8436, SFF8436MaxLen}
	case FamilyQsfpPlus:
		if hdr[headerRevision] >= revision8636 {
			info = Info{SFF8636, SFF8636MaxLen}
		} else {
			info = Info{SFF8436, SFF8436MaxLen}
		}
	case FamilyQsfp28:
		info = Info{SFF8636, SFF8636MaxLen}
	case FamilySfp, FamilySfpDD:
		b, err := ReadChunk(e.Channel, slot, module, plain,
			Capability{}, sfpDiagMonitor, 1)
		if err != nil {
			return info, err
		}
		if len(b) < 1 {
			return info, fmt.Errorf("diagnostic monitor: %w",
				ErrShortRead)
		}
		info.Type = SFF8472
		if b[0] != 0 {
			info.Length = SFF8472Len
		} else {
			info.Length = SFF8472Len / 2
		}
	case FamilyQsfpDD, FamilyQsfpPlusCmis:
		info.Type = SFF8636
		if hdr[headerFlags]&cmisFlatMemory != 0 {
			info.Length = SFF8636Len
		} else {
			c, err := Probe(e.Channel, slot, module)
			if err != nil {
				return info, err
			}
			info.Length = SFF8472Len + c.ExtraBytes()
		}
	default:
		panic(fmt.Errorf("unhandled module family %v", f))
	}
	return info, nil
}

// ModuleEeprom reads length bytes of module memory from the logical offset.
// The read aborts on the first failed query.
func (e *Env) ModuleEeprom(slot, module uint8, offset, length int) ([]byte, error) {
	if length <= 0 || offset < 0 || offset+length > MaxOffset {
		return nil, fmt.Errorf("%w: offset %d length %d",
			ErrInvalidArgument, offset, length)
	}
	id, err := Identify(e.Channel, slot, module)
	if err != nil {
		return nil, err
	}
	if offset+length > id.Extent() {
		return nil, fmt.Errorf("%w: offset %d length %d beyond %v memory",
			ErrInvalidArgument, offset, length, id)
	}
	data := make([]byte, length)
	var c Capability
	if id.Cmis {
		if c, err = Probe(e.Channel, slot, module); err != nil {
			return nil, err
		}
	}
	for i := 0; i < length; {
		b, err := ReadChunk(e.Channel, slot, module, id, c,
			uint16(offset+i), uint16(length-i))
		if err != nil {
			return nil, err
		}
		if len(b) == 0 {
			return nil, fmt.Errorf("offset %d: %w", offset+i,
				ErrShortRead)
		}
		i += copy(data[i:], b)
	}
	return data, nil
}

// ModuleTempThresholds reads a module defined temperature threshold, stored
// as a big-endian signed word in 1/256 degree Celsius units, and returns it
// in milli-degrees Celsius.
func (e *Env) ModuleTempThresholds(slot, module uint8, kind ThresholdKind) (int, error) {
	if e.Thermometer != nil {
		t, err := e.Thermometer.ModuleTemp(slot, module)
		if err != nil {
			return 0, err
		}
		if t == 0 {
			return 0, nil
		}
	}
	id, err := Identify(e.Channel, slot, module)
	if err != nil {
		return 0, err
	}
	req := query.Request{
		Slot:   slot,
		Module: module,
		Size:   thresholdSize,
	}
	if id.Qsfp {
		req.Addr = query.Low
		req.Page = legacyThresholdPage
		if id.Cmis {
			req.Page = cmisThresholdPage
		}
		req.Offset = qsfpThresholdOffset + uint16(kind)
	} else {
		req.Addr = query.High
		req.Offset = uint16(kind)
	}
	b, err := do(e.Channel, req)
	if err != nil {
		return 0, err
	}
	if len(b) < thresholdSize {
		return 0, fmt.Errorf("%v threshold: %w", kind, ErrShortRead)
	}
	return milliCelsius(b), nil
}

// milliCelsius converts a big endian word of 1/256 degrees; the first byte
// is whole degrees.
func milliCelsius(b []byte) int {
	return int(int16(binary.BigEndian.Uint16(b))) * 1000 / 256
}
