// Copyright © 2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package sfp

import (
	"fmt"
	"strconv"

	"github.com/platinasystems/optics/internal/query"
)

// Free side monitored temperature.
const (
	qsfpTempOffset = 22
	cmisTempOffset = 14
	// SFF-8472 diagnostics, at the high address.
	sfpTempOffset = 96
)

// EepromThermometer reads module temperature from the module's own
// monitoring registers.
type EepromThermometer struct {
	Channel query.Channel
}

func (t EepromThermometer) ModuleTemp(slot, module uint8) (int, error) {
	id, err := Identify(t.Channel, slot, module)
	if err != nil {
		return 0, err
	}
	req := query.Request{
		Slot:   slot,
		Module: module,
		Size:   2,
		Addr:   query.Low,
	}
	switch {
	case id.Cmis:
		req.Offset = cmisTempOffset
	case id.Qsfp:
		req.Offset = qsfpTempOffset
	default:
		req.Addr = query.High
		req.Offset = sfpTempOffset
	}
	b, err := do(t.Channel, req)
	if err != nil {
		return 0, err
	}
	if len(b) < 2 {
		return 0, fmt.Errorf("temperature: %w", ErrShortRead)
	}
	return milliCelsius(b), nil
}

// Celsius formats milli-degrees as degrees with three decimals.
func Celsius(milli int) string {
	return strconv.FormatFloat(float64(milli)/1000, 'f', 3, 64)
}
