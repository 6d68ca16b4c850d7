// Copyright © 2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package qsfp

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/platinasystems/optics/internal/query"
	"github.com/platinasystems/optics/internal/sfp"
)

// qsfp28 is a module in slot 0 module 3 with three upper pages.
type qsfp28 struct {
	pages [4][128]byte
}

func newQsfp28() *qsfp28 {
	m := new(qsfp28)
	for p := range m.pages {
		for i := range m.pages[p] {
			m.pages[p][i] = byte(p*128 + i)
		}
	}
	m.pages[0][0] = uint8(sfp.IdQsfp28)
	m.pages[0][22], m.pages[0][23] = 0x21, 0x40
	copy(m.pages[3][0:8], []byte{0x4b, 0x00, 0xf6, 0x00, 0x46, 0x00, 0x00, 0x00})
	return m
}

func (m *qsfp28) Query(req query.Request) (query.Response, error) {
	if req.Slot != 0 || req.Module != 3 {
		return query.Response{Status: query.StatusNotConnected}, nil
	}
	if req.Addr != query.Low || req.Bank != 0 || int(req.Page) >= len(m.pages) ||
		int(req.Offset)+int(req.Size) > 128 {
		return query.Response{Status: query.StatusNotSupported}, nil
	}
	b := m.pages[req.Page][req.Offset : req.Offset+req.Size]
	return query.Response{Data: append([]byte(nil), b...)}, nil
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := &Command{Channel: newQsfp28(), Stdout: &out}
	err := c.Main(args...)
	return out.String(), err
}

func TestInfo(t *testing.T) {
	for _, args := range [][]string{
		{"3"},
		{"3", "info"},
		{"-slot", "0", "3", "info"},
	} {
		out, err := run(t, args...)
		if err != nil {
			t.Fatal(args, err)
		}
		expect := "id: QSFP28 (0x11)\neeprom.type: SFF-8636\neeprom.length: 640\n"
		if out != expect {
			t.Errorf("%v: got %q", args, out)
		}
	}
}

func TestTemp(t *testing.T) {
	out, err := run(t, "3", "temp")
	if err != nil {
		t.Fatal(err)
	}
	if out != "temperature.units.C: 33.250\n" {
		t.Errorf("got %q", out)
	}
}

func TestThresholds(t *testing.T) {
	out, err := run(t, "3", "thresholds")
	if err != nil {
		t.Fatal(err)
	}
	expect := `temperature.highAlarmThreshold.units.C: 75.000
temperature.lowAlarmThreshold.units.C: -10.000
temperature.highWarnThreshold.units.C: 70.000
temperature.lowWarnThreshold.units.C: 0.000
`
	if out != expect {
		t.Errorf("got %q", out)
	}
}

func TestEeprom(t *testing.T) {
	out, err := run(t, "3", "eeprom", "-offset", "126", "-length", "4")
	if err != nil {
		t.Fatal(err)
	}
	if out != "\x7e\x7f\x80\x81" {
		t.Errorf("raw: got % x", out)
	}

	out, err = run(t, "3", "eeprom", "-offset", "0x80", "-length", "2", "-hex")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "00000000  80 81 ") {
		t.Errorf("hex: got %q", out)
	}

	// The default length runs to the end of the 640 byte map, whose last
	// page this module lacks.
	out, err = run(t, "3", "eeprom", "-offset", "384")
	if !errors.Is(err, sfp.ErrStatus) {
		t.Error("expected status error, got", err, len(out))
	}
}

// sfpDiag is an SFP with diagnostics in slot 0 module 3.
type sfpDiag struct {
	low  [128]byte
	high [256]byte
}

func newSfpDiag() *sfpDiag {
	m := new(sfpDiag)
	for i := range m.low {
		m.low[i] = byte(i)
	}
	for i := range m.high {
		m.high[i] = byte(128 + i)
	}
	m.low[0] = uint8(sfp.IdSfp)
	m.low[92] = 0x68
	return m
}

func (m *sfpDiag) Query(req query.Request) (query.Response, error) {
	if req.Slot != 0 || req.Module != 3 {
		return query.Response{Status: query.StatusNotConnected}, nil
	}
	var mem []byte
	switch req.Addr {
	case query.Low:
		mem = m.low[:]
	case query.High:
		mem = m.high[:]
	}
	if req.Page != 0 || req.Bank != 0 || int(req.Offset)+int(req.Size) > len(mem) {
		return query.Response{Status: query.StatusNotSupported}, nil
	}
	b := mem[req.Offset : req.Offset+req.Size]
	return query.Response{Data: append([]byte(nil), b...)}, nil
}

func TestEepromSfp(t *testing.T) {
	var out bytes.Buffer
	c := &Command{Channel: newSfpDiag(), Stdout: &out}
	if err := c.Main("3", "info"); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(out.String(), "eeprom.length: 512\n") {
		t.Errorf("info: got %q", out.String())
	}

	out.Reset()
	if err := c.Main("3", "eeprom"); err != nil {
		t.Fatal(err)
	}
	b := out.Bytes()
	if len(b) != 384 {
		t.Fatalf("got %d bytes", len(b))
	}
	for i := 1; i < len(b); i++ {
		if i != 92 && b[i] != byte(i) {
			t.Fatalf("byte %d: got 0x%02x", i, b[i])
		}
	}

	out.Reset()
	if err := c.Main("3", "eeprom", "-offset", "0x100"); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 128 {
		t.Errorf("offset 256: got %d bytes", out.Len())
	}

	err := c.Main("3", "eeprom", "-offset", "384")
	if err == nil || err.Error() != "-offset: 384: beyond 384 byte eeprom" {
		t.Error("offset 384: got", err)
	}
	err = c.Main("3", "eeprom", "-offset", "256", "-length", "256")
	if !errors.Is(err, sfp.ErrInvalidArgument) {
		t.Error("past the high address: got", err)
	}
}

func TestErrors(t *testing.T) {
	for _, x := range []struct {
		args   []string
		expect string
	}{
		{nil, "MODULE: missing"},
		{[]string{"256"}, "MODULE: "},
		{[]string{"3", "flash"}, "flash: unknown"},
		{[]string{"3", "info", "more"}, "[more]: unexpected"},
		{[]string{"3", "eeprom", "-offset", "640"}, "-offset: 640: beyond 640 byte eeprom"},
	} {
		_, err := run(t, x.args...)
		if err == nil || !strings.HasPrefix(err.Error(), x.expect) {
			t.Errorf("%v: got %v, expected %q", x.args, err, x.expect)
		}
	}
	if _, err := run(t, "4"); !errors.Is(err, sfp.ErrStatus) {
		t.Error("module 4: expected status error, got", err)
	}
}
