// Copyright © 2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package lang

import "testing"

func TestAlt(t *testing.T) {
	defer func(s string) { env = s }(env)
	m := Alt{
		EnUS: "module eeprom",
		FrFR: "eeprom du module",
	}
	env = FrFR
	if s := m.String(); s != "eeprom du module" {
		t.Error("got", s)
	}
	env = DeDE
	if s := m.String(); s != "module eeprom" {
		t.Error("got", s)
	}
	if s := (Alt{}).String(); s != "" {
		t.Error("got", s)
	}
}
