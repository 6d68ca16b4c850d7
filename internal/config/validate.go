// Copyright © 2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package config

import (
	"errors"
	"fmt"

	"github.com/platinasystems/optics/internal/presence"
)

// 7 bit addresses less the reserved ranges.
const (
	minAddr = 0x03
	maxAddr = 0x77
)

// Validate checks the configuration without changing it.
func Validate(cfg *Config) error {
	if cfg.PollMs < 0 {
		return fmt.Errorf("poll_ms %d: negative", cfg.PollMs)
	}
	if cfg.PortBase < 0 {
		return fmt.Errorf("port_base %d: negative", cfg.PortBase)
	}
	if len(cfg.Ports) == 0 {
		return errors.New("no ports")
	}

	p := cfg.Presence
	if len(p.Addrs) > presence.MaxExpanders {
		return fmt.Errorf("presence: %d expanders, at most %d",
			len(p.Addrs), presence.MaxExpanders)
	}
	if len(p.Addrs) > 0 {
		if err := validateBus("presence", p.Bus, p.Mux); err != nil {
			return err
		}
		for _, addr := range p.Addrs {
			if addr < minAddr || addr > maxAddr {
				return fmt.Errorf("presence: expander address 0x%x out of range",
					addr)
			}
		}
	}

	type key struct{ slot, module uint8 }
	seen := make(map[key]bool)
	for _, port := range cfg.Ports {
		name := fmt.Sprintf("slot %d module %d", port.Slot, port.Module)
		k := key{port.Slot, port.Module}
		if seen[k] {
			return fmt.Errorf("%s: duplicate", name)
		}
		seen[k] = true
		if err := validateBus(name, port.Bus, port.Mux); err != nil {
			return err
		}
		if len(p.Addrs) > 0 && port.Slot == p.Slot &&
			int(port.Module) >= 16*len(p.Addrs) {
			return fmt.Errorf("%s: no presence line", name)
		}
	}
	return nil
}

func validateBus(name string, bus int, mux []MuxConfig) error {
	if bus < 0 {
		return fmt.Errorf("%s: bus %d: negative", name, bus)
	}
	for _, m := range mux {
		if m.Bus < 0 {
			return fmt.Errorf("%s: mux bus %d: negative", name, m.Bus)
		}
		if m.Addr < minAddr || m.Addr > maxAddr {
			return fmt.Errorf("%s: mux address 0x%x out of range",
				name, m.Addr)
		}
		if m.Value < 0 || m.Value > 0xff {
			return fmt.Errorf("%s: mux value 0x%x out of range",
				name, m.Value)
		}
	}
	return nil
}
