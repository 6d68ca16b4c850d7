// Copyright © 2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package config loads the front panel port map of a machine.
//
//	poll_ms: 1000
//	socket: i2cd
//	port_base: 1
//	presence:
//	  bus: 0
//	  mux: [{bus: 0, addr: 0x70, value: 0x10}]
//	  addrs: [0x20, 0x21]
//	  swap: true
//	ports:
//	  - module: 0
//	    bus: 0
//	    mux: [{bus: 0, addr: 0x70, value: 0x01}, {bus: 0, addr: 0x71, value: 0x01}]
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/platinasystems/optics/internal/bus"
	"github.com/platinasystems/optics/internal/presence"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFile   = "/etc/goes/optics.yaml"
	DefaultSocket = "i2cd"
	DefaultPollMs = 1000
)

type Config struct {
	PollMs int `yaml:"poll_ms"`
	// atsock name of the i2cd rpc server
	Socket string `yaml:"socket"`
	// Number of module 0 in published keys and labels.
	PortBase int            `yaml:"port_base"`
	Presence PresenceConfig `yaml:"presence"`
	Ports    []PortConfig   `yaml:"ports"`
}

type MuxConfig struct {
	Bus   int `yaml:"bus"`
	Addr  int `yaml:"addr"`
	Value int `yaml:"value"`
}

// PresenceConfig is optional; without expanders every port is polled.
type PresenceConfig struct {
	Slot  uint8       `yaml:"slot"`
	Bus   int         `yaml:"bus"`
	Mux   []MuxConfig `yaml:"mux"`
	Addrs []int       `yaml:"addrs"`
	Swap  bool        `yaml:"swap"`
}

type PortConfig struct {
	Slot   uint8       `yaml:"slot"`
	Module uint8       `yaml:"module"`
	Bus    int         `yaml:"bus"`
	Mux    []MuxConfig `yaml:"mux"`
}

// Load, validate and normalize the named file.
func Load(fn string) (*Config, error) {
	b, err := os.ReadFile(fn)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

func Parse(b []byte) (*Config, error) {
	cfg := new(Config)
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	Normalize(cfg)
	return cfg, nil
}

// Normalize fills defaults; call after Validate.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.PollMs == 0 {
		cfg.PollMs = DefaultPollMs
	}
	if cfg.Socket == "" {
		cfg.Socket = DefaultSocket
	}
}

func (cfg *Config) Interval() time.Duration {
	return time.Duration(cfg.PollMs) * time.Millisecond
}

func muxes(mc []MuxConfig) []bus.Mux {
	var m []bus.Mux
	for _, x := range mc {
		m = append(m, bus.Mux{Bus: x.Bus, Addr: x.Addr, Value: x.Value})
	}
	return m
}

// BusPorts is the map for bus.Channel.
func (cfg *Config) BusPorts() map[bus.Key]bus.Port {
	m := make(map[bus.Key]bus.Port, len(cfg.Ports))
	for _, p := range cfg.Ports {
		m[bus.Key{Slot: p.Slot, Module: p.Module}] = bus.Port{
			Bus: p.Bus,
			Mux: muxes(p.Mux),
		}
	}
	return m
}

// Detector returns nil without presence expanders.
func (cfg *Config) Detector() *presence.Detector {
	if len(cfg.Presence.Addrs) == 0 {
		return nil
	}
	return &presence.Detector{
		Port: bus.Port{
			Bus: cfg.Presence.Bus,
			Mux: muxes(cfg.Presence.Mux),
		},
		Addrs: cfg.Presence.Addrs,
		Swap:  cfg.Presence.Swap,
	}
}

// Name of the port in published keys, "port.N".
func (cfg *Config) Name(p PortConfig) string {
	if p.Slot != 0 {
		return fmt.Sprintf("port.%d-%d", p.Slot, cfg.PortBase+int(p.Module))
	}
	return fmt.Sprint("port.", cfg.PortBase+int(p.Module))
}
