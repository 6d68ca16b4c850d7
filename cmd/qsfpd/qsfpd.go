// Copyright © 2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package qsfpd publishes transceiver module info, thresholds and
// temperature to redis as modules come and go.
package qsfpd

import (
	"fmt"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/log"
	"github.com/platinasystems/optics/cmd"
	"github.com/platinasystems/optics/internal/bus"
	"github.com/platinasystems/optics/internal/config"
	"github.com/platinasystems/optics/internal/qrpc"
	"github.com/platinasystems/optics/internal/query"
	"github.com/platinasystems/optics/internal/sfp"
	"github.com/platinasystems/optics/lang"
	"github.com/platinasystems/parms"
	"github.com/platinasystems/redis"
	"github.com/platinasystems/redis/publisher"
)

// Slowest retry of a module that fails to read.
const maxRetry = time.Minute

type Publisher interface {
	Print(...interface{}) (int, error)
}

type Command struct {
	// Init, if set, runs once before the first Main.
	Init func()
	init sync.Once

	once   sync.Once
	closer sync.Once
	stop   chan struct{}
}

func (*Command) String() string { return "qsfpd" }

func (*Command) Usage() string { return "qsfpd [-direct] [-config FILE]" }

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "transceiver module monitor daemon",
	}
}

func (*Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Poll module presence and publish, for each installed module,

		port.N.qsfp.id
		port.N.qsfp.eeprom.type
		port.N.qsfp.eeprom.length
		port.N.qsfp.temperature.units.C
		port.N.qsfp.temperature.{high,low}{Alarm,Warn}Threshold.units.C
		port.N.qsfp.temperature.label
		port.N.qsfp.presence

	Removal publishes "empty" to each. The high warning threshold is the
	critical level and the high alarm the emergency level.

OPTIONS
	-direct	open the i2c adapters instead of asking i2cd
	-config FILE
		port map, default ` + config.DefaultFile,
	}
}

func (*Command) Kind() cmd.Kind { return cmd.Daemon }

func (c *Command) Main(args ...string) error {
	stop := c.stopped()
	select {
	case <-stop:
		return nil
	default:
	}
	if c.Init != nil {
		c.init.Do(c.Init)
	}
	flag, args := flags.New(args, "-direct")
	parm, args := parms.New(args, "-config")
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	fn := parm.ByName["-config"]
	if fn == "" {
		fn = config.DefaultFile
	}
	cfg, err := config.Load(fn)
	if err != nil {
		return err
	}

	if err = redis.IsReady(); err != nil {
		return err
	}
	pub, err := publisher.New()
	if err != nil {
		return err
	}
	defer pub.Close()

	var ch query.Channel
	var present func() (uint64, error)
	if flag.ByName["-direct"] {
		ch = &bus.Channel{Ports: cfg.BusPorts()}
		if d := cfg.Detector(); d != nil {
			present = d.Present
		}
	} else {
		cl := qrpc.NewClient(cfg.Socket)
		defer cl.Close()
		ch = cl
		if cfg.Detector() != nil {
			present = cl.Present
		}
	}

	m := newMonitor(cfg, ch, present, pub)
	t := time.NewTicker(cfg.Interval())
	defer t.Stop()
	m.update(time.Now())
	for {
		select {
		case <-stop:
			return nil
		case now := <-t.C:
			m.update(now)
		}
	}
}

func (c *Command) Close() error {
	c.closer.Do(func() { close(c.stopped()) })
	return nil
}

// stopped is closed by Close, which may come before Main.
func (c *Command) stopped() chan struct{} {
	c.once.Do(func() { c.stop = make(chan struct{}) })
	return c.stop
}

type port struct {
	config.PortConfig
	name    string
	present bool
	ready   bool
	// published keys, blanked on removal
	keys  []string
	retry backoff.Backoff
	next  time.Time
}

type monitor struct {
	cfg     *config.Config
	env     *sfp.Env
	therm   sfp.Thermometer
	present func() (uint64, error)
	pub     Publisher
	lasts   map[string]string
	ports   []*port
}

func newMonitor(cfg *config.Config, ch query.Channel,
	present func() (uint64, error), pub Publisher) *monitor {
	therm := sfp.EepromThermometer{Channel: ch}
	m := &monitor{
		cfg:     cfg,
		env:     &sfp.Env{Channel: ch, Thermometer: therm},
		therm:   therm,
		present: present,
		pub:     pub,
		lasts:   make(map[string]string),
	}
	for _, pc := range cfg.Ports {
		m.ports = append(m.ports, &port{
			PortConfig: pc,
			name:       cfg.Name(pc),
			retry: backoff.Backoff{
				Min:    cfg.Interval(),
				Max:    maxRetry,
				Factor: 2,
			},
		})
	}
	return m
}

func (m *monitor) update(now time.Time) {
	mask := ^uint64(0)
	if m.present != nil {
		var err error
		if mask, err = m.present(); err != nil {
			log.Print("daemon", "err", "presence: ", err)
			return
		}
	}
	for _, p := range m.ports {
		in := m.installed(p, mask)
		switch {
		case in && !p.present:
			log.Print("daemon", "info", p.name, ": module inserted")
			p.present = true
			p.ready = false
			p.retry.Reset()
			p.next = now
		case !in && p.present:
			log.Print("daemon", "info", p.name, ": module removed")
			m.remove(p)
			continue
		case !in:
			m.publish(p, "presence", "empty")
			continue
		}
		if p.ready {
			t, err := m.therm.ModuleTemp(p.Slot, p.Module)
			if err != nil {
				log.Print("daemon", "err", p.name, ": ", err)
				continue
			}
			m.publish(p, "temperature.units.C", sfp.Celsius(t))
			continue
		}
		if now.Before(p.next) {
			continue
		}
		if err := m.read(p); err != nil {
			d := p.retry.Duration()
			p.next = now.Add(d)
			log.Print("daemon", "err", p.name, ": ", err,
				"; retry in ", d)
			continue
		}
		p.ready = true
		p.retry.Reset()
	}
}

func (m *monitor) installed(p *port, mask uint64) bool {
	if m.present == nil || p.Slot != m.cfg.Presence.Slot {
		return true
	}
	return mask&(1<<p.Module) != 0
}

// read everything before publishing anything so that a module is never
// half published.
func (m *monitor) read(p *port) error {
	id, err := sfp.Identify(m.env.Channel, p.Slot, p.Module)
	if err != nil {
		return err
	}
	info, err := m.env.ModuleInfo(p.Slot, p.Module)
	if err != nil {
		return err
	}
	thresholds := make([]int, len(sfp.ThresholdKinds))
	for i, kind := range sfp.ThresholdKinds {
		thresholds[i], err = m.env.ModuleTempThresholds(p.Slot,
			p.Module, kind)
		if err != nil {
			return fmt.Errorf("%v threshold: %w", kind, err)
		}
	}
	t, err := m.therm.ModuleTemp(p.Slot, p.Module)
	if err != nil {
		return err
	}
	m.publish(p, "id", id)
	m.publish(p, "eeprom.type", info.Type)
	m.publish(p, "eeprom.length", info.Length)
	for i, kind := range sfp.ThresholdKinds {
		m.publish(p, fmt.Sprint("temperature.", kind,
			"Threshold.units.C"), sfp.Celsius(thresholds[i]))
	}
	m.publish(p, "temperature.units.C", sfp.Celsius(t))
	m.publish(p, "temperature.label", fmt.Sprintf("front panel %03d",
		m.cfg.PortBase+int(p.Module)))
	m.publish(p, "presence", "present")
	log.Print("daemon", "info", p.name, ": ", id, ", ", info.Type, ", ",
		info.Length, " bytes")
	return nil
}

func (m *monitor) remove(p *port) {
	p.present = false
	p.ready = false
	for _, k := range p.keys {
		m.print(k, "empty")
	}
}

func (m *monitor) publish(p *port, k string, v interface{}) {
	k = p.name + ".qsfp." + k
	if m.print(k, fmt.Sprint(v)) {
		for _, x := range p.keys {
			if x == k {
				return
			}
		}
		p.keys = append(p.keys, k)
	}
}

// print publishes v if it differs from what was last published.
func (m *monitor) print(k, v string) bool {
	if last, found := m.lasts[k]; found && last == v {
		return true
	}
	if _, err := m.pub.Print(k, ": ", v); err != nil {
		log.Print("daemon", "err", k, ": ", err)
		return false
	}
	m.lasts[k] = v
	return true
}
