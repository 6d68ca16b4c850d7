// Copyright © 2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package i2cd

import (
	"testing"
	"time"

	"github.com/platinasystems/optics/internal/bus"
	"github.com/platinasystems/optics/internal/config"
	"github.com/platinasystems/optics/internal/query"
)

func TestNewServer(t *testing.T) {
	cfg, err := config.Parse([]byte(`
ports:
  - {module: 0, bus: 3}
  - {module: 1, bus: 4}
`))
	if err != nil {
		t.Fatal(err)
	}
	srv := NewServer(cfg)
	if srv.Presence != nil {
		t.Error("presence without expanders")
	}
	ch, ok := srv.Channel.(*bus.Channel)
	if !ok || len(ch.Ports) != 2 || ch.Ports[bus.Key{Module: 1}].Bus != 4 {
		t.Fatalf("channel: %#v", srv.Channel)
	}

	var resp query.Response
	err = srv.Query(query.Request{Module: 7, Size: 1}, &resp)
	if err != nil || resp.Status != query.StatusNotConnected {
		t.Error("unknown port:", resp.Status, err)
	}

	cfg.Presence.Addrs = []int{0x20}
	if NewServer(cfg).Presence == nil {
		t.Error("no presence with expanders")
	}
}

func TestCloseBeforeMain(t *testing.T) {
	c := new(Command)
	for i := 0; i < 2; i++ {
		if err := c.Close(); err != nil {
			t.Fatal(err)
		}
	}
	done := make(chan error, 1)
	go func() { done <- c.Main("-config", "/nonexistent/optics.yaml") }()
	select {
	case err := <-done:
		if err != nil {
			t.Error(err)
		}
	case <-time.After(time.Second):
		t.Fatal("Main didn't return after Close")
	}
}
