// Copyright © 2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package qrpc carries module queries between daemons over the atsock rpc
// servers, so that only one process owns the i2c adapters.
package qrpc

import (
	"errors"
	"io"
	"net/rpc"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/platinasystems/atsock"
	"github.com/platinasystems/log"
	"github.com/platinasystems/optics/internal/query"
)

// ServiceName is the rpc receiver name of Server.
const ServiceName = "Qsfp"

// ErrNoPresence is returned by servers without a presence detector.
var ErrNoPresence = errors.New("no presence detector")

// Server answers rpc queries from Channel one at a time.
type Server struct {
	Channel query.Channel
	// Optional module present mask, read under the same lock as queries.
	Presence func() (uint64, error)
	mutex    sync.Mutex
}

func (s *Server) Query(req query.Request, resp *query.Response) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	r, err := s.Channel.Query(req)
	if err != nil {
		return err
	}
	*resp = r
	return nil
}

// Present replies with the module present mask; the argument is unused.
func (s *Server) Present(_ int, mask *uint64) error {
	if s.Presence == nil {
		return ErrNoPresence
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	v, err := s.Presence()
	if err != nil {
		return err
	}
	*mask = v
	return nil
}

// Register s with the default rpc server for atsock.NewRpcServer.
func Register(s *Server) error {
	return rpc.RegisterName(ServiceName, s)
}

// Client is a query.Channel to a Server; it redials the named atsock after
// the connection shuts down.
type Client struct {
	Name string
	// Dial attempts before giving up; 0 for one.
	Retries int
	Backoff backoff.Backoff

	dial  func(string) (*rpc.Client, error)
	mutex sync.Mutex
	rpc   *rpc.Client
}

func NewClient(name string) *Client {
	return &Client{
		Name:    name,
		Retries: 10,
		Backoff: backoff.Backoff{
			Min:    50 * time.Millisecond,
			Max:    time.Second,
			Factor: 2,
			Jitter: true,
		},
	}
}

func (c *Client) connect() (*rpc.Client, error) {
	if c.rpc != nil {
		return c.rpc, nil
	}
	dial := c.dial
	if dial == nil {
		dial = atsock.NewRpcClient
	}
	defer c.Backoff.Reset()
	for i := 0; ; i++ {
		cl, err := dial(c.Name)
		if err == nil {
			c.rpc = cl
			return cl, nil
		}
		if i >= c.Retries {
			return nil, err
		}
		d := c.Backoff.Duration()
		log.Print("dial ", c.Name, ": ", err, "; retry in ", d)
		time.Sleep(d)
	}
}

func (c *Client) Query(req query.Request) (query.Response, error) {
	var resp query.Response
	err := c.call("Query", req, &resp)
	return resp, err
}

// Present reads the module present mask of the server.
func (c *Client) Present() (uint64, error) {
	var mask uint64
	err := c.call("Present", 0, &mask)
	if err != nil && err.Error() == ErrNoPresence.Error() {
		err = ErrNoPresence
	}
	return mask, err
}

func (c *Client) call(method string, args, reply interface{}) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for redial := true; ; redial = false {
		cl, err := c.connect()
		if err != nil {
			return err
		}
		err = cl.Call(ServiceName+"."+method, args, reply)
		shutdown := errors.Is(err, rpc.ErrShutdown) ||
			errors.Is(err, io.ErrUnexpectedEOF)
		if shutdown && redial {
			cl.Close()
			c.rpc = nil
			continue
		}
		return err
	}
}

func (c *Client) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.rpc == nil {
		return nil
	}
	err := c.rpc.Close()
	c.rpc = nil
	return err
}
