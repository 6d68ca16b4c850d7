// Copyright © 2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package sfp

import (
	"github.com/platinasystems/optics/internal/query"
)

type pageBank struct{ page, bank uint8 }

// fake is module memory behind a deterministic channel. Requests matching an
// override exactly are answered from it; everything else is served from the
// low page, the high address or the paged/banked upper memory.
type fake struct {
	overrides map[query.Request][]byte
	low       [PageLength]byte
	high      [2 * PageLength]byte
	pages     map[pageBank]*[PageLength]byte

	// fail the Nth query, counting from 1
	failAt int
	err    error
	status query.Status

	// truncate data to at most this many bytes
	short int

	reqs []query.Request
}

func newFake() *fake {
	return &fake{
		overrides: make(map[query.Request][]byte),
		pages:     make(map[pageBank]*[PageLength]byte),
	}
}

func (f *fake) ident(id Id) *fake {
	f.overrides[query.Request{Size: 1, Addr: query.Low}] = []byte{byte(id)}
	return f
}

func (f *fake) page(page, bank uint8) *[PageLength]byte {
	k := pageBank{page, bank}
	p, found := f.pages[k]
	if !found {
		p = new([PageLength]byte)
		f.pages[k] = p
	}
	return p
}

func (f *fake) Query(req query.Request) (query.Response, error) {
	f.reqs = append(f.reqs, req)
	if f.failAt == len(f.reqs) {
		if f.err != nil {
			return query.Response{}, f.err
		}
		return query.Response{Status: f.status}, nil
	}
	if b, found := f.overrides[req]; found {
		return query.Response{Data: append([]byte(nil), b...)}, nil
	}
	var src []byte
	switch {
	case req.Addr == query.High:
		src = f.high[:]
	case req.Page == 0:
		src = f.low[:]
	default:
		src = f.page(req.Page, req.Bank)[:]
	}
	end := int(req.Offset) + int(req.Size)
	if end > len(src) {
		return query.Response{Status: query.StatusI2cError}, nil
	}
	data := append([]byte(nil), src[req.Offset:end]...)
	if f.short > 0 && len(data) > f.short {
		data = data[:f.short]
	}
	return query.Response{Data: data}, nil
}

// cmisLayout lists where each sequential page of a CMIS module lives.
func cmisLayout(page3 bool, banks int) map[uint8]pageBank {
	m := map[uint8]pageBank{
		1: {1, 0},
		2: {2, 0},
	}
	next := uint8(3)
	if page3 {
		m[3] = pageBank{3, 0}
		next++
	}
	for _, page := range []uint8{16, 17} {
		for bank := 0; bank < banks; bank++ {
			m[next] = pageBank{page, uint8(bank)}
			next++
		}
	}
	return m
}

// pattern fills module memory so that logical address a holds byte(a).
func (f *fake) pattern(layout map[uint8]pageBank) *fake {
	for i := range f.low {
		f.low[i] = byte(i)
	}
	for i := range f.high {
		f.high[i] = byte(PageLength + i)
	}
	for seq, pb := range layout {
		p := f.page(pb.page, pb.bank)
		for i := range p {
			p[i] = byte(int(seq)*PageLength + i)
		}
	}
	return f
}

// qsfpLayout is the identity page layout of non-CMIS paged modules.
func qsfpLayout(n int) map[uint8]pageBank {
	m := make(map[uint8]pageBank)
	for page := 1; page < n; page++ {
		m[uint8(page)] = pageBank{uint8(page), 0}
	}
	return m
}

// chunks are the queries after the identity and capability reads.
func (f *fake) chunks(skip int) []query.Request {
	if len(f.reqs) < skip {
		return nil
	}
	return f.reqs[skip:]
}
