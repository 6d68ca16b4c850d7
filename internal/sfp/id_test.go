// Copyright © 2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package sfp

import (
	"errors"
	"fmt"
	"testing"

	"github.com/platinasystems/optics/internal/query"
)

func TestClassify(t *testing.T) {
	for _, x := range []struct {
		id         Id
		family     Family
		qsfp, cmis bool
	}{
		{IdSfp, FamilySfp, false, false},
		{IdSfpDD, FamilySfpDD, false, false},
		{IdQsfp, FamilyQsfp, true, false},
		{IdQsfpPlus, FamilyQsfpPlus, true, false},
		{IdQsfp28, FamilyQsfp28, true, false},
		{IdQsfpDD, FamilyQsfpDD, true, true},
		{IdQsfpPlusCmis, FamilyQsfpPlusCmis, true, true},
	} {
		id, err := Classify(x.id)
		if err != nil {
			t.Errorf("%v: %v", x.id, err)
			continue
		}
		if id.Family != x.family || id.Qsfp != x.qsfp || id.Cmis != x.cmis {
			t.Errorf("%v: got %v qsfp %t cmis %t, expected %v qsfp %t cmis %t",
				x.id, id.Family, id.Qsfp, id.Cmis,
				x.family, x.qsfp, x.cmis)
		}
	}
}

func TestClassifyInvalid(t *testing.T) {
	valid := map[Id]bool{
		IdSfp:          true,
		IdSfpDD:        true,
		IdQsfp:         true,
		IdQsfpPlus:     true,
		IdQsfp28:       true,
		IdQsfpDD:       true,
		IdQsfpPlusCmis: true,
	}
	for i := 0; i < 256; i++ {
		if valid[Id(i)] {
			continue
		}
		_, err := Classify(Id(i))
		if !errors.Is(err, ErrInvalidIdentifier) {
			t.Errorf("0x%02x: expected %v, got %v",
				i, ErrInvalidIdentifier, err)
		}
	}
}

func TestIdentify(t *testing.T) {
	f := newFake().ident(IdQsfp28)
	id, err := Identify(f, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if id.Id != IdQsfp28 || !id.Qsfp || id.Cmis {
		t.Errorf("wrong identity: %+v", id)
	}
	if len(f.reqs) != 1 {
		t.Fatalf("expected one query, got %d", len(f.reqs))
	}
	expect := query.Request{Size: 1, Addr: query.Low}
	if f.reqs[0] != expect {
		t.Errorf("got %v, expected %v", f.reqs[0], expect)
	}
}

func TestIdentifyErrors(t *testing.T) {
	f := newFake().ident(IdCxp)
	if _, err := Identify(f, 0, 0); !errors.Is(err, ErrInvalidIdentifier) {
		t.Error("expected", ErrInvalidIdentifier, "got", err)
	}

	f = newFake()
	f.failAt = 1
	f.err = errors.New("bus stuck")
	if _, err := Identify(f, 0, 0); !errors.Is(err, ErrIO) ||
		!errors.Is(err, f.err) {
		t.Error("expected", ErrIO, "got", err)
	}

	f = newFake()
	f.failAt = 1
	f.status = query.StatusNotConnected
	if _, err := Identify(f, 0, 0); !errors.Is(err, ErrStatus) {
		t.Error("expected", ErrStatus, "got", err)
	}

	f = newFake()
	f.overrides[query.Request{Size: 1, Addr: query.Low}] = []byte{}
	if _, err := Identify(f, 0, 0); !errors.Is(err, ErrShortRead) {
		t.Error("expected", ErrShortRead, "got", err)
	}
}

func ExampleId_String() {
	fmt.Println(IdSfp)
	fmt.Println(IdQsfp28)
	fmt.Println(IdQsfpPlusCmis)
	fmt.Println(Id(0x7f))
	// Output:
	// SFP/SFP+/SFP28
	// QSFP28
	// QSFP+ (CMIS)
	// 0x7f
}
