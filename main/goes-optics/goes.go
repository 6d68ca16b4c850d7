// Copyright © 2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package main

import (
	goes "github.com/platinasystems/optics"
	"github.com/platinasystems/optics/cmd"
	"github.com/platinasystems/optics/cmd/i2cd"
	"github.com/platinasystems/optics/cmd/qsfp"
	"github.com/platinasystems/optics/cmd/qsfpd"
	"github.com/platinasystems/optics/lang"
)

var Goes = &goes.Goes{
	NAME: "goes-optics",
	APROPOS: lang.Alt{
		lang.EnUS: "transceiver module tools and daemons",
	},
	ByName: map[string]cmd.Cmd{
		"i2cd":  &i2cd.Command{},
		"qsfp":  &qsfp.Command{},
		"qsfpd": &qsfpd.Command{},
	},
}
