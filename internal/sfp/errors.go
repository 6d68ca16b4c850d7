// Copyright © 2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package sfp

import "errors"

var (
	ErrInvalidIdentifier   = errors.New("invalid module identifier")
	ErrInvalidBankEncoding = errors.New("invalid cmis bank encoding")
	ErrShortRead           = errors.New("short read")
	ErrStatus              = errors.New("module query status")
	ErrIO                  = errors.New("module query failed")
	ErrInvalidArgument     = errors.New("invalid argument")
)
