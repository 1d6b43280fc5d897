// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"os"

	"github.com/authy-sh/authy/lib/errcode"
)

func renameIfExists(from, to string) error {
	if _, err := os.Stat(from); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errcode.Wrap(errcode.Io, err, "checking audit log")
	}
	if err := os.Rename(from, to); err != nil {
		return errcode.Wrap(errcode.Io, err, "archiving audit log")
	}
	return nil
}
