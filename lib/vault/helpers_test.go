// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"testing"
	"time"

	"github.com/authy-sh/authy/lib/session"
)

func sessionRecordForTest(t *testing.T, sessionKey []byte, scope string, now time.Time) session.Record {
	t.Helper()
	_, record, err := session.Mint(sessionKey, scope, "", time.Hour, false, now)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	return record
}
