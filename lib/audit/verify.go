// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"crypto/hmac"
	"encoding/hex"
	"time"

	"github.com/authy-sh/authy/lib/errcode"
)

// Verify walks the log linearly, recomputing every entry_hmac and
// checking the chain links and sequence continuity. Returns the number
// of verified entries, or AuditChainBroken naming the first bad
// sequence. An empty or missing log verifies with count 0.
func Verify(path string, key []byte) (int, error) {
	entries, err := ReadEntries(path)
	if err != nil {
		return 0, err
	}

	prevRaw := zeroHMAC
	for index := range entries {
		entry := &entries[index]

		if entry.Sequence != uint64(index)+1 {
			return index, broken(entry.Sequence, "sequence gap")
		}

		declaredPrev, err := hex.DecodeString(entry.PrevHMAC)
		if err != nil || len(declaredPrev) != hmacSize {
			return index, broken(entry.Sequence, "malformed prev_hmac")
		}
		if !hmac.Equal(declaredPrev, prevRaw) {
			return index, broken(entry.Sequence, "chain link mismatch")
		}

		canonical, err := entry.canonicalBytes()
		if err != nil {
			return index, err
		}
		expected := chainHMAC(key, prevRaw, canonical)

		declared, err := hex.DecodeString(entry.EntryHMAC)
		if err != nil || len(declared) != hmacSize {
			return index, broken(entry.Sequence, "malformed entry_hmac")
		}
		if !hmac.Equal(declared, expected) {
			return index, broken(entry.Sequence, "entry hmac mismatch")
		}

		prevRaw = declared
	}

	return len(entries), nil
}

func broken(sequence uint64, reason string) error {
	return errcode.New(errcode.AuditChainBroken, "audit chain broken at sequence %d: %s", sequence, reason)
}

// Archive renames the current log aside (audit.log.<UTC timestamp>,
// e.g. audit.log.20260101T120000Z) so a new
// chain can start at sequence 1. Used by rekey, which rotates the
// audit key and would otherwise orphan the old chain. A missing log
// is a no-op.
func Archive(path string, now time.Time) (string, error) {
	archived := path + "." + now.UTC().Format("20060102T150405Z")
	err := renameIfExists(path, archived)
	if err != nil {
		return "", err
	}
	return archived, nil
}
