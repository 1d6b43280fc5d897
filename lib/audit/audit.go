// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"bufio"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/authy-sh/authy/lib/errcode"
)

// Outcome values recorded on entries.
const (
	OutcomeGranted = "granted"
	OutcomeDenied  = "denied"
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// hmacSize is the size of a chain HMAC (SHA-256).
const hmacSize = sha256.Size

// zeroHMAC is the prev_hmac of the first entry.
var zeroHMAC = make([]byte, hmacSize)

// Entry is one audit record. Entries are appended as single JSON
// lines with this exact field order; the order is part of the
// external contract.
//
// The log is not encrypted — it must be appendable by every operation
// — so entries never contain secret values, only names, actors, and
// outcomes. Tamper evidence comes from the HMAC chain: each entry's
// entry_hmac covers the previous entry's hmac plus the entry's own
// canonical serialization.
type Entry struct {
	// Sequence is monotonic, starting at 1, without gaps.
	Sequence uint64 `json:"sequence"`

	// Timestamp is UTC, second resolution.
	Timestamp time.Time `json:"timestamp"`

	// Operation is a symbolic tag such as "secret.read" or
	// "subprocess.run".
	Operation string `json:"operation"`

	// SecretName is set for operations addressing a single secret.
	SecretName string `json:"secret_name,omitempty"`

	// Actor identifies the caller: "master", "keyfile:<path>", or
	// "token:<sessionId>".
	Actor string `json:"actor"`

	// Outcome is one of the Outcome constants.
	Outcome string `json:"outcome"`

	// Detail is free-form context (never a secret value).
	Detail string `json:"detail"`

	// PrevHMAC is the hex entry_hmac of the previous entry; all
	// zeros for sequence 1.
	PrevHMAC string `json:"prev_hmac"`

	// EntryHMAC is hex HMAC-SHA256(audit_key, prev_hmac_raw ||
	// canonical serialization of the preceding fields).
	EntryHMAC string `json:"entry_hmac"`
}

// canonicalEntry is the byte layout covered by the HMAC: every field
// up to but excluding the two hmac fields, in fixed order, with the
// timestamp pinned to RFC3339 UTC.
type canonicalEntry struct {
	Sequence   uint64 `json:"sequence"`
	Timestamp  string `json:"timestamp"`
	Operation  string `json:"operation"`
	SecretName string `json:"secret_name,omitempty"`
	Actor      string `json:"actor"`
	Outcome    string `json:"outcome"`
	Detail     string `json:"detail"`
}

func (e *Entry) canonicalBytes() ([]byte, error) {
	data, err := json.Marshal(canonicalEntry{
		Sequence:   e.Sequence,
		Timestamp:  e.Timestamp.UTC().Format(time.RFC3339),
		Operation:  e.Operation,
		SecretName: e.SecretName,
		Actor:      e.Actor,
		Outcome:    e.Outcome,
		Detail:     e.Detail,
	})
	if err != nil {
		return nil, errcode.Wrap(errcode.Serialization, err, "serializing audit entry")
	}
	return data, nil
}

func chainHMAC(key, prevRaw, canonical []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(prevRaw)
	mac.Write(canonical)
	return mac.Sum(nil)
}

// Append constructs the next entry in the chain and appends it to the
// log as one LF-terminated JSON line, fsyncing before return. The
// sequence and prev_hmac are taken from the current last line.
func Append(path string, key []byte, operation, secretName, actor, outcome, detail string, now time.Time) error {
	prevRaw, lastSequence, err := tail(path)
	if err != nil {
		return err
	}

	entry := Entry{
		Sequence:   lastSequence + 1,
		Timestamp:  now.UTC().Truncate(time.Second),
		Operation:  operation,
		SecretName: secretName,
		Actor:      actor,
		Outcome:    outcome,
		Detail:     detail,
		PrevHMAC:   hex.EncodeToString(prevRaw),
	}

	canonical, err := entry.canonicalBytes()
	if err != nil {
		return err
	}
	entry.EntryHMAC = hex.EncodeToString(chainHMAC(key, prevRaw, canonical))

	line, err := json.Marshal(entry)
	if err != nil {
		return errcode.Wrap(errcode.Serialization, err, "serializing audit entry")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errcode.Wrap(errcode.Io, err, "creating audit directory")
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return errcode.Wrap(errcode.Io, err, "opening audit log")
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return errcode.Wrap(errcode.Io, err, "appending audit entry")
	}
	if err := file.Sync(); err != nil {
		return errcode.Wrap(errcode.Io, err, "syncing audit log")
	}
	return nil
}

// tail returns the raw entry_hmac and sequence of the last entry, or
// (zeroHMAC, 0) for a missing or empty log.
func tail(path string) ([]byte, uint64, error) {
	entries, err := ReadEntries(path)
	if err != nil {
		return nil, 0, err
	}
	if len(entries) == 0 {
		return zeroHMAC, 0, nil
	}
	last := entries[len(entries)-1]
	raw, err := hex.DecodeString(last.EntryHMAC)
	if err != nil || len(raw) != hmacSize {
		return nil, 0, errcode.New(errcode.Serialization, "audit log tail has malformed entry_hmac")
	}
	return raw, last.Sequence, nil
}

// ReadEntries parses the whole log. A missing file yields an empty
// slice. Blank lines are skipped; a malformed line is a
// Serialization error.
func ReadEntries(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errcode.Wrap(errcode.Io, err, "opening audit log")
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, errcode.Wrap(errcode.Serialization, err, "parsing audit entry %d", len(entries)+1)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, errcode.Wrap(errcode.Io, err, "reading audit log")
	}
	return entries, nil
}
