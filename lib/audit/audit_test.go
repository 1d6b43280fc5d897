// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/authy-sh/authy/lib/clock"
	"github.com/authy-sh/authy/lib/errcode"
)

var auditTestKey = []byte("audit-key-audit-key-audit-key-32")

func appendN(t *testing.T, path string, count int) {
	t.Helper()
	now := clock.Fake().Now()
	for i := 0; i < count; i++ {
		err := Append(path, auditTestKey, "secret.read", "db-url", "master", OutcomeSuccess, "", now.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("Append %d: %v", i+1, err)
		}
	}
}

func TestAppendBuildsChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	appendN(t, path, 3)

	entries, err := ReadEntries(path)
	if err != nil {
		t.Fatalf("ReadEntries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entry count = %d, want 3", len(entries))
	}

	if entries[0].PrevHMAC != strings.Repeat("0", 64) {
		t.Errorf("first prev_hmac = %q, want all zeros", entries[0].PrevHMAC)
	}
	for i := range entries {
		if entries[i].Sequence != uint64(i)+1 {
			t.Errorf("sequence[%d] = %d, want %d", i, entries[i].Sequence, i+1)
		}
		if i > 0 && entries[i].PrevHMAC != entries[i-1].EntryHMAC {
			t.Errorf("prev_hmac[%d] does not link to entry_hmac[%d]", i, i-1)
		}
	}
}

func TestVerifyAcceptsIntactChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	appendN(t, path, 5)

	count, err := Verify(path, auditTestKey)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if count != 5 {
		t.Errorf("verified count = %d, want 5", count)
	}
}

func TestVerifyEmptyLog(t *testing.T) {
	count, err := Verify(filepath.Join(t.TempDir(), "audit.log"), auditTestKey)
	if err != nil || count != 0 {
		t.Errorf("Verify(missing) = %d, %v; want 0, nil", count, err)
	}
}

// Flipping a single byte anywhere in an entry must break verification
// at that entry's sequence.
func TestVerifyDetectsTamper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	appendN(t, path, 3)

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")

	// Rewrite the actor value on the second line.
	tampered := strings.Replace(lines[1], `"actor":"master"`, `"actor":"hacker"`, 1)
	if tampered == lines[1] {
		t.Fatal("tamper target not found in line")
	}
	lines[1] = tampered
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err = Verify(path, auditTestKey)
	if errcode.KindOf(err) != errcode.AuditChainBroken {
		t.Fatalf("Verify error = %v, want AuditChainBroken", err)
	}
	if !strings.Contains(err.Error(), "sequence 2") {
		t.Errorf("error %q does not name sequence 2", err.Error())
	}
}

func TestVerifyDetectsTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	appendN(t, path, 3)

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")

	// Drop the middle entry: the chain link from 1 to 3 cannot hold.
	kept := []string{lines[0], lines[2]}
	if err := os.WriteFile(path, []byte(strings.Join(kept, "\n")+"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err = Verify(path, auditTestKey)
	if errcode.KindOf(err) != errcode.AuditChainBroken {
		t.Fatalf("Verify error = %v, want AuditChainBroken", err)
	}
}

func TestVerifyWrongKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	appendN(t, path, 1)

	otherKey := []byte("other-key-other-key-other-key-32")
	if _, err := Verify(path, otherKey); errcode.KindOf(err) != errcode.AuditChainBroken {
		t.Errorf("Verify with wrong key = %v, want AuditChainBroken", err)
	}
}

func TestEntriesNeverContainValueField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	if err := Append(path, auditTestKey, "secret.write", "db-url", "master", OutcomeSuccess, "stored v1", clock.Fake().Now()); err != nil {
		t.Fatalf("Append: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	line := string(raw)
	if !strings.HasSuffix(line, "\n") {
		t.Error("entry line is not LF-terminated")
	}
	wantOrder := []string{`"sequence"`, `"timestamp"`, `"operation"`, `"secret_name"`, `"actor"`, `"outcome"`, `"detail"`, `"prev_hmac"`, `"entry_hmac"`}
	last := -1
	for _, field := range wantOrder {
		idx := strings.Index(line, field)
		if idx < 0 {
			t.Fatalf("field %s missing from %q", field, line)
		}
		if idx < last {
			t.Fatalf("field %s out of order in %q", field, line)
		}
		last = idx
	}
}

func TestArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.log")
	appendN(t, path, 2)

	archived, err := Archive(path, clock.Fake().Now())
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("original log still present after archive")
	}
	if _, err := os.Stat(archived); err != nil {
		t.Errorf("archived log missing: %v", err)
	}

	// New chain starts at sequence 1.
	appendN(t, path, 1)
	entries, err := ReadEntries(path)
	if err != nil {
		t.Fatalf("ReadEntries: %v", err)
	}
	if len(entries) != 1 || entries[0].Sequence != 1 {
		t.Errorf("post-archive chain = %+v, want fresh sequence 1", entries)
	}
}
