// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewFromBytesZerosSource(t *testing.T) {
	source := []byte("hunter2-hunter2")
	buffer, err := NewFromBytes(source)
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	defer buffer.Close()

	for i, b := range source {
		if b != 0 {
			t.Fatalf("source byte %d not zeroed: %x", i, b)
		}
	}
	if got := buffer.String(); got != "hunter2-hunter2" {
		t.Errorf("buffer contents = %q, want %q", got, "hunter2-hunter2")
	}
}

func TestBufferEqual(t *testing.T) {
	buffer, err := NewFromString("token-material")
	if err != nil {
		t.Fatalf("NewFromString: %v", err)
	}
	defer buffer.Close()

	if !buffer.Equal([]byte("token-material")) {
		t.Error("Equal returned false for identical contents")
	}
	if buffer.Equal([]byte("token-materiaL")) {
		t.Error("Equal returned true for differing contents")
	}
	if buffer.Equal([]byte("token")) {
		t.Error("Equal returned true for differing lengths")
	}
}

func TestCloseZerosAndPanicsOnAccess(t *testing.T) {
	buffer, err := NewFromString("ephemeral")
	if err != nil {
		t.Fatalf("NewFromString: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Idempotent.
	if err := buffer.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("Bytes after Close did not panic")
		}
	}()
	buffer.Bytes()
}

func TestNewRejectsNonPositiveSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		if _, err := New(size); err == nil {
			t.Errorf("New(%d) succeeded, want error", size)
		}
	}
}

func TestReadFromReaderTrims(t *testing.T) {
	buffer, err := ReadFromReader(strings.NewReader("  postgres://u:p@h/d\n"))
	if err != nil {
		t.Fatalf("ReadFromReader: %v", err)
	}
	defer buffer.Close()

	if !bytes.Equal(buffer.Bytes(), []byte("postgres://u:p@h/d")) {
		t.Errorf("value = %q, want trimmed contents", buffer.Bytes())
	}
}

func TestReadFromReaderRejectsEmpty(t *testing.T) {
	if _, err := ReadFromReader(strings.NewReader("   \n")); err == nil {
		t.Error("whitespace-only value accepted")
	}
}
