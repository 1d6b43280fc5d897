// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitCodes(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{General, 1},
		{NotInitialized, 7},
		{AlreadyExists, 5},
		{NotFound, 3},
		{AccessDenied, 4},
		{AuthFailed, 2},
		{NoCredentials, 2},
		{InvalidToken, 6},
		{TokenExpired, 6},
		{TokenRevoked, 6},
		{TokenReadOnly, 4},
		{Decryption, 2},
		{Serialization, 1},
		{AuditChainBroken, 1},
		{Io, 1},
		{Subprocess, 7},
	}

	for _, tt := range tests {
		if got := tt.kind.ExitCode(); got != tt.want {
			t.Errorf("%s.ExitCode() = %d, want %d", tt.kind.Code(), got, tt.want)
		}
	}
}

func TestKindOfUnwrapsThroughWrapping(t *testing.T) {
	inner := New(NotFound, "secret not found: %s", "db-url")
	outer := fmt.Errorf("loading vault: %w", inner)

	if got := KindOf(outer); got != NotFound {
		t.Errorf("KindOf(wrapped) = %v, want NotFound", got)
	}
	if got := ExitCodeOf(outer); got != 3 {
		t.Errorf("ExitCodeOf(wrapped) = %d, want 3", got)
	}
}

func TestKindOfPlainError(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != General {
		t.Errorf("KindOf(plain) = %v, want General", got)
	}
}

func TestIsMatchesOnKind(t *testing.T) {
	err := Wrap(Decryption, errors.New("bad tag"), "opening vault")
	if !errors.Is(err, New(Decryption, "")) {
		t.Error("errors.Is did not match same-kind error")
	}
	if errors.Is(err, New(Io, "")) {
		t.Error("errors.Is matched different-kind error")
	}
}

func TestMessageExcludesCause(t *testing.T) {
	err := Wrap(Io, errors.New("disk full"), "writing vault")
	if err.Message() != "writing vault" {
		t.Errorf("Message() = %q", err.Message())
	}
	if err.Error() != "writing vault: disk full" {
		t.Errorf("Error() = %q", err.Error())
	}
}
