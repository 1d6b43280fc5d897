// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"bytes"
	"strings"
	"testing"

	"github.com/authy-sh/authy/lib/errcode"
)

func TestTransformName(t *testing.T) {
	tests := []struct {
		name   string
		naming Naming
		input  string
		want   string
	}{
		{"identity", Naming{}, "db-url", "db-url"},
		{"dash only", Naming{ReplaceDash: "_"}, "db-dev-url", "db_dev_url"},
		{"uppercase only", Naming{Uppercase: true}, "db-url", "DB-URL"},
		{"prefix only", Naming{Prefix: "app_"}, "db-url", "app_db-url"},
		{
			// Order: dash, then prefix, then uppercase — the prefix
			// is uppercased too.
			"all three",
			Naming{ReplaceDash: "_", Prefix: "app_", Uppercase: true},
			"db-dev-url",
			"APP_DB_DEV_URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TransformName(tt.input, tt.naming); got != tt.want {
				t.Errorf("TransformName(%q, %+v) = %q, want %q", tt.input, tt.naming, got, tt.want)
			}
		})
	}
}

func TestBuildEnvCollisionLastWins(t *testing.T) {
	var warnings bytes.Buffer
	entries := BuildEnv(
		[]string{"db-url", "db_url"},
		map[string]string{"db-url": "first", "db_url": "second"},
		Naming{ReplaceDash: "_"},
		&warnings,
	)

	if len(entries) != 1 {
		t.Fatalf("entry count = %d, want 1 after collision", len(entries))
	}
	if entries[0].Value != "second" {
		t.Errorf("collision winner = %q, want last writer", entries[0].Value)
	}
	if !strings.Contains(warnings.String(), "db_url") {
		t.Errorf("no collision warning emitted: %q", warnings.String())
	}
}

func TestBuildEnvPreservesOrder(t *testing.T) {
	entries := BuildEnv(
		[]string{"zeta", "alpha"},
		map[string]string{"zeta": "1", "alpha": "2"},
		Naming{Uppercase: true},
		nil,
	)
	if len(entries) != 2 || entries[0].Key != "ZETA" || entries[1].Key != "ALPHA" {
		t.Errorf("entries = %+v, want ZETA then ALPHA", entries)
	}
}

func TestRunPropagatesExitCode(t *testing.T) {
	code, err := Run([]string{"sh", "-c", "exit 42"}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 42 {
		t.Errorf("exit code = %d, want 42", code)
	}
}

func TestRunInjectsEnvironment(t *testing.T) {
	code, err := Run(
		[]string{"sh", "-c", `[ "$DB_URL" = "postgres://x" ]`},
		[]EnvEntry{{SecretName: "db-url", Key: "DB_URL", Value: "postgres://x"}},
	)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 0 {
		t.Error("injected variable not visible to child")
	}
}

func TestRunStripsParentCredentials(t *testing.T) {
	t.Setenv("AUTHY_PASSPHRASE", "super-secret")
	t.Setenv("AUTHY_TOKEN", "authy_v1.xxxx")

	code, err := Run([]string{"sh", "-c", `[ -z "$AUTHY_PASSPHRASE" ] && [ -z "$AUTHY_TOKEN" ]`}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 0 {
		t.Error("parent credentials leaked into child environment")
	}
}

func TestRunSignalExit(t *testing.T) {
	code, err := Run([]string{"sh", "-c", "kill -TERM $$"}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 128+15 {
		t.Errorf("exit code = %d, want %d for SIGTERM", code, 128+15)
	}
}

func TestRunSpawnFailure(t *testing.T) {
	_, err := Run([]string{"/nonexistent/definitely-not-a-binary"}, nil)
	if errcode.KindOf(err) != errcode.Subprocess {
		t.Errorf("spawn failure = %v, want Subprocess", err)
	}
}

func TestRunEmptyArgv(t *testing.T) {
	if _, err := Run(nil, nil); errcode.KindOf(err) != errcode.Subprocess {
		t.Errorf("empty argv = %v, want Subprocess", err)
	}
}
