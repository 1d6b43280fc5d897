// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"os"
	"path/filepath"

	"github.com/authy-sh/authy/lib/errcode"
)

// Paths resolves the on-disk layout:
//
//	<home>/.authy/
//	  vault.age        encrypted vault
//	  audit.log        HMAC-chained audit log (plain text)
//	  keys/master.key  generated identity (only with --generate-keyfile)
//
// The .authy directory name is fixed and part of the external
// contract. Component code receives a Paths value rather than reading
// process-global state, so tests (and the --vault-dir flag) can point
// at a scratch directory.
type Paths struct {
	// Dir is the .authy directory.
	Dir string
}

// DefaultPaths resolves <home>/.authy from the OS home directory
// convention.
func DefaultPaths() (Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, errcode.Wrap(errcode.Io, err, "resolving home directory")
	}
	return Paths{Dir: filepath.Join(home, ".authy")}, nil
}

// PathsAt points the layout at an explicit directory.
func PathsAt(dir string) Paths {
	return Paths{Dir: dir}
}

// VaultPath is the encrypted vault file.
func (p Paths) VaultPath() string { return filepath.Join(p.Dir, "vault.age") }

// AuditPath is the plain-text audit log.
func (p Paths) AuditPath() string { return filepath.Join(p.Dir, "audit.log") }

// KeysDir holds generated identity files.
func (p Paths) KeysDir() string { return filepath.Join(p.Dir, "keys") }

// DefaultKeyfilePath is the location used when --generate-keyfile is
// given without an explicit path.
func (p Paths) DefaultKeyfilePath() string { return filepath.Join(p.KeysDir(), "master.key") }

// Initialized reports whether the vault file exists.
func (p Paths) Initialized() bool {
	_, err := os.Stat(p.VaultPath())
	return err == nil
}

// EnsureDir creates the .authy directory owner-only if missing.
func (p Paths) EnsureDir() error {
	if err := os.MkdirAll(p.Dir, 0o700); err != nil {
		return errcode.Wrap(errcode.Io, err, "creating %s", p.Dir)
	}
	// MkdirAll leaves existing directories' modes alone; enforce.
	if err := os.Chmod(p.Dir, 0o700); err != nil {
		return errcode.Wrap(errcode.Io, err, "restricting %s", p.Dir)
	}
	return nil
}
