// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"crypto/rand"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/authy-sh/authy/lib/errcode"
)

// HKDF info strings for the two subsidiary keys. These are part of the
// persisted contract: vaults must derive bit-identical subkeys across
// implementations.
const (
	sessionKeyInfo = "authy.session.v1"
	auditKeyInfo   = "authy.audit.v1"
)

// SessionKey derives the 32-byte HMAC key for session tokens from the
// master key material. The caller must zero the returned slice when
// the operation completes.
func (v *Vault) SessionKey() ([]byte, error) {
	return deriveSubkey(v.MasterKeyMaterial, sessionKeyInfo)
}

// AuditKey derives the 32-byte HMAC key for the audit chain from the
// master key material. The caller must zero the returned slice when
// the operation completes.
func (v *Vault) AuditKey() ([]byte, error) {
	return deriveSubkey(v.MasterKeyMaterial, auditKeyInfo)
}

// deriveSubkey runs HKDF-SHA256 with a nil salt and the given info
// string, producing a reproducible 32-byte subkey.
func deriveSubkey(material []byte, info string) ([]byte, error) {
	reader := hkdf.New(sha256.New, material, nil, []byte(info))
	subkey := make([]byte, 32)
	if _, err := io.ReadFull(reader, subkey); err != nil {
		return nil, errcode.Wrap(errcode.General, err, "deriving %s subkey", info)
	}
	return subkey, nil
}

// randomBytes returns n bytes from the OS CSPRNG — the sole source of
// random material in the system.
func randomBytes(n int) ([]byte, error) {
	buffer := make([]byte, n)
	if _, err := rand.Read(buffer); err != nil {
		return nil, errcode.Wrap(errcode.General, err, "reading system randomness")
	}
	return buffer, nil
}
