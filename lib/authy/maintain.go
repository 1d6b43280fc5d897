// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package authy

import (
	"fmt"

	"github.com/authy-sh/authy/lib/audit"
	"github.com/authy-sh/authy/lib/clock"
	"github.com/authy-sh/authy/lib/secret"
	"github.com/authy-sh/authy/lib/vault"
)

// Init creates a fresh vault under the given key and records the
// first audit entry. Fails with AlreadyExists when a vault is already
// present. The key is not consumed; the caller still owns it.
func Init(paths vault.Paths, key vault.Key, clk clock.Clock) error {
	v, err := vault.Init(paths, key, clk.Now())
	if err != nil {
		return err
	}
	defer v.Close()

	auditKey, err := v.AuditKey()
	if err != nil {
		return err
	}
	defer secret.Zero(auditKey)

	return audit.Append(paths.AuditPath(), auditKey, opInit, "", key.Actor(), audit.OutcomeSuccess, "vault created", clk.Now())
}

// AuditEntries reads the audit log. No vault decryption is needed —
// the log is plain text; only verification needs the derived key.
func (c *Client) AuditEntries() ([]audit.Entry, error) {
	return audit.ReadEntries(c.paths.AuditPath())
}

// VerifyAuditChain recomputes the whole HMAC chain. Returns the
// number of verified entries; a broken chain reports the first bad
// sequence.
func (c *Client) VerifyAuditChain() (int, error) {
	v, err := c.load()
	if err != nil {
		return 0, err
	}
	defer v.Close()

	auditKey, err := v.AuditKey()
	if err != nil {
		return 0, err
	}
	defer secret.Zero(auditKey)

	return audit.Verify(c.paths.AuditPath(), auditKey)
}

// Rekey re-encrypts the vault under new credentials and mints fresh
// master key material. Every outstanding session dies with the old
// session key and is dropped from the vault. The audit log is
// archived aside so the new chain — keyed by the new audit key —
// starts cleanly at sequence 1. The old material is zeroed and not
// kept, so the archived file can no longer be verified.
//
// The new key is not consumed; the caller owns both keys.
func (c *Client) Rekey(newKey vault.Key) error {
	if err := c.requireWrite("rekey"); err != nil {
		return err
	}

	v, err := c.load()
	if err != nil {
		return err
	}
	defer v.Close()

	fresh, err := vault.New(c.clk.Now())
	if err != nil {
		return err
	}
	secret.Zero(v.MasterKeyMaterial)
	v.MasterKeyMaterial = fresh.MasterKeyMaterial
	sessionCount := len(v.Sessions)
	v.Sessions = nil
	v.Touch(c.clk.Now())

	if err := vault.Save(v, c.paths, newKey); err != nil {
		return err
	}

	if _, err := audit.Archive(c.paths.AuditPath(), c.clk.Now()); err != nil {
		return err
	}

	auditKey, err := v.AuditKey()
	if err != nil {
		return err
	}
	defer secret.Zero(auditKey)
	detail := fmt.Sprintf("vault re-encrypted; %d sessions invalidated", sessionCount)
	return audit.Append(c.paths.AuditPath(), auditKey, opRekey, "", c.context.Actor, audit.OutcomeSuccess, detail, c.clk.Now())
}
