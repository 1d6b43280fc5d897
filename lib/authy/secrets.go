// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package authy

import (
	"fmt"
	"time"

	"github.com/authy-sh/authy/lib/audit"
	"github.com/authy-sh/authy/lib/errcode"
	"github.com/authy-sh/authy/lib/secret"
	"github.com/authy-sh/authy/lib/vault"
)

// SecretInfo is the metadata view of a secret — everything except the
// value.
type SecretInfo struct {
	Name       string    `json:"name"`
	Version    uint32    `json:"version"`
	Tags       []string  `json:"tags,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

func infoOf(entry *vault.SecretEntry) SecretInfo {
	return SecretInfo{
		Name:       entry.Name,
		Version:    entry.Version,
		Tags:       entry.Tags,
		CreatedAt:  entry.CreatedAt,
		ModifiedAt: entry.ModifiedAt,
	}
}

// Get returns the named secret's value. Run-only contexts are blocked;
// token contexts are bounded by their scope policy. The audit entry
// for the read — including denials — is appended before returning.
// The caller owns the returned buffer and must Close it.
func (c *Client) Get(name string) (*secret.Buffer, error) {
	v, err := c.load()
	if err != nil {
		return nil, err
	}
	defer v.Close()

	if c.context.RunOnly {
		if err := c.appendAudit(v, opSecretRead, name, audit.OutcomeDenied, "run-only context"); err != nil {
			return nil, err
		}
		return nil, errcode.New(errcode.AccessDenied, "run-only access: secret values cannot be read directly, use `authy run`")
	}

	allowed, err := c.scopeAllows(v, name)
	if err != nil {
		return nil, err
	}
	if !allowed {
		if err := c.appendAudit(v, opSecretRead, name, audit.OutcomeDenied, "scope "+c.context.Scope); err != nil {
			return nil, err
		}
		return nil, errcode.New(errcode.AccessDenied, "access denied: secret %q not allowed by scope %q", name, c.context.Scope)
	}

	entry := v.Secret(name)
	if entry == nil {
		if err := c.appendAudit(v, opSecretRead, name, audit.OutcomeFailure, "not found"); err != nil {
			return nil, err
		}
		return nil, errcode.New(errcode.NotFound, "secret not found: %s", name)
	}

	if err := c.appendAudit(v, opSecretRead, name, audit.OutcomeSuccess, ""); err != nil {
		return nil, err
	}

	value := make([]byte, len(entry.Value))
	copy(value, entry.Value)
	return secret.NewFromBytes(value)
}

// GetOrNone is Get, except a missing secret returns (nil, nil).
func (c *Client) GetOrNone(name string) (*secret.Buffer, error) {
	buffer, err := c.Get(name)
	if errcode.KindOf(err) == errcode.NotFound {
		return nil, nil
	}
	return buffer, err
}

// Store creates a secret. Without force, an existing name fails with
// AlreadyExists; with force, the call degrades to a rotation. Consumes
// the value buffer.
func (c *Client) Store(name string, value *secret.Buffer, tags []string, force bool) (SecretInfo, error) {
	defer value.Close()

	if err := c.requireWrite("store"); err != nil {
		return SecretInfo{}, err
	}
	if err := vault.ValidateName(name); err != nil {
		return SecretInfo{}, err
	}

	v, err := c.load()
	if err != nil {
		return SecretInfo{}, err
	}
	defer v.Close()

	now := c.clk.Now().UTC().Truncate(time.Second)

	if existing := v.Secret(name); existing != nil {
		if !force {
			if err := c.appendAudit(v, opSecretWrite, name, audit.OutcomeFailure, "already exists"); err != nil {
				return SecretInfo{}, err
			}
			return SecretInfo{}, errcode.New(errcode.AlreadyExists, "secret already exists: %s (use --force to overwrite)", name)
		}
		return c.rotateEntry(v, existing, value, now, opSecretWrite)
	}

	v.PutSecret(vault.SecretEntry{
		Name:       name,
		Value:      append([]byte(nil), value.Bytes()...),
		Version:    1,
		Tags:       tags,
		CreatedAt:  now,
		ModifiedAt: now,
	})
	v.Touch(now)

	if err := vault.Save(v, c.paths, c.key); err != nil {
		return SecretInfo{}, err
	}
	if err := c.appendAudit(v, opSecretWrite, name, audit.OutcomeSuccess, "stored v1"); err != nil {
		return SecretInfo{}, err
	}
	return infoOf(v.Secret(name)), nil
}

// Rotate replaces an existing secret's value, bumping its version and
// preserving created_at. Consumes the value buffer.
func (c *Client) Rotate(name string, value *secret.Buffer) (SecretInfo, error) {
	defer value.Close()

	if err := c.requireWrite("rotate"); err != nil {
		return SecretInfo{}, err
	}

	v, err := c.load()
	if err != nil {
		return SecretInfo{}, err
	}
	defer v.Close()

	entry := v.Secret(name)
	if entry == nil {
		if err := c.appendAudit(v, opSecretRotate, name, audit.OutcomeFailure, "not found"); err != nil {
			return SecretInfo{}, err
		}
		return SecretInfo{}, errcode.New(errcode.NotFound, "secret not found: %s", name)
	}

	now := c.clk.Now().UTC().Truncate(time.Second)
	return c.rotateEntry(v, entry, value, now, opSecretRotate)
}

// rotateEntry swaps in the new value, bumps the version, saves, and
// audits. Shared by Rotate and force-Store.
func (c *Client) rotateEntry(v *vault.Vault, entry *vault.SecretEntry, value *secret.Buffer, now time.Time, operation string) (SecretInfo, error) {
	secret.Zero(entry.Value)
	entry.Value = append([]byte(nil), value.Bytes()...)
	entry.Version++
	entry.ModifiedAt = now
	v.Touch(now)

	if err := vault.Save(v, c.paths, c.key); err != nil {
		return SecretInfo{}, err
	}
	if err := c.appendAudit(v, operation, entry.Name, audit.OutcomeSuccess, fmt.Sprintf("rotated to v%d", entry.Version)); err != nil {
		return SecretInfo{}, err
	}
	return infoOf(entry), nil
}

// Remove deletes a secret.
func (c *Client) Remove(name string) error {
	if err := c.requireWrite("remove"); err != nil {
		return err
	}

	v, err := c.load()
	if err != nil {
		return err
	}
	defer v.Close()

	if !v.DeleteSecret(name) {
		if err := c.appendAudit(v, opSecretRemove, name, audit.OutcomeFailure, "not found"); err != nil {
			return err
		}
		return errcode.New(errcode.NotFound, "secret not found: %s", name)
	}
	v.Touch(c.clk.Now())

	if err := vault.Save(v, c.paths, c.key); err != nil {
		return err
	}
	return c.appendAudit(v, opSecretRemove, name, audit.OutcomeSuccess, "")
}

// List returns secret metadata in insertion order, never values.
// Token contexts see only their scope's subset; an explicit scope
// filters for master contexts too. Run-only contexts may list.
func (c *Client) List(scope string) ([]SecretInfo, error) {
	v, err := c.load()
	if err != nil {
		return nil, err
	}
	defer v.Close()

	if c.context.IsToken {
		// A token is always bounded by its own scope, whatever the
		// caller asked for.
		scope = c.context.Scope
	}

	visible := v.SecretNames()
	if scope != "" {
		scopePolicy := v.Policy(scope)
		if scopePolicy == nil {
			return nil, errcode.New(errcode.NotFound, "policy not found: %s", scope)
		}
		visible = scopePolicy.Filter(visible)
	}

	infos := make([]SecretInfo, 0, len(visible))
	for _, name := range visible {
		infos = append(infos, infoOf(v.Secret(name)))
	}

	if err := c.appendAudit(v, opSecretList, "", audit.OutcomeSuccess, fmt.Sprintf("%d visible", len(infos))); err != nil {
		return nil, err
	}
	return infos, nil
}
