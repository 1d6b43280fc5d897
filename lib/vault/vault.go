// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"regexp"
	"time"

	"github.com/authy-sh/authy/lib/errcode"
	"github.com/authy-sh/authy/lib/policy"
	"github.com/authy-sh/authy/lib/secret"
	"github.com/authy-sh/authy/lib/session"
)

// FormatVersion is the vault schema version. Load refuses anything
// else.
const FormatVersion = 1

// masterMaterialSize is the size of the master key material minted at
// initialization.
const masterMaterialSize = 32

// namePattern is the grammar for secret and policy names.
var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// ValidateName checks a secret or policy name against the
// [a-z0-9][a-z0-9-]* grammar.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return errcode.New(errcode.General, "invalid name %q: want [a-z0-9][a-z0-9-]*", name)
	}
	return nil
}

// SecretEntry is a single named secret. Entries keep their insertion
// order in the vault for stable iteration.
//
// Field numbers are part of the vault wire format — never renumber.
type SecretEntry struct {
	Name string `cbor:"1,keyasint"`

	// Value is the secret bytes. Zeroed when the vault is closed.
	Value []byte `cbor:"2,keyasint"`

	// Version starts at 1 and increments on every rotate.
	Version uint32 `cbor:"3,keyasint"`

	Tags []string `cbor:"4,keyasint,omitempty"`

	CreatedAt  time.Time `cbor:"5,keyasint"`
	ModifiedAt time.Time `cbor:"6,keyasint"`
}

// Vault is the in-memory root aggregate: secrets, policies, session
// records, and the master key material, all held only while a single
// operation runs.
//
// Secrets and policies are ordered sequences rather than maps so that
// insertion order survives the deterministic CBOR encoding (which
// would sort map keys).
type Vault struct {
	Version uint32 `cbor:"1,keyasint"`

	CreatedAt  time.Time `cbor:"2,keyasint"`
	ModifiedAt time.Time `cbor:"3,keyasint"`

	// MasterKeyMaterial is 32 CSPRNG bytes minted at init. It never
	// leaves memory unencrypted and is the HKDF input for the
	// session and audit HMAC keys. Fixed for the vault's lifetime;
	// Rekey mints fresh material.
	MasterKeyMaterial []byte `cbor:"4,keyasint"`

	Secrets  []SecretEntry    `cbor:"5,keyasint,omitempty"`
	Policies []policy.Policy  `cbor:"6,keyasint,omitempty"`
	Sessions []session.Record `cbor:"7,keyasint,omitempty"`
}

// New constructs an empty vault with fresh master key material.
func New(now time.Time) (*Vault, error) {
	material, err := randomBytes(masterMaterialSize)
	if err != nil {
		return nil, err
	}
	now = now.UTC().Truncate(time.Second)
	return &Vault{
		Version:           FormatVersion,
		CreatedAt:         now,
		ModifiedAt:        now,
		MasterKeyMaterial: material,
	}, nil
}

// Touch advances the modified timestamp.
func (v *Vault) Touch(now time.Time) {
	v.ModifiedAt = now.UTC().Truncate(time.Second)
}

// Close zeroizes the master key material and every secret value. Call
// on every exit path once the operation no longer needs plaintext.
func (v *Vault) Close() {
	secret.Zero(v.MasterKeyMaterial)
	for index := range v.Secrets {
		secret.Zero(v.Secrets[index].Value)
	}
}

// Secret returns the entry with the given name, or nil.
func (v *Vault) Secret(name string) *SecretEntry {
	for index := range v.Secrets {
		if v.Secrets[index].Name == name {
			return &v.Secrets[index]
		}
	}
	return nil
}

// SecretNames returns all secret names in insertion order.
func (v *Vault) SecretNames() []string {
	names := make([]string, len(v.Secrets))
	for index := range v.Secrets {
		names[index] = v.Secrets[index].Name
	}
	return names
}

// PutSecret appends a new entry, preserving insertion order. The name
// must not already exist (callers decide force/rotate semantics).
func (v *Vault) PutSecret(entry SecretEntry) {
	v.Secrets = append(v.Secrets, entry)
}

// DeleteSecret removes the named entry, zeroing its value. Reports
// whether it existed.
func (v *Vault) DeleteSecret(name string) bool {
	for index := range v.Secrets {
		if v.Secrets[index].Name == name {
			secret.Zero(v.Secrets[index].Value)
			v.Secrets = append(v.Secrets[:index], v.Secrets[index+1:]...)
			return true
		}
	}
	return false
}

// Policy returns the named policy, or nil.
func (v *Vault) Policy(name string) *policy.Policy {
	for index := range v.Policies {
		if v.Policies[index].Name == name {
			return &v.Policies[index]
		}
	}
	return nil
}

// PutPolicy appends a new policy, preserving insertion order.
func (v *Vault) PutPolicy(p policy.Policy) {
	v.Policies = append(v.Policies, p)
}

// DeletePolicy removes the named policy. Sessions bound to it are left
// in place and fail validation at next use. Reports whether it existed.
func (v *Vault) DeletePolicy(name string) bool {
	for index := range v.Policies {
		if v.Policies[index].Name == name {
			v.Policies = append(v.Policies[:index], v.Policies[index+1:]...)
			return true
		}
	}
	return false
}

// Session returns the session record with the given id, or nil.
func (v *Vault) Session(id string) *session.Record {
	for index := range v.Sessions {
		if v.Sessions[index].ID == id {
			return &v.Sessions[index]
		}
	}
	return nil
}

// validate checks the decoded vault's schema invariants. The version
// gate runs before anything trusts the payload shape.
func (v *Vault) validate() error {
	if v.Version != FormatVersion {
		return errcode.New(errcode.Serialization, "unsupported vault schema version %d (want %d)", v.Version, FormatVersion)
	}
	if len(v.MasterKeyMaterial) != masterMaterialSize {
		return errcode.New(errcode.Serialization, "vault master key material is %d bytes (want %d)", len(v.MasterKeyMaterial), masterMaterialSize)
	}
	return nil
}
