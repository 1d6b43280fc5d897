// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import "time"

// Policy defines which secrets a scope can access: an ordered list of
// allow globs, an ordered list of deny globs, and a run-only flag.
// A secret name is authorized when at least one allow pattern matches
// and no deny pattern matches. Deny overrides allow. The empty allow
// list denies everything.
//
// Field numbers are part of the vault wire format — never renumber.
type Policy struct {
	// Name is the unique policy identifier, matching
	// [a-z0-9][a-z0-9-]*.
	Name string `cbor:"1,keyasint"`

	// Allow is the ordered list of glob patterns granting access.
	Allow []string `cbor:"2,keyasint,omitempty"`

	// Deny is the ordered list of glob patterns revoking access.
	Deny []string `cbor:"3,keyasint,omitempty"`

	// Description is free-form operator text.
	Description string `cbor:"4,keyasint,omitempty"`

	// RunOnly restricts any authorization context carrying this
	// policy to subprocess injection: values may be placed in a
	// child's environment but never read directly.
	RunOnly bool `cbor:"5,keyasint,omitempty"`

	// CreatedAt and ModifiedAt are UTC, second resolution.
	CreatedAt  time.Time `cbor:"6,keyasint"`
	ModifiedAt time.Time `cbor:"7,keyasint"`
}

// New constructs a policy with both timestamps set to now.
func New(name string, allow, deny []string, now time.Time) Policy {
	now = now.UTC().Truncate(time.Second)
	return Policy{
		Name:       name,
		Allow:      allow,
		Deny:       deny,
		CreatedAt:  now,
		ModifiedAt: now,
	}
}

// CanRead reports whether the policy authorizes reading the named
// secret. Pure function of the policy and the name.
func (p *Policy) CanRead(secretName string) bool {
	if MatchAnyPattern(p.Deny, secretName) {
		return false
	}
	return MatchAnyPattern(p.Allow, secretName)
}

// Filter returns the subset of names the policy authorizes, in the
// order given. Used by list/run/env/export to produce the visible set.
func (p *Policy) Filter(names []string) []string {
	allowed := make([]string, 0, len(names))
	for _, name := range names {
		if p.CanRead(name) {
			allowed = append(allowed, name)
		}
	}
	return allowed
}
