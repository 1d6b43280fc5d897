// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package authy

import (
	"time"

	"github.com/authy-sh/authy/lib/audit"
	"github.com/authy-sh/authy/lib/errcode"
	"github.com/authy-sh/authy/lib/policy"
	"github.com/authy-sh/authy/lib/vault"
)

// PolicySpec carries the mutable fields of a policy for create and
// update calls.
type PolicySpec struct {
	Allow       []string
	Deny        []string
	Description string
	RunOnly     bool
}

// CreatePolicy adds a new policy to the vault.
func (c *Client) CreatePolicy(name string, spec PolicySpec) error {
	if err := c.requireWrite("policy create"); err != nil {
		return err
	}
	if err := vault.ValidateName(name); err != nil {
		return err
	}

	v, err := c.load()
	if err != nil {
		return err
	}
	defer v.Close()

	if v.Policy(name) != nil {
		return errcode.New(errcode.AlreadyExists, "policy already exists: %s", name)
	}

	now := c.clk.Now()
	created := policy.New(name, spec.Allow, spec.Deny, now)
	created.Description = spec.Description
	created.RunOnly = spec.RunOnly
	v.PutPolicy(created)
	v.Touch(now)

	if err := vault.Save(v, c.paths, c.key); err != nil {
		return err
	}
	return c.appendAudit(v, opPolicyCreate, "", audit.OutcomeSuccess, "policy="+name)
}

// UpdatePolicy replaces an existing policy's allow/deny lists,
// description, and run-only flag, preserving created_at.
func (c *Client) UpdatePolicy(name string, spec PolicySpec) error {
	if err := c.requireWrite("policy update"); err != nil {
		return err
	}

	v, err := c.load()
	if err != nil {
		return err
	}
	defer v.Close()

	existing := v.Policy(name)
	if existing == nil {
		return errcode.New(errcode.NotFound, "policy not found: %s", name)
	}

	now := c.clk.Now().UTC().Truncate(time.Second)
	existing.Allow = spec.Allow
	existing.Deny = spec.Deny
	existing.Description = spec.Description
	existing.RunOnly = spec.RunOnly
	existing.ModifiedAt = now
	v.Touch(now)

	if err := vault.Save(v, c.paths, c.key); err != nil {
		return err
	}
	return c.appendAudit(v, opPolicyUpdate, "", audit.OutcomeSuccess, "policy="+name)
}

// DeletePolicy removes a policy. Sessions bound to the policy are
// left in place deliberately: they fail validation at next use, which
// is equivalent to revocation without rewriting session records.
func (c *Client) DeletePolicy(name string) error {
	if err := c.requireWrite("policy delete"); err != nil {
		return err
	}

	v, err := c.load()
	if err != nil {
		return err
	}
	defer v.Close()

	if !v.DeletePolicy(name) {
		return errcode.New(errcode.NotFound, "policy not found: %s", name)
	}
	v.Touch(c.clk.Now())

	if err := vault.Save(v, c.paths, c.key); err != nil {
		return err
	}
	return c.appendAudit(v, opPolicyDelete, "", audit.OutcomeSuccess, "policy="+name)
}

// ListPolicies returns copies of all policies in insertion order.
func (c *Client) ListPolicies() ([]policy.Policy, error) {
	v, err := c.load()
	if err != nil {
		return nil, err
	}
	defer v.Close()

	policies := make([]policy.Policy, len(v.Policies))
	copy(policies, v.Policies)
	return policies, nil
}

// TestPolicy evaluates whether a scope allows a secret name. The
// authorization decision — granted or denied — is audited before
// returning.
func (c *Client) TestPolicy(scope, secretName string) (bool, error) {
	v, err := c.load()
	if err != nil {
		return false, err
	}
	defer v.Close()

	scopePolicy := v.Policy(scope)
	if scopePolicy == nil {
		return false, errcode.New(errcode.NotFound, "policy not found: %s", scope)
	}

	allowed := scopePolicy.CanRead(secretName)
	outcome := audit.OutcomeDenied
	if allowed {
		outcome = audit.OutcomeGranted
	}
	if err := c.appendAudit(v, opPolicyTest, secretName, outcome, "scope="+scope); err != nil {
		return false, err
	}
	return allowed, nil
}
