// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package authy

import (
	"github.com/authy-sh/authy/lib/audit"
	"github.com/authy-sh/authy/lib/auth"
	"github.com/authy-sh/authy/lib/clock"
	"github.com/authy-sh/authy/lib/errcode"
	"github.com/authy-sh/authy/lib/secret"
	"github.com/authy-sh/authy/lib/vault"
)

// Operation tags recorded on audit entries.
const (
	opSecretRead    = "secret.read"
	opSecretWrite   = "secret.write"
	opSecretRemove  = "secret.remove"
	opSecretRotate  = "secret.rotate"
	opSecretList    = "secret.list"
	opPolicyCreate  = "policy.create"
	opPolicyUpdate  = "policy.update"
	opPolicyDelete  = "policy.delete"
	opPolicyTest    = "policy.test"
	opSessionCreate = "session.create"
	opSessionRevoke = "session.revoke"
	opRun           = "subprocess.run"
	opEnvExport     = "env.export"
	opResolve       = "template.resolve"
	opInit          = "vault.init"
	opRekey         = "vault.rekey"
)

// Client is the programmatic facade: one method per logical
// operation. The CLI handlers, TUI, MCP tools, and language bindings
// all go through it — nothing bypasses into lower layers.
//
// Each method opens the vault, performs its operation, persists when
// it mutated, appends an audit entry, and returns a typed result or a
// typed error. Audit ordering is deliberate: reads (and read denials)
// append before returning, so a denied read survives a later crash;
// mutations append only after the vault rename succeeds, so the log
// never claims a mutation that did not persist.
type Client struct {
	paths   vault.Paths
	key     vault.Key
	context auth.Context
	clk     clock.Clock

	// preloaded is the vault the auth resolver already decrypted for
	// token validation; the first operation consumes it instead of
	// loading twice.
	preloaded *vault.Vault

	// auditDisabled suppresses audit appends (config escape hatch;
	// on by default).
	auditDisabled bool
}

// Option configures a Client.
type Option func(*Client)

// WithClock injects a clock (tests).
func WithClock(clk clock.Clock) Option {
	return func(c *Client) { c.clk = clk }
}

// WithAuditDisabled turns off audit appends. Honors the operator's
// audit_enabled config switch.
func WithAuditDisabled() Option {
	return func(c *Client) { c.auditDisabled = true }
}

// NewClient builds a facade from a completed credential resolution.
// The client takes ownership of the resolution's key and any
// preloaded vault; call Close when done.
func NewClient(resolution *auth.Resolution, paths vault.Paths, options ...Option) *Client {
	client := &Client{
		paths:     paths,
		key:       resolution.Key,
		context:   resolution.Context,
		clk:       clock.Real(),
		preloaded: resolution.Vault,
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// Open resolves credentials and builds a Client in one step.
func Open(credentials auth.Credentials, paths vault.Paths, options ...Option) (*Client, error) {
	client := &Client{paths: paths, clk: clock.Real()}
	for _, option := range options {
		option(client)
	}
	resolution, err := auth.Resolve(credentials, paths, client.clk)
	if err != nil {
		return nil, err
	}
	client.key = resolution.Key
	client.context = resolution.Context
	client.preloaded = resolution.Vault
	return client, nil
}

// Context returns the caller's authorization context.
func (c *Client) Context() auth.Context { return c.context }

// Close releases the client's key material and any unconsumed vault.
func (c *Client) Close() error {
	if c.preloaded != nil {
		c.preloaded.Close()
		c.preloaded = nil
	}
	return c.key.Close()
}

// load opens the vault, consuming the resolver's preloaded copy when
// present. The caller must Close the returned vault.
func (c *Client) load() (*vault.Vault, error) {
	if c.preloaded != nil {
		v := c.preloaded
		c.preloaded = nil
		return v, nil
	}
	return vault.Load(c.paths, c.key)
}

// requireWrite rejects token-authenticated callers. This is the
// load-bearing guarantee that tokens cannot escalate: every mutation
// path calls it before touching the vault.
func (c *Client) requireWrite(operation string) error {
	if c.context.IsToken {
		return errcode.New(errcode.TokenReadOnly, "%s requires master credentials: session tokens are read-only", operation)
	}
	return nil
}

// appendAudit writes one entry to the chain using the vault's derived
// audit key.
func (c *Client) appendAudit(v *vault.Vault, operation, secretName, outcome, detail string) error {
	if c.auditDisabled {
		return nil
	}
	auditKey, err := v.AuditKey()
	if err != nil {
		return err
	}
	defer secret.Zero(auditKey)
	return audit.Append(c.paths.AuditPath(), auditKey, operation, secretName, c.context.Actor, outcome, detail, c.clk.Now())
}

// scopeAllows evaluates the caller's scope policy for a secret name.
// Master contexts see everything; token contexts are bounded by their
// scope policy, which the resolver already confirmed exists.
func (c *Client) scopeAllows(v *vault.Vault, secretName string) (bool, error) {
	if !c.context.IsToken {
		return true, nil
	}
	scopePolicy := v.Policy(c.context.Scope)
	if scopePolicy == nil {
		return false, errcode.New(errcode.NotFound, "policy not found: %s", c.context.Scope)
	}
	return scopePolicy.CanRead(secretName), nil
}
