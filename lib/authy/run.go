// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package authy

import (
	"fmt"
	"io"
	"regexp"

	"github.com/authy-sh/authy/lib/audit"
	"github.com/authy-sh/authy/lib/dispatch"
	"github.com/authy-sh/authy/lib/errcode"
	"github.com/authy-sh/authy/lib/vault"
)

// resolveScope picks the effective scope: a token context is always
// bounded by its own scope; master contexts use the explicit value.
func (c *Client) resolveScope(scope string) string {
	if c.context.IsToken {
		return c.context.Scope
	}
	return scope
}

// EnvMap produces the injected environment for a scope: filtered
// secret names transformed into variable names, values attached.
// Run-only contexts are blocked — this is the value-emitting path
// used by env and export. The export event is audited (scope and
// count only) before returning.
func (c *Client) EnvMap(scope string, naming dispatch.Naming, warn io.Writer) ([]dispatch.EnvEntry, error) {
	scope = c.resolveScope(scope)
	if scope == "" {
		return nil, errcode.New(errcode.General, "no scope: pass --scope or add .authy.jsonc")
	}

	v, err := c.load()
	if err != nil {
		return nil, err
	}
	defer v.Close()

	if c.context.RunOnly {
		if err := c.appendAudit(v, opEnvExport, "", audit.OutcomeDenied, "run-only context"); err != nil {
			return nil, err
		}
		return nil, errcode.New(errcode.AccessDenied, "run-only access: use `authy run` to inject secrets")
	}

	entries := c.filteredEntries(v, scope, naming, warn)
	if err := c.appendAudit(v, opEnvExport, "", audit.OutcomeSuccess, fmt.Sprintf("scope=%s secrets=%d", scope, len(entries))); err != nil {
		return nil, err
	}
	return entries, nil
}

// Run dispatches a subprocess with the scope's secrets injected into
// its environment. Run-only contexts are permitted — injection is
// exactly what run-only grants. The dispatch is audited (scope and
// injected count, not names) before the child spawns. Returns the
// child's exit code.
func (c *Client) Run(scope string, naming dispatch.Naming, argv []string, warn io.Writer) (int, error) {
	scope = c.resolveScope(scope)

	v, err := c.load()
	if err != nil {
		return 0, err
	}

	var entries []dispatch.EnvEntry
	if scope != "" && v.Policy(scope) != nil {
		entries = c.filteredEntries(v, scope, naming, warn)
	}
	// Unresolvable scope: empty injection, the child still runs.

	if err := c.appendAudit(v, opRun, "", audit.OutcomeSuccess, fmt.Sprintf("scope=%s injected=%d", scope, len(entries))); err != nil {
		v.Close()
		return 0, err
	}

	// Plaintext leaves the vault only as the child's environment;
	// close the vault before blocking on the child.
	v.Close()

	return dispatch.Run(argv, entries)
}

// filteredEntries applies the scope policy and naming transform. An
// unknown scope or one that denies everything yields an empty list.
func (c *Client) filteredEntries(v *vault.Vault, scope string, naming dispatch.Naming, warn io.Writer) []dispatch.EnvEntry {
	scopePolicy := v.Policy(scope)
	if scopePolicy == nil {
		return nil
	}
	names := scopePolicy.Filter(v.SecretNames())
	values := make(map[string]string, len(names))
	for _, name := range names {
		values[name] = string(v.Secret(name).Value)
	}
	return dispatch.BuildEnv(names, values, naming, warn)
}

// placeholderPattern matches <authy:name> template placeholders with
// valid secret names.
var placeholderPattern = regexp.MustCompile(`<authy:([a-z0-9][a-z0-9-]*)>`)

// ResolveTemplate substitutes <authy:name> placeholders in a template
// with scope-filtered secret values. Placeholders naming secrets the
// scope denies (or that do not exist) fail the whole resolution —
// partial substitution would silently ship a broken artifact.
// Run-only contexts are blocked. Returns the resolved bytes and the
// number of substitutions.
func (c *Client) ResolveTemplate(scope string, template []byte) ([]byte, int, error) {
	scope = c.resolveScope(scope)
	if scope == "" {
		return nil, 0, errcode.New(errcode.General, "no scope: pass --scope or add .authy.jsonc")
	}

	v, err := c.load()
	if err != nil {
		return nil, 0, err
	}
	defer v.Close()

	if c.context.RunOnly {
		if err := c.appendAudit(v, opResolve, "", audit.OutcomeDenied, "run-only context"); err != nil {
			return nil, 0, err
		}
		return nil, 0, errcode.New(errcode.AccessDenied, "run-only access: templates emit secret values")
	}

	scopePolicy := v.Policy(scope)
	if scopePolicy == nil {
		return nil, 0, errcode.New(errcode.NotFound, "policy not found: %s", scope)
	}

	count := 0
	var resolveErr error
	resolved := placeholderPattern.ReplaceAllFunc(template, func(match []byte) []byte {
		if resolveErr != nil {
			return match
		}
		name := string(placeholderPattern.FindSubmatch(match)[1])
		if !scopePolicy.CanRead(name) {
			resolveErr = errcode.New(errcode.AccessDenied, "access denied: secret %q not allowed by scope %q", name, scope)
			return match
		}
		entry := v.Secret(name)
		if entry == nil {
			resolveErr = errcode.New(errcode.NotFound, "secret not found: %s", name)
			return match
		}
		count++
		return append([]byte(nil), entry.Value...)
	})
	if resolveErr != nil {
		return nil, 0, resolveErr
	}

	if err := c.appendAudit(v, opResolve, "", audit.OutcomeSuccess, fmt.Sprintf("scope=%s placeholders=%d", scope, count)); err != nil {
		return nil, 0, err
	}
	return resolved, count, nil
}
