// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package auth

// Context is the resolved authorization context attached to every
// operation after credential verification.
type Context struct {
	// Actor is the audit identity: "master", "keyfile:<path>", or
	// "token:<sessionId>".
	Actor string

	// IsToken is true when the caller authenticated with a session
	// token. Token contexts can never mutate the vault.
	IsToken bool

	// RunOnly is the effective run-only flag: the OR of the session
	// record's flag and the scope policy's flag. Run-only contexts
	// may inject secrets into subprocesses and list names, but not
	// read values.
	RunOnly bool

	// SessionID is set for token contexts.
	SessionID string

	// Scope is the policy name bounding a token context. Empty for
	// master contexts, which see everything.
	Scope string
}

// Master returns the unrestricted context for passphrase or keyfile
// authentication.
func Master(actor string) Context {
	return Context{Actor: actor}
}
