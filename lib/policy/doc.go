// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

// Package policy implements glob-based allow/deny evaluation over
// secret names.
//
// A [Policy] authorizes a name when at least one allow pattern matches
// and no deny pattern matches; deny overrides allow, the empty allow
// list denies everything, and malformed patterns never grant access.
// Glob semantics are anchored path.Match over flat names: "*" matches
// any sequence, "?" a single character.
//
// Policies are persisted inside the vault; this package holds the type
// and its evaluation only. Scope resolution (policy lookup, unknown
// scope denial) lives with the vault container.
package policy
