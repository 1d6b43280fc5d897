// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

// Package authy is the programmatic facade over the trust-and-access
// core: one [Client] method per logical operation.
//
// A Client is built from a credential resolution (lib/auth) and a
// vault location; every method opens the vault, performs its
// operation, persists when it mutated, appends an audit entry, and
// returns a typed result or a typed errcode error. The CLI handlers,
// TUI, MCP tools, and language bindings all call this surface and
// nothing below it.
//
// Two invariants are enforced here rather than in callers:
//
//   - Token contexts never mutate the vault (TokenReadOnly on every
//     write path).
//   - Run-only contexts never see a secret value — Get, EnvMap, and
//     ResolveTemplate are blocked; List returns names, and Run
//     injects into a child's environment without echoing.
//
// Audit ordering: reads and denials are recorded before returning;
// mutations are recorded only after the vault rename succeeds.
package authy
