// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

// Package dispatch spawns child processes with policy-filtered
// secrets injected into their environment.
//
// Values never touch the child's command line: the parent environment
// is inherited, the injected map is merged over it (stripping the
// parent's own AUTHY_PASSPHRASE/AUTHY_TOKEN), and argv passes through
// untouched. Secret names become variable names via [TransformName] —
// dash replacement, then prefix, then uppercase — with post-transform
// collisions resolved last-write-wins and warned on stderr.
//
// The child inherits stdio directly. On normal exit its code is
// propagated; death by signal maps to 128+signal.
package dispatch
