// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the pflag-based command framework for the authy
// binary: a [Command] tree with lazy flag sets, tabular help output,
// close-match suggestions for mistyped subcommands, the [ExitError]
// pass-through for child exit codes, --json output helpers, and the
// stderr slog logger.
package cli
