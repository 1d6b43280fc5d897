// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewLogger creates the structured diagnostic logger. When stderr is
// a terminal, it uses a TextHandler for human-readable output; when
// piped or redirected (CI, scripts, MCP), a JSONHandler for
// machine-parseable lines. Diagnostics always go to stderr — stdout
// is reserved for payload.
func NewLogger() *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: slog.LevelInfo}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}
