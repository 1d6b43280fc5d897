// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/authy-sh/authy/lib/dispatch"
	"github.com/authy-sh/authy/lib/errcode"
)

// writeEnv renders injected entries in one of the env output formats.
func writeEnv(w io.Writer, entries []dispatch.EnvEntry, format string, noExport bool) error {
	switch format {
	case "shell":
		for _, entry := range entries {
			if noExport {
				fmt.Fprintf(w, "%s='%s'\n", entry.Key, shellEscape(entry.Value))
			} else {
				fmt.Fprintf(w, "export %s='%s'\n", entry.Key, shellEscape(entry.Value))
			}
		}
		return nil

	case "dotenv":
		for _, entry := range entries {
			fmt.Fprintf(w, "%s=%s\n", entry.Key, dotenvQuote(entry.Value))
		}
		return nil

	case "json":
		object := make(map[string]string, len(entries))
		for _, entry := range entries {
			object[entry.Key] = entry.Value
		}
		encoder := json.NewEncoder(w)
		return encoder.Encode(object)

	default:
		return errcode.New(errcode.General, "unknown format %q: use shell, dotenv, or json", format)
	}
}

// shellEscape prepares a value for a single-quoted POSIX string by
// closing the quote, emitting an escaped quote, and reopening.
func shellEscape(value string) string {
	return strings.ReplaceAll(value, "'", `'\''`)
}

// dotenvQuote wraps a value in double quotes with escapes when it
// contains characters that would break a naive dotenv parser.
func dotenvQuote(value string) string {
	if value == "" {
		return `""`
	}

	if !strings.ContainsAny(value, " #\"'\\\n\r\t$`") {
		return value
	}

	escaped := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	).Replace(value)
	return `"` + escaped + `"`
}
