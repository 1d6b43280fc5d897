// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import "path"

// MatchPattern checks whether a secret name matches a glob pattern:
//
//   - "*" matches any sequence of characters (secret names are flat,
//     so there are no segment boundaries to stop at)
//   - "?" matches a single character
//   - literal characters match themselves
//   - patterns are anchored to the full name
//
// Returns false for malformed patterns (unmatched brackets, etc.)
// rather than propagating errors — a malformed pattern must never
// grant access.
func MatchPattern(pattern, name string) bool {
	matched, err := path.Match(pattern, name)
	return err == nil && matched
}

// MatchAnyPattern checks whether a name matches any of the given glob
// patterns. Returns true on the first match. Returns false if the
// patterns slice is empty (default-deny).
func MatchAnyPattern(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if MatchPattern(pattern, name) {
			return true
		}
	}
	return false
}
