// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import "strings"

// Naming controls how secret names become environment variable names.
// Transforms apply in a fixed order: dash replacement, then prefix,
// then uppercase — so the prefix is uppercased along with the name.
type Naming struct {
	// ReplaceDash substitutes every "-" with the given string when
	// non-empty (conventionally "_").
	ReplaceDash string

	// Prefix is prepended after dash replacement.
	Prefix string

	// Uppercase folds the final name to upper case.
	Uppercase bool
}

// TransformName converts a secret name into an environment variable
// name under the given naming options.
func TransformName(name string, naming Naming) string {
	result := name
	if naming.ReplaceDash != "" {
		result = strings.ReplaceAll(result, "-", naming.ReplaceDash)
	}
	if naming.Prefix != "" {
		result = naming.Prefix + result
	}
	if naming.Uppercase {
		result = strings.ToUpper(result)
	}
	return result
}
