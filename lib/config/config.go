// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/authy-sh/authy/lib/errcode"
)

// Global is the operator-level configuration at
// <authy-dir>/config.jsonc. All fields are optional; a missing file
// yields the zero value. The file may use // comments, /* block
// comments */, and trailing commas.
type Global struct {
	// Keyfile is the default identity path, used when neither the
	// --keyfile flag nor AUTHY_KEYFILE is set.
	Keyfile string `json:"keyfile,omitempty"`

	// AuditEnabled defaults to true; nil means unset.
	AuditEnabled *bool `json:"audit_enabled,omitempty"`
}

// Audit reports whether audit logging is enabled (default true).
func (g *Global) Audit() bool {
	return g.AuditEnabled == nil || *g.AuditEnabled
}

// LoadGlobal reads config.jsonc from the authy directory. A missing
// file is not an error.
func LoadGlobal(authyDir string) (*Global, error) {
	return loadGlobalFile(filepath.Join(authyDir, "config.jsonc"))
}

func loadGlobalFile(path string) (*Global, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Global{}, nil
		}
		return nil, errcode.Wrap(errcode.Io, err, "reading %s", path)
	}

	var global Global
	if err := json.Unmarshal(jsonc.ToJSON(data), &global); err != nil {
		return nil, errcode.Wrap(errcode.General, err, "parsing %s", path)
	}
	return &global, nil
}
