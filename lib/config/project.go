// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/authy-sh/authy/lib/errcode"
)

// projectFileName is the per-project configuration discovered by
// walking up from the working directory.
const projectFileName = ".authy.jsonc"

// Project is per-project configuration:
//
//	{
//	  // policy scope for this repo
//	  "scope": "my-project",
//	  "keyfile": "~/.authy/keys/my-project.key",
//	  "uppercase": true,
//	  "replace_dash": "_",
//	  "prefix": "APP_",
//	}
//
// It supplies defaults for env/export/run/resolve; explicit flags
// always win.
type Project struct {
	Scope       string `json:"scope"`
	Keyfile     string `json:"keyfile,omitempty"`
	Uppercase   bool   `json:"uppercase,omitempty"`
	ReplaceDash string `json:"replace_dash,omitempty"`
	Prefix      string `json:"prefix,omitempty"`
}

// LoadProject parses a project file at an explicit path.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errcode.Wrap(errcode.Io, err, "reading %s", path)
	}

	var project Project
	if err := json.Unmarshal(jsonc.ToJSON(data), &project); err != nil {
		return nil, errcode.Wrap(errcode.General, err, "parsing %s", path)
	}

	if project.Scope == "" {
		return nil, errcode.New(errcode.General, "%s: scope must not be empty", path)
	}
	if len(project.ReplaceDash) > 1 {
		return nil, errcode.New(errcode.General, "%s: replace_dash must be a single character, got %q", path, project.ReplaceDash)
	}
	return &project, nil
}

// DiscoverProject walks up from startDir looking for .authy.jsonc.
// Returns (nil, "", nil) when no file exists on the path to the root.
func DiscoverProject(startDir string) (*Project, string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, "", errcode.Wrap(errcode.Io, err, "resolving %s", startDir)
	}

	for {
		candidate := filepath.Join(dir, projectFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			project, err := LoadProject(candidate)
			if err != nil {
				return nil, "", err
			}
			return project, dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, "", nil
		}
		dir = parent
	}
}

// ExpandedKeyfile resolves a leading "~/" in the keyfile path against
// the home directory.
func (p *Project) ExpandedKeyfile() string {
	if !strings.HasPrefix(p.Keyfile, "~/") {
		return p.Keyfile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p.Keyfile
	}
	return filepath.Join(home, p.Keyfile[2:])
}
