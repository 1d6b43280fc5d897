// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads operator and per-project configuration.
//
// Both files are JSONC (JSON with comments and trailing commas):
// [Global] at <authy-dir>/config.jsonc and [Project] at .authy.jsonc,
// discovered by walking up from the working directory. Project config
// supplies defaults — scope, keyfile, naming transforms — for the
// env, export, run, and resolve commands; explicit flags always win.
package config
