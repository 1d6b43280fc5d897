// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

// Package errcode defines the error taxonomy shared by every authy
// component and its mapping to stable process exit codes.
//
// All core errors are [Error] values carrying a [Kind]. Errors
// propagate unchanged to the top-level operation boundary; only
// cmd/authy maps them to exit codes ([ExitCodeOf]) or structured JSON
// ([Kind.Code]). No internal retries.
package errcode
