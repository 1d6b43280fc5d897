// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError signals a non-zero exit code without printing an extra
// error message. The run command uses it to pass a child's exit code
// through unchanged, and policy test uses it to report a denial as a
// clean non-zero exit. The top-level mapper checks for this type
// before consulting the error taxonomy.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}
