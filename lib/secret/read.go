// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// maxValueSize bounds a secret read from a file or stdin. A secret
// larger than this is almost certainly a mistaken file argument.
const maxValueSize = 1 << 20

// ReadFromPath reads a secret from a file path, or from stdin if path
// is "-". The returned buffer is mmap-backed and must be closed by the
// caller. Leading and trailing whitespace is trimmed before storing.
// Returns an error if the source is empty after trimming.
func ReadFromPath(path string) (*Buffer, error) {
	if path == "-" {
		return ReadFromReader(os.Stdin)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return fromTrimmed(data)
}

// ReadFromReader reads a secret value from r up to a 1 MiB limit.
// Used for piped stdin (`authy store name < value-file`).
func ReadFromReader(r io.Reader) (*Buffer, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxValueSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading secret value: %w", err)
	}
	if len(data) > maxValueSize {
		Zero(data)
		return nil, fmt.Errorf("secret value exceeds %d bytes", maxValueSize)
	}
	return fromTrimmed(data)
}

func fromTrimmed(data []byte) (*Buffer, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		Zero(data)
		return nil, fmt.Errorf("secret value is empty")
	}

	// NewFromBytes copies into mmap-backed memory and zeros trimmed.
	buffer, err := NewFromBytes(trimmed)
	// Zero remaining bytes (whitespace prefix/suffix) not covered by trimmed.
	Zero(data)
	if err != nil {
		return nil, err
	}
	return buffer, nil
}
