// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"strconv"
	"strings"
	"time"

	"github.com/authy-sh/authy/lib/errcode"
)

// ParseTTL parses a human duration like "30m", "8h", or "7d" into a
// time.Duration. Units: s, m, h, d (24h), w (168h). The value is
// converted to an absolute expiry at session creation, so clock skew
// between create and validate does not move the goalposts.
func ParseTTL(input string) (time.Duration, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, errcode.New(errcode.General, "empty TTL")
	}

	unit := s[len(s)-1]
	number := s[:len(s)-1]

	var scale time.Duration
	switch unit {
	case 's':
		scale = time.Second
	case 'm':
		scale = time.Minute
	case 'h':
		scale = time.Hour
	case 'd':
		scale = 24 * time.Hour
	case 'w':
		scale = 7 * 24 * time.Hour
	default:
		return 0, errcode.New(errcode.General, "invalid TTL %q: unit must be one of s, m, h, d, w", input)
	}

	value, err := strconv.ParseUint(number, 10, 32)
	if err != nil || value == 0 {
		return 0, errcode.New(errcode.General, "invalid TTL %q: want a positive integer followed by a unit", input)
	}

	return time.Duration(value) * scale, nil
}
