// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"io"
	"os"
	"reflect"
)

// JSONError is the structured error envelope emitted on stderr when
// --json output is requested:
//
//	{"error":{"code":"not_found","message":"...","exit_code":3}}
type JSONError struct {
	Error JSONErrorDetail `json:"error"`
}

// JSONErrorDetail carries the stable code, human message, and exit
// code of a failed operation.
type JSONErrorDetail struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	ExitCode int    `json:"exit_code"`
}

// WriteJSONError emits the error envelope as a single JSON object.
func WriteJSONError(w io.Writer, code, message string, exitCode int) {
	encoder := json.NewEncoder(w)
	encoder.Encode(JSONError{Error: JSONErrorDetail{
		Code:     code,
		Message:  message,
		ExitCode: exitCode,
	}})
}

// WriteJSON marshals value as indented JSON to stdout. Nil slices are
// normalized to empty slices so callers never emit null for a list.
func WriteJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(normalizeNilSlice(value))
}

// normalizeNilSlice returns an empty slice of the same type if value
// is a nil slice, so that JSON serialization produces [] instead of
// null. Returns value unchanged for all other types.
func normalizeNilSlice(value any) any {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Slice && v.IsNil() {
		return reflect.MakeSlice(v.Type(), 0, 0).Interface()
	}
	return value
}
