// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

func TestMarshalDeterministic(t *testing.T) {
	type record struct {
		Name  string   `cbor:"1,keyasint"`
		Tags  []string `cbor:"2,keyasint,omitempty"`
		Count int      `cbor:"3,keyasint"`
	}

	value := record{Name: "db-url", Tags: []string{"prod", "db"}, Count: 3}

	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("repeated Marshal produced different bytes")
	}

	var decoded record
	if err := Unmarshal(first, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Name != value.Name || decoded.Count != value.Count {
		t.Errorf("round trip = %+v, want %+v", decoded, value)
	}
}

func TestUnmarshalIgnoresUnknownFields(t *testing.T) {
	type wide struct {
		A int `cbor:"1,keyasint"`
		B int `cbor:"2,keyasint"`
	}
	type narrow struct {
		A int `cbor:"1,keyasint"`
	}

	data, err := Marshal(wide{A: 1, B: 2})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded narrow
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal with extra field: %v", err)
	}
	if decoded.A != 1 {
		t.Errorf("A = %d, want 1", decoded.A)
	}
}
