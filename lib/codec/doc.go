// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides deterministic CBOR encoding for the vault
// payload. All persisted structures go through [Marshal] so that the
// same logical vault always serializes to identical bytes, making the
// on-disk format portable across implementations and the encrypted
// file reproducible for a given plaintext.
//
// Wraps github.com/fxamacker/cbor/v2 with Core Deterministic Encoding
// (RFC 8949 §4.2). Decoding ignores unknown fields for forward
// compatibility; the vault's own schema version gate is in lib/vault.
package codec
