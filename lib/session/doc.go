// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

// Package session issues and validates short-lived scoped vault
// tokens.
//
// A token is the string "authy_v1." + base64url of 32 CSPRNG bytes,
// shown once at creation. The vault persists a [Record] holding
// HMAC-SHA256(session_key, random || salt) in place of the token, so
// vault disclosure never discloses usable tokens. Validation recomputes
// the HMAC per record and compares in constant time; revocation is a
// flag flip with immediate effect; expiry is an absolute timestamp
// fixed at creation ([ParseTTL]).
//
// The session HMAC key is derived from the vault's master key material
// by lib/vault (HKDF info "authy.session.v1"); wholesale re-key mints
// new material and thereby invalidates every outstanding token.
package session
