// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

// Package audit maintains the append-only, tamper-evident record of
// every sensitive operation.
//
// The log is one JSON object per line, LF-terminated, adjacent to the
// vault file and deliberately unencrypted: any operation can append
// without the vault key, and confidentiality is not the goal — no
// entry ever contains a secret value. Integrity comes from an HMAC
// chain keyed by a vault-derived audit key: each entry's entry_hmac
// covers the previous entry's hmac and the entry's canonical bytes,
// so any modification, deletion, or reordering breaks [Verify] at a
// specific sequence number.
package audit
