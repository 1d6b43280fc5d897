// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

// Package vault implements the encrypted on-disk container holding
// secrets, policies, and session records for one operator.
//
// The on-disk file is an age ciphertext ([Load]/[Save]): a scrypt
// passphrase recipient or an X25519 identity recipient over a framed
// payload — "AUTHYVLT" magic, schema version, compression and MAC
// algorithm tags, then a zstd frame of deterministic CBOR. Unknown
// versions and tags are refused, never downgraded. Saves are atomic:
// write-tmp, fsync, rename, fsync-dir.
//
// [Vault] keeps secrets and policies as insertion-ordered sequences.
// The 32-byte master key material minted at [Init] stays inside the
// encrypted payload and feeds HKDF-SHA256 ([Vault.SessionKey],
// [Vault.AuditKey]) with fixed info strings so derived keys are
// bit-identical across implementations. [Vault.Close] zeroizes the
// material and every secret value; call it on all exit paths.
//
// Path resolution is injected via [Paths] rather than read from
// process globals, so tests point operations at scratch directories.
package vault
