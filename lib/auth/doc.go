// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

// Package auth resolves caller credentials into a vault decryption
// key and an authorization [Context].
//
// Sources are consulted in priority order: explicit flag values, the
// AUTHY_PASSPHRASE / AUTHY_KEYFILE / AUTHY_TOKEN environment
// variables, and finally an interactive no-echo prompt — only when
// stdin is a terminal and AUTHY_NON_INTERACTIVE is unset. With no
// terminal and no credentials, [Resolve] fails fast with
// NoCredentials rather than blocking.
//
// Tokens ride on top of an underlying key: the vault is loaded, the
// token HMAC-validated in constant time against the session records,
// and the resulting context carries the session's scope and the
// effective run-only flag (session OR policy). Unknown and corrupted
// tokens are deliberately indistinguishable.
package auth
