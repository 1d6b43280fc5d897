// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time operations for testability. Production
// code injects [Real]; tests inject [Fake] and advance it explicitly
// to exercise session expiry without sleeping.
package clock
