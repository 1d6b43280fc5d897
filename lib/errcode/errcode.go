// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package errcode

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the stable categories that map
// to process exit codes and JSON error codes. The set is closed: new
// kinds require a new exit-code assignment in the external contract.
type Kind int

const (
	// General is the catch-all for errors with no more specific kind.
	General Kind = iota

	// NotInitialized means the vault file does not exist yet.
	NotInitialized

	// AlreadyExists covers vault init over an existing vault and
	// store/policy-create collisions without --force.
	AlreadyExists

	// NotFound covers unknown secrets, policies, and sessions.
	NotFound

	// AccessDenied covers policy denials and run-only blocks.
	AccessDenied

	// AuthFailed covers wrong passphrases and unreadable identities.
	AuthFailed

	// NoCredentials means non-interactive mode with nothing to
	// authenticate with.
	NoCredentials

	// InvalidToken covers unknown session ids and HMAC mismatches.
	// The two cases are deliberately indistinguishable.
	InvalidToken

	// TokenExpired means the session's expiry has passed.
	TokenExpired

	// TokenRevoked means the session record is flagged revoked.
	TokenRevoked

	// TokenReadOnly means a token-authenticated caller attempted a
	// vault mutation.
	TokenReadOnly

	// Decryption means the vault ciphertext failed to authenticate.
	Decryption

	// Serialization covers schema mismatches and corrupt payload bytes.
	Serialization

	// AuditChainBroken means audit verification found a bad entry.
	AuditChainBroken

	// Io covers filesystem errors.
	Io

	// Subprocess means the dispatcher failed to spawn the child.
	Subprocess
)

// ExitCode returns the stable process exit code for the kind.
func (k Kind) ExitCode() int {
	switch k {
	case NotInitialized:
		return 7
	case AlreadyExists:
		return 5
	case NotFound:
		return 3
	case AccessDenied, TokenReadOnly:
		return 4
	case AuthFailed, NoCredentials, Decryption:
		return 2
	case InvalidToken, TokenExpired, TokenRevoked:
		return 6
	case Subprocess:
		return 7
	default:
		return 1
	}
}

// Code returns the stable string identifier used in JSON error output.
func (k Kind) Code() string {
	switch k {
	case NotInitialized:
		return "vault_not_initialized"
	case AlreadyExists:
		return "already_exists"
	case NotFound:
		return "not_found"
	case AccessDenied:
		return "access_denied"
	case AuthFailed:
		return "auth_failed"
	case NoCredentials:
		return "no_credentials"
	case InvalidToken:
		return "invalid_token"
	case TokenExpired:
		return "token_expired"
	case TokenRevoked:
		return "token_revoked"
	case TokenReadOnly:
		return "token_read_only"
	case Decryption:
		return "decryption_error"
	case Serialization:
		return "serialization_error"
	case AuditChainBroken:
		return "audit_chain_broken"
	case Io:
		return "io_error"
	case Subprocess:
		return "subprocess_error"
	default:
		return "error"
	}
}

// Error is the single error type flowing from the core to the
// top-level operation boundary. Lower layers construct it with New or
// Wrap; only cmd/authy converts it to an exit code or JSON object.
type Error struct {
	kind    Kind
	message string
	cause   error
}

// New constructs an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an Error of the given kind that wraps a cause. The
// cause's message is appended to the formatted message.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...), cause: cause}
}

// Kind returns the error's category.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the human-readable message without the cause chain.
func (e *Error) Message() string { return e.message }

func (e *Error) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *Error) Unwrap() error { return e.cause }

// Is reports kind equality, so errors.Is(err, errcode.New(kind, ""))
// style sentinels work. Two *Errors match when their kinds match.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.kind == other.kind
	}
	return false
}

// KindOf extracts the Kind from any error. Errors that are not *Error
// (or do not wrap one) report General.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.kind
	}
	return General
}

// ExitCodeOf returns the stable exit code for any error.
func ExitCodeOf(err error) int {
	return KindOf(err).ExitCode()
}

// MessageOf returns the displayable message for any error: the typed
// message plus cause chain for *Error, or Error() otherwise.
func MessageOf(err error) string {
	return err.Error()
}
