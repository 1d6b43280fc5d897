// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"time"

	"github.com/authy-sh/authy/lib/errcode"
)

// TokenPrefix identifies authy session tokens. The prefix is part of
// the external contract: automated leak scanners key on it.
const TokenPrefix = "authy_v1."

const (
	tokenBytes = 32
	saltBytes  = 16
	idBytes    = 4
)

// Record is a session stored in the vault. Only the HMAC of the
// token's random material is persisted — the token itself is shown
// once at creation and never stored.
//
// Field numbers are part of the vault wire format — never renumber.
type Record struct {
	// ID is a short random identifier, unique within the vault.
	ID string `cbor:"1,keyasint"`

	// Scope is the policy name this session is bound to. May dangle
	// after policy deletion; validation fails at next use.
	Scope string `cbor:"2,keyasint"`

	// TokenHMAC is HMAC-SHA256(session_key, token_random || salt).
	TokenHMAC []byte `cbor:"3,keyasint"`

	// Salt is per-session random material bound into the HMAC input.
	Salt []byte `cbor:"4,keyasint"`

	// Label is optional free-form text for operator display.
	Label string `cbor:"5,keyasint,omitempty"`

	CreatedAt time.Time `cbor:"6,keyasint"`
	ExpiresAt time.Time `cbor:"7,keyasint"`

	// Revoked is set by operator action; revoked sessions fail
	// validation permanently.
	Revoked bool `cbor:"8,keyasint,omitempty"`

	// RunOnly restricts the session to subprocess injection. The
	// effective flag is the OR of this and the scope policy's RunOnly.
	RunOnly bool `cbor:"9,keyasint,omitempty"`
}

// Mint creates a new session record and its one-time token string.
// The token is TokenPrefix + base64url (no padding) of 32 CSPRNG
// bytes; the record stores only HMAC(sessionKey, bytes || salt).
func Mint(sessionKey []byte, scope, label string, ttl time.Duration, runOnly bool, now time.Time) (string, Record, error) {
	random := make([]byte, tokenBytes)
	if _, err := rand.Read(random); err != nil {
		return "", Record{}, errcode.Wrap(errcode.General, err, "generating token material")
	}
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", Record{}, errcode.Wrap(errcode.General, err, "generating session salt")
	}

	id, err := NewID()
	if err != nil {
		return "", Record{}, err
	}

	now = now.UTC().Truncate(time.Second)
	record := Record{
		ID:        id,
		Scope:     scope,
		TokenHMAC: computeHMAC(sessionKey, random, salt),
		Salt:      salt,
		Label:     label,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		RunOnly:   runOnly,
	}

	token := TokenPrefix + base64.RawURLEncoding.EncodeToString(random)
	return token, record, nil
}

// NewID generates a short random session identifier (8 hex chars).
func NewID() (string, error) {
	raw := make([]byte, idBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", errcode.Wrap(errcode.General, err, "generating session id")
	}
	return hex.EncodeToString(raw), nil
}

// ParseToken validates the token's shape and returns its raw random
// bytes. Any malformation reports InvalidToken — the error never
// reveals which check failed.
func ParseToken(token string) ([]byte, error) {
	if !strings.HasPrefix(token, TokenPrefix) {
		return nil, errInvalidToken()
	}
	random, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(token, TokenPrefix))
	if err != nil || len(random) != tokenBytes {
		return nil, errInvalidToken()
	}
	return random, nil
}

// Validate checks a presented token against the vault's session
// records. The matching record is located by recomputing the HMAC for
// each record and comparing in constant time — session ids do not
// appear in tokens, and an unknown token is indistinguishable from a
// corrupted one.
//
// Returns the matched record, or: InvalidToken (no record matches),
// TokenRevoked (matched but flagged), TokenExpired (matched but past
// its expiry).
func Validate(sessionKey []byte, token string, records []Record, now time.Time) (*Record, error) {
	random, err := ParseToken(token)
	if err != nil {
		return nil, err
	}

	for index := range records {
		record := &records[index]
		candidate := computeHMAC(sessionKey, random, record.Salt)
		if subtle.ConstantTimeCompare(candidate, record.TokenHMAC) != 1 {
			continue
		}
		if record.Revoked {
			return nil, errcode.New(errcode.TokenRevoked, "session token revoked")
		}
		if !now.Before(record.ExpiresAt) {
			return nil, errcode.New(errcode.TokenExpired, "session token expired")
		}
		return record, nil
	}

	return nil, errInvalidToken()
}

func errInvalidToken() error {
	return errcode.New(errcode.InvalidToken, "invalid session token")
}

func computeHMAC(sessionKey, random, salt []byte) []byte {
	mac := hmac.New(sha256.New, sessionKey)
	mac.Write(random)
	mac.Write(salt)
	return mac.Sum(nil)
}
