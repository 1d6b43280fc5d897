// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package authy

import (
	"fmt"
	"time"

	"github.com/authy-sh/authy/lib/audit"
	"github.com/authy-sh/authy/lib/errcode"
	"github.com/authy-sh/authy/lib/secret"
	"github.com/authy-sh/authy/lib/session"
	"github.com/authy-sh/authy/lib/vault"
)

// SessionInfo is the operator-facing view of a session record.
type SessionInfo struct {
	ID        string    `json:"id"`
	Scope     string    `json:"scope"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
	RunOnly   bool      `json:"run_only"`

	// DanglingScope is true when the referenced policy no longer
	// exists; the session will fail validation at next use.
	DanglingScope bool `json:"dangling_scope,omitempty"`
}

// CreateSession mints a scoped token. The token string is returned
// exactly once; the vault stores only its HMAC. The scope policy must
// exist at creation time.
func (c *Client) CreateSession(scope, label string, ttl time.Duration, runOnly bool) (string, SessionInfo, error) {
	if err := c.requireWrite("session create"); err != nil {
		return "", SessionInfo{}, err
	}

	v, err := c.load()
	if err != nil {
		return "", SessionInfo{}, err
	}
	defer v.Close()

	if v.Policy(scope) == nil {
		return "", SessionInfo{}, errcode.New(errcode.NotFound, "policy not found: %s", scope)
	}

	sessionKey, err := v.SessionKey()
	if err != nil {
		return "", SessionInfo{}, err
	}
	defer secret.Zero(sessionKey)

	now := c.clk.Now()
	token, record, err := session.Mint(sessionKey, scope, label, ttl, runOnly, now)
	if err != nil {
		return "", SessionInfo{}, err
	}
	// Session ids are 4 random bytes; regenerate on the unlikely
	// collision so ids stay unique within the vault.
	for v.Session(record.ID) != nil {
		record.ID, err = session.NewID()
		if err != nil {
			return "", SessionInfo{}, err
		}
	}

	v.Sessions = append(v.Sessions, record)
	v.Touch(now)

	if err := vault.Save(v, c.paths, c.key); err != nil {
		return "", SessionInfo{}, err
	}
	detail := fmt.Sprintf("session=%s scope=%s ttl=%s run_only=%v", record.ID, scope, ttl, runOnly)
	if err := c.appendAudit(v, opSessionCreate, "", audit.OutcomeSuccess, detail); err != nil {
		return "", SessionInfo{}, err
	}
	return token, c.sessionInfo(v, &record), nil
}

// ListSessions returns all session records (never token material),
// flagging sessions whose scope policy has been deleted.
func (c *Client) ListSessions() ([]SessionInfo, error) {
	v, err := c.load()
	if err != nil {
		return nil, err
	}
	defer v.Close()

	infos := make([]SessionInfo, 0, len(v.Sessions))
	for index := range v.Sessions {
		infos = append(infos, c.sessionInfo(v, &v.Sessions[index]))
	}
	return infos, nil
}

// RevokeSession flags a session revoked. Takes effect on the token's
// next use.
func (c *Client) RevokeSession(id string) error {
	if err := c.requireWrite("session revoke"); err != nil {
		return err
	}

	v, err := c.load()
	if err != nil {
		return err
	}
	defer v.Close()

	record := v.Session(id)
	if record == nil {
		return errcode.New(errcode.NotFound, "session not found: %s", id)
	}
	record.Revoked = true
	v.Touch(c.clk.Now())

	if err := vault.Save(v, c.paths, c.key); err != nil {
		return err
	}
	return c.appendAudit(v, opSessionRevoke, "", audit.OutcomeSuccess, "session="+id)
}

// RevokeAllSessions flags every session revoked and returns how many
// were newly revoked.
func (c *Client) RevokeAllSessions() (int, error) {
	if err := c.requireWrite("session revoke"); err != nil {
		return 0, err
	}

	v, err := c.load()
	if err != nil {
		return 0, err
	}
	defer v.Close()

	revoked := 0
	for index := range v.Sessions {
		if !v.Sessions[index].Revoked {
			v.Sessions[index].Revoked = true
			revoked++
		}
	}
	if revoked == 0 {
		return 0, nil
	}
	v.Touch(c.clk.Now())

	if err := vault.Save(v, c.paths, c.key); err != nil {
		return 0, err
	}
	if err := c.appendAudit(v, opSessionRevoke, "", audit.OutcomeSuccess, fmt.Sprintf("revoked all (%d)", revoked)); err != nil {
		return 0, err
	}
	return revoked, nil
}

func (c *Client) sessionInfo(v *vault.Vault, record *session.Record) SessionInfo {
	return SessionInfo{
		ID:            record.ID,
		Scope:         record.Scope,
		Label:         record.Label,
		CreatedAt:     record.CreatedAt,
		ExpiresAt:     record.ExpiresAt,
		Revoked:       record.Revoked,
		RunOnly:       record.RunOnly,
		DanglingScope: v.Policy(record.Scope) == nil,
	}
}
