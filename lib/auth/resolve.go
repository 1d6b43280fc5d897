// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/authy-sh/authy/lib/clock"
	"github.com/authy-sh/authy/lib/errcode"
	"github.com/authy-sh/authy/lib/secret"
	"github.com/authy-sh/authy/lib/session"
	"github.com/authy-sh/authy/lib/vault"
)

// Environment variables recognized by the resolver. Part of the
// external contract.
const (
	EnvPassphrase     = "AUTHY_PASSPHRASE"
	EnvKeyfile        = "AUTHY_KEYFILE"
	EnvToken          = "AUTHY_TOKEN"
	EnvNonInteractive = "AUTHY_NON_INTERACTIVE"
)

// PromptFunc reads a passphrase interactively. Injected so tests can
// resolve without a terminal.
type PromptFunc func(prompt string) (*secret.Buffer, error)

// Credentials carries the caller-supplied inputs, highest priority
// first: explicit flag values, then (inside Resolve) the AUTHY_*
// environment variables, then an interactive prompt when stdin is a
// terminal and non-interactive mode is off.
type Credentials struct {
	// Passphrase, Keyfile, and Token are explicit flag values;
	// empty means unset.
	Passphrase string
	Keyfile    string
	Token      string

	// Prompt overrides the terminal prompt. Nil uses the real
	// terminal; tests inject a canned response.
	Prompt PromptFunc
}

// Resolution is the outcome of credential resolution. When a token
// was presented, the vault has already been loaded and the token
// validated against it; callers reuse that vault instead of loading
// twice. The caller owns Key and, when non-nil, Vault — Close both.
type Resolution struct {
	Key     vault.Key
	Context Context

	// Vault is non-nil only for token resolutions.
	Vault *vault.Vault
}

// Close releases the key and any loaded vault.
func (r *Resolution) Close() {
	r.Key.Close()
	if r.Vault != nil {
		r.Vault.Close()
		r.Vault = nil
	}
}

// Resolve maps caller credentials to a vault decryption key and an
// authorization context.
//
// A token alone is rejected: it identifies a session but cannot
// decrypt the vault, so token callers must also supply a keyfile or
// passphrase. When stdin is not a terminal (or AUTHY_NON_INTERACTIVE
// is set) and no credentials are available, Resolve fails immediately
// with NoCredentials; it never blocks on a prompt.
func Resolve(credentials Credentials, paths vault.Paths, clk clock.Clock) (*Resolution, error) {
	token := firstOf(credentials.Token, os.Getenv(EnvToken))

	key, err := resolveKey(credentials, token != "")
	if err != nil {
		return nil, err
	}

	if token == "" {
		return &Resolution{Key: *key, Context: Master(key.Actor())}, nil
	}

	resolution, err := resolveToken(*key, token, paths, clk)
	if err != nil {
		key.Close()
		return nil, err
	}
	return resolution, nil
}

// resolveKey finds the decryption credential: explicit flags first,
// then environment, then an interactive prompt. Keyfile wins over
// passphrase at the same priority level, matching the original
// resolution order.
func resolveKey(credentials Credentials, tokenPresent bool) (*vault.Key, error) {
	if credentials.Keyfile != "" {
		key, err := vault.ReadKeyfile(credentials.Keyfile)
		if err != nil {
			return nil, err
		}
		return &key, nil
	}
	if credentials.Passphrase != "" {
		buffer, err := secret.NewFromString(credentials.Passphrase)
		if err != nil {
			return nil, errcode.Wrap(errcode.AuthFailed, err, "reading passphrase")
		}
		key := vault.PassphraseKey(buffer)
		return &key, nil
	}

	if path := os.Getenv(EnvKeyfile); path != "" {
		key, err := vault.ReadKeyfile(path)
		if err != nil {
			return nil, err
		}
		return &key, nil
	}
	if passphrase := os.Getenv(EnvPassphrase); passphrase != "" {
		buffer, err := secret.NewFromString(passphrase)
		if err != nil {
			return nil, errcode.Wrap(errcode.AuthFailed, err, "reading passphrase")
		}
		key := vault.PassphraseKey(buffer)
		return &key, nil
	}

	// A token was supplied but nothing can decrypt the vault. Fail
	// before considering a prompt: the caller is a machine.
	if tokenPresent {
		return nil, errcode.New(errcode.AuthFailed, "a session token cannot decrypt the vault; set %s or %s as well", EnvKeyfile, EnvPassphrase)
	}

	if NonInteractive() {
		return nil, errcode.New(errcode.NoCredentials, "no credentials provided; set %s, %s, or %s", EnvKeyfile, EnvPassphrase, EnvToken)
	}

	prompt := credentials.Prompt
	if prompt == nil {
		prompt = terminalPrompt
	}
	buffer, err := prompt("Enter vault passphrase: ")
	if err != nil {
		return nil, errcode.Wrap(errcode.AuthFailed, err, "reading passphrase")
	}
	key := vault.PassphraseKey(buffer)
	return &key, nil
}

// resolveToken loads the vault with the underlying key and validates
// the presented token against the stored session records. The
// effective run-only flag is the OR of the session's and the scope
// policy's; a session whose policy was deleted fails here with
// NotFound.
func resolveToken(key vault.Key, token string, paths vault.Paths, clk clock.Clock) (*Resolution, error) {
	v, err := vault.Load(paths, key)
	if err != nil {
		return nil, err
	}

	sessionKey, err := v.SessionKey()
	if err != nil {
		v.Close()
		return nil, err
	}
	defer secret.Zero(sessionKey)

	record, err := session.Validate(sessionKey, token, v.Sessions, clk.Now())
	if err != nil {
		v.Close()
		return nil, err
	}

	scopePolicy := v.Policy(record.Scope)
	if scopePolicy == nil {
		v.Close()
		return nil, errcode.New(errcode.NotFound, "policy not found: %s (session %s is bound to a deleted scope)", record.Scope, record.ID)
	}

	return &Resolution{
		Key: key,
		Context: Context{
			Actor:     "token:" + record.ID,
			IsToken:   true,
			RunOnly:   record.RunOnly || scopePolicy.RunOnly,
			SessionID: record.ID,
			Scope:     record.Scope,
		},
		Vault: v,
	}, nil
}

// NonInteractive reports whether prompting is forbidden: the
// AUTHY_NON_INTERACTIVE variable is set to 1/true, or stdin is not a
// terminal.
func NonInteractive() bool {
	switch strings.ToLower(os.Getenv(EnvNonInteractive)) {
	case "1", "true":
		return true
	}
	return !term.IsTerminal(int(os.Stdin.Fd()))
}

// terminalPrompt reads a passphrase from the controlling terminal
// without echo.
func terminalPrompt(promptText string) (*secret.Buffer, error) {
	fmt.Fprint(os.Stderr, promptText)
	line, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, err
	}
	if len(line) == 0 {
		return nil, fmt.Errorf("empty passphrase")
	}
	return secret.NewFromBytes(line)
}

// PromptNewPassphrase prompts twice and verifies both entries match.
// Used by init and rekey when minting a fresh passphrase.
func PromptNewPassphrase(prompt PromptFunc) (*secret.Buffer, error) {
	if prompt == nil {
		prompt = terminalPrompt
	}
	first, err := prompt("Create vault passphrase: ")
	if err != nil {
		return nil, errcode.Wrap(errcode.AuthFailed, err, "reading passphrase")
	}
	confirm, err := prompt("Confirm passphrase: ")
	if err != nil {
		first.Close()
		return nil, errcode.Wrap(errcode.AuthFailed, err, "reading passphrase")
	}
	defer confirm.Close()

	if !first.Equal(confirm.Bytes()) {
		first.Close()
		return nil, errcode.New(errcode.AuthFailed, "passphrases do not match")
	}
	return first, nil
}

func firstOf(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
