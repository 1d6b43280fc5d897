// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package authy

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/authy-sh/authy/lib/audit"
	"github.com/authy-sh/authy/lib/auth"
	"github.com/authy-sh/authy/lib/clock"
	"github.com/authy-sh/authy/lib/dispatch"
	"github.com/authy-sh/authy/lib/errcode"
	"github.com/authy-sh/authy/lib/secret"
	"github.com/authy-sh/authy/lib/vault"
)

const testPassphrase = "facade-test-passphrase"

type fixture struct {
	paths vault.Paths
	clk   *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		paths: vault.PathsAt(filepath.Join(t.TempDir(), ".authy")),
		clk:   clock.Fake(),
	}

	buffer, err := secret.NewFromString(testPassphrase)
	if err != nil {
		t.Fatalf("NewFromString: %v", err)
	}
	key := vault.PassphraseKey(buffer)
	defer key.Close()

	if err := Init(f.paths, key, f.clk); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return f
}

// master opens a client with master (passphrase) credentials.
func (f *fixture) master(t *testing.T) *Client {
	t.Helper()
	client, err := Open(auth.Credentials{Passphrase: testPassphrase}, f.paths, WithClock(f.clk))
	if err != nil {
		t.Fatalf("Open(master): %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// withToken opens a client authenticated by both passphrase and token.
func (f *fixture) withToken(t *testing.T, token string) (*Client, error) {
	t.Helper()
	client, err := Open(auth.Credentials{Passphrase: testPassphrase, Token: token}, f.paths, WithClock(f.clk))
	if err != nil {
		return nil, err
	}
	t.Cleanup(func() { client.Close() })
	return client, nil
}

func (f *fixture) store(t *testing.T, name, value string) {
	t.Helper()
	buffer, err := secret.NewFromString(value)
	if err != nil {
		t.Fatalf("NewFromString: %v", err)
	}
	if _, err := f.master(t).Store(name, buffer, nil, false); err != nil {
		t.Fatalf("Store(%s): %v", name, err)
	}
}

func (f *fixture) createPolicy(t *testing.T, name string, spec PolicySpec) {
	t.Helper()
	if err := f.master(t).CreatePolicy(name, spec); err != nil {
		t.Fatalf("CreatePolicy(%s): %v", name, err)
	}
}

func (f *fixture) createSession(t *testing.T, scope string, ttl time.Duration, runOnly bool) (string, SessionInfo) {
	t.Helper()
	token, info, err := f.master(t).CreateSession(scope, "test", ttl, runOnly)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return token, info
}

func TestStoreGetRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.store(t, "db-url", "postgres://u:p@h/d")

	value, err := f.master(t).Get("db-url")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer value.Close()

	if !bytes.Equal(value.Bytes(), []byte("postgres://u:p@h/d")) {
		t.Errorf("value = %q, want byte-exact round trip", value.Bytes())
	}
}

func TestGetNotFound(t *testing.T) {
	f := newFixture(t)
	if _, err := f.master(t).Get("missing"); errcode.KindOf(err) != errcode.NotFound {
		t.Errorf("Get(missing) = %v, want NotFound", err)
	}

	buffer, err := f.master(t).GetOrNone("missing")
	if err != nil || buffer != nil {
		t.Errorf("GetOrNone(missing) = %v, %v; want nil, nil", buffer, err)
	}
}

func TestStoreCollisionAndForce(t *testing.T) {
	f := newFixture(t)
	f.store(t, "api-key", "one")

	buffer, _ := secret.NewFromString("two")
	_, err := f.master(t).Store("api-key", buffer, nil, false)
	if errcode.KindOf(err) != errcode.AlreadyExists {
		t.Fatalf("duplicate store = %v, want AlreadyExists", err)
	}

	// Force degrades to rotation: version bumps, created_at holds.
	buffer, _ = secret.NewFromString("two")
	info, err := f.master(t).Store("api-key", buffer, nil, true)
	if err != nil {
		t.Fatalf("force store: %v", err)
	}
	if info.Version != 2 {
		t.Errorf("version after force store = %d, want 2", info.Version)
	}
}

func TestRotateMonotonicity(t *testing.T) {
	f := newFixture(t)
	f.store(t, "db-url", "v1")

	var created time.Time
	for i := 2; i <= 4; i++ {
		f.clk.Advance(time.Minute)
		buffer, _ := secret.NewFromString("value")
		info, err := f.master(t).Rotate("db-url", buffer)
		if err != nil {
			t.Fatalf("Rotate %d: %v", i, err)
		}
		if info.Version != uint32(i) {
			t.Errorf("version after rotate = %d, want %d", info.Version, i)
		}
		if created.IsZero() {
			created = info.CreatedAt
		} else if !info.CreatedAt.Equal(created) {
			t.Error("created_at changed across rotations")
		}
		if !info.ModifiedAt.After(created) {
			t.Error("modified_at did not advance")
		}
	}

	buffer, _ := secret.NewFromString("x")
	if _, err := f.master(t).Rotate("nope", buffer); errcode.KindOf(err) != errcode.NotFound {
		t.Errorf("Rotate(missing) = %v, want NotFound", err)
	}
}

func TestRemove(t *testing.T) {
	f := newFixture(t)
	f.store(t, "tmp-secret", "x")

	if err := f.master(t).Remove("tmp-secret"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := f.master(t).Remove("tmp-secret"); errcode.KindOf(err) != errcode.NotFound {
		t.Errorf("second Remove = %v, want NotFound", err)
	}
}

// Scenario B from the acceptance suite: allow/deny scoping.
func TestPolicyScoping(t *testing.T) {
	f := newFixture(t)
	f.store(t, "db-dev-url", "dev")
	f.store(t, "db-prod-url", "prod")
	f.store(t, "api-key", "key")
	f.createPolicy(t, "dev", PolicySpec{
		Allow: []string{"db-dev-*", "api-*"},
		Deny:  []string{"*-prod-*"},
	})

	tests := []struct {
		secret string
		want   bool
	}{
		{"db-dev-url", true},
		{"db-prod-url", false},
		{"api-key", true},
	}
	for _, tt := range tests {
		allowed, err := f.master(t).TestPolicy("dev", tt.secret)
		if err != nil {
			t.Fatalf("TestPolicy(%s): %v", tt.secret, err)
		}
		if allowed != tt.want {
			t.Errorf("TestPolicy(dev, %s) = %v, want %v", tt.secret, allowed, tt.want)
		}
	}

	if _, err := f.master(t).TestPolicy("nope", "db-dev-url"); errcode.KindOf(err) != errcode.NotFound {
		t.Errorf("TestPolicy(unknown scope) = %v, want NotFound", err)
	}
}

func TestTokenScopeBoundsReads(t *testing.T) {
	f := newFixture(t)
	f.store(t, "db-dev-url", "dev-value")
	f.store(t, "db-prod-url", "prod-value")
	f.createPolicy(t, "dev", PolicySpec{Allow: []string{"db-dev-*"}})
	token, _ := f.createSession(t, "dev", time.Hour, false)

	client, err := f.withToken(t, token)
	if err != nil {
		t.Fatalf("token open: %v", err)
	}

	value, err := client.Get("db-dev-url")
	if err != nil {
		t.Fatalf("in-scope Get: %v", err)
	}
	value.Close()

	if _, err := client.Get("db-prod-url"); errcode.KindOf(err) != errcode.AccessDenied {
		t.Errorf("out-of-scope Get = %v, want AccessDenied", err)
	}

	infos, err := client.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 1 || infos[0].Name != "db-dev-url" {
		t.Errorf("token List = %+v, want only db-dev-url", infos)
	}
}

// Property 5: tokens cannot mutate the vault through any operation.
func TestTokenMutationsBlocked(t *testing.T) {
	f := newFixture(t)
	f.store(t, "db-dev-url", "x")
	f.createPolicy(t, "dev", PolicySpec{Allow: []string{"*"}})
	token, info := f.createSession(t, "dev", time.Hour, false)

	client, err := f.withToken(t, token)
	if err != nil {
		t.Fatalf("token open: %v", err)
	}

	vaultBefore, err := os.ReadFile(f.paths.VaultPath())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	buffer, _ := secret.NewFromString("x")
	mutations := map[string]error{}
	_, mutations["store"] = client.Store("new-secret", buffer, nil, false)
	buffer, _ = secret.NewFromString("x")
	_, mutations["rotate"] = client.Rotate("db-dev-url", buffer)
	mutations["remove"] = client.Remove("db-dev-url")
	mutations["policy create"] = client.CreatePolicy("p2", PolicySpec{})
	mutations["policy update"] = client.UpdatePolicy("dev", PolicySpec{})
	mutations["policy delete"] = client.DeletePolicy("dev")
	_, _, mutations["session create"] = client.CreateSession("dev", "", time.Hour, false)
	mutations["session revoke"] = client.RevokeSession(info.ID)
	_, mutations["revoke all"] = client.RevokeAllSessions()

	newBuffer, _ := secret.NewFromString("np")
	newKey := vault.PassphraseKey(newBuffer)
	defer newKey.Close()
	mutations["rekey"] = client.Rekey(newKey)

	for operation, err := range mutations {
		if errcode.KindOf(err) != errcode.TokenReadOnly {
			t.Errorf("%s under token = %v, want TokenReadOnly", operation, err)
		}
	}

	vaultAfter, err := os.ReadFile(f.paths.VaultPath())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(vaultBefore, vaultAfter) {
		t.Error("vault bytes changed under token-only operations")
	}
}

// Scenario C: run-only blocks reads but permits injection.
func TestRunOnlyContainment(t *testing.T) {
	f := newFixture(t)
	f.store(t, "db-dev-url", "injected-value")
	f.createPolicy(t, "dev", PolicySpec{Allow: []string{"db-dev-*"}})
	token, _ := f.createSession(t, "dev", time.Hour, true)

	client, err := f.withToken(t, token)
	if err != nil {
		t.Fatalf("token open: %v", err)
	}
	if !client.Context().RunOnly {
		t.Fatal("context is not run-only")
	}

	if _, err := client.Get("db-dev-url"); errcode.KindOf(err) != errcode.AccessDenied {
		t.Errorf("run-only Get = %v, want AccessDenied", err)
	}
	if _, err := client.EnvMap("", dispatch.Naming{}, nil); errcode.KindOf(err) != errcode.AccessDenied {
		t.Errorf("run-only EnvMap = %v, want AccessDenied", err)
	}
	if _, _, err := client.ResolveTemplate("", []byte("<authy:db-dev-url>")); errcode.KindOf(err) != errcode.AccessDenied {
		t.Errorf("run-only ResolveTemplate = %v, want AccessDenied", err)
	}

	infos, err := client.List("")
	if err != nil {
		t.Fatalf("run-only List: %v", err)
	}
	if len(infos) != 1 {
		t.Errorf("run-only List = %+v, want names", infos)
	}

	naming := dispatch.Naming{ReplaceDash: "_", Uppercase: true}
	code, err := client.Run("", naming, []string{"sh", "-c", `[ "$DB_DEV_URL" = "injected-value" ]`}, nil)
	if err != nil {
		t.Fatalf("run-only Run: %v", err)
	}
	if code != 0 {
		t.Error("run-only Run did not inject the secret")
	}
}

// Scenario D: revocation takes effect on next use.
func TestSessionRevocation(t *testing.T) {
	f := newFixture(t)
	f.store(t, "db-dev-url", "x")
	f.createPolicy(t, "dev", PolicySpec{Allow: []string{"*"}})
	token, info := f.createSession(t, "dev", time.Hour, false)

	client, err := f.withToken(t, token)
	if err != nil {
		t.Fatalf("token open before revoke: %v", err)
	}
	value, err := client.Get("db-dev-url")
	if err != nil {
		t.Fatalf("Get before revoke: %v", err)
	}
	value.Close()

	if err := f.master(t).RevokeSession(info.ID); err != nil {
		t.Fatalf("RevokeSession: %v", err)
	}

	if _, err := f.withToken(t, token); errcode.KindOf(err) != errcode.TokenRevoked {
		t.Errorf("revoked token open = %v, want TokenRevoked", err)
	}
}

func TestSessionExpiry(t *testing.T) {
	f := newFixture(t)
	f.createPolicy(t, "dev", PolicySpec{Allow: []string{"*"}})
	token, _ := f.createSession(t, "dev", 30*time.Minute, false)

	f.clk.Advance(31 * time.Minute)
	if _, err := f.withToken(t, token); errcode.KindOf(err) != errcode.TokenExpired {
		t.Errorf("expired token open = %v, want TokenExpired", err)
	}
}

func TestDanglingScopeFailsAtUse(t *testing.T) {
	f := newFixture(t)
	f.createPolicy(t, "dev", PolicySpec{Allow: []string{"*"}})
	token, _ := f.createSession(t, "dev", time.Hour, false)

	if err := f.master(t).DeletePolicy("dev"); err != nil {
		t.Fatalf("DeletePolicy: %v", err)
	}

	if _, err := f.withToken(t, token); errcode.KindOf(err) != errcode.NotFound {
		t.Errorf("dangling-scope token open = %v, want NotFound", err)
	}

	infos, err := f.master(t).ListSessions()
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(infos) != 1 || !infos[0].DanglingScope {
		t.Errorf("session infos = %+v, want dangling flagged", infos)
	}
}

func TestEnvMapTransforms(t *testing.T) {
	f := newFixture(t)
	f.store(t, "db-dev-url", "postgres://dev")
	f.store(t, "api-key", "k123")
	f.createPolicy(t, "dev", PolicySpec{Allow: []string{"db-dev-*", "api-*"}})

	entries, err := f.master(t).EnvMap("dev", dispatch.Naming{ReplaceDash: "_", Prefix: "app_", Uppercase: true}, nil)
	if err != nil {
		t.Fatalf("EnvMap: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %+v, want 2", entries)
	}
	if entries[0].Key != "APP_DB_DEV_URL" || entries[0].Value != "postgres://dev" {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].Key != "APP_API_KEY" {
		t.Errorf("entry 1 = %+v", entries[1])
	}
}

func TestRunWithUnknownScopeInjectsNothing(t *testing.T) {
	f := newFixture(t)
	f.store(t, "db-url", "x")

	code, err := f.master(t).Run("ghost", dispatch.Naming{Uppercase: true, ReplaceDash: "_"},
		[]string{"sh", "-c", `[ -z "$DB_URL" ]`}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 0 {
		t.Error("unknown scope leaked secrets into the child")
	}
}

func TestResolveTemplate(t *testing.T) {
	f := newFixture(t)
	f.store(t, "db-url", "postgres://x")
	f.createPolicy(t, "dev", PolicySpec{Allow: []string{"db-*"}})

	resolved, count, err := f.master(t).ResolveTemplate("dev", []byte("url=<authy:db-url> other=<authy:DB> done"))
	if err != nil {
		t.Fatalf("ResolveTemplate: %v", err)
	}
	if count != 1 {
		t.Errorf("substitutions = %d, want 1", count)
	}
	// <authy:DB> is not a valid name and passes through literally.
	want := "url=postgres://x other=<authy:DB> done"
	if string(resolved) != want {
		t.Errorf("resolved = %q, want %q", resolved, want)
	}

	if _, _, err := f.master(t).ResolveTemplate("dev", []byte("<authy:db-missing>")); errcode.KindOf(err) != errcode.NotFound {
		t.Errorf("missing placeholder = %v, want NotFound", err)
	}
}

// Property 7: one audit entry per sensitive operation, with matching
// operation, actor, and outcome.
func TestAuditTotality(t *testing.T) {
	f := newFixture(t)
	f.store(t, "db-url", "v")

	client := f.master(t)
	value, err := client.Get("db-url")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	value.Close()
	if err := client.Remove("db-url"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	entries, err := client.AuditEntries()
	if err != nil {
		t.Fatalf("AuditEntries: %v", err)
	}

	// vault.init, secret.write, secret.read, secret.remove.
	wantOps := []string{opInit, opSecretWrite, opSecretRead, opSecretRemove}
	if len(entries) != len(wantOps) {
		t.Fatalf("audit entries = %d, want %d: %+v", len(entries), len(wantOps), entries)
	}
	for i, want := range wantOps {
		if entries[i].Operation != want {
			t.Errorf("entry %d operation = %q, want %q", i, entries[i].Operation, want)
		}
		if entries[i].Outcome != audit.OutcomeSuccess {
			t.Errorf("entry %d outcome = %q", i, entries[i].Outcome)
		}
	}
	if entries[2].Actor != "master" || entries[2].SecretName != "db-url" {
		t.Errorf("read entry = %+v", entries[2])
	}

	count, err := client.VerifyAuditChain()
	if err != nil {
		t.Fatalf("VerifyAuditChain: %v", err)
	}
	if count != len(wantOps) {
		t.Errorf("verified = %d, want %d", count, len(wantOps))
	}
}

func TestDeniedReadIsAudited(t *testing.T) {
	f := newFixture(t)
	f.store(t, "db-prod-url", "x")
	f.createPolicy(t, "dev", PolicySpec{Allow: []string{"db-dev-*"}})
	token, _ := f.createSession(t, "dev", time.Hour, false)

	client, err := f.withToken(t, token)
	if err != nil {
		t.Fatalf("token open: %v", err)
	}
	if _, err := client.Get("db-prod-url"); errcode.KindOf(err) != errcode.AccessDenied {
		t.Fatalf("Get = %v, want AccessDenied", err)
	}

	entries, err := client.AuditEntries()
	if err != nil {
		t.Fatalf("AuditEntries: %v", err)
	}
	last := entries[len(entries)-1]
	if last.Operation != opSecretRead || last.Outcome != audit.OutcomeDenied {
		t.Errorf("denied read entry = %+v", last)
	}
	if !strings.HasPrefix(last.Actor, "token:") {
		t.Errorf("denied read actor = %q, want token:<id>", last.Actor)
	}
}

func TestRekey(t *testing.T) {
	f := newFixture(t)
	f.store(t, "db-url", "keep-me")
	f.createPolicy(t, "dev", PolicySpec{Allow: []string{"*"}})
	token, _ := f.createSession(t, "dev", time.Hour, false)

	newBuffer, _ := secret.NewFromString("new-passphrase")
	newKey := vault.PassphraseKey(newBuffer)
	defer newKey.Close()

	if err := f.master(t).Rekey(newKey); err != nil {
		t.Fatalf("Rekey: %v", err)
	}

	// The old passphrase no longer opens the vault. Resolution
	// itself succeeds (no token, nothing to validate); decryption
	// fails at first use.
	oldClient, err := Open(auth.Credentials{Passphrase: testPassphrase}, f.paths, WithClock(f.clk))
	if err != nil {
		t.Fatalf("Open with old passphrase: %v", err)
	}
	defer oldClient.Close()
	if _, err := oldClient.Get("db-url"); errcode.KindOf(err) != errcode.Decryption {
		t.Errorf("old passphrase Get = %v, want Decryption", err)
	}

	// New passphrase sees the same secrets; sessions are gone.
	client, err := Open(auth.Credentials{Passphrase: "new-passphrase"}, f.paths, WithClock(f.clk))
	if err != nil {
		t.Fatalf("Open with new key: %v", err)
	}
	defer client.Close()

	value, err := client.Get("db-url")
	if err != nil {
		t.Fatalf("Get after rekey: %v", err)
	}
	defer value.Close()
	if !bytes.Equal(value.Bytes(), []byte("keep-me")) {
		t.Error("secret lost across rekey")
	}

	sessions, err := client.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("sessions after rekey = %+v, want none", sessions)
	}

	// The old token is dead under the new session key.
	if _, err := Open(auth.Credentials{Passphrase: "new-passphrase", Token: token}, f.paths, WithClock(f.clk)); errcode.KindOf(err) != errcode.InvalidToken {
		t.Errorf("old token after rekey = %v, want InvalidToken", err)
	}

	// The new chain starts fresh and verifies under the new key.
	count, err := client.VerifyAuditChain()
	if err != nil {
		t.Fatalf("VerifyAuditChain after rekey: %v", err)
	}
	if count != 2 {
		t.Errorf("fresh chain length = %d, want 2 (the rekey entry and the read above)", count)
	}
}

func TestInitRefusesTwice(t *testing.T) {
	f := newFixture(t)

	buffer, _ := secret.NewFromString(testPassphrase)
	key := vault.PassphraseKey(buffer)
	defer key.Close()

	if err := Init(f.paths, key, f.clk); errcode.KindOf(err) != errcode.AlreadyExists {
		t.Errorf("second Init = %v, want AlreadyExists", err)
	}
}
