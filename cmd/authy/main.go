// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

// Command authy is a local, single-operator secrets manager for
// dispatching credentials to AI agents and subprocesses without
// exposing raw values. Every invocation loads the encrypted vault,
// performs one operation, and exits — no daemon, no server, no
// network.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/authy-sh/authy/cmd/authy/cli"
	"github.com/authy-sh/authy/lib/auth"
	"github.com/authy-sh/authy/lib/authy"
	"github.com/authy-sh/authy/lib/config"
	"github.com/authy-sh/authy/lib/errcode"
	"github.com/authy-sh/authy/lib/vault"
)

// jsonOutput is set by any command's --json flag; the top-level error
// mapper consults it to pick the error format.
var jsonOutput bool

func main() {
	root := &cli.Command{
		Name:    "authy",
		Summary: "local secrets manager for AI agents and subprocesses",
		Subcommands: []*cli.Command{
			initCommand(),
			storeCommand(),
			getCommand(),
			listCommand(),
			removeCommand(),
			rotateCommand(),
			policyCommand(),
			sessionCommand(),
			runCommand(),
			envCommand(),
			exportCommand(),
			resolveCommand(),
			auditCommand(),
			rekeyCommand(),
		},
	}

	if err := root.Execute(os.Args[1:]); err != nil {
		os.Exit(reportError(err))
	}
}

// reportError converts any error escaping a command into a process
// exit code, emitting diagnostics on stderr (plain or JSON). This is
// the single place errors become exit codes.
func reportError(err error) int {
	var exitError *cli.ExitError
	if errors.As(err, &exitError) {
		// The command already produced its own output (e.g., run
		// passing through a child's exit code).
		return exitError.ExitCode()
	}

	kind := errcode.KindOf(err)
	if jsonOutput {
		cli.WriteJSONError(os.Stderr, kind.Code(), err.Error(), kind.ExitCode())
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return kind.ExitCode()
}

// commonFlags are shared by every command that touches the vault.
type commonFlags struct {
	vaultDir   string
	passphrase string
	keyfile    string
	token      string
}

// register adds the shared flags to a flag set.
func (c *commonFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&c.vaultDir, "vault-dir", "", "vault directory (default ~/.authy)")
	flags.StringVar(&c.passphrase, "passphrase", "", "vault passphrase (prefer AUTHY_PASSPHRASE)")
	flags.StringVar(&c.keyfile, "keyfile", "", "age identity file (prefer AUTHY_KEYFILE)")
	flags.StringVar(&c.token, "token", "", "session token (prefer AUTHY_TOKEN)")
}

// registerJSON adds the --json output flag, wiring the global used by
// the error mapper.
func registerJSON(flags *pflag.FlagSet) {
	flags.BoolVar(&jsonOutput, "json", false, "structured JSON output")
}

// paths resolves the vault directory: flag override or ~/.authy.
func (c *commonFlags) paths() (vault.Paths, error) {
	if c.vaultDir != "" {
		return vault.PathsAt(c.vaultDir), nil
	}
	return vault.DefaultPaths()
}

// credentials builds the resolver input from the explicit flags,
// falling back to the operator's configured default keyfile when
// neither flags nor environment supply one.
func (c *commonFlags) credentials(paths vault.Paths) auth.Credentials {
	credentials := auth.Credentials{
		Passphrase: c.passphrase,
		Keyfile:    c.keyfile,
		Token:      c.token,
	}
	if credentials.Keyfile == "" && os.Getenv(auth.EnvKeyfile) == "" {
		if global, err := config.LoadGlobal(paths.Dir); err == nil && global.Keyfile != "" {
			credentials.Keyfile = global.Keyfile
		}
	}
	return credentials
}

// openClient resolves credentials and builds the facade client. The
// caller must Close it.
func (c *commonFlags) openClient() (*authy.Client, error) {
	paths, err := c.paths()
	if err != nil {
		return nil, err
	}
	options := clientOptions(paths)
	return authy.Open(c.credentials(paths), paths, options...)
}

// clientOptions honors the operator's audit_enabled switch.
func clientOptions(paths vault.Paths) []authy.Option {
	global, err := config.LoadGlobal(paths.Dir)
	if err == nil && !global.Audit() {
		return []authy.Option{authy.WithAuditDisabled()}
	}
	return nil
}
