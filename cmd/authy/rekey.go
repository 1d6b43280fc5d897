// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/authy-sh/authy/cmd/authy/cli"
	"github.com/authy-sh/authy/lib/auth"
	"github.com/authy-sh/authy/lib/errcode"
	"github.com/authy-sh/authy/lib/vault"
)

func rekeyCommand() *cli.Command {
	var common commonFlags
	var generateKeyfile, newKeyfile string
	var toPassphrase bool

	return &cli.Command{
		Name:    "rekey",
		Summary: "re-encrypt the vault under new credentials",
		Usage:   "authy rekey [--generate-keyfile <path> | --new-keyfile <path> | --to-passphrase] [flags]",
		Description: "Rekey re-encrypts the vault with a new key and mints fresh master\n" +
			"key material. Every outstanding session token is invalidated, and\n" +
			"the audit log is archived so a new chain starts under the new key.",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("rekey", pflag.ContinueOnError)
			common.register(flags)
			registerJSON(flags)
			flags.StringVar(&generateKeyfile, "generate-keyfile", "", "generate a fresh identity at this path")
			flags.StringVar(&newKeyfile, "new-keyfile", "", "re-encrypt to an existing identity file")
			flags.BoolVar(&toPassphrase, "to-passphrase", false, "switch to passphrase protection (prompts)")
			return flags
		},
		Run: func(args []string) error {
			selected := 0
			for _, on := range []bool{generateKeyfile != "", newKeyfile != "", toPassphrase} {
				if on {
					selected++
				}
			}
			if selected > 1 {
				return errcode.New(errcode.General, "only one of --generate-keyfile, --new-keyfile, or --to-passphrase may be given")
			}

			client, err := common.openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			newKey, err := rekeyNewKey(generateKeyfile, newKeyfile)
			if err != nil {
				return err
			}
			defer newKey.Close()

			if err := client.Rekey(newKey); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "Vault re-encrypted. All session tokens are now invalid.")
			return nil
		},
	}
}

// rekeyNewKey resolves the replacement credential. The default (and
// --to-passphrase) path prompts for a confirmed passphrase.
func rekeyNewKey(generateKeyfile, newKeyfile string) (vault.Key, error) {
	if generateKeyfile != "" {
		key, err := vault.GenerateKeyfile(generateKeyfile)
		if err != nil {
			return vault.Key{}, err
		}
		fmt.Fprintf(os.Stderr, "Generated new keyfile: %s\n", generateKeyfile)
		return key, nil
	}
	if newKeyfile != "" {
		return vault.ReadKeyfile(newKeyfile)
	}

	if auth.NonInteractive() {
		return vault.Key{}, errcode.New(errcode.AuthFailed, "cannot prompt for a new passphrase in non-interactive mode; pass --generate-keyfile or --new-keyfile")
	}
	buffer, err := auth.PromptNewPassphrase(nil)
	if err != nil {
		return vault.Key{}, err
	}
	return vault.PassphraseKey(buffer), nil
}
