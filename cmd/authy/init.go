// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/authy-sh/authy/cmd/authy/cli"
	"github.com/authy-sh/authy/lib/auth"
	"github.com/authy-sh/authy/lib/authy"
	"github.com/authy-sh/authy/lib/clock"
	"github.com/authy-sh/authy/lib/errcode"
	"github.com/authy-sh/authy/lib/secret"
	"github.com/authy-sh/authy/lib/vault"
)

func initCommand() *cli.Command {
	var common commonFlags
	var generateKeyfile string

	return &cli.Command{
		Name:    "init",
		Summary: "create a new encrypted vault",
		Usage:   "authy init [--generate-keyfile [path]] [flags]",
		Examples: []cli.Example{
			{Description: "passphrase-protected vault", Command: "authy init"},
			{Description: "keyfile-protected vault for automation", Command: "authy init --generate-keyfile ~/.authy/keys/master.key"},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("init", pflag.ContinueOnError)
			common.register(flags)
			registerJSON(flags)
			flags.StringVar(&generateKeyfile, "generate-keyfile", "", "generate an age identity at this path and use it as the vault key")
			flags.Lookup("generate-keyfile").NoOptDefVal = "default"
			return flags
		},
		Run: func(args []string) error {
			paths, err := common.paths()
			if err != nil {
				return err
			}

			key, err := initKey(&common, generateKeyfile, paths)
			if err != nil {
				return err
			}
			defer key.Close()

			if err := authy.Init(paths, key, clock.Real()); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Initialized vault at %s\n", paths.VaultPath())
			return nil
		},
	}
}

// initKey resolves the credential a fresh vault is sealed under:
// a generated keyfile, an explicit/environment passphrase, or an
// interactive confirmed prompt.
func initKey(common *commonFlags, generateKeyfile string, paths vault.Paths) (vault.Key, error) {
	if generateKeyfile != "" {
		path := generateKeyfile
		if path == "default" {
			path = paths.DefaultKeyfilePath()
		}
		key, err := vault.GenerateKeyfile(path)
		if err != nil {
			return vault.Key{}, err
		}
		fmt.Fprintf(os.Stderr, "Generated keyfile: %s\n", path)
		fmt.Fprintf(os.Stderr, "Public key: %s.pub\n", path)
		return key, nil
	}

	if common.keyfile != "" {
		return vault.ReadKeyfile(common.keyfile)
	}

	passphrase := common.passphrase
	if passphrase == "" {
		passphrase = os.Getenv(auth.EnvPassphrase)
	}
	if passphrase != "" {
		buffer, err := secret.NewFromString(passphrase)
		if err != nil {
			return vault.Key{}, errcode.Wrap(errcode.AuthFailed, err, "reading passphrase")
		}
		return vault.PassphraseKey(buffer), nil
	}

	if auth.NonInteractive() {
		return vault.Key{}, errcode.New(errcode.NoCredentials, "no credentials for init; pass --generate-keyfile, --passphrase, or set %s", auth.EnvPassphrase)
	}

	buffer, err := auth.PromptNewPassphrase(nil)
	if err != nil {
		return vault.Key{}, err
	}
	return vault.PassphraseKey(buffer), nil
}
