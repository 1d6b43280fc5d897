// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/authy-sh/authy/cmd/authy/cli"
	"github.com/authy-sh/authy/lib/config"
	"github.com/authy-sh/authy/lib/dispatch"
	"github.com/authy-sh/authy/lib/errcode"
)

// scopedFlags are shared by the commands that materialize a scope's
// environment: run, env, export, resolve. Explicit flags win over the
// discovered .authy.jsonc project config.
type scopedFlags struct {
	common      commonFlags
	scope       string
	uppercase   bool
	replaceDash string
	prefix      string
}

func (s *scopedFlags) register(flags *pflag.FlagSet) {
	s.common.register(flags)
	flags.StringVar(&s.scope, "scope", "", "policy scope (default from .authy.jsonc)")
	flags.BoolVar(&s.uppercase, "uppercase", false, "uppercase variable names")
	flags.StringVar(&s.replaceDash, "replace-dash", "", "replace dashes with this character")
	flags.StringVar(&s.prefix, "prefix", "", "prefix for variable names")
}

// merge folds the project config into unset flags and returns the
// effective scope and naming.
func (s *scopedFlags) merge() (string, dispatch.Naming, error) {
	scope := s.scope
	naming := dispatch.Naming{
		Uppercase:   s.uppercase,
		ReplaceDash: s.replaceDash,
		Prefix:      s.prefix,
	}

	cwd, err := os.Getwd()
	if err != nil {
		return scope, naming, nil
	}
	project, _, err := config.DiscoverProject(cwd)
	if err != nil || project == nil {
		return scope, naming, err
	}

	if scope == "" {
		scope = project.Scope
	}
	if !naming.Uppercase {
		naming.Uppercase = project.Uppercase
	}
	if naming.ReplaceDash == "" {
		naming.ReplaceDash = project.ReplaceDash
	}
	if naming.Prefix == "" {
		naming.Prefix = project.Prefix
	}
	if s.common.keyfile == "" && project.Keyfile != "" {
		s.common.keyfile = project.ExpandedKeyfile()
	}
	return scope, naming, nil
}

func runCommand() *cli.Command {
	var scoped scopedFlags

	return &cli.Command{
		Name:    "run",
		Summary: "run a command with scoped secrets in its environment",
		Usage:   "authy run [flags] -- <command> [args...]",
		Description: "Run spawns the command with the parent environment plus the\n" +
			"scope's secrets injected as variables. Values never appear on the\n" +
			"command line. The child's exit code becomes authy's exit code.",
		Examples: []cli.Example{
			{Command: "authy run --scope dev --uppercase --replace-dash _ -- npm start"},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
			scoped.register(flags)
			registerJSON(flags)
			flags.SetInterspersed(false)
			return flags
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return errcode.New(errcode.General, "run requires a command after --")
			}

			scope, naming, err := scoped.merge()
			if err != nil {
				return err
			}

			client, err := scoped.common.openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			code, err := client.Run(scope, naming, args, os.Stderr)
			if err != nil {
				return err
			}
			if code != 0 {
				return &cli.ExitError{Code: code}
			}
			return nil
		},
	}
}

func envCommand() *cli.Command {
	var scoped scopedFlags
	var format string
	var noExport bool

	return &cli.Command{
		Name:    "env",
		Summary: "print a scope's secrets as environment assignments",
		Usage:   "authy env [--format shell|dotenv|json] [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("env", pflag.ContinueOnError)
			scoped.register(flags)
			registerJSON(flags)
			flags.StringVar(&format, "format", "shell", "output format: shell, dotenv, or json")
			flags.BoolVar(&noExport, "no-export", false, "omit the `export` keyword in shell format")
			return flags
		},
		Run: func(args []string) error {
			scope, naming, err := scoped.merge()
			if err != nil {
				return err
			}

			client, err := scoped.common.openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			entries, err := client.EnvMap(scope, naming, os.Stderr)
			if err != nil {
				return err
			}
			return writeEnv(os.Stdout, entries, format, noExport)
		},
	}
}

func exportCommand() *cli.Command {
	var scoped scopedFlags
	var output string

	return &cli.Command{
		Name:    "export",
		Summary: "write a scope's secrets to a dotenv file",
		Usage:   "authy export [--output .env] [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("export", pflag.ContinueOnError)
			scoped.register(flags)
			registerJSON(flags)
			flags.StringVar(&output, "output", ".env", "destination file (mode 0600)")
			return flags
		},
		Run: func(args []string) error {
			scope, naming, err := scoped.merge()
			if err != nil {
				return err
			}

			client, err := scoped.common.openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			entries, err := client.EnvMap(scope, naming, os.Stderr)
			if err != nil {
				return err
			}

			file, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
			if err != nil {
				return errcode.Wrap(errcode.Io, err, "creating %s", output)
			}
			defer file.Close()

			if err := writeEnv(file, entries, "dotenv", false); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Wrote %d secrets to %s\n", len(entries), output)
			return nil
		},
	}
}

func resolveCommand() *cli.Command {
	var scoped scopedFlags
	var output string

	return &cli.Command{
		Name:    "resolve",
		Summary: "substitute <authy:name> placeholders in a template file",
		Usage:   "authy resolve <file> [--output <file>] [flags]",
		Examples: []cli.Example{
			{Command: "authy resolve deploy.yaml.tmpl --scope prod --output deploy.yaml"},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("resolve", pflag.ContinueOnError)
			scoped.register(flags)
			registerJSON(flags)
			flags.StringVar(&output, "output", "", "destination file (default stdout, mode 0600)")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return errcode.New(errcode.General, "resolve takes exactly one template file")
			}

			scope, _, err := scoped.merge()
			if err != nil {
				return err
			}

			template, err := os.ReadFile(args[0])
			if err != nil {
				return errcode.Wrap(errcode.Io, err, "reading %s", args[0])
			}

			client, err := scoped.common.openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			resolved, count, err := client.ResolveTemplate(scope, template)
			if err != nil {
				return err
			}

			if output == "" {
				_, err = os.Stdout.Write(resolved)
				return err
			}
			if err := os.WriteFile(output, resolved, 0o600); err != nil {
				return errcode.Wrap(errcode.Io, err, "writing %s", output)
			}
			fmt.Fprintf(os.Stderr, "Resolved %d placeholders into %s\n", count, output)
			return nil
		},
	}
}
