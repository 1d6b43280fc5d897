// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/authy-sh/authy/cmd/authy/cli"
	"github.com/authy-sh/authy/lib/authy"
	"github.com/authy-sh/authy/lib/errcode"
)

func policyCommand() *cli.Command {
	return &cli.Command{
		Name:    "policy",
		Summary: "manage glob-based access policies",
		Subcommands: []*cli.Command{
			policyCreateCommand(),
			policyUpdateCommand(),
			policyListCommand(),
			policyShowCommand(),
			policyDeleteCommand(),
			policyTestCommand(),
		},
	}
}

// policySpecFlags registers the shared allow/deny/description/run-only
// flags for create and update.
func policySpecFlags(flags *pflag.FlagSet, spec *authy.PolicySpec) {
	flags.StringSliceVar(&spec.Allow, "allow", nil, "allow glob pattern (repeatable)")
	flags.StringSliceVar(&spec.Deny, "deny", nil, "deny glob pattern (repeatable; deny overrides allow)")
	flags.StringVar(&spec.Description, "description", "", "free-form description")
	flags.BoolVar(&spec.RunOnly, "run-only", false, "restrict this scope to subprocess injection")
}

func policyCreateCommand() *cli.Command {
	var common commonFlags
	var spec authy.PolicySpec

	return &cli.Command{
		Name:    "create",
		Summary: "create a policy",
		Usage:   "authy policy create <name> --allow <glob> [flags]",
		Examples: []cli.Example{
			{Description: "dev scope without prod secrets", Command: `authy policy create dev --allow 'db-dev-*' --allow 'api-*' --deny '*-prod-*'`},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("policy create", pflag.ContinueOnError)
			common.register(flags)
			registerJSON(flags)
			policySpecFlags(flags, &spec)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return errcode.New(errcode.General, "policy create takes exactly one policy name")
			}
			client, err := common.openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.CreatePolicy(args[0], spec); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Created policy %s\n", args[0])
			return nil
		},
	}
}

func policyUpdateCommand() *cli.Command {
	var common commonFlags
	var spec authy.PolicySpec

	return &cli.Command{
		Name:    "update",
		Summary: "replace a policy's patterns and flags",
		Usage:   "authy policy update <name> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("policy update", pflag.ContinueOnError)
			common.register(flags)
			registerJSON(flags)
			policySpecFlags(flags, &spec)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return errcode.New(errcode.General, "policy update takes exactly one policy name")
			}
			client, err := common.openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.UpdatePolicy(args[0], spec); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Updated policy %s\n", args[0])
			return nil
		},
	}
}

func policyListCommand() *cli.Command {
	var common commonFlags

	return &cli.Command{
		Name:    "list",
		Summary: "list policies",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("policy list", pflag.ContinueOnError)
			common.register(flags)
			registerJSON(flags)
			return flags
		},
		Run: func(args []string) error {
			client, err := common.openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			policies, err := client.ListPolicies()
			if err != nil {
				return err
			}
			if jsonOutput {
				return cli.WriteJSON(policies)
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "NAME\tALLOW\tDENY\tRUN-ONLY\tDESCRIPTION")
			for _, p := range policies {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%s\n",
					p.Name, strings.Join(p.Allow, ","), strings.Join(p.Deny, ","), p.RunOnly, p.Description)
			}
			return tw.Flush()
		},
	}
}

func policyShowCommand() *cli.Command {
	var common commonFlags

	return &cli.Command{
		Name:    "show",
		Summary: "show one policy",
		Usage:   "authy policy show <name> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("policy show", pflag.ContinueOnError)
			common.register(flags)
			registerJSON(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return errcode.New(errcode.General, "policy show takes exactly one policy name")
			}
			client, err := common.openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			policies, err := client.ListPolicies()
			if err != nil {
				return err
			}
			for _, p := range policies {
				if p.Name != args[0] {
					continue
				}
				if jsonOutput {
					return cli.WriteJSON(p)
				}
				fmt.Printf("name: %s\n", p.Name)
				fmt.Printf("allow: %s\n", strings.Join(p.Allow, ", "))
				fmt.Printf("deny: %s\n", strings.Join(p.Deny, ", "))
				fmt.Printf("run-only: %v\n", p.RunOnly)
				if p.Description != "" {
					fmt.Printf("description: %s\n", p.Description)
				}
				return nil
			}
			return errcode.New(errcode.NotFound, "policy not found: %s", args[0])
		},
	}
}

func policyDeleteCommand() *cli.Command {
	var common commonFlags

	return &cli.Command{
		Name:    "delete",
		Summary: "delete a policy (sessions bound to it fail at next use)",
		Usage:   "authy policy delete <name> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("policy delete", pflag.ContinueOnError)
			common.register(flags)
			registerJSON(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return errcode.New(errcode.General, "policy delete takes exactly one policy name")
			}
			client, err := common.openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.DeletePolicy(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Deleted policy %s\n", args[0])
			return nil
		},
	}
}

func policyTestCommand() *cli.Command {
	var common commonFlags
	var scope string

	return &cli.Command{
		Name:    "test",
		Summary: "test whether a scope allows a secret name",
		Usage:   "authy policy test --scope <policy> <secret> [flags]",
		Examples: []cli.Example{
			{Command: "authy policy test --scope dev db-dev-url"},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("policy test", pflag.ContinueOnError)
			common.register(flags)
			registerJSON(flags)
			flags.StringVar(&scope, "scope", "", "policy to evaluate")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 || scope == "" {
				return errcode.New(errcode.General, "policy test takes --scope and exactly one secret name")
			}
			client, err := common.openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			allowed, err := client.TestPolicy(scope, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				if err := cli.WriteJSON(map[string]any{"scope": scope, "secret": args[0], "allowed": allowed}); err != nil {
					return err
				}
			} else if allowed {
				fmt.Println("ALLOWED")
			} else {
				fmt.Println("DENIED")
			}
			if !allowed {
				// Scripting contract: denial exits with the
				// access-denied code without an extra error line.
				return &cli.ExitError{Code: errcode.AccessDenied.ExitCode()}
			}
			return nil
		},
	}
}
