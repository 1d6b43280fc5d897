// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/authy-sh/authy/cmd/authy/cli"
	"github.com/authy-sh/authy/lib/errcode"
	"github.com/authy-sh/authy/lib/session"
)

func sessionCommand() *cli.Command {
	return &cli.Command{
		Name:    "session",
		Summary: "manage short-lived scoped tokens",
		Subcommands: []*cli.Command{
			sessionCreateCommand(),
			sessionListCommand(),
			sessionRevokeCommand(),
			sessionRevokeAllCommand(),
		},
	}
}

func sessionCreateCommand() *cli.Command {
	var common commonFlags
	var scope, label, ttl string
	var runOnly bool

	return &cli.Command{
		Name:    "create",
		Summary: "mint a scoped token (shown once)",
		Usage:   "authy session create --scope <policy> --ttl <duration> [flags]",
		Examples: []cli.Example{
			{Description: "8-hour run-only token for an agent", Command: "authy session create --scope dev --ttl 8h --run-only --label claude"},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("session create", pflag.ContinueOnError)
			common.register(flags)
			registerJSON(flags)
			flags.StringVar(&scope, "scope", "", "policy bounding this session")
			flags.StringVar(&ttl, "ttl", "8h", "lifetime (30m, 8h, 7d)")
			flags.StringVar(&label, "label", "", "operator label")
			flags.BoolVar(&runOnly, "run-only", false, "token may inject via run but never read values")
			return flags
		},
		Run: func(args []string) error {
			if scope == "" {
				return errcode.New(errcode.General, "session create requires --scope")
			}
			duration, err := session.ParseTTL(ttl)
			if err != nil {
				return err
			}

			client, err := common.openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			token, info, err := client.CreateSession(scope, label, duration, runOnly)
			if err != nil {
				return err
			}
			if jsonOutput {
				return cli.WriteJSON(map[string]any{"token": token, "session": info})
			}
			// The token is the payload; it is shown exactly once.
			fmt.Println(token)
			fmt.Fprintf(os.Stderr, "Session %s (scope %s) expires %s\n", info.ID, info.Scope, info.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	}
}

func sessionListCommand() *cli.Command {
	var common commonFlags

	return &cli.Command{
		Name:    "list",
		Summary: "list sessions (never tokens)",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("session list", pflag.ContinueOnError)
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

			infos, err := client.ListSessions()
			if err != nil {
				return err
			}
			if jsonOutput {
				return cli.WriteJSON(infos)
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "ID\tSCOPE\tLABEL\tEXPIRES\tSTATE")
			for _, info := range infos {
				state := "active"
				switch {
				case info.Revoked:
					state = "revoked"
				case info.DanglingScope:
					state = "dangling-scope"
				case info.RunOnly:
					state = "run-only"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					info.ID, info.Scope, info.Label, info.ExpiresAt.Format("2006-01-02 15:04"), state)
			}
			return tw.Flush()
		},
	}
}

func sessionRevokeCommand() *cli.Command {
	var common commonFlags

	return &cli.Command{
		Name:    "revoke",
		Summary: "revoke one session immediately",
		Usage:   "authy session revoke <id> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("session revoke", pflag.ContinueOnError)
			common.register(flags)
			registerJSON(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return errcode.New(errcode.General, "session revoke takes exactly one session id")
			}
			client, err := common.openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.RevokeSession(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Revoked session %s\n", args[0])
			return nil
		},
	}
}

func sessionRevokeAllCommand() *cli.Command {
	var common commonFlags

	return &cli.Command{
		Name:    "revoke-all",
		Summary: "revoke every session",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("session revoke-all", pflag.ContinueOnError)
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

			count, err := client.RevokeAllSessions()
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Revoked %d sessions\n", count)
			return nil
		},
	}
}
