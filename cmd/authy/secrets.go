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
	"github.com/authy-sh/authy/lib/secret"
)

func storeCommand() *cli.Command {
	var common commonFlags
	var valueFile string
	var tags []string
	var force bool

	return &cli.Command{
		Name:    "store",
		Summary: "store a new secret (value from stdin or --value-file)",
		Usage:   "authy store <name> [flags]",
		Examples: []cli.Example{
			{Description: "store from a pipe", Command: "echo -n \"$DB_URL\" | authy store db-url"},
			{Description: "overwrite an existing secret", Command: "authy store db-url --force < value.txt"},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("store", pflag.ContinueOnError)
			common.register(flags)
			registerJSON(flags)
			flags.StringVar(&valueFile, "value-file", "-", "read the value from this file (- for stdin)")
			flags.StringSliceVar(&tags, "tag", nil, "tag the secret (repeatable)")
			flags.BoolVar(&force, "force", false, "overwrite an existing secret (rotates it)")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return errcode.New(errcode.General, "store takes exactly one secret name")
			}

			value, err := secret.ReadFromPath(valueFile)
			if err != nil {
				return errcode.Wrap(errcode.Io, err, "reading secret value")
			}

			client, err := common.openClient()
			if err != nil {
				value.Close()
				return err
			}
			defer client.Close()

			info, err := client.Store(args[0], value, tags, force)
			if err != nil {
				return err
			}
			if jsonOutput {
				return cli.WriteJSON(info)
			}
			fmt.Fprintf(os.Stderr, "Stored %s (v%d)\n", info.Name, info.Version)
			return nil
		},
	}
}

func getCommand() *cli.Command {
	var common commonFlags

	return &cli.Command{
		Name:    "get",
		Summary: "print a secret's value to stdout",
		Usage:   "authy get <name> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("get", pflag.ContinueOnError)
			common.register(flags)
			registerJSON(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return errcode.New(errcode.General, "get takes exactly one secret name")
			}

			client, err := common.openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			value, err := client.Get(args[0])
			if err != nil {
				return err
			}
			defer value.Close()

			if jsonOutput {
				return cli.WriteJSON(map[string]string{"name": args[0], "value": value.String()})
			}
			// Payload on stdout; a trailing newline only, so pipes
			// see the exact stored bytes plus the line terminator.
			os.Stdout.Write(value.Bytes())
			fmt.Println()
			return nil
		},
	}
}

func listCommand() *cli.Command {
	var common commonFlags
	var scope string

	return &cli.Command{
		Name:    "list",
		Summary: "list secret names and metadata (never values)",
		Usage:   "authy list [--scope <policy>] [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("list", pflag.ContinueOnError)
			common.register(flags)
			registerJSON(flags)
			flags.StringVar(&scope, "scope", "", "filter through a policy")
			return flags
		},
		Run: func(args []string) error {
			client, err := common.openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			infos, err := client.List(scope)
			if err != nil {
				return err
			}
			if jsonOutput {
				return cli.WriteJSON(infos)
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "NAME\tVERSION\tMODIFIED\tTAGS")
			for _, info := range infos {
				tags := ""
				for i, tag := range info.Tags {
					if i > 0 {
						tags += ","
					}
					tags += tag
				}
				fmt.Fprintf(tw, "%s\tv%d\t%s\t%s\n", info.Name, info.Version, info.ModifiedAt.Format("2006-01-02 15:04:05"), tags)
			}
			return tw.Flush()
		},
	}
}

func removeCommand() *cli.Command {
	var common commonFlags

	return &cli.Command{
		Name:    "remove",
		Summary: "delete a secret",
		Usage:   "authy remove <name> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("remove", pflag.ContinueOnError)
			common.register(flags)
			registerJSON(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return errcode.New(errcode.General, "remove takes exactly one secret name")
			}

			client, err := common.openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Removed %s\n", args[0])
			return nil
		},
	}
}

func rotateCommand() *cli.Command {
	var common commonFlags
	var valueFile string

	return &cli.Command{
		Name:    "rotate",
		Summary: "replace a secret's value, bumping its version",
		Usage:   "authy rotate <name> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("rotate", pflag.ContinueOnError)
			common.register(flags)
			registerJSON(flags)
			flags.StringVar(&valueFile, "value-file", "-", "read the new value from this file (- for stdin)")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return errcode.New(errcode.General, "rotate takes exactly one secret name")
			}

			value, err := secret.ReadFromPath(valueFile)
			if err != nil {
				return errcode.Wrap(errcode.Io, err, "reading secret value")
			}

			client, err := common.openClient()
			if err != nil {
				value.Close()
				return err
			}
			defer client.Close()

			info, err := client.Rotate(args[0], value)
			if err != nil {
				return err
			}
			if jsonOutput {
				return cli.WriteJSON(info)
			}
			fmt.Fprintf(os.Stderr, "Rotated %s to v%d\n", info.Name, info.Version)
			return nil
		},
	}
}
