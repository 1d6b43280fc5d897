// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/authy-sh/authy/lib/errcode"
)

// EnvEntry is one injected environment variable, carrying the secret
// name it came from for collision diagnostics.
type EnvEntry struct {
	SecretName string
	Key        string
	Value      string
}

// BuildEnv applies the naming transform to each (name, value) pair,
// in the given name order. Collisions after transform resolve
// last-write-wins; each overwritten key is reported on warn. Entries
// come back in final (post-collision) insertion order.
func BuildEnv(names []string, values map[string]string, naming Naming, warn io.Writer) []EnvEntry {
	if warn == nil {
		warn = io.Discard
	}

	index := make(map[string]int, len(names))
	entries := make([]EnvEntry, 0, len(names))
	for _, name := range names {
		entry := EnvEntry{
			SecretName: name,
			Key:        TransformName(name, naming),
			Value:      values[name],
		}
		if existing, ok := index[entry.Key]; ok {
			fmt.Fprintf(warn, "warning: %s collides with %s as %s; keeping %s\n",
				name, entries[existing].SecretName, entry.Key, name)
			entries[existing] = entry
			continue
		}
		index[entry.Key] = len(entries)
		entries = append(entries, entry)
	}
	return entries
}

// strippedEnv lists parent variables never passed to children: a
// credential in the parent's environment must not leak into every
// dispatched process. The keyfile path is not secret material and is
// left alone.
var strippedEnv = []string{"AUTHY_PASSPHRASE", "AUTHY_TOKEN"}

// Run spawns argv with the parent environment plus the injected
// entries (injected wins on key collision with the parent). Secret
// values never appear in argv. The child inherits stdio directly; no
// capture.
//
// Returns the child's exit code on normal exit, 128+signal when the
// child dies to a signal, or Subprocess when the spawn itself fails.
func Run(argv []string, injected []EnvEntry) (int, error) {
	if len(argv) == 0 {
		return 0, errcode.New(errcode.Subprocess, "no command specified")
	}

	environment := make([]string, 0, len(os.Environ())+len(injected))
	overridden := make(map[string]bool, len(injected))
	for _, entry := range injected {
		overridden[entry.Key] = true
	}
	for _, pair := range os.Environ() {
		key := pair[:strings.IndexByte(pair, '=')]
		if overridden[key] || stripped(key) {
			continue
		}
		environment = append(environment, pair)
	}
	for _, entry := range injected {
		environment = append(environment, entry.Key+"="+entry.Value)
	}

	command := exec.Command(argv[0], argv[1:]...)
	command.Env = environment
	command.Stdin = os.Stdin
	command.Stdout = os.Stdout
	command.Stderr = os.Stderr

	err := command.Run()
	if err == nil {
		return 0, nil
	}

	var exitError *exec.ExitError
	if !errors.As(err, &exitError) {
		return 0, errcode.Wrap(errcode.Subprocess, err, "running %s", argv[0])
	}

	if status, ok := exitError.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 128 + int(status.Signal()), nil
	}
	return exitError.ExitCode(), nil
}

func stripped(key string) bool {
	for _, name := range strippedEnv {
		if key == name {
			return true
		}
	}
	return false
}
