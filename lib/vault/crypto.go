// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"

	"github.com/authy-sh/authy/lib/errcode"
	"github.com/authy-sh/authy/lib/secret"
)

// KeyKind selects how the vault ciphertext is addressed.
type KeyKind int

const (
	// KeyPassphrase encrypts to an age scrypt recipient (memory-hard
	// passphrase KDF).
	KeyPassphrase KeyKind = iota

	// KeyIdentity encrypts to the X25519 recipient of an age
	// identity held in a keyfile.
	KeyIdentity
)

// Key is the credential that opens the vault: either a passphrase or
// an age X25519 identity. The material lives in a secret.Buffer; call
// Close when the operation completes.
type Key struct {
	kind     KeyKind
	material *secret.Buffer

	// keyfilePath is retained for the audit actor string when the
	// identity came from a file.
	keyfilePath string
}

// PassphraseKey wraps a passphrase. Takes ownership of the buffer.
func PassphraseKey(passphrase *secret.Buffer) Key {
	return Key{kind: KeyPassphrase, material: passphrase}
}

// IdentityKey wraps an age identity string (AGE-SECRET-KEY-1...).
// Takes ownership of the buffer. Returns AuthFailed if the material
// does not parse as an X25519 identity.
func IdentityKey(identity *secret.Buffer, keyfilePath string) (Key, error) {
	if _, err := age.ParseX25519Identity(identity.String()); err != nil {
		return Key{}, errcode.Wrap(errcode.AuthFailed, err, "invalid keyfile %s", keyfilePath)
	}
	return Key{kind: KeyIdentity, material: identity, keyfilePath: keyfilePath}, nil
}

// ReadKeyfile loads an age identity from a file into an IdentityKey.
func ReadKeyfile(path string) (Key, error) {
	buffer, err := secret.ReadFromPath(path)
	if err != nil {
		return Key{}, errcode.Wrap(errcode.AuthFailed, err, "reading keyfile %s", path)
	}
	key, err := IdentityKey(buffer, path)
	if err != nil {
		buffer.Close()
		return Key{}, err
	}
	return key, nil
}

// GenerateKeyfile mints a fresh age X25519 identity, writes it to path
// (0600) with the public key at path+".pub", and returns the
// corresponding Key.
func GenerateKeyfile(path string) (Key, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return Key{}, errcode.Wrap(errcode.General, err, "generating identity")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return Key{}, errcode.Wrap(errcode.Io, err, "creating %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, []byte(identity.String()+"\n"), 0o600); err != nil {
		return Key{}, errcode.Wrap(errcode.Io, err, "writing keyfile %s", path)
	}
	if err := os.WriteFile(path+".pub", []byte(identity.Recipient().String()+"\n"), 0o644); err != nil {
		return Key{}, errcode.Wrap(errcode.Io, err, "writing public key %s.pub", path)
	}

	// Move the identity string into protected memory. The heap copy
	// age returned is unreachable after this and falls to the GC.
	buffer, err := secret.NewFromBytes([]byte(identity.String()))
	if err != nil {
		return Key{}, errcode.Wrap(errcode.General, err, "protecting identity")
	}
	return Key{kind: KeyIdentity, material: buffer, keyfilePath: path}, nil
}

// Kind returns how this key addresses the ciphertext.
func (k Key) Kind() KeyKind { return k.kind }

// Actor returns the audit actor string for this key: "master" for a
// passphrase, "keyfile:<path>" for an identity.
func (k Key) Actor() string {
	if k.kind == KeyIdentity {
		return "keyfile:" + k.keyfilePath
	}
	return "master"
}

// Close releases the underlying secret material.
func (k Key) Close() error {
	if k.material != nil {
		return k.material.Close()
	}
	return nil
}

// encrypt seals plaintext to the key's recipient.
func (k Key) encrypt(plaintext []byte) ([]byte, error) {
	var recipient age.Recipient
	switch k.kind {
	case KeyPassphrase:
		r, err := age.NewScryptRecipient(k.material.String())
		if err != nil {
			return nil, errcode.Wrap(errcode.General, err, "preparing passphrase recipient")
		}
		recipient = r
	case KeyIdentity:
		identity, err := age.ParseX25519Identity(k.material.String())
		if err != nil {
			return nil, errcode.Wrap(errcode.AuthFailed, err, "parsing identity")
		}
		recipient = identity.Recipient()
	default:
		return nil, errcode.New(errcode.General, "unknown key kind %d", k.kind)
	}

	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, recipient)
	if err != nil {
		return nil, errcode.Wrap(errcode.General, err, "creating encryptor")
	}
	if _, err := writer.Write(plaintext); err != nil {
		return nil, errcode.Wrap(errcode.General, err, "encrypting vault")
	}
	if err := writer.Close(); err != nil {
		return nil, errcode.Wrap(errcode.General, err, "finalizing encryption")
	}
	return ciphertext.Bytes(), nil
}

// decrypt opens ciphertext with the key. A wrong passphrase, an
// identity that matches no recipient stanza, and a corrupted tag all
// report Decryption.
func (k Key) decrypt(ciphertext []byte) ([]byte, error) {
	var identity age.Identity
	switch k.kind {
	case KeyPassphrase:
		i, err := age.NewScryptIdentity(k.material.String())
		if err != nil {
			return nil, errcode.Wrap(errcode.General, err, "preparing passphrase identity")
		}
		identity = i
	case KeyIdentity:
		i, err := age.ParseX25519Identity(k.material.String())
		if err != nil {
			return nil, errcode.Wrap(errcode.AuthFailed, err, "parsing identity")
		}
		identity = i
	default:
		return nil, errcode.New(errcode.General, "unknown key kind %d", k.kind)
	}

	reader, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, decryptionError(err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		secret.Zero(plaintext)
		return nil, decryptionError(err)
	}
	return plaintext, nil
}

func decryptionError(err error) error {
	message := "vault decryption failed"
	// age reports "no identity matched any recipient" for both a
	// wrong passphrase and a non-matching keyfile; keep the detail
	// for diagnostics without claiming more than age knows.
	if strings.Contains(err.Error(), "no identity matched") {
		message = fmt.Sprintf("%s: credentials do not open this vault", message)
	}
	return errcode.Wrap(errcode.Decryption, err, "%s", message)
}
