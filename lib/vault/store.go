// Copyright 2026 The Authy Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/authy-sh/authy/lib/codec"
	"github.com/authy-sh/authy/lib/errcode"
	"github.com/authy-sh/authy/lib/secret"
)

// Plaintext framing ahead of the compressed CBOR payload. The header
// is length-prefixed and schema-tagged; every identifier is refused
// when unknown rather than silently downgraded.
const (
	frameMagic  = "AUTHYVLT"
	headerSize  = len(frameMagic) + 4 // magic + u16 version + u8 compression + u8 mac alg
	compression = 1                   // zstd
	macAlg      = 1                   // HMAC-SHA256
)

// zstdEncoder and zstdDecoder are shared across calls. Concurrency is
// pinned to 1 so the same payload always compresses to the same bytes.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		panic("vault: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		panic("vault: zstd decoder initialization failed: " + err.Error())
	}
}

// Load reads, decrypts, and decodes the vault. Returns NotInitialized
// when no vault file exists and Decryption when the key does not open
// it. The caller owns the returned vault and must Close it.
func Load(paths Paths, key Key) (*Vault, error) {
	ciphertext, err := os.ReadFile(paths.VaultPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errcode.New(errcode.NotInitialized, "vault not initialized at %s (run `authy init` first)", paths.VaultPath())
		}
		return nil, errcode.Wrap(errcode.Io, err, "reading vault")
	}

	plaintext, err := key.decrypt(ciphertext)
	if err != nil {
		return nil, err
	}
	defer secret.Zero(plaintext)

	payload, err := unframe(plaintext)
	if err != nil {
		return nil, err
	}

	raw, err := zstdDecoder.DecodeAll(payload, nil)
	if err != nil {
		return nil, errcode.Wrap(errcode.Serialization, err, "decompressing vault payload")
	}
	defer secret.Zero(raw)

	var v Vault
	if err := codec.Unmarshal(raw, &v); err != nil {
		return nil, errcode.Wrap(errcode.Serialization, err, "decoding vault payload")
	}
	if err := v.validate(); err != nil {
		return nil, err
	}
	return &v, nil
}

// Save serializes, encrypts, and atomically replaces the vault file:
// write to a .tmp sibling, fsync, rename over the target, fsync the
// directory. A crash at any point leaves either the previous complete
// vault or the new complete vault — never a partial write.
func Save(v *Vault, paths Paths, key Key) error {
	if err := paths.EnsureDir(); err != nil {
		return err
	}

	raw, err := codec.Marshal(v)
	if err != nil {
		return errcode.Wrap(errcode.Serialization, err, "encoding vault payload")
	}
	defer secret.Zero(raw)

	plaintext := frame(zstdEncoder.EncodeAll(raw, make([]byte, 0, headerSize+len(raw))))
	defer secret.Zero(plaintext)

	ciphertext, err := key.encrypt(plaintext)
	if err != nil {
		return err
	}

	target := paths.VaultPath()
	tmp := target + ".tmp"

	file, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return errcode.Wrap(errcode.Io, err, "creating %s", tmp)
	}
	if _, err := file.Write(ciphertext); err != nil {
		file.Close()
		os.Remove(tmp)
		return errcode.Wrap(errcode.Io, err, "writing %s", tmp)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmp)
		return errcode.Wrap(errcode.Io, err, "syncing %s", tmp)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return errcode.Wrap(errcode.Io, err, "closing %s", tmp)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return errcode.Wrap(errcode.Io, err, "replacing %s", target)
	}
	syncDir(filepath.Dir(target))
	return nil
}

// Init creates the vault: refuses when one exists, mints master key
// material, and persists an empty vault under the given key. The
// caller owns the returned vault and must Close it.
func Init(paths Paths, key Key, now time.Time) (*Vault, error) {
	if paths.Initialized() {
		return nil, errcode.New(errcode.AlreadyExists, "vault already initialized at %s", paths.VaultPath())
	}
	v, err := New(now)
	if err != nil {
		return nil, err
	}
	if err := Save(v, paths, key); err != nil {
		v.Close()
		return nil, err
	}
	return v, nil
}

func frame(compressed []byte) []byte {
	header := make([]byte, headerSize, headerSize+len(compressed))
	copy(header, frameMagic)
	binary.BigEndian.PutUint16(header[len(frameMagic):], FormatVersion)
	header[len(frameMagic)+2] = compression
	header[len(frameMagic)+3] = macAlg
	return append(header, compressed...)
}

func unframe(plaintext []byte) ([]byte, error) {
	if len(plaintext) < headerSize || string(plaintext[:len(frameMagic)]) != frameMagic {
		return nil, errcode.New(errcode.Serialization, "vault payload has no %s header", frameMagic)
	}
	version := binary.BigEndian.Uint16(plaintext[len(frameMagic):])
	if version != FormatVersion {
		return nil, errcode.New(errcode.Serialization, "unsupported vault format version %d (want %d)", version, FormatVersion)
	}
	if tag := plaintext[len(frameMagic)+2]; tag != compression {
		return nil, errcode.New(errcode.Serialization, "unknown compression tag %d", tag)
	}
	if alg := plaintext[len(frameMagic)+3]; alg != macAlg {
		return nil, errcode.New(errcode.Serialization, "unknown MAC algorithm id %d", alg)
	}
	return plaintext[headerSize:], nil
}

// syncDir fsyncs a directory so the rename itself is durable. Errors
// are ignored: the data rename already happened, and some filesystems
// reject directory fsync.
func syncDir(dir string) {
	handle, err := os.Open(dir)
	if err != nil {
		return
	}
	handle.Sync()
	handle.Close()
}
