// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-sharelock.
//
// go-sharelock is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package dek manages data encryption keys: random symmetric keys that
// encrypt payloads with AES-GCM under a fresh 16-byte nonce.
package dek

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"io"

	"github.com/jeremyhahn/go-sharelock/pkg/types"
)

// Generate returns a random AES key of size bytes (16, 24 or 32).
func Generate(random io.Reader, size int) ([]byte, error) {
	switch size {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: DEK size must be 16, 24 or 32 bytes, got %d", types.ErrInvalidParameter, size)
	}
	key := make([]byte, size)
	if _, err := io.ReadFull(random, key); err != nil {
		return nil, fmt.Errorf("%w: failed to generate DEK: %v", types.ErrRandom, err)
	}
	return key, nil
}

// Encrypt seals data under key with a freshly drawn nonce. The returned
// ciphertext carries the 16-byte GCM tag at its end.
func Encrypt(random io.Reader, data, key []byte) (ciphertext, nonce []byte, err error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, types.NonceSize)
	if _, err := io.ReadFull(random, nonce); err != nil {
		return nil, nil, fmt.Errorf("%w: failed to generate nonce: %v", types.ErrRandom, err)
	}

	return gcm.Seal(nil, nonce, data, nil), nonce, nil
}

// Decrypt opens ciphertext produced by Encrypt. A failed tag check returns
// types.ErrAuthentication and no plaintext. An empty payload decrypts to a
// non-nil empty slice.
func Decrypt(data, key, nonce []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != types.NonceSize {
		return nil, fmt.Errorf("%w: nonce must be %d bytes, got %d", types.ErrInvalidFormat, types.NonceSize, len(nonce))
	}
	if len(data) < types.TagSize {
		return nil, fmt.Errorf("%w: ciphertext shorter than authentication tag", types.ErrInvalidFormat)
	}

	plaintext, err := gcm.Open(make([]byte, 0, len(data)-types.TagSize), nonce, data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: payload decryption failed", types.ErrAuthentication)
	}
	return plaintext, nil
}

// Seal encrypts data and returns nonce ‖ ciphertext ‖ tag.
func Seal(random io.Reader, data, key []byte) ([]byte, error) {
	ciphertext, nonce, err := Encrypt(random, data, key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(nonce)+len(ciphertext))
	out = append(out, nonce...)
	return append(out, ciphertext...), nil
}

// Open splits an envelope produced by Seal and decrypts it.
func Open(envelope, key []byte) ([]byte, error) {
	if len(envelope) < types.NonceSize {
		return nil, fmt.Errorf("%w: envelope is %d bytes, shorter than the %d-byte nonce",
			types.ErrInvalidFormat, len(envelope), types.NonceSize)
	}
	return Decrypt(envelope[types.NonceSize:], key, envelope[:types.NonceSize])
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid DEK: %v", types.ErrInvalidParameter, err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, types.NonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
