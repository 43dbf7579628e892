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

package kek

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/jeremyhahn/go-sharelock/pkg/types"
	"golang.org/x/crypto/hkdf"
)

const (
	p256PublicKeySize = 65
	p256NonceSize     = 12
	p256TagSize       = 16
	p256KeySize       = 32
)

var p256Info = []byte("ecies-encryption")

// P256 wraps keys with ECIES over NIST P-256: ephemeral ECDH, HKDF-SHA-256
// and AES-256-GCM. The ciphertext layout is
//
//	ephemeral public key (65) || nonce (12) || tag (16) || ciphertext
type P256 struct{}

var _ Scheme = P256{}

func (P256) Name() string { return SchemeP256 }

func (P256) Generate(random io.Reader) (*KeyPair, error) {
	key, err := ecdh.P256().GenerateKey(random)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to generate P-256 key: %v", types.ErrRandom, err)
	}
	return &KeyPair{
		Public:  key.PublicKey().Bytes(),
		Private: key.Bytes(),
	}, nil
}

func (P256) Encrypt(random io.Reader, data, public []byte) ([]byte, error) {
	recipient, err := ecdh.P256().NewPublicKey(public)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid P-256 public key: %v", types.ErrInvalidFormat, err)
	}

	ephemeral, err := ecdh.P256().GenerateKey(random)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to generate ephemeral key: %v", types.ErrRandom, err)
	}
	shared, err := ephemeral.ECDH(recipient)
	if err != nil {
		return nil, fmt.Errorf("ECDH failed: %w", err)
	}

	gcm, err := p256AEAD(shared)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, p256NonceSize)
	if _, err := io.ReadFull(random, nonce); err != nil {
		return nil, fmt.Errorf("%w: failed to generate nonce: %v", types.ErrRandom, err)
	}

	sealed := gcm.Seal(nil, nonce, data, nil)
	ciphertext := sealed[:len(sealed)-p256TagSize]
	tag := sealed[len(sealed)-p256TagSize:]

	out := make([]byte, 0, p256PublicKeySize+p256NonceSize+len(sealed))
	out = append(out, ephemeral.PublicKey().Bytes()...)
	out = append(out, nonce...)
	out = append(out, tag...)
	return append(out, ciphertext...), nil
}

func (P256) Decrypt(ciphertext, private []byte) ([]byte, error) {
	key, err := ecdh.P256().NewPrivateKey(private)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid private key", types.ErrAuthentication)
	}

	headerSize := p256PublicKeySize + p256NonceSize + p256TagSize
	if len(ciphertext) < headerSize {
		return nil, fmt.Errorf("%w: wrapped key too short", types.ErrAuthentication)
	}

	ephemeral, err := ecdh.P256().NewPublicKey(ciphertext[:p256PublicKeySize])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ephemeral key", types.ErrAuthentication)
	}
	nonce := ciphertext[p256PublicKeySize : p256PublicKeySize+p256NonceSize]
	tag := ciphertext[p256PublicKeySize+p256NonceSize : headerSize]
	encrypted := ciphertext[headerSize:]

	shared, err := key.ECDH(ephemeral)
	if err != nil {
		return nil, fmt.Errorf("%w: ECDH failed", types.ErrAuthentication)
	}
	gcm, err := p256AEAD(shared)
	if err != nil {
		return nil, err
	}

	full := make([]byte, 0, len(encrypted)+len(tag))
	full = append(full, encrypted...)
	full = append(full, tag...)
	plaintext, err := gcm.Open(nil, nonce, full, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: key unwrap failed", types.ErrAuthentication)
	}
	return plaintext, nil
}

func p256AEAD(shared []byte) (cipher.AEAD, error) {
	encKey := make([]byte, p256KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, shared, nil, p256Info), encKey); err != nil {
		return nil, fmt.Errorf("HKDF derivation failed: %w", err)
	}
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
