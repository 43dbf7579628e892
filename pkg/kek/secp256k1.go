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
	"crypto/ecdsa"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/crypto/ecies"
	"github.com/jeremyhahn/go-sharelock/pkg/types"
)

// Secp256k1PublicKeySize is the serialized public key length: the
// uncompressed point without its 0x04 prefix.
const Secp256k1PublicKeySize = 64

// Secp256k1 wraps keys with ECIES over secp256k1 (AES-128-CTR and
// HMAC-SHA-256 as parameterized by go-ethereum).
type Secp256k1 struct{}

var _ Scheme = Secp256k1{}

func (Secp256k1) Name() string { return SchemeSecp256k1 }

func (Secp256k1) Generate(random io.Reader) (*KeyPair, error) {
	key, err := ecdsa.GenerateKey(crypto.S256(), random)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to generate secp256k1 key: %v", types.ErrRandom, err)
	}
	return &KeyPair{
		Public:  crypto.FromECDSAPub(&key.PublicKey)[1:],
		Private: crypto.FromECDSA(key),
	}, nil
}

func (Secp256k1) Encrypt(random io.Reader, data, public []byte) ([]byte, error) {
	pub, err := parseSecp256k1Public(public)
	if err != nil {
		return nil, err
	}
	ciphertext, err := ecies.Encrypt(random, ecies.ImportECDSAPublic(pub), data, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("ecies encryption failed: %w", err)
	}
	return ciphertext, nil
}

func (Secp256k1) Decrypt(ciphertext, private []byte) ([]byte, error) {
	key, err := crypto.ToECDSA(private)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid private key", types.ErrAuthentication)
	}
	plaintext, err := ecies.ImportECDSA(key).Decrypt(ciphertext, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: key unwrap failed: %v", types.ErrAuthentication, err)
	}
	return plaintext, nil
}

// parseSecp256k1Public accepts the 64-byte form and the 65-byte form with
// the 0x04 prefix.
func parseSecp256k1Public(b []byte) (*ecdsa.PublicKey, error) {
	switch len(b) {
	case Secp256k1PublicKeySize:
		b = append([]byte{0x04}, b...)
	case Secp256k1PublicKeySize + 1:
	default:
		return nil, fmt.Errorf("%w: secp256k1 public key must be %d bytes, got %d",
			types.ErrInvalidFormat, Secp256k1PublicKeySize, len(b))
	}
	pub, err := crypto.UnmarshalPubkey(b)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid secp256k1 public key: %v", types.ErrInvalidFormat, err)
	}
	return pub, nil
}
