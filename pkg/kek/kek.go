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

// Package kek manages key encryption keys: asymmetric key pairs whose public
// half wraps a data encryption key and whose private half is only ever held
// as threshold shares.
package kek

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/jeremyhahn/go-sharelock/pkg/types"
	"github.com/spf13/afero"
)

const (
	SchemeSecp256k1 = "secp256k1"
	SchemeP256      = "p256"
)

// KeyPair holds serialized key material. Private is the raw scalar, which is
// what gets split into shares.
type KeyPair struct {
	Public  []byte
	Private []byte
}

// Wipe zeroes the private key in place.
func (k *KeyPair) Wipe() {
	if k == nil {
		return
	}
	for i := range k.Private {
		k.Private[i] = 0
	}
}

// Scheme is a public-key encryption scheme for wrapping DEKs.
type Scheme interface {
	// Name identifies the scheme in configuration.
	Name() string

	// Generate creates a new key pair from random.
	Generate(random io.Reader) (*KeyPair, error)

	// Encrypt wraps data for the holder of the private key matching public.
	// A malformed public key returns types.ErrInvalidFormat.
	Encrypt(random io.Reader, data, public []byte) ([]byte, error)

	// Decrypt unwraps ciphertext. An invalid private key or a ciphertext that
	// fails authentication returns types.ErrAuthentication.
	Decrypt(ciphertext, private []byte) ([]byte, error)
}

// SchemeByName resolves a scheme name. The empty name selects secp256k1.
func SchemeByName(name string) (Scheme, error) {
	switch name {
	case "", SchemeSecp256k1:
		return Secp256k1{}, nil
	case SchemeP256:
		return P256{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown KEK scheme %q", types.ErrInvalidParameter, name)
	}
}

// Load reads a serialized public key from path.
func Load(fsys afero.Fs, path string) ([]byte, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: public key %s not found", types.ErrIO, path)
		}
		return nil, fmt.Errorf("%w: failed to read public key %s: %v", types.ErrIO, path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: public key %s is empty", types.ErrInvalidFormat, path)
	}
	return data, nil
}
