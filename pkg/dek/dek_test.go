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

package dek

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/jeremyhahn/go-sharelock/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("no entropy")
}

func TestGenerate(t *testing.T) {
	for _, size := range []int{16, 24, 32} {
		key, err := Generate(rand.Reader, size)
		require.NoError(t, err)
		assert.Len(t, key, size)
	}

	for _, size := range []int{0, 8, 31, 64} {
		_, err := Generate(rand.Reader, size)
		assert.ErrorIs(t, err, types.ErrInvalidParameter, "size=%d", size)
	}

	_, err := Generate(failingReader{}, 32)
	assert.ErrorIs(t, err, types.ErrRandom)
}

func TestEncryptDecrypt(t *testing.T) {
	key, err := Generate(rand.Reader, types.DEKSize)
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"short", []byte("hello")},
		{"multi block", bytes.Repeat([]byte("0123456789"), 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ciphertext, nonce, err := Encrypt(rand.Reader, tt.data, key)
			require.NoError(t, err)
			assert.Len(t, nonce, types.NonceSize)
			assert.Len(t, ciphertext, len(tt.data)+types.TagSize)

			plaintext, err := Decrypt(ciphertext, key, nonce)
			require.NoError(t, err)
			assert.Equal(t, tt.data, plaintext)
		})
	}
}

func TestDecrypt_EmptyPayloadIsNotNil(t *testing.T) {
	key, err := Generate(rand.Reader, types.DEKSize)
	require.NoError(t, err)

	ciphertext, nonce, err := Encrypt(rand.Reader, nil, key)
	require.NoError(t, err)
	plaintext, err := Decrypt(ciphertext, key, nonce)
	require.NoError(t, err)
	assert.NotNil(t, plaintext)
	assert.Empty(t, plaintext)

	envelope, err := Seal(rand.Reader, []byte{}, key)
	require.NoError(t, err)
	opened, err := Open(envelope, key)
	require.NoError(t, err)
	assert.Equal(t, []byte{}, opened)
}

func TestEncrypt_FreshNonce(t *testing.T) {
	key, err := Generate(rand.Reader, types.DEKSize)
	require.NoError(t, err)

	c1, n1, err := Encrypt(rand.Reader, []byte("same"), key)
	require.NoError(t, err)
	c2, n2, err := Encrypt(rand.Reader, []byte("same"), key)
	require.NoError(t, err)

	assert.NotEqual(t, n1, n2)
	assert.NotEqual(t, c1, c2)
}

func TestEncrypt_Errors(t *testing.T) {
	_, _, err := Encrypt(rand.Reader, []byte("x"), []byte("short"))
	assert.ErrorIs(t, err, types.ErrInvalidParameter)

	_, _, err = Encrypt(failingReader{}, []byte("x"), make([]byte, 32))
	assert.ErrorIs(t, err, types.ErrRandom)
}

func TestDecrypt_Tampering(t *testing.T) {
	key, err := Generate(rand.Reader, types.DEKSize)
	require.NoError(t, err)
	ciphertext, nonce, err := Encrypt(rand.Reader, []byte("attack at dawn"), key)
	require.NoError(t, err)

	t.Run("flipped ciphertext bit", func(t *testing.T) {
		bad := bytes.Clone(ciphertext)
		bad[0] ^= 0x01
		plaintext, err := Decrypt(bad, key, nonce)
		assert.ErrorIs(t, err, types.ErrAuthentication)
		assert.Nil(t, plaintext)
	})

	t.Run("flipped tag bit", func(t *testing.T) {
		bad := bytes.Clone(ciphertext)
		bad[len(bad)-1] ^= 0x80
		_, err := Decrypt(bad, key, nonce)
		assert.ErrorIs(t, err, types.ErrAuthentication)
	})

	t.Run("wrong nonce", func(t *testing.T) {
		bad := bytes.Clone(nonce)
		bad[3] ^= 0xFF
		_, err := Decrypt(ciphertext, key, bad)
		assert.ErrorIs(t, err, types.ErrAuthentication)
	})

	t.Run("wrong key", func(t *testing.T) {
		other, err := Generate(rand.Reader, types.DEKSize)
		require.NoError(t, err)
		_, err = Decrypt(ciphertext, other, nonce)
		assert.ErrorIs(t, err, types.ErrAuthentication)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := Decrypt(ciphertext[:types.TagSize-1], key, nonce)
		assert.ErrorIs(t, err, types.ErrInvalidFormat)
	})

	t.Run("nonce length", func(t *testing.T) {
		_, err := Decrypt(ciphertext, key, nonce[:12])
		assert.ErrorIs(t, err, types.ErrInvalidFormat)
	})
}

func TestSealOpen(t *testing.T) {
	key, err := Generate(rand.Reader, types.DEKSize)
	require.NoError(t, err)

	envelope, err := Seal(rand.Reader, []byte("payload"), key)
	require.NoError(t, err)
	assert.Len(t, envelope, types.NonceSize+len("payload")+types.TagSize)

	plaintext, err := Open(envelope, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), plaintext)

	_, err = Open(envelope[:types.NonceSize-1], key)
	assert.ErrorIs(t, err, types.ErrInvalidFormat)

	// nonce only, no tag
	_, err = Open(envelope[:types.NonceSize], key)
	assert.ErrorIs(t, err, types.ErrInvalidFormat)
}
