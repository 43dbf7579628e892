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

package types

// Block and key sizes shared by the sharing engine and the envelope format.
// None of these are mutated at runtime.
const (
	// ChunkSize is the size of one block handed to the threshold primitive.
	ChunkSize = 16

	// NonceSize is the AEAD nonce length stored at the head of an envelope.
	NonceSize = 16

	// TagSize is the AEAD authentication tag appended to the ciphertext.
	TagSize = 16

	// DEKSize is the default data encryption key length (AES-256).
	DEKSize = 32

	// PaddingByte right-pads the final block before it is split.
	PaddingByte byte = 0x00

	// TerminatorByte is appended to the secret before padding so that a
	// secret ending in PaddingByte survives the round trip.
	TerminatorByte byte = 0x01
)

// Default file names used when no path is configured.
const (
	DefaultPublicKeyFile = "KEK.bin"
	DefaultDEKFile       = "DEK.bin"
)
