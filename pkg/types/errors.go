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

import "errors"

// Error kinds surfaced by every sharelock operation. Callers classify with
// errors.Is; components wrap these with context (operation, path, parameter)
// and never with key material.
var (
	// ErrInvalidParameter is returned for an invalid shares/threshold
	// combination or other out-of-range arguments. It is raised before any
	// cryptographic work is done.
	ErrInvalidParameter = errors.New("sharelock: invalid parameter")

	// ErrInvalidFormat is returned for a malformed share line, an envelope too
	// short to hold a nonce, or an unparseable public key.
	ErrInvalidFormat = errors.New("sharelock: invalid format")

	// ErrAuthentication is returned when AEAD tag verification or public-key
	// decryption fails. It signals tampering or wrong key material, which
	// includes a key reconstructed from too few or mismatched shares.
	ErrAuthentication = errors.New("sharelock: authentication failed")

	// ErrIO is returned when a file cannot be read or written.
	ErrIO = errors.New("sharelock: i/o error")

	// ErrRandom is returned when the random source fails.
	ErrRandom = errors.New("sharelock: random source unavailable")
)
