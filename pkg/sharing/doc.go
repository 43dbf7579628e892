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

// Package sharing splits byte strings of any length into threshold shares and
// reconstructs them from a sufficient subset.
//
// The underlying Shamir primitive works on fixed 16-byte blocks. Split appends
// a terminator byte (0x01) to the secret, right-pads the final block with a
// padding byte (0x00 by default), shares each block independently and
// concatenates the per-block partial shares by index:
//
//	secret ‖ 0x01 ‖ pad...   ->   [block 0][block 1]...[block k]
//	share i                  =   part(0,i) ‖ part(1,i) ‖ ... ‖ part(k,i)
//
// Every share of a split therefore has length 16 * ceil((len(secret)+1)/16).
// Combine interpolates each 16-byte stride at x=0, strips the trailing padding
// and then exactly one terminator byte. The terminator is what makes a secret
// ending in the padding byte survive the round trip.
//
// # Threshold behavior
//
// Combine does not know the threshold of the split that produced its input.
// Fewer than threshold shares, or shares from different splits, interpolate to
// a plausible but wrong value and no error is returned. Callers that need a
// hard check set Options.MinShares; otherwise the only signal is that the
// reconstructed secret fails to decrypt anything.
//
// # Fields
//
// Two finite fields are available. GF256 (the default) shares bytewise in
// GF(2^8) with the AES polynomial and supports up to 255 shares. GF65536
// shares 16-bit words in GF(2^16) and supports up to 65535 shares. Shares must
// be combined with the field they were split with.
//
// # Usage Example
//
//	shares, err := sharing.Split(privateKey, 5, 3, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Any three shares, in any order
//	key, err := sharing.Combine([]sharing.Share{shares[0], shares[2], shares[4]}, nil)
package sharing
