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

package sharing

import (
	"fmt"
	"io"

	"github.com/jeremyhahn/go-sharelock/pkg/crypto/rand"
	"github.com/jeremyhahn/go-sharelock/pkg/types"
)

// ErrInsufficientShares is returned by Combine when Options.MinShares is set
// and fewer shares were supplied.
var ErrInsufficientShares = fmt.Errorf("%w: insufficient shares", types.ErrInvalidParameter)

// Share is one party's portion of a split secret.
type Share struct {
	Index int    // Evaluation point, 1-based and unique within a split
	Value []byte // One 16-byte partial share per block, in block order
}

// Options tunes Split and Combine. A nil *Options selects the defaults.
type Options struct {
	// PaddingByte right-pads the final block. Split and Combine must agree.
	// Defaults to 0x00.
	PaddingByte byte

	// Field is the threshold primitive. Defaults to GF256.
	Field Field

	// Rand supplies polynomial coefficients. Defaults to crypto/rand.
	Rand io.Reader

	// MinShares makes Combine reject inputs with fewer shares. Zero keeps the
	// unchecked behavior.
	MinShares int
}

func (o *Options) withDefaults() *Options {
	out := &Options{PaddingByte: types.PaddingByte}
	if o != nil {
		*out = *o
	}
	if out.Field == nil {
		out.Field = GF256{}
	}
	if out.Rand == nil {
		out.Rand = rand.Default()
	}
	return out
}

// SharedLength returns the length of every share value produced by splitting
// a secret of n bytes.
func SharedLength(n int) int {
	return types.ChunkSize * ((n + 1 + types.ChunkSize - 1) / types.ChunkSize)
}

// Split divides data into `shares` shares such that any `threshold` of them
// reconstruct it. Parameter errors wrap types.ErrInvalidParameter and are
// returned before any randomness is consumed.
func Split(data []byte, shares, threshold int, opts *Options) ([]Share, error) {
	o := opts.withDefaults()

	if shares <= 0 {
		return nil, fmt.Errorf("%w: shares (%d) must be > 0", types.ErrInvalidParameter, shares)
	}
	if threshold <= 0 {
		return nil, fmt.Errorf("%w: threshold (%d) must be > 0", types.ErrInvalidParameter, threshold)
	}
	if threshold > shares {
		return nil, fmt.Errorf("%w: threshold (%d) must be <= number of shares (%d)",
			types.ErrInvalidParameter, threshold, shares)
	}
	if o.PaddingByte == types.TerminatorByte {
		return nil, fmt.Errorf("%w: padding byte must differ from terminator 0x%02x",
			types.ErrInvalidParameter, types.TerminatorByte)
	}
	if limit := o.Field.MaxShares(); shares > limit {
		return nil, fmt.Errorf("%w: %s supports at most %d shares, got %d",
			types.ErrInvalidParameter, o.Field.Name(), limit, shares)
	}

	size := SharedLength(len(data))
	padded := make([]byte, size)
	copy(padded, data)
	padded[len(data)] = types.TerminatorByte
	for i := len(data) + 1; i < size; i++ {
		padded[i] = o.PaddingByte
	}
	defer wipe(padded)

	result := make([]Share, shares)
	for i := range result {
		result[i].Index = i + 1
		result[i].Value = make([]byte, 0, size)
	}

	for off := 0; off < size; off += types.ChunkSize {
		parts, err := o.Field.SplitBlock(o.Rand, threshold, shares, padded[off:off+types.ChunkSize])
		if err != nil {
			return nil, fmt.Errorf("failed to split block %d: %w", off/types.ChunkSize, err)
		}
		for i := range result {
			result[i].Value = append(result[i].Value, parts[i]...)
		}
	}

	return result, nil
}

// Combine reconstructs the data that was split into shares.
//
// Empty input or malformed shares (bad or duplicate index, empty or unequal
// value lengths, length not a multiple of the block size) yield an empty
// result and no error. The number of shares is only checked when
// Options.MinShares is set.
func Combine(shares []Share, opts *Options) ([]byte, error) {
	o := opts.withDefaults()

	if o.MinShares > 0 && len(shares) < o.MinShares {
		return nil, fmt.Errorf("%w: need %d, got %d", ErrInsufficientShares, o.MinShares, len(shares))
	}
	if !wellFormed(shares, o.Field) {
		return []byte{}, nil
	}

	size := len(shares[0].Value)
	xs := make([]int, len(shares))
	for i, s := range shares {
		xs[i] = s.Index
	}

	result := make([]byte, 0, size)
	parts := make([][]byte, len(shares))
	for off := 0; off < size; off += types.ChunkSize {
		for i, s := range shares {
			parts[i] = s.Value[off : off+types.ChunkSize]
		}
		block, err := o.Field.CombineBlock(xs, parts)
		if err != nil {
			wipe(result)
			return []byte{}, nil
		}
		result = append(result, block...)
	}

	return unpad(result, o.PaddingByte), nil
}

// wellFormed reports whether shares can be interpolated together.
func wellFormed(shares []Share, field Field) bool {
	if len(shares) == 0 {
		return false
	}
	size := len(shares[0].Value)
	if size == 0 || size%types.ChunkSize != 0 {
		return false
	}
	seen := make(map[int]struct{}, len(shares))
	for _, s := range shares {
		if s.Index < 1 || s.Index > field.MaxShares() {
			return false
		}
		if len(s.Value) != size {
			return false
		}
		if _, dup := seen[s.Index]; dup {
			return false
		}
		seen[s.Index] = struct{}{}
	}
	return true
}

// unpad strips every trailing padding byte and then the terminator.
func unpad(b []byte, padding byte) []byte {
	end := len(b)
	for end > 0 && b[end-1] == padding {
		end--
	}
	if end > 0 {
		end--
	}
	return b[:end]
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
