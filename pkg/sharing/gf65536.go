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
	"encoding/binary"
	"fmt"
	"io"

	"github.com/jeremyhahn/go-sharelock/pkg/types"
	"github.com/wbrc/gf65536"
)

// GF65536 shares big-endian 16-bit words in GF(2^16). It addresses up to
// 65535 shares. The zero value uses gf65536.Default.
type GF65536 struct {
	F gf65536.Field
}

var _ Field = GF65536{}

func (g GF65536) Name() string { return FieldGF65536 }

func (g GF65536) MaxShares() int { return 65535 }

func (g GF65536) field() gf65536.Field {
	if g.F == 0 {
		return gf65536.Default
	}
	return g.F
}

// SplitBlock evaluates one random polynomial per word at x = 1..n.
func (g GF65536) SplitBlock(random io.Reader, threshold, n int, block []byte) ([][]byte, error) {
	if threshold < 1 || threshold > n || n > g.MaxShares() {
		return nil, fmt.Errorf("%w: threshold %d of %d shares", types.ErrInvalidParameter, threshold, n)
	}
	if len(block)%2 != 0 {
		return nil, fmt.Errorf("%w: block must be a multiple of 2 bytes", types.ErrInvalidParameter)
	}

	f := g.field()
	words := make([]uint16, len(block)/2)
	if _, err := binary.Decode(block, binary.BigEndian, words); err != nil {
		return nil, err
	}

	shares := make([][]uint16, n)
	for i := range shares {
		shares[i] = make([]uint16, len(words))
	}

	coeffs := make([]uint16, threshold)
	defer func() {
		for i := range coeffs {
			coeffs[i] = 0
		}
	}()

	for w, secret := range words {
		coeffs[0] = secret
		if threshold > 1 {
			if err := binary.Read(random, binary.NativeEndian, coeffs[1:]); err != nil {
				return nil, fmt.Errorf("%w: failed to generate random coefficients: %v", types.ErrRandom, err)
			}
		}
		for i := 0; i < n; i++ {
			shares[i][w] = evalPoly16(f, coeffs, uint16(i+1))
		}
	}

	parts := make([][]byte, n)
	for i := range parts {
		parts[i] = make([]byte, len(block))
		if _, err := binary.Encode(parts[i], binary.BigEndian, shares[i]); err != nil {
			return nil, err
		}
	}
	return parts, nil
}

// CombineBlock performs Lagrange interpolation at x=0 for every word.
func (g GF65536) CombineBlock(xs []int, parts [][]byte) ([]byte, error) {
	if err := checkPoints(xs, parts, g.MaxShares()); err != nil {
		return nil, err
	}
	if len(parts[0])%2 != 0 {
		return nil, fmt.Errorf("%w: part must be a multiple of 2 bytes", types.ErrInvalidFormat)
	}

	f := g.field()
	basis := make([]uint16, len(xs))
	for i := range xs {
		xi := uint16(xs[i])
		var numerator, denominator uint16 = 1, 1
		for j := range xs {
			if i == j {
				continue
			}
			xj := uint16(xs[j])
			numerator = f.Mul(numerator, xj)
			denominator = f.Mul(denominator, f.Add(xi, xj))
		}
		basis[i] = f.Mul(numerator, f.Inv(denominator))
	}

	words := make([]uint16, len(parts[0])/2)
	y := make([]uint16, len(words))
	for i, part := range parts {
		if _, err := binary.Decode(part, binary.BigEndian, y); err != nil {
			return nil, err
		}
		for w := range words {
			words[w] = f.Add(words[w], f.Mul(y[w], basis[i]))
		}
	}

	secret := make([]byte, len(parts[0]))
	if _, err := binary.Encode(secret, binary.BigEndian, words); err != nil {
		return nil, err
	}
	return secret, nil
}

func evalPoly16(f gf65536.Field, coeff []uint16, x uint16) uint16 {
	var p, r uint16 = 1, 0
	for i := 0; i < len(coeff); i++ {
		r = f.Add(r, f.Mul(p, coeff[i]))
		p = f.Mul(p, x)
	}
	return r
}
