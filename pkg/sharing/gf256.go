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

	"github.com/jeremyhahn/go-sharelock/pkg/types"
)

// GF256 shares each byte of a block independently in GF(2^8), using the
// AES field polynomial x^8 + x^4 + x^3 + x + 1.
type GF256 struct{}

var _ Field = GF256{}

func (GF256) Name() string { return FieldGF256 }

func (GF256) MaxShares() int { return 255 }

// SplitBlock evaluates one random polynomial per byte at x = 1..n.
func (GF256) SplitBlock(random io.Reader, threshold, n int, block []byte) ([][]byte, error) {
	if threshold < 1 || threshold > n || n > 255 {
		return nil, fmt.Errorf("%w: threshold %d of %d shares", types.ErrInvalidParameter, threshold, n)
	}

	parts := make([][]byte, n)
	for i := range parts {
		parts[i] = make([]byte, len(block))
	}

	// p(x) = a0 + a1*x + ... + a(t-1)*x^(t-1), a0 is the secret byte
	coeffs := make([]byte, threshold)
	defer wipe(coeffs)

	for byteIdx, secret := range block {
		coeffs[0] = secret
		if threshold > 1 {
			if _, err := io.ReadFull(random, coeffs[1:]); err != nil {
				return nil, fmt.Errorf("%w: failed to generate random coefficients: %v", types.ErrRandom, err)
			}
		}
		for i := 0; i < n; i++ {
			parts[i][byteIdx] = evaluatePolynomial(coeffs, byte(i+1))
		}
	}

	return parts, nil
}

// CombineBlock performs Lagrange interpolation at x=0 for every byte.
func (GF256) CombineBlock(xs []int, parts [][]byte) ([]byte, error) {
	if err := checkPoints(xs, parts, 255); err != nil {
		return nil, err
	}

	basis := lagrangeBasis(xs)
	secret := make([]byte, len(parts[0]))
	for byteIdx := range secret {
		var acc byte
		for i := range parts {
			acc = gfAdd(acc, gfMul(parts[i][byteIdx], basis[i]))
		}
		secret[byteIdx] = acc
	}
	return secret, nil
}

// lagrangeBasis computes l_i(0) = prod(x_j) / prod(x_i - x_j) for j != i.
// The points are distinct and nonzero, so no denominator is zero.
func lagrangeBasis(xs []int) []byte {
	basis := make([]byte, len(xs))
	for i := range xs {
		xi := byte(xs[i])
		var numerator byte = 1
		var denominator byte = 1
		for j := range xs {
			if i == j {
				continue
			}
			xj := byte(xs[j])
			// 0 - xj = xj in characteristic 2
			numerator = gfMul(numerator, xj)
			denominator = gfMul(denominator, gfSub(xi, xj))
		}
		basis[i] = gfMul(numerator, gfInverse(denominator))
	}
	return basis
}

// evaluatePolynomial evaluates a polynomial at point x in GF(256).
// Uses Horner's method: p(x) = a0 + x(a1 + x(a2 + ... + x*an))
func evaluatePolynomial(coeffs []byte, x byte) byte {
	if len(coeffs) == 0 {
		return 0
	}
	result := coeffs[len(coeffs)-1]
	for i := len(coeffs) - 2; i >= 0; i-- {
		result = gfAdd(gfMul(result, x), coeffs[i])
	}
	return result
}

func gfAdd(a, b byte) byte {
	return a ^ b
}

func gfSub(a, b byte) byte {
	return a ^ b
}

func gfMul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return gfExpTable[(int(gfLogTable[a])+int(gfLogTable[b]))%255]
}

// gfInverse returns the multiplicative inverse of a nonzero element.
func gfInverse(a byte) byte {
	if a == 0 {
		panic("division by zero in GF(256)")
	}
	return gfExpTable[(255-int(gfLogTable[a]))%255]
}

// Logarithm and exponentiation tables for generator 0x03.
var (
	gfLogTable [256]byte
	gfExpTable [256]byte
)

func init() {
	var x byte = 1
	for i := 0; i < 255; i++ {
		gfExpTable[i] = x
		gfLogTable[x] = byte(i)
		x = gfMultiply(x, 0x03)
	}
	gfExpTable[255] = gfExpTable[0]
}

// gfMultiply is the peasant multiplication used to build the tables.
func gfMultiply(a, b byte) byte {
	var p byte
	for i := 0; i < 8; i++ {
		if b&1 != 0 {
			p ^= a
		}
		highBit := a & 0x80
		a <<= 1
		if highBit != 0 {
			a ^= 0x1B
		}
		b >>= 1
	}
	return p
}
