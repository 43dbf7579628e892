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
	"bytes"
	"testing"
)

// TestGFArithmetic tests the GF(256) arithmetic operations.
func TestGFArithmetic(t *testing.T) {
	t.Run("addition is XOR", func(t *testing.T) {
		if gfAdd(5, 3) != (5 ^ 3) {
			t.Error("GF addition should be XOR")
		}
	})

	t.Run("multiplication by zero", func(t *testing.T) {
		if gfMul(5, 0) != 0 || gfMul(0, 5) != 0 {
			t.Error("multiplication by zero should be zero")
		}
	})

	t.Run("tables agree with peasant multiplication", func(t *testing.T) {
		for a := 0; a < 256; a++ {
			for b := 0; b < 256; b++ {
				if got, want := gfMul(byte(a), byte(b)), gfMultiply(byte(a), byte(b)); got != want {
					t.Fatalf("gfMul(%d, %d) = %d, want %d", a, b, got, want)
				}
			}
		}
	})

	t.Run("AES field reduction", func(t *testing.T) {
		// {57} x {83} = {c1}, FIPS-197 section 4.2
		if got := gfMul(0x57, 0x83); got != 0xC1 {
			t.Errorf("gfMul(0x57, 0x83) = %#x, want 0xc1", got)
		}
	})

	t.Run("inverse property", func(t *testing.T) {
		for a := byte(1); a != 0; a++ {
			inv := gfInverse(a)
			if gfMul(a, inv) != 1 {
				t.Errorf("inverse of %d failed: %d * %d = %d", a, a, inv, gfMul(a, inv))
			}
		}
	})
}

func TestGFInverse_ZeroPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("gfInverse(0) should panic but did not")
		}
	}()
	_ = gfInverse(0)
}

func TestPolynomialEvaluation(t *testing.T) {
	t.Run("constant polynomial", func(t *testing.T) {
		for x := byte(1); x <= 10; x++ {
			if got := evaluatePolynomial([]byte{42}, x); got != 42 {
				t.Errorf("p(%d) = %d, want 42", x, got)
			}
		}
	})

	t.Run("empty polynomial", func(t *testing.T) {
		if got := evaluatePolynomial(nil, 5); got != 0 {
			t.Errorf("empty polynomial should evaluate to 0, got %d", got)
		}
	})

	t.Run("linear polynomial", func(t *testing.T) {
		// p(x) = 1 + 2x
		want := gfAdd(1, gfMul(2, 3))
		if got := evaluatePolynomial([]byte{1, 2}, 3); got != want {
			t.Errorf("p(3) = %d, want %d", got, want)
		}
	})
}

func TestGF256_BlockRoundTrip(t *testing.T) {
	var f GF256
	block := []byte("0123456789abcdef")
	random := bytes.NewReader(bytes.Repeat([]byte{0x9D, 0x03, 0x77}, 64))

	parts, err := f.SplitBlock(random, 3, 4, block)
	if err != nil {
		t.Fatalf("SplitBlock: %v", err)
	}
	got, err := f.CombineBlock([]int{4, 2, 1}, [][]byte{parts[3], parts[1], parts[0]})
	if err != nil {
		t.Fatalf("CombineBlock: %v", err)
	}
	if !bytes.Equal(got, block) {
		t.Errorf("CombineBlock = %x, want %x", got, block)
	}
}

func TestGF256_CombineBlockRejectsBadPoints(t *testing.T) {
	var f GF256
	part := make([]byte, 16)
	tests := []struct {
		name  string
		xs    []int
		parts [][]byte
	}{
		{"no points", nil, nil},
		{"count mismatch", []int{1, 2}, [][]byte{part}},
		{"zero index", []int{0}, [][]byte{part}},
		{"duplicate index", []int{3, 3}, [][]byte{part, part}},
		{"length mismatch", []int{1, 2}, [][]byte{part, part[:8]}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.CombineBlock(tt.xs, tt.parts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestGF65536_BlockRoundTrip(t *testing.T) {
	var f GF65536
	block := []byte("fedcba9876543210")
	random := bytes.NewReader(bytes.Repeat([]byte{0x01, 0xF0, 0x33, 0x8C}, 128))

	parts, err := f.SplitBlock(random, 2, 3, block)
	if err != nil {
		t.Fatalf("SplitBlock: %v", err)
	}
	got, err := f.CombineBlock([]int{3, 1}, [][]byte{parts[2], parts[0]})
	if err != nil {
		t.Fatalf("CombineBlock: %v", err)
	}
	if !bytes.Equal(got, block) {
		t.Errorf("CombineBlock = %x, want %x", got, block)
	}

	if _, err := f.SplitBlock(random, 2, 3, []byte{1, 2, 3}); err == nil {
		t.Error("expected error for odd-length block")
	}
}
