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
	"crypto/rand"
	"errors"
	"testing"

	sharelockrand "github.com/jeremyhahn/go-sharelock/pkg/crypto/rand"
	"github.com/jeremyhahn/go-sharelock/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy source unavailable")
}

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}

func subset(shares []Share, indexes ...int) []Share {
	out := make([]Share, 0, len(indexes))
	for _, idx := range indexes {
		for _, s := range shares {
			if s.Index == idx {
				out = append(out, s)
			}
		}
	}
	return out
}

func TestSharedLength(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 16},
		{1, 16},
		{15, 16},
		{16, 32},
		{31, 32},
		{32, 48},
		{100, 112},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SharedLength(tt.n), "n=%d", tt.n)
	}
}

func TestSplit_Parameters(t *testing.T) {
	tests := []struct {
		name      string
		shares    int
		threshold int
		opts      *Options
		wantErr   bool
	}{
		{name: "threshold greater than shares", shares: 3, threshold: 5, wantErr: true},
		{name: "zero shares", shares: 0, threshold: 1, wantErr: true},
		{name: "zero threshold", shares: 5, threshold: 0, wantErr: true},
		{name: "negative shares", shares: -1, threshold: 1, wantErr: true},
		{name: "one of one", shares: 1, threshold: 1},
		{name: "threshold equals shares", shares: 5, threshold: 5},
		{name: "gf256 maximum", shares: 255, threshold: 2},
		{name: "gf256 over maximum", shares: 256, threshold: 2, wantErr: true},
		{name: "gf65536 over gf256 maximum", shares: 256, threshold: 2, opts: &Options{Field: GF65536{}}},
		{name: "padding equals terminator", shares: 3, threshold: 2, opts: &Options{PaddingByte: types.TerminatorByte}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := Split([]byte("secret"), tt.shares, tt.threshold, tt.opts)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, types.ErrInvalidParameter)
				assert.Nil(t, shares)
				return
			}
			require.NoError(t, err)
			assert.Len(t, shares, tt.shares)
		})
	}
}

func TestSplit_ShareLayout(t *testing.T) {
	data := randomBytes(t, 40)
	shares, err := Split(data, 5, 3, nil)
	require.NoError(t, err)

	for i, s := range shares {
		assert.Equal(t, i+1, s.Index)
		assert.Len(t, s.Value, SharedLength(len(data)))
	}
}

func TestSplit_ThresholdOneCopiesPaddedSecret(t *testing.T) {
	data := []byte("abc")
	shares, err := Split(data, 3, 1, &Options{PaddingByte: 0xAA})
	require.NoError(t, err)

	want := append([]byte("abc"), types.TerminatorByte)
	want = append(want, bytes.Repeat([]byte{0xAA}, 12)...)
	for _, s := range shares {
		assert.Equal(t, want, s.Value)
	}
}

func TestSplit_RandomFailure(t *testing.T) {
	_, err := Split([]byte("secret"), 3, 2, &Options{Rand: failingReader{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrRandom)

	_, err = Split([]byte("secret"), 3, 2, &Options{Rand: failingReader{}, Field: GF65536{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrRandom)
}

func TestSplit_DeterministicSource(t *testing.T) {
	seed := bytes.Repeat([]byte{0x5A, 0x11, 0xC3}, 512)
	split := func() []Share {
		r := sharelockrand.NewReaderResolver(bytes.NewReader(seed))
		shares, err := Split([]byte("same input"), 4, 3, &Options{Rand: r})
		require.NoError(t, err)
		return shares
	}
	assert.Equal(t, split(), split())
}

func TestRoundTrip(t *testing.T) {
	fields := []Field{GF256{}, GF65536{}}
	sizes := []int{0, 1, 15, 16, 17, 32, 33, 64, 255}
	paddings := []byte{0x00, 0xFF, 0x42}

	for _, field := range fields {
		for _, size := range sizes {
			for _, pad := range paddings {
				opts := &Options{Field: field, PaddingByte: pad}
				data := randomBytes(t, size)

				shares, err := Split(data, 5, 3, opts)
				require.NoError(t, err, "%s size=%d pad=%#x", field.Name(), size, pad)

				got, err := Combine(shares[:3], opts)
				require.NoError(t, err)
				assert.Equal(t, data, got, "%s size=%d pad=%#x", field.Name(), size, pad)
			}
		}
	}
}

func TestRoundTrip_SubsetInvariance(t *testing.T) {
	data := []byte("subset invariance holds for every qualifying subset")
	shares, err := Split(data, 5, 3, nil)
	require.NoError(t, err)

	n := len(shares)
	for mask := 1; mask < 1<<n; mask++ {
		var chosen []Share
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				chosen = append(chosen, shares[i])
			}
		}
		if len(chosen) < 3 {
			continue
		}
		got, err := Combine(chosen, nil)
		require.NoError(t, err)
		assert.Equal(t, data, got, "mask=%05b", mask)
	}
}

func TestRoundTrip_FiveOfThreeScenario(t *testing.T) {
	data := randomBytes(t, 32)
	shares, err := Split(data, 5, 3, nil)
	require.NoError(t, err)

	a, err := Combine(subset(shares, 1, 3, 5), nil)
	require.NoError(t, err)
	b, err := Combine(subset(shares, 2, 4, 5), nil)
	require.NoError(t, err)

	assert.Equal(t, data, a)
	assert.Equal(t, data, b)
}

func TestRoundTrip_TrailingPaddingByte(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		padding byte
	}{
		{name: "single zero byte", data: []byte{0x00}, padding: 0x00},
		{name: "run of zero bytes", data: make([]byte, 20), padding: 0x00},
		{name: "ends with custom padding", data: []byte{0x10, 0xEE, 0xEE}, padding: 0xEE},
		{name: "ends with terminator value", data: []byte{0x01, 0x01}, padding: 0x00},
		{name: "fills a whole block", data: bytes.Repeat([]byte{0x00}, 15), padding: 0x00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := &Options{PaddingByte: tt.padding}
			shares, err := Split(tt.data, 3, 2, opts)
			require.NoError(t, err)

			got, err := Combine(shares[1:], opts)
			require.NoError(t, err)
			assert.Equal(t, tt.data, got)
		})
	}
}

func TestCombine_Degenerate(t *testing.T) {
	valid, err := Split([]byte("degenerate"), 3, 2, nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		shares []Share
	}{
		{name: "nil", shares: nil},
		{name: "empty", shares: []Share{}},
		{name: "empty value", shares: []Share{{Index: 1, Value: []byte{}}}},
		{name: "value not block aligned", shares: []Share{{Index: 1, Value: make([]byte, 15)}}},
		{name: "mismatched lengths", shares: []Share{valid[0], {Index: 2, Value: make([]byte, 32)}}},
		{name: "duplicate index", shares: []Share{valid[0], valid[0]}},
		{name: "index zero", shares: []Share{{Index: 0, Value: valid[0].Value}, valid[1]}},
		{name: "index beyond field", shares: []Share{{Index: 256, Value: valid[0].Value}, valid[1]}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Combine(tt.shares, nil)
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestCombine_BelowThresholdIsWrongNotError(t *testing.T) {
	data := randomBytes(t, 32)
	shares, err := Split(data, 5, 3, nil)
	require.NoError(t, err)

	got, err := Combine(shares[:2], nil)
	require.NoError(t, err)
	assert.NotEqual(t, data, got)
}

func TestCombine_MixedSplitsIsWrongNotError(t *testing.T) {
	data := randomBytes(t, 32)
	first, err := Split(data, 3, 2, nil)
	require.NoError(t, err)
	second, err := Split(data, 3, 2, nil)
	require.NoError(t, err)

	got, err := Combine([]Share{first[0], second[1]}, nil)
	require.NoError(t, err)
	assert.NotEqual(t, data, got)
}

func TestCombine_MinShares(t *testing.T) {
	data := []byte("guarded")
	shares, err := Split(data, 5, 3, nil)
	require.NoError(t, err)

	_, err = Combine(shares[:2], &Options{MinShares: 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientShares)
	assert.ErrorIs(t, err, types.ErrInvalidParameter)

	got, err := Combine(shares[:3], &Options{MinShares: 3})
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestCombine_PaddingMismatch(t *testing.T) {
	data := []byte{0x10, 0x20}
	shares, err := Split(data, 2, 2, &Options{PaddingByte: 0xFF})
	require.NoError(t, err)

	got, err := Combine(shares, &Options{PaddingByte: 0x00})
	require.NoError(t, err)
	assert.NotEqual(t, data, got)
}

func TestRoundTrip_GF65536ManyShares(t *testing.T) {
	data := randomBytes(t, 33)
	opts := &Options{Field: GF65536{}}
	shares, err := Split(data, 300, 3, opts)
	require.NoError(t, err)
	require.Len(t, shares, 300)

	got, err := Combine(subset(shares, 7, 256, 300), opts)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestFieldByName(t *testing.T) {
	f, err := FieldByName("")
	require.NoError(t, err)
	assert.Equal(t, FieldGF256, f.Name())

	f, err = FieldByName(FieldGF256)
	require.NoError(t, err)
	assert.Equal(t, 255, f.MaxShares())

	f, err = FieldByName(FieldGF65536)
	require.NoError(t, err)
	assert.Equal(t, 65535, f.MaxShares())

	_, err = FieldByName("gf7")
	assert.ErrorIs(t, err, types.ErrInvalidParameter)
}

func BenchmarkSplit(b *testing.B) {
	secret := make([]byte, 32)
	for i := 0; i < b.N; i++ {
		if _, err := Split(secret, 5, 3, nil); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCombine(b *testing.B) {
	shares, err := Split(make([]byte, 32), 5, 3, nil)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Combine(shares[:3], nil); err != nil {
			b.Fatal(err)
		}
	}
}
