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

// Field is the threshold primitive applied to each block.
type Field interface {
	// Name identifies the field in configuration.
	Name() string

	// MaxShares is the largest evaluation point the field can address.
	MaxShares() int

	// SplitBlock shares block among n parties with fresh random polynomials
	// of degree threshold-1. parts[i] is the evaluation at x=i+1 and has the
	// same length as block.
	SplitBlock(random io.Reader, threshold, n int, block []byte) ([][]byte, error)

	// CombineBlock interpolates parts, taken at the points xs, at x=0.
	CombineBlock(xs []int, parts [][]byte) ([]byte, error)
}

// Field names accepted by FieldByName.
const (
	FieldGF256   = "gf256"
	FieldGF65536 = "gf65536"
)

// FieldByName returns the field registered under name. An empty name selects
// GF256.
func FieldByName(name string) (Field, error) {
	switch name {
	case "", FieldGF256:
		return GF256{}, nil
	case FieldGF65536:
		return GF65536{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown field %q", types.ErrInvalidParameter, name)
	}
}

// checkPoints validates interpolation points against the field size.
func checkPoints(xs []int, parts [][]byte, limit int) error {
	if len(xs) == 0 || len(xs) != len(parts) {
		return fmt.Errorf("%w: %d points for %d parts", types.ErrInvalidFormat, len(xs), len(parts))
	}
	seen := make(map[int]struct{}, len(xs))
	for _, x := range xs {
		if x < 1 || x > limit {
			return fmt.Errorf("%w: share index %d out of range", types.ErrInvalidFormat, x)
		}
		if _, dup := seen[x]; dup {
			return fmt.Errorf("%w: duplicate share index %d", types.ErrInvalidFormat, x)
		}
		seen[x] = struct{}{}
	}
	for _, p := range parts[1:] {
		if len(p) != len(parts[0]) {
			return fmt.Errorf("%w: inconsistent part length", types.ErrInvalidFormat)
		}
	}
	return nil
}
