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
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/jeremyhahn/go-sharelock/pkg/types"
)

// HeaderPrefix starts the optional first line written by WriteShares.
const HeaderPrefix = "Secret Shares:"

// headerPattern matches the header line, bare or with its threshold note.
var headerPattern = regexp.MustCompile(`^` + regexp.QuoteMeta(HeaderPrefix) +
	`(\s*\(\s*Any \d+ shares are required for reconstruction\s*\))?$`)

// FormatShare renders a share as "{index} - {base64}", with the index
// left-justified to width.
func FormatShare(s Share, width int) string {
	return fmt.Sprintf("%-*d - %s", width, s.Index, base64.StdEncoding.EncodeToString(s.Value))
}

// WriteShares writes one line per share. Unless quiet, a header naming the
// threshold precedes them.
func WriteShares(w io.Writer, shares []Share, threshold int, quiet bool) error {
	bw := bufio.NewWriter(w)
	if !quiet {
		if _, err := fmt.Fprintf(bw, "%s ( Any %d shares are required for reconstruction )\n", HeaderPrefix, threshold); err != nil {
			return fmt.Errorf("%w: %v", types.ErrIO, err)
		}
	}
	width := len(strconv.Itoa(len(shares)))
	for _, s := range shares {
		if _, err := fmt.Fprintln(bw, FormatShare(s, width)); err != nil {
			return fmt.Errorf("%w: %v", types.ErrIO, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", types.ErrIO, err)
	}
	return nil
}

// ParseShare decodes a single "{index} - {base64}" line. The index must be a
// positive decimal number and the value must not be empty.
func ParseShare(line string) (Share, error) {
	idx, value, ok := strings.Cut(line, "-")
	if !ok {
		return Share{}, fmt.Errorf("%w: share must be in the form \"index - value\"", types.ErrInvalidFormat)
	}
	idx = strings.TrimSpace(idx)
	if idx == "" || strings.TrimLeft(idx, "0123456789") != "" {
		return Share{}, fmt.Errorf("%w: invalid share index %q", types.ErrInvalidFormat, idx)
	}
	index, err := strconv.Atoi(idx)
	if err != nil {
		return Share{}, fmt.Errorf("%w: invalid share index %q", types.ErrInvalidFormat, idx)
	}
	if index < 1 {
		return Share{}, fmt.Errorf("%w: share index %d must be >= 1", types.ErrInvalidFormat, index)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return Share{}, fmt.Errorf("%w: share %d has an empty value", types.ErrInvalidFormat, index)
	}
	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return Share{}, fmt.Errorf("%w: invalid share value: %v", types.ErrInvalidFormat, err)
	}
	return Share{Index: index, Value: decoded}, nil
}

// ParseShares reads shares one per line. Blank lines and a header line as
// written by WriteShares are skipped; any other line must be a share.
func ParseShares(r io.Reader) ([]Share, error) {
	var shares []Share
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || headerPattern.MatchString(line) {
			continue
		}
		s, err := ParseShare(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		shares = append(shares, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading shares: %v", types.ErrIO, err)
	}
	return shares, nil
}
