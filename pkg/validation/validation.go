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

// Package validation checks operator-supplied paths and names before they
// reach the filesystem or the logs.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxPathLength bounds every file path accepted by the CLI and storage.
const MaxPathLength = 4096

// namePattern matches scheme and field names (lowercase alphanumeric + hyphens)
var namePattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

// ValidatePath validates a file path. Relative and absolute paths are both
// accepted; empty paths, null bytes and control characters are not.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	// Check for null bytes (can bypass some path checks)
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("path contains null byte")
	}

	if len(path) > MaxPathLength {
		return fmt.Errorf("path too long (max %d characters)", MaxPathLength)
	}

	for _, r := range path {
		if r < 32 || r == 127 {
			return fmt.Errorf("path contains control characters")
		}
	}
	return nil
}

// ValidateName validates a scheme or field name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) > 64 {
		return fmt.Errorf("name too long (max 64 characters)")
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("name %q contains invalid characters (allowed: a-z, 0-9, -)", SanitizeForLog(name))
	}
	return nil
}

// SanitizeForLog sanitizes a string for safe logging (prevents log injection).
func SanitizeForLog(s string) string {
	// Remove control characters and null bytes
	s = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)

	// Limit length to prevent log flooding
	if len(s) > 1000 {
		s = s[:1000] + "...[truncated]"
	}

	return s
}
