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

// Package storage reads and writes the artifacts of an envelope operation:
// public keys, wrapped DEKs and envelopes. Paths resolve against an afero
// filesystem; the path "-" writes to the configured standard output.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jeremyhahn/go-sharelock/pkg/types"
	"github.com/jeremyhahn/go-sharelock/pkg/validation"
	"github.com/spf13/afero"
)

const (
	// Stdout is the path that selects standard output.
	Stdout = "-"

	defaultDirPerms  = 0700
	defaultFilePerms = 0600
)

// Files is the file collaborator used by envelope operations.
type Files struct {
	fs     afero.Fs
	stdout io.Writer
}

// New returns a Files over fsys. A nil fsys selects the OS filesystem and a
// nil stdout selects os.Stdout.
func New(fsys afero.Fs, stdout io.Writer) *Files {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	return &Files{fs: fsys, stdout: stdout}
}

// Fs returns the underlying filesystem.
func (f *Files) Fs() afero.Fs {
	return f.fs
}

// ReadFile reads the whole file at path.
func (f *Files) ReadFile(path string) ([]byte, error) {
	if err := validation.ValidatePath(path); err != nil {
		return nil, fmt.Errorf("%w: %w: %v", types.ErrIO, ErrInvalidPath, err)
	}
	data, err := afero.ReadFile(f.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", types.ErrIO, path, ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to read %s: %v", types.ErrIO, path, err)
	}
	return data, nil
}

// WriteFile writes data to path with owner-only permissions, creating parent
// directories as needed. Existing files are overwritten.
func (f *Files) WriteFile(path string, data []byte) error {
	if err := validation.ValidatePath(path); err != nil {
		return fmt.Errorf("%w: %w: %v", types.ErrIO, ErrInvalidPath, err)
	}
	if path == Stdout {
		if _, err := f.stdout.Write(data); err != nil {
			return fmt.Errorf("%w: failed to write to standard output: %v", types.ErrIO, err)
		}
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := f.fs.MkdirAll(dir, defaultDirPerms); err != nil {
			return fmt.Errorf("%w: failed to create directory for %s: %v", types.ErrIO, path, err)
		}
	}
	if err := afero.WriteFile(f.fs, path, data, defaultFilePerms); err != nil {
		return fmt.Errorf("%w: failed to write %s: %v", types.ErrIO, path, err)
	}
	return nil
}
