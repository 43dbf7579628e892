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

package storage

import (
	"bytes"
	"errors"
	"testing"

	"github.com/jeremyhahn/go-sharelock/pkg/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestFiles_WriteRead(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := New(fs, nil)

	require.NoError(t, files.WriteFile("out/nested/DEK.bin", []byte{0xDE, 0xAD}))

	data, err := files.ReadFile("out/nested/DEK.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xDE, 0xAD}, data)

	info, err := fs.Stat("out/nested/DEK.bin")
	require.NoError(t, err)
	assert.Equal(t, "-rw-------", info.Mode().Perm().String())

	ok, err := afero.Exists(files.Fs(), "out/nested/DEK.bin")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFiles_Overwrite(t *testing.T) {
	files := New(afero.NewMemMapFs(), nil)
	require.NoError(t, files.WriteFile("KEK.bin", []byte("first, longer value")))
	require.NoError(t, files.WriteFile("KEK.bin", []byte("second")))

	data, err := files.ReadFile("KEK.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
}

func TestFiles_Stdout(t *testing.T) {
	fs := afero.NewMemMapFs()
	var out bytes.Buffer
	files := New(fs, &out)

	require.NoError(t, files.WriteFile(Stdout, []byte("envelope")))
	assert.Equal(t, "envelope", out.String())

	ok, err := afero.Exists(fs, Stdout)
	require.NoError(t, err)
	assert.False(t, ok)

	err = New(fs, brokenWriter{}).WriteFile(Stdout, []byte("x"))
	assert.ErrorIs(t, err, types.ErrIO)
}

func TestFiles_Errors(t *testing.T) {
	files := New(afero.NewMemMapFs(), nil)

	_, err := files.ReadFile("missing.bin")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrIO)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "missing.bin")

	_, err = files.ReadFile("")
	assert.ErrorIs(t, err, ErrInvalidPath)

	err = files.WriteFile("", []byte("x"))
	assert.ErrorIs(t, err, types.ErrIO)

	err = files.WriteFile("out\x00.enc", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidPath)
	assert.Contains(t, err.Error(), "null byte")

	readOnly := New(afero.NewReadOnlyFs(afero.NewMemMapFs()), nil)
	err = readOnly.WriteFile("KEK.bin", []byte("x"))
	assert.ErrorIs(t, err, types.ErrIO)
}
