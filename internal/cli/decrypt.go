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

package cli

import (
	"github.com/jeremyhahn/go-sharelock/pkg/sharing"
	"github.com/jeremyhahn/go-sharelock/pkg/storage"
	"github.com/jeremyhahn/go-sharelock/pkg/types"
	"github.com/spf13/cobra"
)

func (a *App) newDecryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt a file with key shares read from standard input",
		Long: `Decrypt --input-file. Key shares are read from standard input, one per line
in the form "{index} - {base64 share}", exactly as printed by generate. At
least the threshold number of shares must be supplied; with fewer, decryption
fails with an authentication error.`,
		Example: `  sharelock decrypt -i secret.enc < shares.txt
  sharelock decrypt -i secret.enc --min-shares 3 -O secret.txt < shares.txt`,
		Args: cobra.NoArgs,
		RunE: a.runDecrypt,
	}

	flags := cmd.Flags()
	flags.StringP(keyInputFile, "i", "", "file from which to read encrypted data")
	flags.StringP(keyDEKFile, "d", types.DefaultDEKFile, "path from which to read the encrypted Data Encryption Key")
	flags.StringP(keyOutput, "O", storage.Stdout, "file to which to write decrypted data (use - for stdout)")
	flags.Int(keyMinShares, 0, "refuse to decrypt with fewer shares (0 disables the check)")
	_ = cmd.MarkFlagRequired(keyInputFile)
	return cmd
}

func (a *App) runDecrypt(cmd *cobra.Command, _ []string) error {
	shares, err := sharing.ParseShares(cmd.InOrStdin())
	if err != nil {
		return err
	}

	env, err := a.newEnvelope()
	if err != nil {
		return err
	}

	plaintext, err := env.Decrypt(cmd.Context(), shares, a.v.GetString(keyInputFile), a.v.GetString(keyDEKFile))
	if err != nil {
		return err
	}
	defer wipe(plaintext)

	return a.files.WriteFile(a.v.GetString(keyOutput), plaintext)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
