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
	"fmt"
	"io"

	"github.com/jeremyhahn/go-sharelock/pkg/types"
	"github.com/spf13/cobra"
)

func (a *App) newEncryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt standard input",
		Long: `Encrypt the data read from standard input with a fresh Data Encryption Key.
The DEK is wrapped with the public Key Encryption Key and written to
--dek-file; the encrypted data is written to --output-file.`,
		Example: `  sharelock encrypt -o secret.enc < secret.txt
  tar c docs | sharelock encrypt -k team.kek -d docs.dek -o - > docs.enc`,
		Args: cobra.NoArgs,
		RunE: a.runEncrypt,
	}

	flags := cmd.Flags()
	flags.StringP(keyKEKFile, "k", types.DefaultPublicKeyFile, "path to the public Key Encryption Key")
	flags.StringP(keyOutputFile, "o", "", "file to which to write encrypted data (use - for stdout)")
	flags.StringP(keyDEKFile, "d", types.DefaultDEKFile, "path at which to write the encrypted Data Encryption Key")
	_ = cmd.MarkFlagRequired(keyOutputFile)
	return cmd
}

func (a *App) runEncrypt(cmd *cobra.Command, _ []string) error {
	plaintext, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("%w: failed to read standard input: %v", types.ErrIO, err)
	}

	env, err := a.newEnvelope()
	if err != nil {
		return err
	}

	return env.Encrypt(cmd.Context(),
		a.v.GetString(keyKEKFile),
		plaintext,
		a.v.GetString(keyOutputFile),
		a.v.GetString(keyDEKFile))
}
