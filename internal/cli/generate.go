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
	"github.com/jeremyhahn/go-sharelock/pkg/types"
	"github.com/spf13/cobra"
)

func (a *App) newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a Key Encryption Key and split it into shares",
		Long: `Generate a new Key Encryption Key pair. The public key is written to
--kek-file and the private key is split into --shares Shamir shares, any
--threshold of which can reconstruct it. The shares are printed to stdout and
the private key is never stored.`,
		Example: `  sharelock generate -s 5 -t 3
  sharelock generate -k team.kek -s 3 -t 2 -q > shares.txt`,
		Args: cobra.NoArgs,
		RunE: a.runGenerate,
	}

	flags := cmd.Flags()
	flags.StringP(keyKEKFile, "k", types.DefaultPublicKeyFile, "path at which to write the public Key Encryption Key")
	flags.IntP(keyShares, "s", 0, "number of key shares to create")
	flags.IntP(keyThreshold, "t", 0, "number of shares required for decryption (<= shares)")
	flags.BoolP(keyQuiet, "q", false, "print only the shares, without the header")
	_ = cmd.MarkFlagRequired(keyShares)
	_ = cmd.MarkFlagRequired(keyThreshold)
	return cmd
}

func (a *App) runGenerate(cmd *cobra.Command, _ []string) error {
	env, err := a.newEnvelope()
	if err != nil {
		return err
	}

	kekFile := a.v.GetString(keyKEKFile)
	result, err := env.Generate(cmd.Context(), kekFile, a.v.GetInt(keyShares), a.v.GetInt(keyThreshold))
	if err != nil {
		return err
	}

	printer := NewPrinter(a.config.OutputFormat, cmd.OutOrStdout())
	return printer.PrintShares(generateOutput{
		PublicKeyFile: kekFile,
		Scheme:        env.Scheme().Name(),
		Field:         env.Field().Name(),
		Threshold:     result.Threshold,
	}, result.Shares, a.v.GetBool(keyQuiet))
}
