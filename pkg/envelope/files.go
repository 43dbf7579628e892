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

package envelope

import (
	"context"
	"fmt"

	"github.com/jeremyhahn/go-sharelock/pkg/correlation"
	"github.com/jeremyhahn/go-sharelock/pkg/kek"
	"github.com/jeremyhahn/go-sharelock/pkg/sharing"
	"github.com/jeremyhahn/go-sharelock/pkg/validation"
)

// Generate creates a KEK, writes its public key to publicKeyPath and returns
// the shares. Nothing is written unless the split succeeds.
func (e *Envelope) Generate(ctx context.Context, publicKeyPath string, shares, threshold int) (*KEKShares, error) {
	ctx, _ = correlation.Ensure(ctx)

	result, err := e.GenerateKEK(ctx, shares, threshold)
	if err != nil {
		return nil, err
	}
	if err := e.storage.WriteFile(publicKeyPath, result.PublicKey); err != nil {
		return nil, fmt.Errorf("failed to save public key: %w", err)
	}

	e.logger.WithContext(ctx).Debug("saved public key", "path", validation.SanitizeForLog(publicKeyPath))
	return result, nil
}

// Encrypt seals plaintext for the public key stored at publicKeyPath. The
// wrapped DEK is written to dekPath first, then the envelope to outputPath
// ("-" for standard output).
func (e *Envelope) Encrypt(ctx context.Context, publicKeyPath string, plaintext []byte, outputPath, dekPath string) error {
	ctx, _ = correlation.Ensure(ctx)
	log := e.logger.WithContext(ctx)

	publicKey, err := kek.Load(e.storage.Fs(), publicKeyPath)
	if err != nil {
		return err
	}

	sealed, err := e.Seal(ctx, publicKey, plaintext)
	if err != nil {
		return err
	}

	if err := e.storage.WriteFile(dekPath, sealed.EncryptedDEK); err != nil {
		return fmt.Errorf("failed to save encrypted DEK: %w", err)
	}
	log.Debug("saved encrypted DEK", "path", validation.SanitizeForLog(dekPath))

	if err := e.storage.WriteFile(outputPath, sealed.Envelope); err != nil {
		return fmt.Errorf("failed to save envelope: %w", err)
	}
	log.Debug("saved envelope", "path", validation.SanitizeForLog(outputPath))
	return nil
}

// Decrypt reads the envelope at inputPath and the wrapped DEK at dekPath and
// opens them with shares.
func (e *Envelope) Decrypt(ctx context.Context, shares []sharing.Share, inputPath, dekPath string) ([]byte, error) {
	ctx, _ = correlation.Ensure(ctx)

	envelope, err := e.storage.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read envelope: %w", err)
	}
	encryptedDEK, err := e.storage.ReadFile(dekPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read encrypted DEK: %w", err)
	}
	return e.Open(ctx, shares, envelope, encryptedDEK)
}
