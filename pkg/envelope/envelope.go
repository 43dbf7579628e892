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

// Package envelope ties the pieces of threshold envelope encryption together.
//
// A KEK key pair is generated and its private half is split into shares; the
// public half is kept. Sealing a payload draws a fresh DEK, encrypts the
// payload under it and wraps the DEK with the KEK public key. Opening
// reconstructs the KEK private key from a sufficient subset of shares,
// unwraps the DEK and decrypts the payload. Private key material exists in
// memory only for the duration of a single call and is zeroed afterwards.
package envelope

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jeremyhahn/go-sharelock/pkg/correlation"
	"github.com/jeremyhahn/go-sharelock/pkg/crypto/rand"
	"github.com/jeremyhahn/go-sharelock/pkg/dek"
	"github.com/jeremyhahn/go-sharelock/pkg/kek"
	"github.com/jeremyhahn/go-sharelock/pkg/logging"
	"github.com/jeremyhahn/go-sharelock/pkg/metrics"
	"github.com/jeremyhahn/go-sharelock/pkg/sharing"
	"github.com/jeremyhahn/go-sharelock/pkg/storage"
	"github.com/jeremyhahn/go-sharelock/pkg/types"
)

// Config wires the collaborators of an Envelope. Every field is optional.
type Config struct {
	// Scheme wraps DEKs. Defaults to kek.Secp256k1.
	Scheme kek.Scheme

	// Field is the secret sharing primitive. Defaults to sharing.GF256.
	Field sharing.Field

	// PaddingByte pads the final block of the split private key. Shares must
	// be combined with the same value they were split with.
	PaddingByte byte

	// MinShares rejects Open calls with fewer shares. Zero disables the check.
	MinShares int

	// Rand is the source for key pairs, DEKs, nonces and polynomial
	// coefficients. Defaults to the system CSPRNG.
	Rand io.Reader

	Logger  *logging.Logger
	Metrics *metrics.Metrics
	Storage *storage.Files
}

// Envelope performs generate, seal and open operations.
type Envelope struct {
	scheme    kek.Scheme
	field     sharing.Field
	padding   byte
	minShares int
	random    io.Reader
	logger    *logging.Logger
	metrics   *metrics.Metrics
	storage   *storage.Files
}

// KEKShares is the output of key generation.
type KEKShares struct {
	PublicKey []byte
	Shares    []sharing.Share
	Threshold int
}

// Sealed is the output of sealing a payload.
type Sealed struct {
	// Envelope is nonce ‖ ciphertext ‖ tag.
	Envelope []byte

	// EncryptedDEK is the DEK wrapped under the KEK public key.
	EncryptedDEK []byte
}

// New returns an Envelope with defaults filled in for any unset field of
// config.
func New(config *Config) (*Envelope, error) {
	cfg := Config{}
	if config != nil {
		cfg = *config
	}
	if cfg.MinShares < 0 {
		return nil, fmt.Errorf("%w: min shares (%d) must be >= 0", types.ErrInvalidParameter, cfg.MinShares)
	}
	if cfg.PaddingByte == types.TerminatorByte {
		return nil, fmt.Errorf("%w: padding byte must differ from terminator 0x%02x",
			types.ErrInvalidParameter, types.TerminatorByte)
	}
	if cfg.Scheme == nil {
		cfg.Scheme = kek.Secp256k1{}
	}
	if cfg.Field == nil {
		cfg.Field = sharing.GF256{}
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Storage == nil {
		cfg.Storage = storage.New(nil, nil)
	}

	return &Envelope{
		scheme:    cfg.Scheme,
		field:     cfg.Field,
		padding:   cfg.PaddingByte,
		minShares: cfg.MinShares,
		random:    cfg.Rand,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		storage:   cfg.Storage,
	}, nil
}

// Scheme returns the KEK scheme in use.
func (e *Envelope) Scheme() kek.Scheme {
	return e.scheme
}

// Field returns the sharing field in use.
func (e *Envelope) Field() sharing.Field {
	return e.field
}

func (e *Envelope) sharingOptions() *sharing.Options {
	return &sharing.Options{
		PaddingByte: e.padding,
		Field:       e.field,
		Rand:        e.random,
		MinShares:   e.minShares,
	}
}

// GenerateKEK creates a KEK key pair and splits its private key into shares,
// any threshold of which reconstruct it. The private key is zeroed before
// returning. Parameter errors are reported before any key is generated.
func (e *Envelope) GenerateKEK(ctx context.Context, shares, threshold int) (result *KEKShares, err error) {
	ctx, _ = correlation.Ensure(ctx)
	log := e.logger.WithContext(ctx).With("op", metrics.OpGenerate)
	started := time.Now()
	defer func() { e.metrics.RecordOperation(metrics.OpGenerate, e.scheme.Name(), started, err) }()

	if err := e.checkSplitParameters(shares, threshold); err != nil {
		return nil, err
	}

	log.Debug("generating key pair", "scheme", e.scheme.Name())
	pair, err := e.scheme.Generate(e.random)
	if err != nil {
		return nil, err
	}
	defer pair.Wipe()

	log.Debug("splitting private key", "field", e.field.Name(), "shares", shares, "threshold", threshold)
	split, err := sharing.Split(pair.Private, shares, threshold, e.sharingOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to split private key: %w", err)
	}
	e.metrics.AddShares(metrics.OpSplit, e.field.Name(), len(split))

	log.Info("generated KEK", "scheme", e.scheme.Name(), "field", e.field.Name(),
		"shares", shares, "threshold", threshold)

	return &KEKShares{
		PublicKey: pair.Public,
		Shares:    split,
		Threshold: threshold,
	}, nil
}

// Seal encrypts plaintext under a fresh DEK and wraps the DEK with
// publicKey.
func (e *Envelope) Seal(ctx context.Context, publicKey, plaintext []byte) (result *Sealed, err error) {
	ctx, _ = correlation.Ensure(ctx)
	log := e.logger.WithContext(ctx).With("op", metrics.OpEncrypt)
	started := time.Now()
	defer func() { e.metrics.RecordOperation(metrics.OpEncrypt, e.scheme.Name(), started, err) }()

	key, err := dek.Generate(e.random, types.DEKSize)
	if err != nil {
		return nil, err
	}
	defer wipe(key)

	wrapped, err := e.scheme.Encrypt(e.random, key, publicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap DEK: %w", err)
	}

	sealed, err := dek.Seal(e.random, plaintext, key)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt payload: %w", err)
	}
	e.metrics.AddPayloadBytes(metrics.OpEncrypt, len(plaintext))

	log.Info("sealed payload", "scheme", e.scheme.Name(), "bytes", len(plaintext))

	return &Sealed{Envelope: sealed, EncryptedDEK: wrapped}, nil
}

// Open reconstructs the KEK private key from shares, unwraps encryptedDEK and
// decrypts envelope. No plaintext is returned unless every step succeeds.
//
// Shares that do not reconstruct the right key (too few, from another split,
// or combined with the wrong padding byte) fail with types.ErrAuthentication.
func (e *Envelope) Open(ctx context.Context, shares []sharing.Share, envelope, encryptedDEK []byte) (plaintext []byte, err error) {
	ctx, _ = correlation.Ensure(ctx)
	log := e.logger.WithContext(ctx).With("op", metrics.OpDecrypt)
	started := time.Now()
	defer func() { e.metrics.RecordOperation(metrics.OpDecrypt, e.scheme.Name(), started, err) }()

	if len(envelope) < types.NonceSize {
		return nil, fmt.Errorf("%w: envelope is %d bytes, shorter than the %d-byte nonce",
			types.ErrInvalidFormat, len(envelope), types.NonceSize)
	}

	log.Debug("combining shares", "field", e.field.Name(), "count", len(shares))
	private, err := sharing.Combine(shares, e.sharingOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to combine shares: %w", err)
	}
	defer wipe(private)
	e.metrics.AddShares(metrics.OpCombine, e.field.Name(), len(shares))

	if len(private) == 0 {
		log.Warn("shares did not reconstruct a key", "shares", len(shares))
		return nil, fmt.Errorf("%w: shares did not reconstruct a key", types.ErrAuthentication)
	}

	key, err := e.scheme.Decrypt(encryptedDEK, private)
	if err != nil {
		if errors.Is(err, types.ErrAuthentication) {
			log.Warn("reconstructed key was rejected", "scheme", e.scheme.Name(), "shares", len(shares))
		}
		return nil, fmt.Errorf("failed to unwrap DEK: %w", err)
	}
	defer wipe(key)

	plaintext, err = dek.Open(envelope, key)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt payload: %w", err)
	}
	e.metrics.AddPayloadBytes(metrics.OpDecrypt, len(plaintext))

	log.Info("opened envelope", "scheme", e.scheme.Name(), "shares", len(shares), "bytes", len(plaintext))
	return plaintext, nil
}

func (e *Envelope) checkSplitParameters(shares, threshold int) error {
	switch {
	case shares <= 0:
		return fmt.Errorf("%w: shares (%d) must be > 0", types.ErrInvalidParameter, shares)
	case threshold <= 0:
		return fmt.Errorf("%w: threshold (%d) must be > 0", types.ErrInvalidParameter, threshold)
	case threshold > shares:
		return fmt.Errorf("%w: threshold (%d) must be <= number of shares (%d)",
			types.ErrInvalidParameter, threshold, shares)
	case shares > e.field.MaxShares():
		return fmt.Errorf("%w: %s supports at most %d shares, got %d",
			types.ErrInvalidParameter, e.field.Name(), e.field.MaxShares(), shares)
	}
	return nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
