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
	"strings"

	"github.com/jeremyhahn/go-sharelock/pkg/crypto/rand"
	"github.com/jeremyhahn/go-sharelock/pkg/kek"
	"github.com/jeremyhahn/go-sharelock/pkg/logging"
	"github.com/jeremyhahn/go-sharelock/pkg/sharing"
	"github.com/jeremyhahn/go-sharelock/pkg/types"
	"github.com/jeremyhahn/go-sharelock/pkg/validation"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the CLI, for
// example SHARELOCK_SCHEME or SHARELOCK_PADDING_BYTE.
const EnvPrefix = "SHARELOCK"

// Configuration keys. Each is also the name of the flag that sets it.
const (
	keyConfig       = "config"
	keyFormat       = "format"
	keyLogLevel     = "log-level"
	keyLogFormat    = "log-format"
	keyVerbose      = "verbose"
	keyMetricsFile  = "metrics-file"
	keyScheme       = "scheme"
	keyField        = "field"
	keyPaddingByte  = "padding-byte"
	keyMinShares    = "min-shares"
	keyRand         = "rand"
	keyRandDevice   = "rand-device"
	keyRandFallback = "rand-fallback"

	keyKEKFile    = "kek-file"
	keyDEKFile    = "dek-file"
	keyShares     = "shares"
	keyThreshold  = "threshold"
	keyQuiet      = "quiet"
	keyOutputFile = "output-file"
	keyInputFile  = "input-file"
	keyOutput     = "output"
)

// Config holds the settings shared by every command.
type Config struct {
	// ConfigFile is the path to the configuration file
	ConfigFile string

	// OutputFormat controls output formatting (text, json, yaml)
	OutputFormat string

	// LogLevel and LogFormat configure the stderr logger
	LogLevel  string
	LogFormat string

	// Verbose enables debug logging
	Verbose bool

	// MetricsFile receives a Prometheus textfile export on exit
	MetricsFile string

	// Scheme is the KEK scheme (secp256k1, p256)
	Scheme string

	// Field is the secret sharing field (gf256, gf65536)
	Field string

	// PaddingByte pads the final block of the shared private key
	PaddingByte int

	// MinShares rejects decryption with fewer shares; 0 disables the check
	MinShares int

	// RandMode and RandDevice select the random source; RandFallback, when
	// set, replaces it if the device is missing or a read fails
	RandMode     string
	RandDevice   string
	RandFallback string
}

// NewConfig returns the default configuration.
func NewConfig() *Config {
	return &Config{
		OutputFormat: string(OutputFormatText),
		LogLevel:     "warn",
		LogFormat:    logging.FormatText,
		Scheme:       kek.SchemeSecp256k1,
		Field:        sharing.FieldGF256,
		PaddingByte:  int(types.PaddingByte),
		RandMode:     string(rand.ModeAuto),
		RandDevice:   rand.DefaultDevice,
	}
}

// loadConfig layers flags over SHARELOCK_* environment variables over the
// optional config file over defaults.
func loadConfig(v *viper.Viper, fs afero.Fs, flags *pflag.FlagSet) (*Config, error) {
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cfg := NewConfig()
	cfg.ConfigFile = v.GetString(keyConfig)
	if cfg.ConfigFile != "" {
		v.SetFs(fs)
		v.SetConfigFile(cfg.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: failed to read config file %s: %v", types.ErrIO, cfg.ConfigFile, err)
		}
	}

	setString := func(dst *string, key string) {
		if s := v.GetString(key); s != "" {
			*dst = s
		}
	}
	setString(&cfg.OutputFormat, keyFormat)
	setString(&cfg.LogLevel, keyLogLevel)
	setString(&cfg.LogFormat, keyLogFormat)
	setString(&cfg.MetricsFile, keyMetricsFile)
	setString(&cfg.Scheme, keyScheme)
	setString(&cfg.Field, keyField)
	setString(&cfg.RandMode, keyRand)
	setString(&cfg.RandDevice, keyRandDevice)
	setString(&cfg.RandFallback, keyRandFallback)
	cfg.Verbose = v.GetBool(keyVerbose)
	cfg.PaddingByte = v.GetInt(keyPaddingByte)
	cfg.MinShares = v.GetInt(keyMinShares)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every setting without building anything.
func (c *Config) Validate() error {
	if !NewPrinter(c.OutputFormat, nil).Valid() {
		return fmt.Errorf("%w: unknown output format %q", types.ErrInvalidParameter, c.OutputFormat)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.PaddingByte < 0 || c.PaddingByte > 0xFF {
		return fmt.Errorf("%w: padding byte %d out of range 0-255", types.ErrInvalidParameter, c.PaddingByte)
	}
	if c.PaddingByte == int(types.TerminatorByte) {
		return fmt.Errorf("%w: padding byte must differ from terminator 0x%02x",
			types.ErrInvalidParameter, types.TerminatorByte)
	}
	if c.MinShares < 0 {
		return fmt.Errorf("%w: min shares (%d) must be >= 0", types.ErrInvalidParameter, c.MinShares)
	}
	for _, name := range []string{c.Scheme, c.Field} {
		if err := validation.ValidateName(name); err != nil {
			return fmt.Errorf("%w: %v", types.ErrInvalidParameter, err)
		}
	}
	if _, _, err := c.primitives(); err != nil {
		return err
	}
	for _, mode := range []string{c.RandMode, c.RandFallback} {
		if !rand.ValidMode(rand.Mode(mode)) {
			return fmt.Errorf("%w: unknown random source %q", types.ErrInvalidParameter, mode)
		}
	}
	return nil
}

func (c *Config) primitives() (kek.Scheme, sharing.Field, error) {
	scheme, err := kek.SchemeByName(c.Scheme)
	if err != nil {
		return nil, nil, err
	}
	field, err := sharing.FieldByName(c.Field)
	if err != nil {
		return nil, nil, err
	}
	return scheme, field, nil
}

func (c *Config) resolver() (rand.Resolver, error) {
	r, err := rand.NewResolver(&rand.Config{
		Mode:         rand.Mode(c.RandMode),
		Device:       c.RandDevice,
		FallbackMode: rand.Mode(c.RandFallback),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrRandom, err)
	}
	return r, nil
}
