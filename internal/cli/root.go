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
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jeremyhahn/go-sharelock/pkg/correlation"
	"github.com/jeremyhahn/go-sharelock/pkg/crypto/rand"
	"github.com/jeremyhahn/go-sharelock/pkg/envelope"
	"github.com/jeremyhahn/go-sharelock/pkg/logging"
	"github.com/jeremyhahn/go-sharelock/pkg/metrics"
	"github.com/jeremyhahn/go-sharelock/pkg/storage"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// App holds the state of one CLI invocation.
type App struct {
	fs     afero.Fs
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	v       *viper.Viper
	config  *Config
	logger  *logging.Logger
	metrics *metrics.Metrics
	random  rand.Resolver
	files   *storage.Files
}

// NewApp returns an App reading and writing through the given streams and
// filesystem.
func NewApp(fs afero.Fs, stdin io.Reader, stdout, stderr io.Writer) *App {
	return &App{
		fs:     fs,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		v:      viper.New(),
		config: NewConfig(),
		logger: logging.Discard(),
	}
}

// Execute runs the CLI against the process environment and returns the exit
// code.
func Execute() int {
	app := NewApp(afero.NewOsFs(), os.Stdin, os.Stdout, os.Stderr)
	return app.Run(context.Background(), os.Args[1:])
}

// Run executes args and returns the process exit code. Errors are printed to
// stderr in the configured output format.
func (a *App) Run(ctx context.Context, args []string) int {
	cmd := a.newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(a.stdin)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	err := cmd.ExecuteContext(ctx)
	if merr := a.finish(); err == nil {
		err = merr
	}
	if err != nil {
		a.handleError(err)
	}
	return ExitCode(err)
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err != nil {
		return 1
	}
	return 0
}

func (a *App) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sharelock",
		Short: "sharelock - Threshold envelope encryption",
		Long: `sharelock encrypts data with a one-time Data Encryption Key (DEK) and wraps
the DEK with a Key Encryption Key (KEK) whose private key is split into
Shamir secret shares. Decryption requires any threshold number of shares.

Workflow:
  sharelock generate -s 5 -t 3            # writes KEK.bin, prints shares
  sharelock encrypt -o secret.enc < data  # writes secret.enc and DEK.bin
  sharelock decrypt -i secret.enc < shares.txt`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := cmd.PersistentFlags()
	flags.String(keyConfig, "", "config file (yaml, json or toml)")
	flags.String(keyFormat, a.config.OutputFormat, "output format (text, json, yaml)")
	flags.String(keyLogLevel, a.config.LogLevel, "log level (debug, info, warn, error)")
	flags.String(keyLogFormat, a.config.LogFormat, "log format (text, json)")
	flags.BoolP(keyVerbose, "v", false, "verbose output (debug logging)")
	flags.String(keyMetricsFile, "", "write Prometheus metrics to this file on exit")
	flags.String(keyScheme, a.config.Scheme, "KEK scheme (secp256k1, p256)")
	flags.String(keyField, a.config.Field, "secret sharing field (gf256, gf65536)")
	flags.Int(keyPaddingByte, a.config.PaddingByte, "byte used to pad the final share block (0-255, not 1)")
	flags.String(keyRand, a.config.RandMode, "random source (auto, software, device)")
	flags.String(keyRandDevice, rand.DefaultDevice, "entropy device for --rand device")
	flags.String(keyRandFallback, "", "random source used when --rand fails (software, auto, device)")

	cmd.AddCommand(a.newVersionCmd())
	cmd.AddCommand(a.newGenerateCmd())
	cmd.AddCommand(a.newEncryptCmd())
	cmd.AddCommand(a.newDecryptCmd())
	return cmd
}

// setup resolves configuration and builds the shared collaborators before
// any subcommand runs.
func (a *App) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(a.v, a.fs, cmd.Flags())
	if err != nil {
		return err
	}
	a.config = cfg

	level := cfg.LogLevel
	if cfg.Verbose {
		level = "debug"
	}
	logger, err := logging.New(&logging.Config{Level: level, Format: cfg.LogFormat, Writer: a.stderr})
	if err != nil {
		return err
	}

	ctx, id := correlation.Ensure(cmd.Context())
	cmd.SetContext(ctx)
	a.logger = logger.With("command", cmd.Name())
	a.logger.Debug("configuration loaded", "correlation_id", id, "config_file", a.v.ConfigFileUsed(),
		"scheme", cfg.Scheme, "field", cfg.Field, "format", cfg.OutputFormat)

	if cfg.MetricsFile != "" {
		a.metrics = metrics.New()
	}
	a.files = storage.New(a.fs, a.stdout)
	return nil
}

// newEnvelope builds an Envelope from the resolved configuration.
func (a *App) newEnvelope() (*envelope.Envelope, error) {
	scheme, field, err := a.config.primitives()
	if err != nil {
		return nil, err
	}
	random, err := a.config.resolver()
	if err != nil {
		return nil, err
	}
	a.random = random

	return envelope.New(&envelope.Config{
		Scheme:      scheme,
		Field:       field,
		PaddingByte: byte(a.config.PaddingByte),
		MinShares:   a.config.MinShares,
		Rand:        random,
		Logger:      a.logger,
		Metrics:     a.metrics,
		Storage:     a.files,
	})
}

// finish releases the random source and exports metrics.
func (a *App) finish() error {
	if a.random != nil {
		a.logger.MaybeError(a.random.Close(), "rand", a.config.RandMode)
	}
	if a.metrics != nil && a.files != nil && a.config.MetricsFile != "" {
		var buf bytes.Buffer
		if err := a.metrics.WriteText(&buf); err != nil {
			return fmt.Errorf("failed to export metrics: %w", err)
		}
		if err := a.files.WriteFile(a.config.MetricsFile, buf.Bytes()); err != nil {
			return fmt.Errorf("failed to export metrics: %w", err)
		}
	}
	return nil
}

func (a *App) handleError(err error) {
	printer := NewPrinter(a.config.OutputFormat, a.stderr)
	if !printer.Valid() {
		printer = NewPrinter(string(OutputFormatText), a.stderr)
	}
	_ = printer.PrintError(err) // best-effort on stderr
}
