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

// Package rand provides the random number source used for every key, nonce
// and polynomial coefficient generated by sharelock.
//
// A Resolver implements io.Reader so it can be handed to any function that
// expects crypto/rand.Reader. Three sources are supported:
//   - Software: crypto/rand from the standard library
//   - Device: an entropy device or file such as /dev/hwrng
//   - Auto: the software source
//
// Example:
//
//	rng, _ := rand.NewResolver(rand.ModeAuto)
//	key := make([]byte, 32)
//	_, _ = io.ReadFull(rng, key)
//
//	// Entropy device, software when it is missing or runs dry
//	// (sharelock --rand device --rand-fallback software)
//	rng, _ := rand.NewResolver(&rand.Config{
//	    Mode:         rand.ModeDevice,
//	    Device:       "/dev/hwrng",
//	    FallbackMode: rand.ModeSoftware,
//	})
package rand

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"sync"
)

// Mode specifies which RNG source to use.
type Mode string

const (
	// ModeAuto selects the software source.
	ModeAuto Mode = "auto"

	// ModeSoftware uses crypto/rand (stdlib secure random)
	ModeSoftware Mode = "software"

	// ModeDevice reads from an entropy device such as /dev/hwrng
	ModeDevice Mode = "device"
)

// DefaultDevice is the device read by ModeDevice when none is configured.
const DefaultDevice = "/dev/hwrng"

// Config contains RNG configuration.
type Config struct {
	// Mode specifies the primary RNG source to use.
	// Defaults to ModeAuto if not specified.
	Mode Mode

	// FallbackMode specifies the RNG source to use if the primary source
	// cannot be opened or fails a read. If not specified, failures are
	// returned as errors.
	FallbackMode Mode

	// Device is the entropy device read in ModeDevice.
	Device string
}

// Resolver is a random source. Read fills p entirely or returns an error,
// making it usable as a drop-in replacement for crypto/rand.Reader.
type Resolver interface {
	io.Reader

	// Close releases any resources held by the source.
	Close() error
}

// ValidMode reports whether m names a supported source. The empty mode is
// valid and means "unset".
func ValidMode(m Mode) bool {
	switch m {
	case "", ModeAuto, ModeSoftware, ModeDevice:
		return true
	}
	return false
}

// NewResolver creates a new RNG resolver. config may be a Mode, a *Config,
// or nil for auto mode.
func NewResolver(config interface{}) (Resolver, error) {
	cfg := normalizeConfig(config)

	var fallback Resolver
	if cfg.FallbackMode != "" {
		r, err := newResolver(cfg.FallbackMode, cfg)
		if err != nil {
			return nil, fmt.Errorf("fallback RNG: %w", err)
		}
		fallback = r
	}

	primary, err := newResolver(cfg.Mode, cfg)
	if err != nil {
		if fallback != nil {
			return fallback, nil
		}
		return nil, err
	}
	if fallback == nil {
		return primary, nil
	}
	return &fallbackResolver{primary: primary, fallback: fallback}, nil
}

// NewReaderResolver wraps an arbitrary reader. Short reads are reported as
// errors, so an exhausted reader can never yield partially random output.
func NewReaderResolver(r io.Reader) Resolver {
	return &readerResolver{r: r}
}

// Default returns a software resolver.
func Default() Resolver {
	return &SoftwareResolver{}
}

// normalizeConfig converts the accepted config types to *Config.
func normalizeConfig(config interface{}) *Config {
	var cfg *Config
	switch v := config.(type) {
	case Mode:
		cfg = &Config{Mode: v}
	case *Config:
		if v != nil {
			c := *v
			cfg = &c
		}
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeAuto
	}
	return cfg
}

func newResolver(mode Mode, cfg *Config) (Resolver, error) {
	switch mode {
	case ModeAuto, ModeSoftware:
		return &SoftwareResolver{}, nil
	case ModeDevice:
		device := cfg.Device
		if device == "" {
			device = DefaultDevice
		}
		return newDeviceResolver(device)
	default:
		return nil, fmt.Errorf("unknown RNG mode: %s", mode)
	}
}

// SoftwareResolver uses crypto/rand from the Go standard library.
type SoftwareResolver struct{}

var _ Resolver = (*SoftwareResolver)(nil)

func (s *SoftwareResolver) Read(p []byte) (n int, err error) {
	return rand.Read(p)
}

func (s *SoftwareResolver) Close() error {
	return nil
}

type readerResolver struct {
	mu sync.Mutex
	r  io.Reader
}

func (r *readerResolver) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return io.ReadFull(r.r, p)
}

func (r *readerResolver) Close() error {
	if c, ok := r.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func newDeviceResolver(path string) (Resolver, error) {
	f, err := os.Open(path) // #nosec G304 -- operator-configured entropy device
	if err != nil {
		return nil, fmt.Errorf("failed to open RNG device %s: %w", path, err)
	}
	return &readerResolver{r: f}, nil
}

// fallbackResolver tries the primary source and switches to the fallback on
// error. The fallback overwrites all of p, so a partial primary read never
// leaks into the output.
type fallbackResolver struct {
	primary  Resolver
	fallback Resolver
}

func (f *fallbackResolver) Read(p []byte) (int, error) {
	n, err := f.primary.Read(p)
	if err != nil {
		return f.fallback.Read(p)
	}
	return n, nil
}

func (f *fallbackResolver) Close() error {
	_ = f.primary.Close()
	return f.fallback.Close()
}
