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
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jeremyhahn/go-sharelock/pkg/sharing"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format for CLI commands
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new printer with the specified format
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// Valid reports whether the printer's format is supported.
func (p *Printer) Valid() bool {
	switch p.format {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return true
	}
	return false
}

type shareOutput struct {
	Index int    `json:"index" yaml:"index"`
	Value string `json:"value" yaml:"value"`
}

type generateOutput struct {
	PublicKeyFile string        `json:"public_key_file" yaml:"public_key_file"`
	Scheme        string        `json:"scheme" yaml:"scheme"`
	Field         string        `json:"field" yaml:"field"`
	Threshold     int           `json:"threshold" yaml:"threshold"`
	Shares        []shareOutput `json:"shares" yaml:"shares"`
}

type versionOutput struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	OS        string `json:"os" yaml:"os"`
	Arch      string `json:"arch" yaml:"arch"`
}

type statusOutput struct {
	Status string `json:"status" yaml:"status"`
	Error  string `json:"error" yaml:"error"`
}

// PrintShares prints the result of generate. In text format this is the
// share listing read back by decrypt; out.Shares is filled from shares.
func (p *Printer) PrintShares(out generateOutput, shares []sharing.Share, quiet bool) error {
	switch p.format {
	case OutputFormatJSON, OutputFormatYAML:
		out.Shares = toShareOutput(shares)
		return p.print(out)
	case OutputFormatText:
		return sharing.WriteShares(p.writer, shares, out.Threshold, quiet)
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintVersion prints build information
func (p *Printer) PrintVersion(v versionOutput) error {
	switch p.format {
	case OutputFormatJSON, OutputFormatYAML:
		return p.print(v)
	case OutputFormatText:
		fmt.Fprintf(p.writer, "sharelock version %s\n", v.Version)
		fmt.Fprintf(p.writer, "Git commit: %s\n", v.Commit)
		fmt.Fprintf(p.writer, "Build date: %s\n", v.BuildDate)
		fmt.Fprintf(p.writer, "Go version: %s\n", v.GoVersion)
		fmt.Fprintf(p.writer, "OS/Arch: %s/%s\n", v.OS, v.Arch)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON, OutputFormatYAML:
		return p.print(statusOutput{Status: "error", Error: err.Error()})
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

func (p *Printer) print(v any) error {
	if p.format == OutputFormatYAML {
		return p.printYAML(v)
	}
	return p.printJSON(v)
}

// printJSON prints data as JSON
func (p *Printer) printJSON(data any) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func (p *Printer) printYAML(data any) error {
	encoder := yaml.NewEncoder(p.writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}

func toShareOutput(shares []sharing.Share) []shareOutput {
	out := make([]shareOutput, len(shares))
	for i, s := range shares {
		out[i] = shareOutput{Index: s.Index, Value: base64.StdEncoding.EncodeToString(s.Value)}
	}
	return out
}
