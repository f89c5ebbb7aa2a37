// Package config loads the ambient tuning knobs for one sqlitefn
// deployment from an HCL file: bulk-load batch size, output row/column
// limits, and null rendering.
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// Config holds every tunable the orchestrator consults outside the query
// and its parameters. sqlitefn.FromConfig threads BatchSize into the
// engine's bulk-load transaction size and MaxRows/MaxCols/SoftRowAdvisory
// into the output shaper's limits.
type Config struct {
	BatchSize       int    `hcl:"batch_size,optional"`
	SoftRowAdvisory int    `hcl:"soft_row_advisory,optional"`
	MaxRows         int    `hcl:"max_rows,optional"`
	MaxCols         int    `hcl:"max_cols,optional"`
	NullDisplay     string `hcl:"null_display,optional"`
	Verbose         bool   `hcl:"verbose,optional"`
}

// DefaultConfig returns the values sqlitefn runs with absent an HCL file,
// matching the engine and shape packages' own built-in constants.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:       1000,
		SoftRowAdvisory: 100000,
		MaxRows:         1048576,
		MaxCols:         16384,
		NullDisplay:     "",
		Verbose:         false,
	}
}

// Load reads the configuration from the given HCL file, starting from
// DefaultConfig and overriding only the attributes present in the file.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(content, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file: %s", diags.Error())
	}

	cfg := DefaultConfig()
	diags = gohcl.DecodeBody(file.Body, nil, cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config: %s", diags.Error())
	}

	return cfg, nil
}

// Export writes cfg to path in HCL format.
func Export(path string, cfg *Config) error {
	f := hclwrite.NewEmptyFile()
	root := f.Body()

	root.SetAttributeValue("batch_size", cty.NumberIntVal(int64(cfg.BatchSize)))
	root.SetAttributeValue("soft_row_advisory", cty.NumberIntVal(int64(cfg.SoftRowAdvisory)))
	root.SetAttributeValue("max_rows", cty.NumberIntVal(int64(cfg.MaxRows)))
	root.SetAttributeValue("max_cols", cty.NumberIntVal(int64(cfg.MaxCols)))
	root.SetAttributeValue("null_display", cty.StringVal(cfg.NullDisplay))
	root.SetAttributeValue("verbose", cty.BoolVal(cfg.Verbose))

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(f.Bytes()); err != nil {
		return fmt.Errorf("failed to write config to file: %w", err)
	}
	return nil
}
