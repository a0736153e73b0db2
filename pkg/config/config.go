// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/walteh/libpatch/pkg/signature"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 🔏 SignatureDef is a user-defined signature in hex pattern form, e.g.
// match "3C 00 75 05", replace "3C 00 EB 05". "??" marks a wildcard byte
// and is only valid in the match pattern.
type SignatureDef struct {
	Name    string `json:"name" yaml:"name" hcl:"name,label"`
	Match   string `json:"match" yaml:"match" hcl:"match"`
	Replace string `json:"replace" yaml:"replace" hcl:"replace"`
}

// 📚 Config represents the complete configuration. Every field has a flag
// counterpart; flags override file values.
type Config struct {
	InPlace    bool           `json:"in_place,omitempty" yaml:"in_place,omitempty" hcl:"in_place,optional"`
	DryRun     bool           `json:"dry_run,omitempty" yaml:"dry_run,omitempty" hcl:"dry_run,optional"`
	Backup     bool           `json:"backup,omitempty" yaml:"backup,omitempty" hcl:"backup,optional"`
	Sign       bool           `json:"sign,omitempty" yaml:"sign,omitempty" hcl:"sign,optional"`
	ClearXattr *bool          `json:"clear_xattr,omitempty" yaml:"clear_xattr,omitempty" hcl:"clear_xattr,optional"`
	Jobs       int            `json:"jobs,omitempty" yaml:"jobs,omitempty" hcl:"jobs,optional"`
	Exclude    []string       `json:"exclude,omitempty" yaml:"exclude,omitempty" hcl:"exclude,optional"`
	Signatures []SignatureDef `json:"signatures,omitempty" yaml:"signatures,omitempty" hcl:"signature,block"`
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// Parse config
	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// 🔍 Validate checks if the configuration is valid
func (cfg *Config) Validate() error {
	if cfg.Jobs < 0 {
		return errors.Errorf("jobs must be a positive integer, got %d", cfg.Jobs)
	}

	// User signatures must compile and hold the same-length invariant.
	if _, err := cfg.CompiledSignatures(); err != nil {
		return err
	}

	return nil
}

// 🧹 ShouldClearXattr resolves the clear_xattr default (true when unset).
func (cfg *Config) ShouldClearXattr() bool {
	if cfg.ClearXattr == nil {
		return true
	}
	return *cfg.ClearXattr
}

// 🏭 CompiledSignatures compiles the user-defined signature definitions, in
// file order. Built-in catalog entries always precede these.
func (cfg *Config) CompiledSignatures() ([]signature.Signature, error) {
	sigs := make([]signature.Signature, 0, len(cfg.Signatures))
	for _, def := range cfg.Signatures {
		sig, err := signature.Parse(def.Name, def.Match, def.Replace)
		if err != nil {
			return nil, errors.Errorf("compiling user signature: %w", err)
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	mode := "sibling"
	if cfg.InPlace {
		mode = "in-place"
	}
	return fmt.Sprintf("mode=%s dry_run=%t backup=%t sign=%t clear_xattr=%t jobs=%d signatures=%d",
		mode, cfg.DryRun, cfg.Backup, cfg.Sign, cfg.ShouldClearXattr(), cfg.Jobs, len(cfg.Signatures))
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func init() {
	Register(&YAMLParser{})
}

func (p *YAMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml")
}

func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

func init() {
	Register(&HCLParser{})
}

func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var cfg Config
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &cfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}
