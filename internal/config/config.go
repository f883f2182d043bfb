// Package config loads frontier.yaml, the run configuration file.
//
// Values start from the Default* constants, are overridden by the file and
// then checked against an embedded CUE schema. Command-line flags override
// the loaded values afterwards.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "frontier.yaml"

// Default values. New references them and no other code should duplicate them.
const (
	DefaultPrecision = 3

	DefaultTolerance            = 1e-10
	DefaultIntegralityTolerance = 1e-6
	DefaultNodeLimit            = 10000
	DefaultTimeout              = 30 * time.Second

	DefaultBigM       = 0.0
	DefaultBigMFactor = 10.0
)

//go:embed schema.cue
var schemaSource string

// SolverConfig holds solver backend settings.
type SolverConfig struct {
	Tolerance            float64       `yaml:"tolerance"`
	IntegralityTolerance float64       `yaml:"integrality_tolerance"`
	NodeLimit            int           `yaml:"node_limit"`
	Timeout              time.Duration `yaml:"timeout"`
}

// TargetConfig holds closest-target settings.
type TargetConfig struct {
	// BigM fixes the relaxation constant; 0 derives it from the data.
	BigM       float64 `yaml:"big_m"`
	BigMFactor float64 `yaml:"big_m_factor"`
}

// Config is the top-level configuration.
type Config struct {
	Precision int          `yaml:"precision"`
	Database  string       `yaml:"database"`
	Solver    SolverConfig `yaml:"solver"`
	Target    TargetConfig `yaml:"target"`
}

// New returns a Config with every default populated.
func New() *Config {
	return &Config{
		Precision: DefaultPrecision,
		Solver: SolverConfig{
			Tolerance:            DefaultTolerance,
			IntegralityTolerance: DefaultIntegralityTolerance,
			NodeLimit:            DefaultNodeLimit,
			Timeout:              DefaultTimeout,
		},
		Target: TargetConfig{
			BigM:       DefaultBigM,
			BigMFactor: DefaultBigMFactor,
		},
	}
}

// ValidationError lists every schema violation of a configuration.
type ValidationError struct {
	Source   string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Source, strings.Join(e.Problems, "; "))
}

// AsValidationError extracts a ValidationError from err, if present.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return parse(path, data)
}

// Discover loads FileName from dir when present and returns defaults
// otherwise. Real I/O errors are returned.
func Discover(dir string) (*Config, error) {
	p := filepath.Join(dir, FileName)
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("reading %q: %w", p, err)
	}
	return parse(p, data)
}

// Parse decodes and validates YAML content.
func Parse(data []byte) (*Config, error) {
	return parse("<input>", data)
}

func parse(source string, data []byte) (*Config, error) {
	cfg := New()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing %s: %w", source, err)
	}
	if err := cfg.validate(source); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks c against the schema.
func (c *Config) Validate() error {
	return c.validate("<config>")
}

func (c *Config) validate(source string) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	value := ctx.Encode(c.view())
	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		ve := &ValidationError{Source: source}
		for _, e := range cueerrors.Errors(err) {
			ve.Problems = append(ve.Problems, e.Error())
		}
		return ve
	}
	return nil
}

// view is the shape the schema checks.
func (c *Config) view() map[string]any {
	return map[string]any{
		"precision": c.Precision,
		"database":  c.Database,
		"solver": map[string]any{
			"tolerance":             c.Solver.Tolerance,
			"integrality_tolerance": c.Solver.IntegralityTolerance,
			"node_limit":            c.Solver.NodeLimit,
			"timeout_seconds":       c.Solver.Timeout.Seconds(),
		},
		"target": map[string]any{
			"big_m":        c.Target.BigM,
			"big_m_factor": c.Target.BigMFactor,
		},
	}
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
