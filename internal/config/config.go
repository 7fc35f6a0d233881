// Package config loads the YAML description of a check or benchmark run.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/convlab/internal/conv"
	"github.com/born-ml/convlab/internal/tensor"
)

// DefaultTolerance is the absolute tolerance used when comparing variants.
const DefaultTolerance = 1e-6

// Case is one convolution geometry to check or benchmark.
type Case struct {
	Name    string `yaml:"name"`
	Batch   int    `yaml:"batch"`
	Height  int    `yaml:"height"`
	Width   int    `yaml:"width"`
	InC     int    `yaml:"in_channels"`
	KernelH int    `yaml:"kernel_h"`
	KernelW int    `yaml:"kernel_w"`
	OutC    int    `yaml:"out_channels"`
	StrideH int    `yaml:"stride_h"`
	StrideW int    `yaml:"stride_w"`
}

// Stride returns the case's stride, treating zero as 1.
func (c Case) Stride() conv.Stride {
	return conv.Stride{H: max(c.StrideH, 1), W: max(c.StrideW, 1)}
}

// ImageShape returns (N, H, W, Cin).
func (c Case) ImageShape() tensor.Shape {
	return tensor.Shape{c.Batch, c.Height, c.Width, c.InC}
}

// WeightShape returns (kH, kW, Cin, Cout).
func (c Case) WeightShape() tensor.Shape {
	return tensor.Shape{c.KernelH, c.KernelW, c.InC, c.OutC}
}

// BiasShape returns (Cout).
func (c Case) BiasShape() tensor.Shape {
	return tensor.Shape{c.OutC}
}

// Geometry validates the case and resolves its convolution geometry.
func (c Case) Geometry() (conv.Geometry, error) {
	g, err := conv.Plan(c.ImageShape(), c.WeightShape(), c.BiasShape(), c.Stride())
	if err != nil {
		return conv.Geometry{}, fmt.Errorf("case %q: %w", c.Name, err)
	}
	return g, nil
}

// Config captures the knobs of a run.
type Config struct {
	Seed      int64          `yaml:"seed"`
	Repeats   int            `yaml:"repeats"`
	Warmup    int            `yaml:"warmup"`
	Workers   int            `yaml:"workers"`
	Tolerance float64        `yaml:"tolerance"`
	Variants  []conv.Variant `yaml:"variants"`
	Cases     []Case         `yaml:"cases"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	Seed      int64
	Repeats   int
	Warmup    int
	Workers   int
	Tolerance float64
	Variants  []conv.Variant
}

// Default returns the configuration used when no file is given: the
// 2x28x28x3 batch with a 4x4x3x4 filter bank, plus a strided and a 1x1 case.
func Default() *Config {
	return &Config{
		Seed:      42,
		Repeats:   5,
		Warmup:    1,
		Tolerance: DefaultTolerance,
		Variants:  conv.Variants(),
		Cases: []Case{
			{Name: "mnist-rgb", Batch: 2, Height: 28, Width: 28, InC: 3, KernelH: 4, KernelW: 4, OutC: 4, StrideH: 1, StrideW: 1},
			{Name: "strided", Batch: 4, Height: 32, Width: 30, InC: 3, KernelH: 5, KernelW: 3, OutC: 8, StrideH: 2, StrideW: 3},
			{Name: "pointwise", Batch: 2, Height: 16, Width: 16, InC: 8, KernelH: 1, KernelW: 1, OutC: 4, StrideH: 1, StrideW: 1},
		},
	}
}

// Load reads and validates a Config from a YAML file.
func Load(path string) (*Config, error) {
	//nolint:gosec // G304: path comes from the command line
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default, so omitted keys keep their defaults.
// A non-empty cases list replaces the default cases.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	defaultCases := cfg.Cases
	cfg.Cases = nil

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if len(cfg.Cases) == 0 {
		cfg.Cases = defaultCases
	}
	return cfg, nil
}

// ApplyOverrides updates c using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.Repeats > 0 {
		c.Repeats = o.Repeats
	}
	if o.Warmup > 0 {
		c.Warmup = o.Warmup
	}
	if o.Workers > 0 {
		c.Workers = o.Workers
	}
	if o.Tolerance > 0 {
		c.Tolerance = o.Tolerance
	}
	if len(o.Variants) > 0 {
		c.Variants = o.Variants
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	var errs []error
	if c.Repeats <= 0 {
		errs = append(errs, fmt.Errorf("repeats must be > 0, got %d", c.Repeats))
	}
	if c.Warmup < 0 {
		errs = append(errs, fmt.Errorf("warmup must be >= 0, got %d", c.Warmup))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	if c.Tolerance <= 0 {
		errs = append(errs, fmt.Errorf("tolerance must be > 0, got %g", c.Tolerance))
	}
	if len(c.Variants) == 0 {
		errs = append(errs, errors.New("at least one variant is required"))
	}
	if len(c.Cases) == 0 {
		errs = append(errs, errors.New("at least one case is required"))
	}
	seen := make(map[string]bool, len(c.Cases))
	for i, tc := range c.Cases {
		if tc.Name == "" {
			errs = append(errs, fmt.Errorf("case %d: name is required", i))
		} else if seen[tc.Name] {
			errs = append(errs, fmt.Errorf("case %q: duplicate name", tc.Name))
		}
		seen[tc.Name] = true
		if _, err := tc.Geometry(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
