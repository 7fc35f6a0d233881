package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convlab/internal/conv"
	"github.com/born-ml/convlab/internal/tensor"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, conv.Variants(), cfg.Variants)

	g, err := cfg.Cases[0].Geometry()
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 25, 25, 4}, g.OutputShape())
}

func TestParse(t *testing.T) {
	const doc = `
seed: 7
repeats: 3
tolerance: 1e-9
variants: [scalar, parallel]
cases:
  - name: tiny
    batch: 1
    height: 5
    width: 6
    in_channels: 2
    kernel_h: 2
    kernel_w: 3
    out_channels: 3
    stride_h: 2
`
	cfg, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 3, cfg.Repeats)
	assert.Equal(t, 1, cfg.Warmup, "omitted keys keep their defaults")
	assert.InDelta(t, 1e-9, cfg.Tolerance, 1e-15)
	assert.Equal(t, []conv.Variant{conv.VariantScalar, conv.VariantParallel}, cfg.Variants)

	require.Len(t, cfg.Cases, 1)
	c := cfg.Cases[0]
	assert.Equal(t, conv.Stride{H: 2, W: 1}, c.Stride())
	g, err := c.Geometry()
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 2, 4, 3}, g.OutputShape())
}

func TestParse_EmptyKeepsDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(strings.NewReader("variants: [winograd]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown variant")

	_, err = Parse(strings.NewReader("padding: same\n"))
	require.Error(t, err, "unknown keys are rejected")

	_, err = Parse(strings.NewReader("repeats: [1, 2]\n"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 9\nworkers: 2\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(9), cfg.Seed)
	assert.Equal(t, 2, cfg.Workers)
	assert.Len(t, cfg.Cases, 3)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("repeats: 0\n"), 0o600))
	_, err = Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repeats must be > 0")

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestApplyOverrides(t *testing.T) {
	cfg := Default()
	cfg.ApplyOverrides(Overrides{})
	assert.Equal(t, Default(), cfg, "zero overrides change nothing")

	cfg.ApplyOverrides(Overrides{
		Seed:      1,
		Repeats:   10,
		Warmup:    2,
		Workers:   8,
		Tolerance: 1e-3,
		Variants:  []conv.Variant{conv.VariantBatched},
	})
	assert.Equal(t, int64(1), cfg.Seed)
	assert.Equal(t, 10, cfg.Repeats)
	assert.Equal(t, 2, cfg.Warmup)
	assert.Equal(t, 8, cfg.Workers)
	assert.InDelta(t, 1e-3, cfg.Tolerance, 1e-12)
	assert.Equal(t, []conv.Variant{conv.VariantBatched}, cfg.Variants)
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Repeats = 0
	cfg.Tolerance = -1
	cfg.Variants = nil
	cfg.Cases = append(cfg.Cases,
		Case{Name: "mnist-rgb", Batch: 1, Height: 4, Width: 4, InC: 1, KernelH: 2, KernelW: 2, OutC: 1},
		Case{Name: "too-big", Batch: 1, Height: 4, Width: 4, InC: 1, KernelH: 5, KernelW: 2, OutC: 1},
		Case{Batch: 1, Height: 4, Width: 4, InC: 1, KernelH: 1, KernelW: 1, OutC: 1},
	)

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "invalid config")
	assert.Contains(t, msg, "repeats must be > 0")
	assert.Contains(t, msg, "tolerance must be > 0")
	assert.Contains(t, msg, "at least one variant")
	assert.Contains(t, msg, `case "mnist-rgb": duplicate name`)
	assert.Contains(t, msg, "case 5: name is required")
	assert.ErrorIs(t, err, conv.ErrKernelTooLarge)
}
