package bench

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convlab/internal/config"
	"github.com/born-ml/convlab/internal/conv"
	"github.com/born-ml/convlab/internal/parallel"
	"github.com/born-ml/convlab/internal/tensor"
)

var tinyCase = config.Case{
	Name: "tiny", Batch: 2, Height: 9, Width: 8, InC: 2,
	KernelH: 3, KernelW: 2, OutC: 3, StrideH: 2, StrideW: 1,
}

func TestNewInputs_Deterministic(t *testing.T) {
	a, err := NewInputs(tinyCase, 5)
	require.NoError(t, err)
	b, err := NewInputs(tinyCase, 5)
	require.NoError(t, err)

	assert.Equal(t, a.Images.Data(), b.Images.Data())
	assert.Equal(t, a.Params.Weight.Data(), b.Params.Weight.Data())
	assert.Equal(t, a.Params.Bias.Data(), b.Params.Bias.Data())
	assert.Equal(t, conv.Stride{H: 2, W: 1}, a.Stride)

	for _, v := range a.Images.Data() {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}

	c, err := NewInputs(tinyCase, 6)
	require.NoError(t, err)
	assert.NotEqual(t, a.Images.Data(), c.Images.Data())

	bad := tinyCase
	bad.KernelH = 20
	_, err = NewInputs(bad, 5)
	require.ErrorIs(t, err, conv.ErrKernelTooLarge)
}

func TestCheck_DefaultCases(t *testing.T) {
	cfg := config.Default()
	for _, c := range cfg.Cases {
		res, err := Check(c, cfg.Variants, cfg.Seed, cfg.Tolerance, parallel.WithWorkers(2))
		require.NoError(t, err)
		assert.True(t, res.OK(), "case %s: %+v", c.Name, res.Deviations)
		assert.Len(t, res.Deviations, len(cfg.Variants))
	}

	res, err := Check(cfg.Cases[0], cfg.Variants, cfg.Seed, cfg.Tolerance, parallel.Sequential())
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 25, 25, 4}, res.OutputShape)
}

func TestCheckResult_OK(t *testing.T) {
	res := CheckResult{Deviations: []Deviation{{OK: true}, {OK: true}}}
	assert.True(t, res.OK())
	res.Deviations = append(res.Deviations, Deviation{OK: false})
	assert.False(t, res.OK())
}

func TestWriteChecks(t *testing.T) {
	results := []CheckResult{{
		Case:        "tiny",
		OutputShape: tensor.Shape{2, 4, 7, 3},
		Tolerance:   1e-6,
		Deviations: []Deviation{
			{Variant: conv.VariantBatched, MaxAbs: 0, OK: true},
			{Variant: conv.VariantScalar, MaxAbs: 0.5, OK: false},
		},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteChecks(&buf, results))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "MAX |DIFF|")
	assert.Contains(t, lines[1], "batched")
	assert.Contains(t, lines[1], "ok")
	assert.Contains(t, lines[2], "(2, 4, 7, 3)")
	assert.Contains(t, lines[2], "FAIL (tol 1e-06)")
}

func TestRunner_Run(t *testing.T) {
	r := &Runner{
		Variants: []conv.Variant{conv.VariantPerImage, conv.VariantBatched},
		Repeats:  2,
		Warmup:   1,
		Workers:  parallel.Sequential(),
		Seed:     1,
	}
	report, err := r.Run(context.Background(), []config.Case{tinyCase})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, int64(1), report.Seed)
	require.Len(t, report.Results, 2)

	for _, res := range report.Results {
		assert.Equal(t, "tiny", res.Case)
		assert.Equal(t, 2, res.Repeats)
		assert.Equal(t, 2*4*7*3, res.OutputSize)
		assert.LessOrEqual(t, res.Min, res.Mean)
	}
	if report.Results[0].Mean > 0 {
		assert.InDelta(t, 1.0, report.Results[0].Speedup, 1e-12)
	}

	second, err := r.Run(context.Background(), []config.Case{tinyCase})
	require.NoError(t, err)
	assert.NotEqual(t, report.RunID, second.RunID)
}

func TestRunner_NoBaselineLeavesSpeedupUnset(t *testing.T) {
	r := &Runner{Variants: []conv.Variant{conv.VariantScalar}, Repeats: 1, Workers: parallel.Sequential()}
	report, err := r.Run(context.Background(), []config.Case{tinyCase})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Zero(t, report.Results[0].Speedup)
}

func TestRunner_Errors(t *testing.T) {
	r := &Runner{Variants: conv.Variants(), Repeats: 1, Workers: parallel.Sequential()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Run(ctx, []config.Case{tinyCase})
	require.ErrorIs(t, err, context.Canceled)

	bad := tinyCase
	bad.InC = 0
	_, err = r.Run(context.Background(), []config.Case{bad})
	require.Error(t, err)

	r.Repeats = 0
	_, err = r.Run(context.Background(), []config.Case{tinyCase})
	require.Error(t, err)
}

func TestNewRunner(t *testing.T) {
	cfg := config.Default()
	cfg.Workers = 3
	r := NewRunner(cfg)

	assert.Equal(t, cfg.Variants, r.Variants)
	assert.Equal(t, cfg.Repeats, r.Repeats)
	assert.Equal(t, parallel.WithWorkers(3), r.Workers)
}

func TestReport_Writers(t *testing.T) {
	report := &Report{
		RunID:     "0b5c4a6e-1f7d-4a39-9f8e-2d3c1b0a9e87",
		Started:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		GoVersion: "go1.25.0",
		GOARCH:    "amd64",
		NumCPU:    8,
		Seed:      42,
		Results: []Result{
			{Case: "mnist-rgb", Variant: conv.VariantPerImage, Repeats: 5, Min: 900 * time.Microsecond, Mean: time.Millisecond, GFLOPS: 0.58, Speedup: 1},
			{Case: "mnist-rgb", Variant: conv.VariantParallel, Repeats: 5, Min: 90 * time.Microsecond, Mean: 100 * time.Microsecond, GFLOPS: 5.8, Speedup: 10},
		},
	}

	var table bytes.Buffer
	require.NoError(t, report.WriteTable(&table))
	out := table.String()
	assert.Contains(t, out, report.RunID)
	assert.Contains(t, out, "SPEEDUP")
	assert.Contains(t, out, "10.00x")
	assert.Contains(t, out, "parallel")

	var js bytes.Buffer
	require.NoError(t, report.WriteJSON(&js))

	var decoded struct {
		RunID   string `json:"run_id"`
		Results []struct {
			Variant string  `json:"variant"`
			Speedup float64 `json:"speedup_vs_per_image"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, report.RunID, decoded.RunID)
	require.Len(t, decoded.Results, 2)
	assert.Equal(t, "per-image", decoded.Results[0].Variant)
	assert.InDelta(t, 10.0, decoded.Results[1].Speedup, 1e-12)
}
