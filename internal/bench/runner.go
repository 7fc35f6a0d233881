package bench

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/born-ml/convlab/internal/config"
	"github.com/born-ml/convlab/internal/conv"
	"github.com/born-ml/convlab/internal/parallel"
)

// Result is the timing of one variant on one case.
type Result struct {
	Case       string        `json:"case"`
	Variant    conv.Variant  `json:"variant"`
	Repeats    int           `json:"repeats"`
	Min        time.Duration `json:"min_ns"`
	Mean       time.Duration `json:"mean_ns"`
	GFLOPS     float64       `json:"gflops"`
	Speedup    float64       `json:"speedup_vs_per_image"` // 0 when the per-image variant was not timed
	OutputSize int           `json:"output_elements"`
}

// Report is a complete benchmark run.
type Report struct {
	RunID     string    `json:"run_id"`
	Started   time.Time `json:"started"`
	GoVersion string    `json:"go_version"`
	GOARCH    string    `json:"goarch"`
	NumCPU    int       `json:"num_cpu"`
	Seed      int64     `json:"seed"`
	Results   []Result  `json:"results"`
}

// Runner times convolution variants.
type Runner struct {
	Variants []conv.Variant
	Repeats  int             // timed calls per variant and case
	Warmup   int             // untimed calls before measuring
	Workers  parallel.Config // used by conv.VariantParallel
	Seed     int64
}

// NewRunner builds a Runner from a validated config.
func NewRunner(cfg *config.Config) *Runner {
	workers := parallel.DefaultConfig()
	if cfg.Workers > 0 {
		workers = parallel.WithWorkers(cfg.Workers)
	}
	return &Runner{
		Variants: cfg.Variants,
		Repeats:  cfg.Repeats,
		Warmup:   cfg.Warmup,
		Workers:  workers,
		Seed:     cfg.Seed,
	}
}

// Run benchmarks every variant on every case.
//
// The context is checked between calls; a cancelled run returns the context
// error and no report.
func (r *Runner) Run(ctx context.Context, cases []config.Case) (*Report, error) {
	if r.Repeats <= 0 {
		return nil, fmt.Errorf("repeats must be > 0, got %d", r.Repeats)
	}

	report := &Report{
		RunID:     uuid.NewString(),
		Started:   time.Now().UTC(),
		GoVersion: runtime.Version(),
		GOARCH:    runtime.GOARCH,
		NumCPU:    runtime.NumCPU(),
		Seed:      r.Seed,
	}

	for _, c := range cases {
		g, err := c.Geometry()
		if err != nil {
			return nil, err
		}
		in, err := NewInputs(c, r.Seed)
		if err != nil {
			return nil, err
		}

		var baseline time.Duration
		results := make([]Result, 0, len(r.Variants))
		for _, v := range r.Variants {
			res, err := r.measure(ctx, v, in)
			if err != nil {
				return nil, err
			}
			res.Case = c.Name
			res.OutputSize = g.OutputShape().NumElements()
			if res.Mean > 0 {
				// Two FLOPs per multiply-accumulate.
				res.GFLOPS = 2 * float64(g.MACs()) / float64(res.Mean.Nanoseconds())
			}
			if v == conv.VariantPerImage {
				baseline = res.Mean
			}
			results = append(results, res)
		}
		if baseline > 0 {
			for i := range results {
				if results[i].Mean > 0 {
					results[i].Speedup = float64(baseline) / float64(results[i].Mean)
				}
			}
		}
		report.Results = append(report.Results, results...)
	}
	return report, nil
}

func (r *Runner) measure(ctx context.Context, v conv.Variant, in Inputs) (Result, error) {
	for i := 0; i < r.Warmup; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		conv.ApplyWith(v, in.Images, in.Params, in.Stride, r.Workers)
	}

	var total, fastest time.Duration
	for i := 0; i < r.Repeats; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		start := time.Now()
		conv.ApplyWith(v, in.Images, in.Params, in.Stride, r.Workers)
		elapsed := time.Since(start)

		total += elapsed
		if i == 0 || elapsed < fastest {
			fastest = elapsed
		}
	}

	return Result{
		Variant: v,
		Repeats: r.Repeats,
		Min:     fastest,
		Mean:    total / time.Duration(r.Repeats),
	}, nil
}
