package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/born-ml/convlab/internal/bench"
	"github.com/born-ml/convlab/internal/config"
	"github.com/born-ml/convlab/internal/conv"
	"github.com/born-ml/convlab/internal/dataset"
	"github.com/born-ml/convlab/internal/parallel"
	"github.com/born-ml/convlab/internal/tensor"
	"github.com/born-ml/convlab/internal/weights"
)

var errDeviation = errors.New("variants deviate from the reference")

// variantList is a flag.Value holding a comma separated list of variants.
type variantList []conv.Variant

func (l *variantList) String() string {
	names := make([]string, len(*l))
	for i, v := range *l {
		names[i] = v.String()
	}
	return strings.Join(names, ",")
}

func (l *variantList) Set(s string) error {
	*l = (*l)[:0]
	for _, name := range strings.Split(s, ",") {
		v, err := conv.ParseVariant(name)
		if err != nil {
			return err
		}
		*l = append(*l, v)
	}
	return nil
}

// loadConfig reads path (or the defaults when path is empty), applies the
// overrides and validates the result.
func loadConfig(path string, o config.Overrides) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyOverrides(o)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func workerConfig(n int) parallel.Config {
	if n > 0 {
		return parallel.WithWorkers(n)
	}
	return parallel.DefaultConfig()
}

func runCheck(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (default: built-in cases)")
	seed := fs.Int64("seed", 0, "PRNG seed override")
	tol := fs.Float64("tol", 0, "Absolute tolerance override")
	workers := fs.Int("workers", 0, "Workers for the parallel variant")
	var variants variantList
	fs.Var(&variants, "variants", "Comma separated variants (default: all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath, config.Overrides{Seed: *seed, Tolerance: *tol, Workers: *workers, Variants: variants})
	if err != nil {
		return err
	}

	results := make([]bench.CheckResult, 0, len(cfg.Cases))
	failed := false
	for _, c := range cfg.Cases {
		res, err := bench.Check(c, cfg.Variants, cfg.Seed, cfg.Tolerance, workerConfig(cfg.Workers))
		if err != nil {
			return err
		}
		if !res.OK() {
			failed = true
		}
		results = append(results, res)
	}

	if err := bench.WriteChecks(out, results); err != nil {
		return err
	}
	if failed {
		return errDeviation
	}
	return nil
}

func runBench(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (default: built-in cases)")
	repeats := fs.Int("repeats", 0, "Timed calls per variant")
	warmup := fs.Int("warmup", 0, "Untimed calls per variant")
	seed := fs.Int64("seed", 0, "PRNG seed override")
	workers := fs.Int("workers", 0, "Workers for the parallel variant")
	asJSON := fs.Bool("json", false, "Write the report as JSON")
	var variants variantList
	fs.Var(&variants, "variants", "Comma separated variants (default: all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath, config.Overrides{
		Seed:     *seed,
		Repeats:  *repeats,
		Warmup:   *warmup,
		Workers:  *workers,
		Variants: variants,
	})
	if err != nil {
		return err
	}

	log.Printf("benchmarking %d cases x %d variants, %d repeats", len(cfg.Cases), len(cfg.Variants), cfg.Repeats)
	report, err := bench.NewRunner(cfg).Run(ctx, cfg.Cases)
	if err != nil {
		return fmt.Errorf("bench: %w", err)
	}

	if *asJSON {
		return report.WriteJSON(out)
	}
	return report.WriteTable(out)
}

func runExport(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	path := fs.String("out", "", "Output SafeTensors file (required)")
	name := fs.String("name", "conv", "Layer name inside the file")
	cin := fs.Int("cin", 3, "Input channels")
	cout := fs.Int("cout", 4, "Output channels")
	kh := fs.Int("kh", 4, "Kernel height")
	kw := fs.Int("kw", 4, "Kernel width")
	seed := fs.Int64("seed", 42, "PRNG seed")
	f32 := fs.Bool("f32", false, "Store float32 instead of float64")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return errors.New("export: -out is required")
	}
	if *cin <= 0 || *cout <= 0 || *kh <= 0 || *kw <= 0 {
		return fmt.Errorf("export: channels and kernel size must be positive")
	}

	//nolint:gosec // deterministic weight init
	rng := rand.New(rand.NewSource(*seed))
	meta := map[string]string{"seed": fmt.Sprint(*seed)}

	var err error
	if *f32 {
		err = weights.Save(*path, *name, conv.Xavier[float32](*cin, *cout, *kh, *kw, rng), meta)
	} else {
		err = weights.Save(*path, *name, conv.Xavier[float64](*cin, *cout, *kh, *kw, rng), meta)
	}
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	fmt.Fprintf(out, "wrote %s: %s kernel (%d, %d, %d, %d), bias (%d)\n", *path, *name, *kh, *kw, *cin, *cout, *cout)
	return nil
}

func runApply(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	path := fs.String("weights", "", "SafeTensors file with <name>.kernel and <name>.bias (required)")
	name := fs.String("name", "conv", "Layer name inside the file")
	batch := fs.Int("n", 2, "Batch size")
	height := fs.Int("height", 28, "Image height")
	width := fs.Int("width", 28, "Image width")
	strideH := fs.Int("stride-h", 1, "Row stride")
	strideW := fs.Int("stride-w", 1, "Column stride")
	variantName := fs.String("variant", conv.VariantBatched.String(), "Variant to run")
	seed := fs.Int64("seed", 42, "PRNG seed for the image batch")
	idxPath := fs.String("idx", "", "IDX image file (e.g. MNIST) to use instead of random images; -n caps the count")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return errors.New("apply: -weights is required")
	}

	v, err := conv.ParseVariant(*variantName)
	if err != nil {
		return err
	}
	params, err := weights.Load(*path, *name)
	if err != nil {
		return fmt.Errorf("apply: %w", err)
	}
	layer, err := conv.NewLayerFromParams(params, conv.Stride{H: *strideH, W: *strideW})
	if err != nil {
		return fmt.Errorf("apply: %w", err)
	}
	layer = layer.WithVariant(v)

	var images *tensor.Dense[float64]
	if *idxPath != "" {
		if images, err = dataset.LoadIDX(*idxPath, *batch, params.InChannels()); err != nil {
			return fmt.Errorf("apply: %w", err)
		}
	} else {
		shape := tensor.Shape{*batch, *height, *width, params.InChannels()}
		if err := shape.Validate(); err != nil {
			return fmt.Errorf("apply: images: %w", err)
		}
		//nolint:gosec // deterministic test data
		images = tensor.Rand[float64](shape, rand.New(rand.NewSource(*seed)))
	}

	imageShape := images.Shape()
	if _, err := conv.Plan(imageShape, params.Weight.Shape(), params.Bias.Shape(), layer.Stride()); err != nil {
		return fmt.Errorf("apply: %w", err)
	}

	start := time.Now()
	result := layer.Forward(images)
	elapsed := time.Since(start)

	fmt.Fprintf(out, "%s\ninput %v -> output %v in %s (checksum %.6f)\n",
		layer, imageShape, result.Shape(), elapsed.Round(time.Microsecond), result.Sum())
	return nil
}
