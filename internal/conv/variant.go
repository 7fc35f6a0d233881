package conv

import (
	"fmt"
	"strings"

	"github.com/born-ml/convlab/internal/parallel"
	"github.com/born-ml/convlab/internal/tensor"
)

// Variant selects an execution strategy. All variants compute the same function.
type Variant int

// Available variants, from the most naive to the most optimized.
const (
	VariantPerImage Variant = iota
	VariantBatched
	VariantScalar
	VariantParallel
)

var variantNames = [...]string{
	VariantPerImage: "per-image",
	VariantBatched:  "batched",
	VariantScalar:   "scalar",
	VariantParallel: "parallel",
}

// Variants returns every variant in declaration order.
func Variants() []Variant {
	return []Variant{VariantPerImage, VariantBatched, VariantScalar, VariantParallel}
}

// String returns the variant's CLI name.
func (v Variant) String() string {
	if v < 0 || int(v) >= len(variantNames) {
		return fmt.Sprintf("Variant(%d)", int(v))
	}
	return variantNames[v]
}

// ParseVariant parses a CLI name such as "batched".
func ParseVariant(name string) (Variant, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range variantNames {
		if n == name {
			return Variant(i), nil
		}
	}
	return 0, fmt.Errorf("unknown variant %q (want one of %s)", name, strings.Join(variantNames[:], ", "))
}

// MarshalText implements encoding.TextMarshaler.
func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Variant) UnmarshalText(text []byte) error {
	parsed, err := ParseVariant(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Apply runs variant v. VariantParallel uses parallel.DefaultConfig.
func Apply[T tensor.Float](v Variant, images *tensor.Dense[T], p Params[T], s Stride) *tensor.Dense[T] {
	return ApplyWith(v, images, p, s, parallel.DefaultConfig())
}

// ApplyWith runs variant v with an explicit worker configuration for VariantParallel.
func ApplyWith[T tensor.Float](v Variant, images *tensor.Dense[T], p Params[T], s Stride, cfg parallel.Config) *tensor.Dense[T] {
	switch v {
	case VariantPerImage:
		return PerImage(images, p.Weight, p.Bias, s)
	case VariantBatched:
		return Batched(images, p.Weight, p.Bias, s)
	case VariantScalar:
		return Scalar(images, p.Weight, p.Bias, s)
	case VariantParallel:
		return ScalarParallel(images, p.Weight, p.Bias, s, cfg)
	default:
		panic(fmt.Sprintf("conv2d: unknown variant %d", int(v)))
	}
}
