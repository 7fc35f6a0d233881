package conv

import "github.com/born-ml/convlab/internal/tensor"

// Channels-first frameworks store images as NCHW and filter banks as OIHW.
// These helpers convert to and from the NHWC / HWIO layout used by package conv.

// NCHWToNHWC converts a [N, C, H, W] batch to [N, H, W, C].
func NCHWToNHWC[T tensor.Float](x *tensor.Dense[T]) (*tensor.Dense[T], error) {
	return x.Transpose(0, 2, 3, 1)
}

// NHWCToNCHW converts a [N, H, W, C] batch to [N, C, H, W].
func NHWCToNCHW[T tensor.Float](x *tensor.Dense[T]) (*tensor.Dense[T], error) {
	return x.Transpose(0, 3, 1, 2)
}

// OIHWToHWIO converts a [Cout, Cin, kH, kW] filter bank to [kH, kW, Cin, Cout].
func OIHWToHWIO[T tensor.Float](w *tensor.Dense[T]) (*tensor.Dense[T], error) {
	return w.Transpose(2, 3, 1, 0)
}

// HWIOToOIHW converts a [kH, kW, Cin, Cout] filter bank to [Cout, Cin, kH, kW].
func HWIOToOIHW[T tensor.Float](w *tensor.Dense[T]) (*tensor.Dense[T], error) {
	return w.Transpose(3, 2, 0, 1)
}
