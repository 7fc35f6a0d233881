// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package conv applies a bank of 2D convolution filters to a batch of
// multi-channel images with "valid" padding.
//
// # Overview
//
//	out[n, i, j, c] = bias[c] + Σ img[n, i*sH+dh, j*sW+dw, ci] * filt[dh, dw, ci, c]
//
// Images are (N, H, W, Cin), filters (kH, kW, Cin, Cout), bias (Cout) and the
// output (N, 1+(H-kH)/sH, 1+(W-kW)/sW, Cout). The same function is available
// in several execution strategies:
//   - PerImage: one image at a time, window multiply-and-sum per output element
//   - Batched: one window reduction for all images, bias added by broadcasting
//   - Scalar: a fully explicit seven-level loop nest
//   - ScalarParallel: Scalar with (image, output row) pairs spread over workers
//
// # Basic Usage
//
//	rng := rand.New(rand.NewSource(1))
//	layer := conv.NewLayer[float64](3, 4, 4, 4, conv.Unit, rng)
//	images := tensor.Rand[float64](tensor.Shape{2, 28, 28, 3}, rng)
//	out := layer.Forward(images) // (2, 25, 25, 4)
//
// Shape mismatches are programming errors: the kernels panic. Use Plan to
// validate shapes from untrusted sources first.
package conv
