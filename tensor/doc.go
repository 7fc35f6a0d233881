// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense arrays consumed and produced by package conv.
//
// # Overview
//
// A Dense[T] is an owned, row-major n-dimensional array of float32 or float64.
// Image batches are (N, H, W, C), filter banks are (kH, kW, Cin, Cout).
//
// # Basic Usage
//
//	rng := rand.New(rand.NewSource(1))
//	x := tensor.Rand[float64](tensor.Shape{2, 28, 28, 3}, rng)
//	b := tensor.Full[float64](tensor.Shape{3}, 0.5)
//	y, err := x.Add(b) // b is broadcast over the trailing axis
package tensor
