// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package conv_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convlab/conv"
	"github.com/born-ml/convlab/tensor"
)

func TestPublicAPI(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	layer := conv.NewLayer[float32](3, 4, 4, 4, conv.Unit, rng)
	images := tensor.Rand[float32](tensor.Shape{2, 28, 28, 3}, rng)

	out := layer.Forward(images)
	assert.Equal(t, tensor.Shape{2, 25, 25, 4}, out.Shape())

	p := layer.Params()
	for _, v := range conv.Variants() {
		got := conv.Apply(v, images, p, conv.Unit)
		assert.True(t, tensor.AllClose(got, out, 1e-4), v.String())
	}

	_, err := conv.Plan(tensor.Shape{2, 28, 28, 3}, tensor.Shape{4, 4, 2, 4}, tensor.Shape{4}, conv.Unit)
	require.ErrorIs(t, err, conv.ErrChannelMismatch)
}

func TestPublicAPI_ParseVariant(t *testing.T) {
	v, err := conv.ParseVariant("per-image")
	require.NoError(t, err)
	assert.Equal(t, conv.VariantPerImage, v)
}
