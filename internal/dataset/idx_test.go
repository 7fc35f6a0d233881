package dataset

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convlab/internal/tensor"
)

// idxFile encodes count images of rows x cols pixels, pixel k of image n being n+k.
func idxFile(t *testing.T, magic uint32, count, rows, cols int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, [4]uint32{magic, uint32(count), uint32(rows), uint32(cols)}))
	for n := 0; n < count; n++ {
		for k := 0; k < rows*cols; k++ {
			buf.WriteByte(byte(n + k))
		}
	}
	return buf.Bytes()
}

func TestReadIDX(t *testing.T) {
	raw := idxFile(t, idxImageMagic, 3, 2, 3)

	batch, err := ReadIDX(bytes.NewReader(raw), 0, 1)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 2, 3, 1}, batch.Shape())
	assert.Equal(t, 0.0, batch.At(0, 0, 0, 0))
	assert.InDelta(t, 7.0/255, batch.At(2, 1, 2, 0), 1e-12)
}

func TestReadIDX_LimitAndChannels(t *testing.T) {
	raw := idxFile(t, idxImageMagic, 5, 4, 4)

	batch, err := ReadIDX(bytes.NewReader(raw), 2, 3)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 4, 4, 3}, batch.Shape())
	for c := 0; c < 3; c++ {
		assert.InDelta(t, 6.0/255, batch.At(1, 1, 1, c), 1e-12)
	}
}

func TestReadIDX_Errors(t *testing.T) {
	_, err := ReadIDX(bytes.NewReader(idxFile(t, 2049, 1, 2, 2)), 0, 1)
	require.ErrorIs(t, err, ErrBadMagic)

	truncated := idxFile(t, idxImageMagic, 2, 3, 3)
	_, err = ReadIDX(bytes.NewReader(truncated[:len(truncated)-1]), 0, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image 1")

	_, err = ReadIDX(bytes.NewReader([]byte{0, 0}), 0, 1)
	require.Error(t, err)

	_, err = ReadIDX(bytes.NewReader(idxFile(t, idxImageMagic, 1, 2, 2)), 0, 0)
	require.Error(t, err)
}

func TestLoadIDX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t10k-images-idx3-ubyte")
	require.NoError(t, os.WriteFile(path, idxFile(t, idxImageMagic, 2, 28, 28), 0o600))

	batch, err := LoadIDX(path, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 28, 28, 3}, batch.Shape())

	_, err = LoadIDX(filepath.Join(t.TempDir(), "missing"), 0, 1)
	require.Error(t, err)
}
