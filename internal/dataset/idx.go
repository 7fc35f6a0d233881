// Package dataset reads image batches for the convolution CLI.
package dataset

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/convlab/internal/tensor"
)

// idxImageMagic identifies an IDX file of unsigned byte images.
const idxImageMagic = 2051

// ErrBadMagic is returned when a file is not an IDX image file.
var ErrBadMagic = errors.New("not an IDX image file")

// ReadIDX decodes an IDX image file into an NHWC batch.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes
//	number of cols: 4 bytes
//	pixel data: unsigned bytes (0-255)
//
// Pixels are scaled to [0, 1] and the single gray channel is repeated
// channels times. At most limit images are read; limit <= 0 reads all.
func ReadIDX(r io.Reader, limit, channels int) (*tensor.Dense[float64], error) {
	if channels < 1 {
		return nil, fmt.Errorf("channels must be > 0, got %d", channels)
	}

	var hdr [4]uint32
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	magic, count, rows, cols := hdr[0], int(hdr[1]), int(hdr[2]), int(hdr[3])
	if magic != idxImageMagic {
		return nil, fmt.Errorf("%w: magic %d, want %d", ErrBadMagic, magic, idxImageMagic)
	}
	if limit > 0 && count > limit {
		count = limit
	}

	out, err := tensor.New[float64](tensor.Shape{count, rows, cols, channels})
	if err != nil {
		return nil, fmt.Errorf("idx batch: %w", err)
	}

	data := out.Data()
	pixels := make([]byte, rows*cols)
	for n := 0; n < count; n++ {
		if _, err := io.ReadFull(r, pixels); err != nil {
			return nil, fmt.Errorf("failed to read image %d: %w", n, err)
		}
		base := n * rows * cols * channels
		for p, v := range pixels {
			for c := 0; c < channels; c++ {
				data[base+p*channels+c] = float64(v) / 255.0
			}
		}
	}
	return out, nil
}

// LoadIDX opens path and reads it with ReadIDX.
func LoadIDX(path string, limit, channels int) (*tensor.Dense[float64], error) {
	//nolint:gosec // G304: path comes from the command line
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	batch, err := ReadIDX(f, limit, channels)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return batch, nil
}
