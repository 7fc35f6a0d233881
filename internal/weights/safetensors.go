// Package weights exchanges convolution parameters with other frameworks
// through SafeTensors files.
//
// A layer called "conv" is stored as two tensors:
//
//	conv.kernel  [kH, kW, Cin, Cout]   (or [Cout, Cin, kH, kW] with layout=OIHW)
//	conv.bias    [Cout]
package weights

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/born-ml/convlab/internal/conv"
	"github.com/born-ml/convlab/internal/tensor"
)

// SafeTensors format:
// [8 bytes: header_size (uint64 LE)]
// [header_size bytes: JSON header]
// [tensor data: raw bytes]

// Errors returned by Load.
var (
	ErrTensorNotFound   = errors.New("tensor not found")
	ErrUnsupportedDType = errors.New("unsupported dtype")
	ErrHeaderTooLarge   = errors.New("header exceeds maximum size")
	ErrDataSize         = errors.New("tensor data size does not match shape")
)

// maxHeaderSize bounds the JSON header we are willing to read.
const maxHeaderSize = 100 * 1024 * 1024

// Metadata keys.
const (
	MetaLayout = "layout" // "HWIO" (default) or "OIHW"
	MetaStride = "stride" // informational, e.g. "(1, 1)"
)

// Layouts accepted under MetaLayout.
const (
	LayoutHWIO = "HWIO"
	LayoutOIHW = "OIHW"
)

// DType is a SafeTensors dtype string.
type DType string

// Supported dtypes.
const (
	F32 DType = "F32"
	F64 DType = "F64"
)

// TensorInfo describes a tensor in the SafeTensors header.
type TensorInfo struct {
	DType       DType    `json:"dtype"`
	Shape       []int    `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"` // [start, end] relative to the data section
}

// Header is the parsed SafeTensors JSON header.
type Header struct {
	Metadata map[string]string
	Tensors  map[string]TensorInfo
}

// UnmarshalJSON separates __metadata__ from the tensor entries.
func (h *Header) UnmarshalJSON(data []byte) error {
	var rawMap map[string]json.RawMessage
	if err := json.Unmarshal(data, &rawMap); err != nil {
		return err
	}

	if metadataRaw, ok := rawMap["__metadata__"]; ok {
		if err := json.Unmarshal(metadataRaw, &h.Metadata); err != nil {
			return fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	h.Tensors = make(map[string]TensorInfo, len(rawMap))
	for key, value := range rawMap {
		if key == "__metadata__" {
			continue
		}
		var info TensorInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return fmt.Errorf("failed to unmarshal tensor %s: %w", key, err)
		}
		h.Tensors[key] = info
	}
	return nil
}

// KernelName returns the tensor name of the filter bank of layer name.
func KernelName(name string) string { return name + ".kernel" }

// BiasName returns the tensor name of the bias of layer name.
func BiasName(name string) string { return name + ".bias" }

// Save writes p as layer name to path.
//
// Tensors are written in T's precision (F32 or F64) and in HWIO layout.
func Save[T tensor.Float](path, name string, p conv.Params[T], metadata map[string]string) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}

	//nolint:gosec // G304: path comes from the caller
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := Write(f, name, p, metadata); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Write encodes p as layer name in SafeTensors format.
func Write[T tensor.Float](w io.Writer, name string, p conv.Params[T], metadata map[string]string) error {
	dtype := F64
	if p.Weight.DType() == tensor.Float32 {
		dtype = F32
	}

	entries := map[string]*tensor.Dense[T]{
		KernelName(name): p.Weight,
		BiasName(name):   p.Bias,
	}
	// Tensor names in alphabetical order (SafeTensors requirement).
	names := make([]string, 0, len(entries))
	for n := range entries {
		names = append(names, n)
	}
	sort.Strings(names)

	meta := map[string]string{MetaLayout: LayoutHWIO}
	for k, v := range metadata {
		meta[k] = v
	}

	header := map[string]any{"__metadata__": meta}
	var offset int64
	for _, n := range names {
		t := entries[n]
		size := int64(t.NumElements() * t.DType().Size())
		header[n] = TensorInfo{
			DType:       dtype,
			Shape:       append([]int(nil), t.Shape()...),
			DataOffsets: [2]int64{offset, offset + size},
		}
		offset += size
	}

	headerBytes, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	// Pad the header with spaces to an 8-byte boundary.
	if pad := len(headerBytes) % 8; pad != 0 {
		for i := 0; i < 8-pad; i++ {
			headerBytes = append(headerBytes, ' ')
		}
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerBytes))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.Write(headerBytes); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, n := range names {
		if err := writeData(w, entries[n].Data(), dtype); err != nil {
			return fmt.Errorf("failed to write tensor %s: %w", n, err)
		}
	}
	return nil
}

func writeData[T tensor.Float](w io.Writer, data []T, dtype DType) error {
	var buf []byte
	if dtype == F32 {
		buf = make([]byte, 4*len(data))
		for i, v := range data {
			binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(float32(v)))
		}
	} else {
		buf = make([]byte, 8*len(data))
		for i, v := range data {
			binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(float64(v)))
		}
	}
	_, err := w.Write(buf)
	return err
}

// File is an open SafeTensors file.
type File struct {
	file       *os.File
	header     Header
	dataOffset int64
}

// Open reads the header of a SafeTensors file.
func Open(path string) (*File, error) {
	//nolint:gosec // G304: path comes from the caller
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	var headerSize uint64
	if err := binary.Read(file, binary.LittleEndian, &headerSize); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > maxHeaderSize {
		_ = file.Close()
		return nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(file, headerBytes); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var header Header
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	return &File{
		file:       file,
		header:     header,
		dataOffset: int64(8 + headerSize), //nolint:gosec // G115: bounded by maxHeaderSize
	}, nil
}

// Close closes the file.
func (f *File) Close() error {
	return f.file.Close()
}

// Metadata returns the __metadata__ map of the header.
func (f *File) Metadata() map[string]string {
	return f.header.Metadata
}

// TensorNames returns the sorted names of all tensors in the file.
func (f *File) TensorNames() []string {
	names := make([]string, 0, len(f.header.Tensors))
	for name := range f.header.Tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tensor reads tensor name, widening F32 data to float64.
func (f *File) Tensor(name string) (*tensor.Dense[float64], error) {
	info, ok := f.header.Tensors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
	}

	var elemSize int64
	switch info.DType {
	case F32:
		elemSize = 4
	case F64:
		elemSize = 8
	default:
		return nil, fmt.Errorf("%w: %s has dtype %s", ErrUnsupportedDType, name, info.DType)
	}

	shape := tensor.Shape(info.Shape)
	size := info.DataOffsets[1] - info.DataOffsets[0]
	if info.DataOffsets[0] < 0 || size != int64(shape.NumElements())*elemSize {
		return nil, fmt.Errorf("%w: %s: offsets %v for shape %v", ErrDataSize, name, info.DataOffsets, shape)
	}

	raw := make([]byte, size)
	if _, err := f.file.ReadAt(raw, f.dataOffset+info.DataOffsets[0]); err != nil {
		return nil, fmt.Errorf("failed to read tensor %s: %w", name, err)
	}

	out, err := tensor.New[float64](shape)
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}
	data := out.Data()
	for i := range data {
		if info.DType == F32 {
			data[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:])))
		} else {
			data[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
		}
	}
	return out, nil
}

// Params reads layer name as convolution parameters in HWIO layout.
func (f *File) Params(name string) (conv.Params[float64], error) {
	kernel, err := f.Tensor(KernelName(name))
	if err != nil {
		return conv.Params[float64]{}, err
	}
	bias, err := f.Tensor(BiasName(name))
	if err != nil {
		return conv.Params[float64]{}, err
	}

	if f.header.Metadata[MetaLayout] == LayoutOIHW {
		kernel, err = conv.OIHWToHWIO(kernel)
		if err != nil {
			return conv.Params[float64]{}, fmt.Errorf("kernel %s: %w", name, err)
		}
	}

	p := conv.Params[float64]{Weight: kernel, Bias: bias}
	if err := p.Validate(); err != nil {
		return conv.Params[float64]{}, fmt.Errorf("layer %s: %w", name, err)
	}
	return p, nil
}

// Load opens path and reads layer name.
func Load(path, name string) (conv.Params[float64], error) {
	f, err := Open(path)
	if err != nil {
		return conv.Params[float64]{}, err
	}
	defer func() {
		_ = f.Close()
	}()
	return f.Params(name)
}
