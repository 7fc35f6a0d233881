package conv

import "errors"

// Precondition violations reported by Plan.
var (
	ErrRank            = errors.New("tensor must be 4D")
	ErrBiasRank        = errors.New("bias must be 1D")
	ErrChannelMismatch = errors.New("input channels do not match filter bank")
	ErrBiasLength      = errors.New("bias length does not match output channels")
	ErrKernelTooLarge  = errors.New("filter larger than image")
	ErrStride          = errors.New("stride must be positive")
)
