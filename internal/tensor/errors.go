package tensor

import "fmt"

// ShapeError reports an operation that received incompatible shapes.
type ShapeError struct {
	Op      string // Operation that rejected the shapes (e.g., "broadcast", "add")
	Shape   Shape  // Primary shape involved
	Other   Shape  // Secondary shape, nil when only one shape is involved
	Details string // Additional details
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	if e.Other != nil {
		return fmt.Sprintf("%s: shapes %v and %v: %s", e.Op, e.Shape, e.Other, e.Details)
	}
	return fmt.Sprintf("%s: shape %v: %s", e.Op, e.Shape, e.Details)
}
