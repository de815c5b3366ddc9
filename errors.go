package filter

import "errors"

var (
	// ErrDimMismatch is returned when matrix or vector dimensions do not agree
	ErrDimMismatch = errors.New("dimensions must agree")
	// ErrSingular is returned when a matrix which must be inverted is singular
	ErrSingular = errors.New("matrix is singular")
	// ErrUnsupported is returned when a value can not be coerced to a matrix
	ErrUnsupported = errors.New("unsupported value")
)
