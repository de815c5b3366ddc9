package matrix

import (
	"fmt"

	filter "github.com/adaptkf/go-estimate"
	"gonum.org/v1/gonum/mat"
)

// Agreement defines how dimensions of two matrices should agree.
type Agreement uint8

const (
	// Rows2Cols requires rows of the first matrix to match columns of the second
	Rows2Cols Agreement = iota + 1
	// Cols2Rows requires columns of the first matrix to match rows of the second
	Cols2Rows
	// Rows2Rows requires both matrices to have the same number of rows
	Rows2Rows
	// Cols2Cols requires both matrices to have the same number of columns
	Cols2Cols
	// RowsAndCols requires both matrices to have the same dimensions
	RowsAndCols
)

// CheckDims checks m1 and m2 dimensions agree as requested by how.
// It returns error wrapping filter.ErrDimMismatch which names both operands if they don't.
func CheckDims(m1, m2 mat.Matrix, name1, name2 string, how Agreement) error {
	r1, c1 := m1.Dims()
	r2, c2 := m2.Dims()

	switch how {
	case Rows2Cols:
		if r1 != c2 {
			return fmt.Errorf("%w: %s(%dx...) %s(...x%d)", filter.ErrDimMismatch, name1, r1, name2, c2)
		}
	case Cols2Rows:
		if c1 != r2 {
			return fmt.Errorf("%w: %s(...x%d) %s(%dx...)", filter.ErrDimMismatch, name1, c1, name2, r2)
		}
	case Rows2Rows:
		if r1 != r2 {
			return fmt.Errorf("%w: %s(%dx...) %s(%dx...)", filter.ErrDimMismatch, name1, r1, name2, r2)
		}
	case Cols2Cols:
		if c1 != c2 {
			return fmt.Errorf("%w: %s(...x%d) %s(...x%d)", filter.ErrDimMismatch, name1, c1, name2, c2)
		}
	case RowsAndCols:
		if r1 != r2 || c1 != c2 {
			return fmt.Errorf("%w: %s(%dx%d) %s(%dx%d)", filter.ErrDimMismatch, name1, r1, c1, name2, r2, c2)
		}
	default:
		return fmt.Errorf("unknown dimension agreement: %d", how)
	}

	return nil
}

// CheckSquare checks m is a square matrix.
func CheckSquare(m mat.Matrix, name string) error {
	r, c := m.Dims()
	if r != c {
		return fmt.Errorf("%w: %s(%dx%d) is not square", filter.ErrDimMismatch, name, r, c)
	}

	return nil
}
