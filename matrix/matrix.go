package matrix

import (
	"fmt"
	"reflect"

	filter "github.com/adaptkf/go-estimate"
	"gonum.org/v1/gonum/mat"
)

// ToDense coerces v into a dense matrix and returns it.
// Scalars become 1x1 matrices, a []float64 becomes a single row matrix,
// a [][]float64 is read row by row and any mat.Matrix is copied.
// It returns error if v can not be represented as a non-empty rectangular matrix.
func ToDense(v any) (*mat.Dense, error) {
	if f, ok := scalar(v); ok {
		return mat.NewDense(1, 1, []float64{f}), nil
	}

	switch x := v.(type) {
	case []float64:
		if len(x) == 0 {
			return nil, fmt.Errorf("%w: empty slice", filter.ErrUnsupported)
		}
		data := make([]float64, len(x))
		copy(data, x)
		return mat.NewDense(1, len(data), data), nil
	case [][]float64:
		return fromRows(x)
	case mat.Matrix:
		if isEmpty(x) {
			return nil, fmt.Errorf("%w: empty matrix", filter.ErrUnsupported)
		}
		return mat.DenseCopyOf(x), nil
	}

	return nil, fmt.Errorf("%w: %T", filter.ErrUnsupported, v)
}

// ToVecDense coerces v into a column vector and returns it.
// Scalars become vectors of length 1; slices and matrices are flattened row by row.
// It returns error if v can not be represented as a non-empty vector.
func ToVecDense(v any) (*mat.VecDense, error) {
	if f, ok := scalar(v); ok {
		return mat.NewVecDense(1, []float64{f}), nil
	}

	switch x := v.(type) {
	case []float64:
		if len(x) == 0 {
			return nil, fmt.Errorf("%w: empty slice", filter.ErrUnsupported)
		}
		data := make([]float64, len(x))
		copy(data, x)
		return mat.NewVecDense(len(data), data), nil
	case [][]float64:
		m, err := fromRows(x)
		if err != nil {
			return nil, err
		}
		return Flatten(m), nil
	case mat.Vector:
		if isEmpty(x) {
			return nil, fmt.Errorf("%w: empty vector", filter.ErrUnsupported)
		}
		return mat.VecDenseCopyOf(x), nil
	case mat.Matrix:
		if isEmpty(x) {
			return nil, fmt.Errorf("%w: empty matrix", filter.ErrUnsupported)
		}
		return Flatten(x), nil
	}

	return nil, fmt.Errorf("%w: %T", filter.ErrUnsupported, v)
}

// Flatten returns a column vector holding the elements of m in row-major order.
func Flatten(m mat.Matrix) *mat.VecDense {
	rows, cols := m.Dims()
	data := make([]float64, 0, rows*cols)

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			data = append(data, m.At(i, j))
		}
	}

	return mat.NewVecDense(len(data), data)
}

// IsScalar returns true if v is a scalar accepted by ToDense and ToVecDense.
func IsScalar(v any) bool {
	_, ok := scalar(v)
	return ok
}

func scalar(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	}

	return 0, false
}

func fromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty matrix", filter.ErrUnsupported)
	}

	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: ragged row %d: %d != %d", filter.ErrUnsupported, i, len(row), cols)
		}
		data = append(data, row...)
	}

	return mat.NewDense(len(rows), cols, data), nil
}

func isEmpty(m mat.Matrix) bool {
	if m == nil {
		return true
	}
	// typed nil pointers such as (*mat.Dense)(nil)
	if v := reflect.ValueOf(m); v.Kind() == reflect.Pointer && v.IsNil() {
		return true
	}
	r, c := m.Dims()
	return r == 0 || c == 0
}
