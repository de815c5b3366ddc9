package matrix

import (
	"errors"
	"testing"

	filter "github.com/adaptkf/go-estimate"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestEye(t *testing.T) {
	assert := assert.New(t)

	eye, err := Eye(3)
	assert.NoError(err)
	assert.True(mat.Equal(eye, mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})))

	eye, err = Eye(0)
	assert.Nil(eye)
	assert.True(errors.Is(err, filter.ErrDimMismatch))
}

func TestInverse(t *testing.T) {
	assert := assert.New(t)

	a := mat.NewDense(2, 2, []float64{4, 7, 2, 6})
	inv, err := Inverse(a)
	assert.NoError(err)

	prod := &mat.Dense{}
	prod.Mul(a, inv)
	assert.True(mat.EqualApprox(prod, mat.NewDense(2, 2, []float64{1, 0, 0, 1}), 1e-12))

	// singular
	inv, err = Inverse(mat.NewDense(2, 2, []float64{1, 2, 2, 4}))
	assert.Nil(inv)
	assert.True(errors.Is(err, filter.ErrSingular))

	inv, err = Inverse(mat.NewDense(1, 1, []float64{0}))
	assert.Nil(inv)
	assert.True(errors.Is(err, filter.ErrSingular))

	// not square
	inv, err = Inverse(mat.NewDense(1, 2, []float64{1, 2}))
	assert.Nil(inv)
	assert.True(errors.Is(err, filter.ErrDimMismatch))
}

func TestRank(t *testing.T) {
	assert := assert.New(t)

	for _, test := range []struct {
		m    mat.Matrix
		rank int
	}{
		{m: mat.NewDense(2, 2, []float64{1, 0, 0, 1}), rank: 2},
		{m: mat.NewDense(2, 2, []float64{1, 2, 2, 4}), rank: 1},
		{m: mat.NewDense(2, 2, nil), rank: 0},
		{m: mat.NewDense(3, 2, []float64{1, 0, 0, 1, 1, 1}), rank: 2},
	} {
		assert.Equal(test.rank, Rank(test.m))
	}
}

func TestClampMin(t *testing.T) {
	assert := assert.New(t)

	a := mat.NewDense(2, 2, []float64{-1, 2, 0, -0.5})
	c := ClampMin(a, 0)
	assert.True(mat.Equal(c, mat.NewDense(2, 2, []float64{0, 2, 0, 0})))
	// a is untouched
	assert.Equal(-1.0, a.At(0, 0))
}

func TestCheckDims(t *testing.T) {
	assert := assert.New(t)

	a := mat.NewDense(2, 3, nil)
	b := mat.NewDense(3, 2, nil)

	assert.NoError(CheckDims(a, b, "a", "b", Rows2Cols))
	assert.NoError(CheckDims(a, b, "a", "b", Cols2Rows))
	assert.Error(CheckDims(a, b, "a", "b", Rows2Rows))
	assert.Error(CheckDims(a, b, "a", "b", Cols2Cols))
	assert.Error(CheckDims(a, b, "a", "b", RowsAndCols))
	assert.NoError(CheckDims(a, a, "a", "a", RowsAndCols))
	assert.Error(CheckDims(a, a, "a", "a", Agreement(42)))

	err := CheckDims(a, a, "H", "x", Cols2Rows)
	assert.True(errors.Is(err, filter.ErrDimMismatch))
	assert.Contains(err.Error(), "H(...x3) x(2x...)")

	assert.NoError(CheckSquare(mat.NewDense(2, 2, nil), "P"))
	assert.Error(CheckSquare(a, "P"))
}
