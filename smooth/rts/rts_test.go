package rts

import (
	"errors"
	"os"
	"testing"

	filter "github.com/adaptkf/go-estimate"
	"github.com/adaptkf/go-estimate/batch"
	"github.com/adaptkf/go-estimate/estimate"
	"github.com/adaptkf/go-estimate/kalman/kf"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

var (
	A, Q *mat.Dense
	ests []filter.Estimate
)

func setup() {
	A = mat.NewDense(2, 2, []float64{1.0, 1.0, 0.0, 1.0})
	Q = mat.NewDense(2, 2, []float64{0.01, 0, 0, 0.01})

	f, err := kf.New(A, []float64{1, 0}, Q, 0.25, []float64{0, 1}, [][]float64{{1, 0}, {0, 1}})
	if err != nil {
		panic(err)
	}

	ests, err = batch.Trace(f, []float64{1.2, 1.9, 3.1, 4.2, 4.8, 6.1, 7.0, 7.9})
	if err != nil {
		panic(err)
	}
}

func TestMain(m *testing.M) {
	// set up tests
	setup()
	// run the tests
	retCode := m.Run()
	// call with result of m.Run()
	os.Exit(retCode)
}

func TestNewRTS(t *testing.T) {
	assert := assert.New(t)

	s, err := New(A, Q)
	assert.NotNil(s)
	assert.NoError(err)

	var _ filter.Smoother = s

	s, err = New(mat.NewDense(2, 3, nil), Q)
	assert.Nil(s)
	assert.True(errors.Is(err, filter.ErrDimMismatch))

	s, err = New(A, 0.1)
	assert.Nil(s)
	assert.True(errors.Is(err, filter.ErrDimMismatch))

	s, err = New(nil, Q)
	assert.Nil(s)
	assert.True(errors.Is(err, filter.ErrUnsupported))
}

func TestRTSSmooth(t *testing.T) {
	assert := assert.New(t)

	s, err := New(A, Q)
	assert.NoError(err)

	sx, err := s.Smooth(ests)
	assert.NoError(err)
	assert.Len(sx, len(ests))

	// last smoothed estimate is the last filtered estimate
	last := len(ests) - 1
	assert.True(mat.EqualApprox(ests[last].Val(), sx[last].Val(), 1e-12))
	assert.True(mat.EqualApprox(ests[last].Cov(), sx[last].Cov(), 1e-12))

	// smoothing never increases uncertainty
	for i := range sx {
		for j := 0; j < 2; j++ {
			assert.LessOrEqual(sx[i].Cov().At(j, j), ests[i].Cov().At(j, j)+1e-12)
		}
	}

	sx, err = s.Smooth(nil)
	assert.Nil(sx)
	assert.Error(err)

	small, err := estimate.NewBase(mat.NewVecDense(1, []float64{1}))
	assert.NoError(err)
	sx, err = s.Smooth([]filter.Estimate{small})
	assert.Nil(sx)
	assert.True(errors.Is(err, filter.ErrDimMismatch))
}

func TestRTSSmoothConstant(t *testing.T) {
	assert := assert.New(t)

	// without process noise every smoothed estimate collapses onto the last one
	f, err := kf.New(1.0, 1.0, 0.0, 1.0, 0.0, 1.0)
	assert.NoError(err)
	fx, err := batch.Trace(f, []float64{1, 1, 1})
	assert.NoError(err)

	s, err := New(1.0, 0.0)
	assert.NoError(err)
	sx, err := s.Smooth(fx)
	assert.NoError(err)

	for i := range sx {
		assert.InDelta(0.75, sx[i].Val().AtVec(0), 1e-12)
		assert.InDelta(0.25, sx[i].Cov().At(0, 0), 1e-12)
	}

	// singular predicted covariance
	zero, err := estimate.NewBase(mat.NewVecDense(1, []float64{1}))
	assert.NoError(err)
	sx, err = s.Smooth([]filter.Estimate{zero, zero})
	assert.Nil(sx)
	assert.True(errors.Is(err, filter.ErrSingular))
}
