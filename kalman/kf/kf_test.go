package kf

import (
	"errors"
	"os"
	"testing"

	filter "github.com/adaptkf/go-estimate"
	"github.com/adaptkf/go-estimate/kalman"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

var (
	A, H, Q, R *mat.Dense
	x0         *mat.VecDense
	P0         *mat.Dense
)

func setup() {
	A = mat.NewDense(2, 2, []float64{1.0, 1.0, 0.0, 1.0})
	H = mat.NewDense(1, 2, []float64{1.0, 0.0})
	Q = mat.NewDense(2, 2, []float64{0.01, 0, 0, 0.01})
	R = mat.NewDense(1, 1, []float64{0.25})

	x0 = mat.NewVecDense(2, []float64{1.0, 3.0})
	P0 = mat.NewDense(2, 2, []float64{0.25, 0, 0, 0.25})
}

func TestMain(m *testing.M) {
	// set up tests
	setup()
	// run the tests
	retCode := m.Run()
	// call with result of m.Run()
	os.Exit(retCode)
}

func TestKFNew(t *testing.T) {
	assert := assert.New(t)

	f, err := New(A, H, Q, R, x0, P0)
	assert.NoError(err)
	assert.NotNil(f)

	var _ kalman.Kalman = f
	var _ filter.Filter = f

	// scalars
	f, err = New(1.0, 1, 0.0, 1.0, 0.0, 1.0)
	assert.NoError(err)
	assert.NotNil(f)

	// unsupported parameters
	for i := 0; i < 6; i++ {
		params := []any{A, H, Q, R, x0, P0}
		params[i] = "invalid"
		f, err = New(params[0], params[1], params[2], params[3], params[4], params[5])
		assert.Nil(f)
		assert.True(errors.Is(err, filter.ErrUnsupported))
	}

	// nil matrices
	for i := 0; i < 6; i++ {
		params := []any{A, H, Q, R, x0, P0}
		params[i] = (*mat.Dense)(nil)
		f, err = New(params[0], params[1], params[2], params[3], params[4], params[5])
		assert.Nil(f)
		assert.True(errors.Is(err, filter.ErrUnsupported))
	}

	// dimensions are not validated on construction
	f, err = New(mat.NewDense(3, 3, nil), H, Q, R, x0, P0)
	assert.NoError(err)
	assert.NotNil(f)
}

func TestKFPredict(t *testing.T) {
	assert := assert.New(t)

	f, err := New(A, H, Q, R, x0, P0)
	assert.NoError(err)

	err = f.Predict()
	assert.NoError(err)

	assert.InDeltaSlice([]float64{4.0, 3.0}, mat.Col(nil, 0, f.State()), 1e-12)
	// A*P*A' + Q
	expCov := mat.NewDense(2, 2, []float64{0.51, 0.25, 0.25, 0.26})
	assert.True(mat.EqualApprox(expCov, f.Cov(), 1e-12))

	// invalid transition matrix
	f, err = New(mat.NewDense(3, 3, nil), H, Q, R, x0, P0)
	assert.NoError(err)
	err = f.Predict()
	assert.True(errors.Is(err, filter.ErrDimMismatch))
	assert.InDeltaSlice(x0.RawVector().Data, mat.Col(nil, 0, f.State()), 0)

	// invalid process noise
	f, err = New(A, H, 0.1, R, x0, P0)
	assert.NoError(err)
	err = f.Predict()
	assert.True(errors.Is(err, filter.ErrDimMismatch))
}

func TestKFUpdate(t *testing.T) {
	assert := assert.New(t)

	f, err := New(1.0, 1.0, 0.0, 1.0, 0.0, 1.0)
	assert.NoError(err)

	assert.NoError(f.Predict())
	assert.NoError(f.Update(1.0))

	assert.InDelta(0.5, f.State().AtVec(0), 1e-12)
	assert.InDelta(0.5, f.Cov().At(0, 0), 1e-12)
	assert.InDelta(0.5, f.Gain().At(0, 0), 1e-12)
	assert.InDelta(1.0, f.Innovation().AtVec(0), 1e-12)

	// invalid measurement dimension
	f, err = New(A, H, Q, R, x0, P0)
	assert.NoError(err)
	err = f.Update([]float64{1.0, 2.0})
	assert.True(errors.Is(err, filter.ErrDimMismatch))

	// unsupported measurement
	err = f.Update("1.0")
	assert.True(errors.Is(err, filter.ErrUnsupported))

	// invalid observation matrix
	f, err = New(A, mat.NewDense(1, 3, nil), Q, R, x0, P0)
	assert.NoError(err)
	err = f.Update(1.0)
	assert.True(errors.Is(err, filter.ErrDimMismatch))

	// measurement noise covariance is not square
	f, err = New(A, H, Q, mat.NewDense(1, 2, []float64{0.25, 0}), x0, P0)
	assert.NoError(err)
	x := f.State()
	err = f.Update(1.0)
	assert.True(errors.Is(err, filter.ErrDimMismatch))
	assert.ErrorContains(err, "R(1x2) is not square")
	assert.True(mat.Equal(x, f.State()))
}

func TestKFUpdateSingular(t *testing.T) {
	assert := assert.New(t)

	f, err := New(1.0, 1.0, 0.0, 0.0, 2.0, 0.0)
	assert.NoError(err)

	assert.NoError(f.Predict())
	err = f.Update(5.0)
	assert.Error(err)
	assert.True(errors.Is(err, filter.ErrSingular))

	// state is left untouched
	assert.Equal(2.0, f.State().AtVec(0))
	assert.Equal(0.0, f.Cov().At(0, 0))
}

func TestKFFilter(t *testing.T) {
	assert := assert.New(t)

	f, err := New(1.0, 1.0, 0.0, 1.0, 0.0, 1.0)
	assert.NoError(err)

	est, err := f.Filter([]any{1.0, 1.0, 1.0})
	assert.NoError(err)

	rows, cols := est.Dims()
	assert.Equal(3, rows)
	assert.Equal(1, cols)

	exp := []float64{0.5, 2.0 / 3.0, 0.75}
	assert.InDeltaSlice(exp, mat.Col(nil, 0, est), 1e-12)

	for i := 1; i < rows; i++ {
		assert.Greater(est.At(i, 0), est.At(i-1, 0))
		assert.Less(est.At(i, 0), 1.0)
	}

	// no measurements
	est, err = f.Filter(nil)
	assert.NoError(err)
	assert.True(est.IsEmpty())

	// failing cycle
	est, err = f.Filter([]any{1.0, []float64{1, 2}})
	assert.Nil(est)
	assert.True(errors.Is(err, filter.ErrDimMismatch))
}

func TestKFFilterMatchesManual(t *testing.T) {
	assert := assert.New(t)

	zs := []any{1.1, 2.3, 2.9, 4.2, 5.1, 5.8}

	f, err := New(A, H, Q, R, x0, P0)
	assert.NoError(err)
	est, err := f.Filter(zs)
	assert.NoError(err)

	rows, cols := est.Dims()
	assert.Equal(len(zs), rows)
	assert.Equal(2, cols)

	m, err := New(A, H, Q, R, x0, P0)
	assert.NoError(err)
	for i, z := range zs {
		assert.NoError(m.Predict())
		assert.NoError(m.Update(z))
		assert.Equal(mat.Col(nil, 0, m.State()), est.RawRowView(i))
	}
}

func TestKFScalarMatrixEquivalence(t *testing.T) {
	assert := assert.New(t)

	zs := []any{0.3, -0.2, 1.7, 0.9, 1.1}

	s, err := New(0.9, 1.0, 0.05, 0.4, 0.1, 2.0)
	assert.NoError(err)

	d, err := New([][]float64{{0.9}}, [][]float64{{1.0}}, [][]float64{{0.05}}, [][]float64{{0.4}}, []float64{0.1}, [][]float64{{2.0}})
	assert.NoError(err)

	m, err := New(mat.NewDense(1, 1, []float64{0.9}), mat.NewDense(1, 1, []float64{1.0}),
		mat.NewDense(1, 1, []float64{0.05}), mat.NewDense(1, 1, []float64{0.4}),
		mat.NewVecDense(1, []float64{0.1}), mat.NewDense(1, 1, []float64{2.0}))
	assert.NoError(err)

	sEst, err := s.Filter(zs)
	assert.NoError(err)
	dEst, err := d.Filter(zs)
	assert.NoError(err)
	mEst, err := m.Filter(zs)
	assert.NoError(err)

	assert.True(mat.Equal(sEst, dEst))
	assert.True(mat.Equal(sEst, mEst))
}

func TestKFPerfectMeasurement(t *testing.T) {
	assert := assert.New(t)

	eye := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	for _, z := range [][]float64{{3, -2}, {0, 0}, {-10, 7.5}} {
		f, err := New(A, eye, mat.NewDense(2, 2, nil), mat.NewDense(2, 2, []float64{1e-12, 0, 0, 1e-12}), x0, eye)
		assert.NoError(err)

		assert.NoError(f.Predict())
		assert.NoError(f.Update(z))
		assert.InDeltaSlice(z, mat.Col(nil, 0, f.State()), 1e-6)
	}
}

func TestKFCovNonIncreasing(t *testing.T) {
	assert := assert.New(t)

	eye := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	f, err := New(eye, eye, mat.NewDense(2, 2, []float64{0.01, 0, 0, 0.01}), eye, []float64{0, 0}, eye)
	assert.NoError(err)

	prev := []float64{f.Cov().At(0, 0), f.Cov().At(1, 1)}
	for i := 0; i < 50; i++ {
		assert.NoError(f.Predict())
		assert.NoError(f.Update([]float64{1.0, -2.0}))

		diag := []float64{f.Cov().At(0, 0), f.Cov().At(1, 1)}
		for j := range diag {
			assert.LessOrEqual(diag[j], prev[j]+1e-12)
		}
		prev = diag
	}
}

func TestKFReconfigure(t *testing.T) {
	assert := assert.New(t)

	f, err := New(1.0, 1.0, 0.0, 1.0, 0.0, 1.0)
	assert.NoError(err)

	assert.NoError(f.SetR(100.0))
	assert.NoError(f.Predict())
	assert.NoError(f.Update(1.0))
	// measurement is barely trusted
	assert.Less(f.State().AtVec(0), 0.01)

	assert.NoError(f.SetA(2.0))
	assert.NoError(f.SetH(1.0))
	assert.NoError(f.SetQ(0.5))
	assert.Equal(2.0, f.A().At(0, 0))
	assert.Equal(1.0, f.H().At(0, 0))
	assert.Equal(0.5, f.Q().At(0, 0))
	assert.Equal(100.0, f.R().At(0, 0))

	x := f.State().AtVec(0)
	assert.NoError(f.Predict())
	assert.InDelta(2*x, f.State().AtVec(0), 1e-12)

	assert.Error(f.SetA(nil))
	assert.Error(f.SetH([]float64{}))
	assert.Error(f.SetQ(struct{}{}))
	assert.Error(f.SetR("1"))

	// accessors return copies
	a := f.A().(*mat.Dense)
	a.Set(0, 0, 42)
	assert.Equal(2.0, f.A().At(0, 0))
}

func TestKFStateCov(t *testing.T) {
	assert := assert.New(t)

	f, err := New(A, H, Q, R, x0, P0)
	assert.NoError(err)

	assert.NoError(f.SetState([]float64{5, 6}))
	assert.Equal([]float64{5, 6}, mat.Col(nil, 0, f.State()))

	assert.NoError(f.SetCov([][]float64{{1, 0}, {0, 2}}))
	assert.Equal(2.0, f.Cov().At(1, 1))

	assert.Error(f.SetState(nil))
	assert.Error(f.SetCov("cov"))

	// mismatching state is caught by the next cycle
	assert.NoError(f.SetState([]float64{1, 2, 3}))
	assert.True(errors.Is(f.Predict(), filter.ErrDimMismatch))
}
