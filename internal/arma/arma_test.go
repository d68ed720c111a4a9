package arma

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// simulate generates an ARMA(p, q) series with standard normal innovations.
func simulate(seed int64, n int, c float64, ar, ma []float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	burn := 500
	x := make([]float64, n+burn)
	e := make([]float64, n+burn)
	for t := range x {
		e[t] = rng.NormFloat64()
		v := c + e[t]
		for i, phi := range ar {
			if t-1-i >= 0 {
				v += phi * x[t-1-i]
			}
		}
		for j, theta := range ma {
			if t-1-j >= 0 {
				v += theta * e[t-1-j]
			}
		}
		x[t] = v
	}
	return x[burn:]
}

func TestFit_AR1(t *testing.T) {
	x := simulate(42, 3000, 0.5, []float64{0.6}, nil)

	m, err := Fit(x, 1, 0)
	require.NoError(t, err)

	p, q := m.Order()
	assert.Equal(t, 1, p)
	assert.Equal(t, 0, q)
	assert.InDelta(t, 0.6, m.AR[0], 0.05)
	assert.InDelta(t, 0.5, m.Const, 0.15)
	assert.InDelta(t, 1.25, m.Mean(), 0.2)
	assert.InDelta(t, 1.0, m.Sigma2, 0.1)
	assert.Equal(t, 3000, m.NObs())
	assert.Less(t, m.LogLikelihood, 0.0)
	assert.InDelta(t, -2*m.LogLikelihood+8, m.AIC(), 1e-9)
}

func TestFit_ARMA11(t *testing.T) {
	x := simulate(7, 5000, 0, []float64{0.5}, []float64{0.3})

	m, err := Fit(x, 1, 1)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, m.AR[0], 0.1)
	assert.InDelta(t, 0.3, m.MA[0], 0.1)
	assert.InDelta(t, 0.0, m.Const, 0.1)
	assert.InDelta(t, 1.0, m.Sigma2, 0.1)
}

func TestFit_MA1(t *testing.T) {
	x := simulate(11, 5000, 0.2, nil, []float64{-0.4})

	m, err := Fit(x, 0, 1)
	require.NoError(t, err)

	assert.Empty(t, m.AR)
	assert.InDelta(t, -0.4, m.MA[0], 0.1)
	assert.InDelta(t, 0.2, m.Const, 0.1)
}

func TestFit_ConstantMean(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6}

	m, err := Fit(x, 0, 0)
	require.NoError(t, err)

	assert.InDelta(t, 3.5, m.Const, 1e-9)
	f, err := m.Forecast(3)
	require.NoError(t, err)
	for _, v := range f {
		assert.InDelta(t, 3.5, v, 1e-9)
	}
}

func TestFit_RefinementDoesNotWorsenCSS(t *testing.T) {
	x := simulate(3, 800, 0.1, []float64{0.3}, []float64{0.5})

	init, err := hannanRissanen(x, 1, 1)
	require.NoError(t, err)
	_, initSSE := residuals(x, init[0], init[1:2], init[2:])

	m, err := Fit(x, 1, 1)
	require.NoError(t, err)
	_, fitSSE := residuals(x, m.Const, m.AR, m.MA)

	assert.LessOrEqual(t, fitSSE, initSSE+1e-9)
}

func TestFit_Errors(t *testing.T) {
	x := simulate(1, 50, 0, []float64{0.5}, nil)

	_, err := Fit(x, -1, 0)
	assert.True(t, errors.Is(err, ErrInvalidOrder))

	_, err = Fit(x, 0, -2)
	assert.True(t, errors.Is(err, ErrInvalidOrder))

	_, err = Fit([]float64{1, 2, 3}, 1, 1)
	assert.True(t, errors.Is(err, ErrInsufficientData))

	bad := append([]float64{}, x...)
	bad[10] = math.NaN()
	_, err = Fit(bad, 1, 0)
	assert.Error(t, err)
}

func TestFit_ConstantSeries(t *testing.T) {
	x := make([]float64, 100)

	for _, order := range [][2]int{{1, 0}, {0, 1}, {2, 1}} {
		_, err := Fit(x, order[0], order[1])
		assert.True(t, errors.Is(err, ErrDegenerateSeries), "ARMA(%d, %d): %v", order[0], order[1], err)
	}

	m, err := Fit(x, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, m.Sigma2)
}

func TestFit_ShortSeriesWithMA(t *testing.T) {
	x := simulate(5, 9, 0, []float64{0.4}, []float64{0.3, -0.2})

	m, err := Fit(x, 1, 2)
	require.NoError(t, err)
	assert.Len(t, m.AR, 1)
	assert.Len(t, m.MA, 2)
	assert.Len(t, m.Predict(), 9)

	_, err = Fit(x[:5], 1, 2)
	assert.True(t, errors.Is(err, ErrInsufficientData), "%v", err)
}

func TestPredict_AR1(t *testing.T) {
	m := &Model{Const: 1, AR: []float64{0.5}, series: []float64{2, 4, 3}}
	m.residuals, _ = residuals(m.series, m.Const, m.AR, m.MA)

	// first value has no lag and takes the model mean 1 / (1 - 0.5)
	assert.Equal(t, []float64{2, 2, 3}, m.Predict())
	assert.Equal(t, []float64{0, 2, 0}, m.Residuals())
}

func TestPredict_MatchesResiduals(t *testing.T) {
	x := simulate(5, 400, 0, []float64{0.4}, []float64{0.2})
	m, err := Fit(x, 1, 1)
	require.NoError(t, err)

	pred := m.Predict()
	res := m.Residuals()
	require.Len(t, pred, len(x))
	for i := 1; i < len(x); i++ {
		assert.InDelta(t, x[i], pred[i]+res[i], 1e-9)
	}
}

func TestForecast_AR1(t *testing.T) {
	m := &Model{Const: 1, AR: []float64{0.5}, series: []float64{2, 4}, residuals: []float64{0, 0}}

	f, err := m.Forecast(2)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 2.5}, f)
}

func TestForecast_MA1UsesLastResidual(t *testing.T) {
	m := &Model{MA: []float64{0.5}, series: []float64{1, 2}, residuals: []float64{0, 2}}

	f, err := m.Forecast(2)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, f)
}

func TestForecast_ConvergesToMean(t *testing.T) {
	x := simulate(9, 1000, 0.3, []float64{0.7}, nil)
	m, err := Fit(x, 1, 0)
	require.NoError(t, err)

	f, err := m.Forecast(200)
	require.NoError(t, err)
	assert.InDelta(t, m.Mean(), f[len(f)-1], 1e-6)
}

func TestForecast_InvalidSteps(t *testing.T) {
	m := &Model{Const: 1, series: []float64{1}, residuals: []float64{0}}
	_, err := m.Forecast(0)
	assert.Error(t, err)
}
