// Package arma fits autoregressive moving-average models by conditional sum
// of squares and produces in-sample predictions and forecasts.
//
// The model is
//
//	x[t] = c + φ1·x[t-1] + … + φp·x[t-p] + e[t] + θ1·e[t-1] + … + θq·e[t-q]
//
// with pre-sample residuals fixed at zero.
package arma

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrInvalidOrder is returned for a negative AR or MA order.
	ErrInvalidOrder = errors.New("invalid model order")
	// ErrInsufficientData is returned when the series is too short for the order.
	ErrInsufficientData = errors.New("insufficient data for model order")
	// ErrDegenerateSeries is returned when the series carries no variation
	// the lag regressions can be solved for.
	ErrDegenerateSeries = errors.New("degenerate series")
)

// Model is a fitted ARMA(p, q) model.
type Model struct {
	Const float64
	AR    []float64
	MA    []float64

	Sigma2        float64
	LogLikelihood float64

	series    []float64
	residuals []float64
}

// Order returns (p, q).
func (m *Model) Order() (int, int) {
	return len(m.AR), len(m.MA)
}

// NObs returns the number of observations the model was fitted on.
func (m *Model) NObs() int {
	return len(m.series)
}

// AIC returns the Akaike information criterion. The constant and the
// innovation variance count as parameters.
func (m *Model) AIC() float64 {
	k := len(m.AR) + len(m.MA) + 2
	return -2*m.LogLikelihood + 2*float64(k)
}

// Residuals returns the in-sample innovations.
func (m *Model) Residuals() []float64 {
	return slices.Clone(m.residuals)
}

// Mean returns the unconditional mean c / (1 - Σφ), or the sample mean when
// the AR polynomial has a unit root at one.
func (m *Model) Mean() float64 {
	denom := 1 - floats.Sum(m.AR)
	if math.Abs(denom) < 1e-12 {
		return stat.Mean(m.series, nil)
	}
	return m.Const / denom
}

// Fit estimates an ARMA(p, q) model with a constant on series. Pure AR
// models are solved exactly by least squares. Models with an MA part start
// from Hannan-Rissanen estimates refined by Nelder-Mead on the conditional
// sum of squares.
//
// The series must be longer than p+q+1. With an MA part the initial
// regressions need more than 1+p+q+max(1+q, p) observations.
func Fit(series []float64, p, q int) (*Model, error) {
	if p < 0 || q < 0 {
		return nil, fmt.Errorf("ARMA(%d, %d): %w", p, q, ErrInvalidOrder)
	}
	n := len(series)
	if n <= p+q+1 {
		return nil, fmt.Errorf("ARMA(%d, %d) needs more than %d observations, got %d: %w", p, q, p+q+1, n, ErrInsufficientData)
	}
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("series value %d is not finite", i)
		}
	}

	if p+q > 0 && floats.Max(series) == floats.Min(series) {
		return nil, fmt.Errorf("ARMA(%d, %d) on a constant series: %w", p, q, ErrDegenerateSeries)
	}

	x := slices.Clone(series)

	var params []float64
	var err error
	if q == 0 {
		params, err = fitAR(x, p)
	} else {
		params, err = hannanRissanen(x, p, q)
		if err == nil {
			params = refineCSS(x, p, q, params)
		}
	}
	if err != nil {
		return nil, err
	}

	m := &Model{
		Const:  params[0],
		AR:     slices.Clone(params[1 : 1+p]),
		MA:     slices.Clone(params[1+p : 1+p+q]),
		series: x,
	}

	var sse float64
	m.residuals, sse = residuals(x, m.Const, m.AR, m.MA)
	effective := float64(n - p)
	m.Sigma2 = sse / effective
	if m.Sigma2 > 0 {
		m.LogLikelihood = -effective / 2 * (math.Log(2*math.Pi*m.Sigma2) + 1)
	}

	return m, nil
}

// residuals runs the innovation recursion and returns the residual series
// (zero before index p) and the sum of squares from p onward.
func residuals(x []float64, c float64, ar, ma []float64) ([]float64, float64) {
	p := len(ar)
	e := make([]float64, len(x))
	var sse float64
	for t := p; t < len(x); t++ {
		pred := c
		for i, phi := range ar {
			pred += phi * x[t-1-i]
		}
		for j, theta := range ma {
			if t-1-j >= 0 {
				pred += theta * e[t-1-j]
			}
		}
		e[t] = x[t] - pred
		sse += e[t] * e[t]
	}
	return e, sse
}

// fitAR regresses x[t] on a constant and p lags.
func fitAR(x []float64, p int) ([]float64, error) {
	rows := len(x) - p
	design := mat.NewDense(rows, p+1, nil)
	y := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		t := r + p
		design.Set(r, 0, 1)
		for i := 0; i < p; i++ {
			design.Set(r, 1+i, x[t-1-i])
		}
		y.SetVec(r, x[t])
	}
	return solveOLS(design, y)
}

// hannanRissanen estimates residuals from a long autoregression, then
// regresses x[t] on a constant, p lags of x and q lags of those residuals.
func hannanRissanen(x []float64, p, q int) ([]float64, error) {
	n := len(x)
	cols := 1 + p + q

	// shrink the long autoregression until both regressions fit
	long := max(p+q, min(10, n/4))
	start := 0
	for ; long > 0; long-- {
		start = max(long+q, p)
		if n-long > long+1 && n-start > cols {
			break
		}
	}
	if long < 1 {
		return nil, fmt.Errorf("series of %d observations too short for ARMA(%d, %d): %w", n, p, q, ErrInsufficientData)
	}

	longParams, err := fitAR(x, long)
	if err != nil {
		return nil, err
	}
	e, _ := residuals(x, longParams[0], longParams[1:], nil)

	rows := n - start
	design := mat.NewDense(rows, cols, nil)
	y := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		t := r + start
		design.Set(r, 0, 1)
		for i := 0; i < p; i++ {
			design.Set(r, 1+i, x[t-1-i])
		}
		for j := 0; j < q; j++ {
			design.Set(r, 1+p+j, e[t-1-j])
		}
		y.SetVec(r, x[t])
	}
	return solveOLS(design, y)
}

func solveOLS(design *mat.Dense, y *mat.VecDense) ([]float64, error) {
	_, cols := design.Dims()
	var beta mat.VecDense
	if err := beta.SolveVec(design, y); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return nil, fmt.Errorf("least squares: %w: %w", ErrDegenerateSeries, err)
		}
		return nil, fmt.Errorf("least squares: %w", err)
	}
	out := make([]float64, cols)
	for i := range out {
		out[i] = beta.AtVec(i)
	}
	return out, nil
}

// refineCSS minimises the conditional sum of squares starting from init.
// init is kept when the optimiser fails or does not improve on it.
func refineCSS(x []float64, p, q int, init []float64) []float64 {
	css := func(params []float64) float64 {
		for _, theta := range params[1+p:] {
			if math.Abs(theta) >= 1 {
				return math.MaxFloat64
			}
		}
		_, sse := residuals(x, params[0], params[1:1+p], params[1+p:])
		if math.IsNaN(sse) || math.IsInf(sse, 0) {
			return math.MaxFloat64
		}
		return sse
	}

	// shrink MA terms into the invertible region before starting
	start := slices.Clone(init)
	for j := 1 + p; j < len(start); j++ {
		start[j] = math.Max(-0.95, math.Min(0.95, start[j]))
	}

	problem := optimize.Problem{Func: css}
	settings := &optimize.Settings{
		MajorIterations: 5000,
		FuncEvaluations: 20000,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Relative:   1e-12,
			Iterations: 200,
		},
	}

	best := start
	bestF := css(start)
	result, err := optimize.Minimize(problem, start, settings, &optimize.NelderMead{})
	if err == nil && result != nil && result.F < bestF {
		best = result.X
	}
	return slices.Clone(best)
}

// Predict returns in-sample one-step-ahead predictions, one per
// observation. The first p values have no full lag history and are set to
// the model mean.
func (m *Model) Predict() []float64 {
	p := len(m.AR)
	out := make([]float64, len(m.series))
	mean := m.Mean()
	for t := range out {
		if t < p {
			out[t] = mean
			continue
		}
		out[t] = m.series[t] - m.residuals[t]
	}
	return out
}

// Forecast returns mean forecasts for the next steps periods. Future
// innovations are zero.
func (m *Model) Forecast(steps int) ([]float64, error) {
	if steps < 1 {
		return nil, fmt.Errorf("steps must be >= 1, got %d", steps)
	}
	n := len(m.series)
	x := make([]float64, n+steps)
	copy(x, m.series)
	e := make([]float64, n+steps)
	copy(e, m.residuals)

	for t := n; t < n+steps; t++ {
		v := m.Const
		for i, phi := range m.AR {
			if t-1-i >= 0 {
				v += phi * x[t-1-i]
			}
		}
		for j, theta := range m.MA {
			if t-1-j >= 0 {
				v += theta * e[t-1-j]
			}
		}
		x[t] = v
	}
	return x[n:], nil
}
