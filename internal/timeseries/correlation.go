package timeseries

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ACF returns the sample autocorrelation of x for lags 0..nlags.
func ACF(x []float64, nlags int) ([]float64, error) {
	n := len(x)
	if nlags < 0 || nlags >= n {
		return nil, fmt.Errorf("nlags %d out of range for %d observations: %w", nlags, n, ErrInsufficientData)
	}
	if hasNaN(x) {
		return nil, fmt.Errorf("acf: series contains NaN")
	}

	mean := stat.Mean(x, nil)
	d := make([]float64, n)
	copy(d, x)
	floats.AddConst(-mean, d)

	denom := floats.Dot(d, d)
	acf := make([]float64, nlags+1)
	if denom == 0 {
		acf[0] = 1
		return acf, nil
	}
	for k := 0; k <= nlags; k++ {
		acf[k] = floats.Dot(d[k:], d[:n-k]) / denom
	}
	return acf, nil
}

// PACF returns the partial autocorrelation of x for lags 0..nlags, solved
// from the sample autocorrelations with the Durbin-Levinson recursion.
func PACF(x []float64, nlags int) ([]float64, error) {
	acf, err := ACF(x, nlags)
	if err != nil {
		return nil, err
	}

	pacf := make([]float64, nlags+1)
	pacf[0] = 1
	if nlags == 0 {
		return pacf, nil
	}

	phi := make([]float64, nlags+1)
	prev := make([]float64, nlags+1)
	v := 1.0
	for k := 1; k <= nlags; k++ {
		num := acf[k]
		for j := 1; j < k; j++ {
			num -= prev[j] * acf[k-j]
		}
		if v == 0 {
			break
		}
		phi[k] = num / v
		for j := 1; j < k; j++ {
			phi[j] = prev[j] - phi[k]*prev[k-j]
		}
		v *= 1 - phi[k]*phi[k]
		pacf[k] = phi[k]
		copy(prev, phi)
	}
	return pacf, nil
}
