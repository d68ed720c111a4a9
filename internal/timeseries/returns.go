package timeseries

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ReturnColumn is the name of the log return column.
const ReturnColumn = "return"

// ErrInsufficientData is returned when a transform needs more rows than the
// frame has.
var ErrInsufficientData = errors.New("insufficient data")

// PrevCloseColumn names the lagged close column, e.g. "1-day prevClose".
func PrevCloseColumn(lag int) string {
	return fmt.Sprintf("%d-day prevClose", lag)
}

// SMAColumn names the rolling mean column, e.g. "sma20".
func SMAColumn(length int) string {
	return fmt.Sprintf("sma%d", length)
}

// StdColumn names the rolling standard deviation column, e.g. "std20".
func StdColumn(length int) string {
	return fmt.Sprintf("std%d", length)
}

// CalcReturn adds the close lagged by lag rows and the log return computed
// as the first difference of the log of that lagged close. The first lag
// rows of the lagged close and the first lag+1 rows of the return are NaN.
func CalcReturn(f *Frame, lag int) error {
	if lag < 1 {
		return fmt.Errorf("lag must be >= 1, got %d", lag)
	}
	closes, ok := f.Column(CloseColumn)
	if !ok {
		return fmt.Errorf("frame has no %s column", CloseColumn)
	}
	if len(closes) <= lag {
		return fmt.Errorf("lag %d needs more than %d rows: %w", lag, len(closes), ErrInsufficientData)
	}

	prev := Shift(closes, lag)
	if err := f.Set(PrevCloseColumn(lag), prev); err != nil {
		return err
	}
	return f.Set(ReturnColumn, LogDiff(prev))
}

// LogDiff returns log(x[i]) - log(x[i-1]), NaN where either side is NaN or
// non-positive and for the first element.
func LogDiff(x []float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		if i == 0 || !(x[i] > 0) || !(x[i-1] > 0) {
			out[i] = math.NaN()
			continue
		}
		out[i] = math.Log(x[i]) - math.Log(x[i-1])
	}
	return out
}

// MeanStd adds the rolling mean and rolling sample standard deviation of the
// return column over windows of length rows, then drops every row with a
// NaN. It returns the number of rows dropped.
func MeanStd(f *Frame, length int) (int, error) {
	if length < 2 {
		return 0, fmt.Errorf("window length must be >= 2, got %d", length)
	}
	returns, ok := f.Column(ReturnColumn)
	if !ok {
		return 0, fmt.Errorf("frame has no %s column", ReturnColumn)
	}

	mean, std := Rolling(returns, length)
	if err := f.Set(SMAColumn(length), mean); err != nil {
		return 0, err
	}
	if err := f.Set(StdColumn(length), std); err != nil {
		return 0, err
	}

	dropped := f.DropNaN()
	if f.Len() == 0 {
		return dropped, fmt.Errorf("no rows left after a %d row window: %w", length, ErrInsufficientData)
	}
	return dropped, nil
}

// Rolling returns the mean and sample standard deviation of each trailing
// window of length values. A window is NaN until it is full or while it
// contains a NaN.
func Rolling(x []float64, length int) (mean, std []float64) {
	mean = make([]float64, len(x))
	std = make([]float64, len(x))
	for i := range x {
		if i+1 < length || hasNaN(x[i+1-length:i+1]) {
			mean[i] = math.NaN()
			std[i] = math.NaN()
			continue
		}
		mean[i], std[i] = stat.MeanStdDev(x[i+1-length:i+1], nil)
	}
	return mean, std
}

func hasNaN(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
