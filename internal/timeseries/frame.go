// Package timeseries provides a small column-oriented frame and the
// vectorised transforms used before model fitting.
package timeseries

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/bobmcallan/pricecast/internal/models"
)

// CloseColumn is the name of the close price column.
const CloseColumn = "close"

// Frame is a datetime indexed table of float64 columns.
// Missing values are NaN.
type Frame struct {
	index   []time.Time
	columns map[string][]float64
	order   []string
}

// NewFrame creates an empty frame over index.
func NewFrame(index []time.Time) *Frame {
	return &Frame{
		index:   slices.Clone(index),
		columns: make(map[string][]float64),
	}
}

// FromHistory builds a frame with a single close column indexed by candle
// datetime. Open, high, low and volume are not carried over.
func FromHistory(h *models.PriceHistory) (*Frame, error) {
	if h == nil || len(h.Candles) == 0 {
		return nil, models.ErrEmptyHistory
	}

	index := make([]time.Time, len(h.Candles))
	for i, c := range h.Candles {
		index[i] = c.Datetime
	}

	f := NewFrame(index)
	if err := f.Set(CloseColumn, h.Closes()); err != nil {
		return nil, err
	}
	return f, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.index)
}

// Index returns the row datetimes.
func (f *Frame) Index() []time.Time {
	return f.index
}

// Columns returns column names in insertion order.
func (f *Frame) Columns() []string {
	return slices.Clone(f.order)
}

// Column returns the named column.
func (f *Frame) Column(name string) ([]float64, bool) {
	col, ok := f.columns[name]
	return col, ok
}

// MustColumn returns the named column or panics.
func (f *Frame) MustColumn(name string) []float64 {
	col, ok := f.columns[name]
	if !ok {
		panic(fmt.Sprintf("timeseries: no column %q", name))
	}
	return col
}

// Set adds or replaces a column. values must have one entry per row.
func (f *Frame) Set(name string, values []float64) error {
	if len(values) != len(f.index) {
		return fmt.Errorf("column %q has %d values, frame has %d rows", name, len(values), len(f.index))
	}
	if _, exists := f.columns[name]; !exists {
		f.order = append(f.order, name)
	}
	f.columns[name] = values
	return nil
}

// DropNaN removes every row that has a NaN in any column and returns the
// number of rows removed.
func (f *Frame) DropNaN() int {
	keep := make([]bool, len(f.index))
	kept := 0
	for i := range f.index {
		keep[i] = true
		for _, name := range f.order {
			if math.IsNaN(f.columns[name][i]) {
				keep[i] = false
				break
			}
		}
		if keep[i] {
			kept++
		}
	}

	dropped := len(f.index) - kept
	if dropped == 0 {
		return 0
	}

	index := make([]time.Time, 0, kept)
	for i, t := range f.index {
		if keep[i] {
			index = append(index, t)
		}
	}
	for _, name := range f.order {
		col := f.columns[name]
		out := make([]float64, 0, kept)
		for i, v := range col {
			if keep[i] {
				out = append(out, v)
			}
		}
		f.columns[name] = out
	}
	f.index = index
	return dropped
}

// Tail returns a frame holding the last n rows. Columns share no storage
// with f.
func (f *Frame) Tail(n int) *Frame {
	start := max(len(f.index)-n, 0)
	out := NewFrame(f.index[start:])
	for _, name := range f.order {
		out.order = append(out.order, name)
		out.columns[name] = slices.Clone(f.columns[name][start:])
	}
	return out
}

// Shift returns values moved down by n rows, with the first n entries NaN.
func Shift(values []float64, n int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		if i < n {
			out[i] = math.NaN()
		} else {
			out[i] = values[i-n]
		}
	}
	return out
}
