// Package models defines data structures for pricecast
package models

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrEmptyHistory is returned when a provider has no candles for a symbol.
var ErrEmptyHistory = errors.New("empty price history")

// Candle represents a single price bar
type Candle struct {
	Datetime time.Time `json:"datetime"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   int64     `json:"volume"`
}

// PriceHistory holds candles for a symbol, oldest first
type PriceHistory struct {
	Symbol  string   `json:"symbol"`
	Source  string   `json:"source"`
	Candles []Candle `json:"candles"`
}

// Closes returns the close prices in candle order.
func (h *PriceHistory) Closes() []float64 {
	out := make([]float64, len(h.Candles))
	for i, c := range h.Candles {
		out[i] = c.Close
	}
	return out
}

// Period and frequency types understood by the price history endpoint.
const (
	PeriodDay   = "day"
	PeriodMonth = "month"
	PeriodYear  = "year"
	PeriodYTD   = "ytd"

	FrequencyMinute  = "minute"
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

var validPeriods = map[string][]int{
	PeriodDay:   {1, 2, 3, 4, 5, 10},
	PeriodMonth: {1, 2, 3, 6},
	PeriodYear:  {1, 2, 3, 5, 10, 15, 20},
	PeriodYTD:   {1},
}

var validFrequencyTypes = map[string][]string{
	PeriodDay:   {FrequencyMinute},
	PeriodMonth: {FrequencyDaily, FrequencyWeekly},
	PeriodYear:  {FrequencyDaily, FrequencyWeekly, FrequencyMonthly},
	PeriodYTD:   {FrequencyDaily, FrequencyWeekly},
}

var validFrequencies = map[string][]int{
	FrequencyMinute:  {1, 5, 10, 15, 30},
	FrequencyDaily:   {1},
	FrequencyWeekly:  {1},
	FrequencyMonthly: {1},
}

// HistoryParams describes a price history request.
// A 2 day / 1 minute chart is PeriodType "day", Periods 2,
// FrequencyType "minute", Frequency 1.
type HistoryParams struct {
	PeriodType    string `json:"period_type"`
	Periods       int    `json:"periods"`
	FrequencyType string `json:"frequency_type"`
	Frequency     int    `json:"frequency"`
}

// DefaultHistoryParams returns 20 years of daily candles.
func DefaultHistoryParams() HistoryParams {
	return HistoryParams{
		PeriodType:    PeriodYear,
		Periods:       20,
		FrequencyType: FrequencyDaily,
		Frequency:     1,
	}
}

// Validate checks the combination against the periods, frequency types and
// frequencies the endpoint accepts.
func (p HistoryParams) Validate() error {
	periods, ok := validPeriods[p.PeriodType]
	if !ok {
		return fmt.Errorf("invalid period type %q", p.PeriodType)
	}
	if !slices.Contains(periods, p.Periods) {
		return fmt.Errorf("invalid period %d for period type %s: valid values are %v", p.Periods, p.PeriodType, periods)
	}
	if !slices.Contains(validFrequencyTypes[p.PeriodType], p.FrequencyType) {
		return fmt.Errorf("invalid frequency type %q for period type %s: valid values are %v",
			p.FrequencyType, p.PeriodType, validFrequencyTypes[p.PeriodType])
	}
	if !slices.Contains(validFrequencies[p.FrequencyType], p.Frequency) {
		return fmt.Errorf("invalid frequency %d for frequency type %s: valid values are %v",
			p.Frequency, p.FrequencyType, validFrequencies[p.FrequencyType])
	}
	return nil
}

// Start returns the first date covered by the request when it ends at now.
// Used by providers that take a date range instead of a period.
func (p HistoryParams) Start(now time.Time) time.Time {
	switch p.PeriodType {
	case PeriodDay:
		return now.AddDate(0, 0, -p.Periods)
	case PeriodMonth:
		return now.AddDate(0, -p.Periods, 0)
	case PeriodYTD:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	default:
		return now.AddDate(-p.Periods, 0, 0)
	}
}

// Step returns the time after t at which the next candle opens.
// Daily candles skip weekends.
func (p HistoryParams) Step(t time.Time) time.Time {
	n := max(p.Frequency, 1)
	switch p.FrequencyType {
	case FrequencyMinute:
		return t.Add(time.Duration(n) * time.Minute)
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7*n)
	case FrequencyMonthly:
		return t.AddDate(0, n, 0)
	default:
		next := t.AddDate(0, 0, 1)
		for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
			next = next.AddDate(0, 0, 1)
		}
		return next
	}
}
