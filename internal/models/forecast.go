package models

import (
	"fmt"
	"time"
)

// Upper bounds on the forecast horizon and chart length.
const (
	MaxSteps      = 365
	MaxPlotPoints = 10000
)

// AnalysisParams holds the transform and model settings for one run
type AnalysisParams struct {
	Lag        int `json:"lag"`         // rows between close and previous close
	Window     int `json:"window"`      // rolling window length
	AROrder    int `json:"ar_order"`    // p
	MAOrder    int `json:"ma_order"`    // q
	Steps      int `json:"steps"`       // forecast horizon
	PlotPoints int `json:"plot_points"` // rows shown on the chart
}

// Validate rejects settings the pipeline cannot run with.
func (p AnalysisParams) Validate() error {
	if p.Lag < 1 {
		return fmt.Errorf("lag must be >= 1, got %d", p.Lag)
	}
	if p.Window < 2 {
		return fmt.Errorf("window must be >= 2, got %d", p.Window)
	}
	if p.AROrder < 0 || p.MAOrder < 0 {
		return fmt.Errorf("model order must be non-negative, got (%d, %d)", p.AROrder, p.MAOrder)
	}
	if p.Steps < 1 || p.Steps > MaxSteps {
		return fmt.Errorf("steps must be between 1 and %d, got %d", MaxSteps, p.Steps)
	}
	if p.PlotPoints < 0 || p.PlotPoints > MaxPlotPoints {
		return fmt.Errorf("plot points must be between 0 and %d, got %d", MaxPlotPoints, p.PlotPoints)
	}
	return nil
}

// FrameRow is one row of the derived time series
type FrameRow struct {
	Datetime   time.Time `json:"datetime"`
	Close      float64   `json:"close"`
	PrevClose  float64   `json:"prev_close"`
	Return     float64   `json:"return"`
	SMA        float64   `json:"sma"`
	Std        float64   `json:"std"`
	Fitted     float64   `json:"fitted_return"`
	Prediction float64   `json:"prediction"`
}

// ModelSummary describes a fitted ARMA model
type ModelSummary struct {
	AROrder       int       `json:"ar_order"`
	MAOrder       int       `json:"ma_order"`
	Const         float64   `json:"const"`
	AR            []float64 `json:"ar"`
	MA            []float64 `json:"ma"`
	Sigma2        float64   `json:"sigma2"`
	LogLikelihood float64   `json:"log_likelihood"`
	AIC           float64   `json:"aic"`
	NObs          int       `json:"nobs"`
}

// ForecastPoint is one step of the price forecast
type ForecastPoint struct {
	Step     int       `json:"step"`
	Datetime time.Time `json:"datetime"`
	Return   float64   `json:"return"`
	Price    float64   `json:"price"`
}

// ForecastResult is the output of one pipeline run
type ForecastResult struct {
	Symbol      string          `json:"symbol"`
	Source      string          `json:"source"`
	GeneratedAt time.Time       `json:"generated_at"`
	History     HistoryParams   `json:"history"`
	Params      AnalysisParams  `json:"params"`
	Rows        []FrameRow      `json:"rows"`
	Model       ModelSummary    `json:"model"`
	Forecast    []ForecastPoint `json:"forecast"`
	ACF         []float64       `json:"acf"`
	PACF        []float64       `json:"pacf"`
}

// LastClose returns the most recent close in the result.
func (r *ForecastResult) LastClose() float64 {
	if len(r.Rows) == 0 {
		return 0
	}
	return r.Rows[len(r.Rows)-1].Close
}
