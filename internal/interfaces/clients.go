// Package interfaces defines service contracts for pricecast
package interfaces

import (
	"context"

	"github.com/bobmcallan/pricecast/internal/models"
)

// HistoryClient provides access to a market-data price history API
type HistoryClient interface {
	// GetPriceHistory retrieves candles for a symbol, oldest first
	GetPriceHistory(ctx context.Context, symbol string, opts ...HistoryOption) (*models.PriceHistory, error)
}

// HistoryOption configures price history requests
type HistoryOption func(*models.HistoryParams)

// WithPeriod sets the period type and number of periods
func WithPeriod(periodType string, periods int) HistoryOption {
	return func(p *models.HistoryParams) {
		p.PeriodType = periodType
		p.Periods = periods
	}
}

// WithFrequency sets the frequency type and frequency
func WithFrequency(frequencyType string, frequency int) HistoryOption {
	return func(p *models.HistoryParams) {
		p.FrequencyType = frequencyType
		p.Frequency = frequency
	}
}

// WithHistoryParams replaces all request parameters
func WithHistoryParams(params models.HistoryParams) HistoryOption {
	return func(p *models.HistoryParams) {
		*p = params
	}
}

// ApplyHistoryOptions returns the default parameters with opts applied.
func ApplyHistoryOptions(opts ...HistoryOption) models.HistoryParams {
	params := models.DefaultHistoryParams()
	for _, opt := range opts {
		opt(&params)
	}
	return params
}
