// Package common provides shared test infrastructure
package common

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/bobmcallan/pricecast/internal/interfaces"
	"github.com/bobmcallan/pricecast/internal/models"
)

// MockHistoryClient implements HistoryClient for testing
type MockHistoryClient struct {
	History    map[string]*models.PriceHistory
	Err        error
	Calls      int
	LastSymbol string
	LastParams models.HistoryParams
}

// NewMockHistoryClient creates a mock history client
func NewMockHistoryClient() *MockHistoryClient {
	return &MockHistoryClient{
		History: make(map[string]*models.PriceHistory),
	}
}

func (m *MockHistoryClient) GetPriceHistory(ctx context.Context, symbol string, opts ...interfaces.HistoryOption) (*models.PriceHistory, error) {
	m.Calls++
	m.LastSymbol = symbol
	m.LastParams = interfaces.ApplyHistoryOptions(opts...)
	if m.Err != nil {
		return nil, m.Err
	}
	if h, ok := m.History[symbol]; ok {
		return h, nil
	}
	return &models.PriceHistory{
		Symbol:  symbol,
		Source:  "mock",
		Candles: GenerateCandles(1, 500, 100),
	}, nil
}

// GenerateCandles creates n weekday candles as a seeded geometric random
// walk starting at price, oldest first.
func GenerateCandles(seed int64, n int, price float64) []models.Candle {
	rng := rand.New(rand.NewSource(seed))
	candles := make([]models.Candle, n)
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		if i > 0 {
			price *= math.Exp(0.0004 + 0.015*rng.NormFloat64())
			date = date.AddDate(0, 0, 1)
			for date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
				date = date.AddDate(0, 0, 1)
			}
		}
		candles[i] = models.Candle{
			Datetime: date,
			Open:     price * 0.995,
			High:     price * 1.01,
			Low:      price * 0.99,
			Close:    price,
			Volume:   1000000 + int64(i*1000),
		}
	}
	return candles
}
