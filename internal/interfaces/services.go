package interfaces

import (
	"context"

	"github.com/bobmcallan/pricecast/internal/models"
)

// ForecastService runs the fetch, transform, fit and forecast pipeline
type ForecastService interface {
	// Run produces a forecast for symbol using the given analysis settings
	Run(ctx context.Context, symbol string, params models.AnalysisParams) (*models.ForecastResult, error)
}

// ChartRenderer draws a forecast result
type ChartRenderer interface {
	// Render returns the encoded image and its content type
	Render(result *models.ForecastResult, format string) ([]byte, string, error)
}
