// Package chart renders forecast results as images.
package chart

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/pricecast/internal/models"
)

// DefaultPlotPoints is the number of trailing rows drawn when neither the
// caller nor the result sets one.
const DefaultPlotPoints = 200

// forecastLines holds the plotted series on a shared row-index x axis.
// History rows sit at x = 0..n-1. The connector joins the last prediction
// at x = n-1 to the first forecast at x = n, and forecast step k sits at
// x = n+k-1.
type forecastLines struct {
	Title string

	HistoryX   []float64
	Close      []float64
	Prediction []float64

	ConnectorX []float64
	Connector  []float64

	ForecastX []float64
	Forecast  []float64
}

func buildLines(result *models.ForecastResult, plotPoints int) (*forecastLines, error) {
	if result == nil || len(result.Rows) == 0 {
		return nil, fmt.Errorf("result has no rows to plot")
	}
	if plotPoints <= 0 {
		plotPoints = result.Params.PlotPoints
	}
	if plotPoints <= 0 {
		plotPoints = DefaultPlotPoints
	}

	rows := result.Rows
	if len(rows) > plotPoints {
		rows = rows[len(rows)-plotPoints:]
	}
	n := len(rows)

	lines := &forecastLines{
		Title:      strings.ToUpper(result.Symbol) + " Forecasted Price",
		HistoryX:   make([]float64, n),
		Close:      make([]float64, n),
		Prediction: make([]float64, n),
	}
	for i, row := range rows {
		lines.HistoryX[i] = float64(i)
		lines.Close[i] = row.Close
		lines.Prediction[i] = row.Prediction
	}

	if len(result.Forecast) > 0 {
		lines.ConnectorX = []float64{float64(n - 1), float64(n)}
		lines.Connector = []float64{lines.Prediction[n-1], result.Forecast[0].Price}

		lines.ForecastX = make([]float64, len(result.Forecast))
		lines.Forecast = make([]float64, len(result.Forecast))
		for i, p := range result.Forecast {
			lines.ForecastX[i] = float64(n + i)
			lines.Forecast[i] = p.Price
		}
	}
	return lines, nil
}
