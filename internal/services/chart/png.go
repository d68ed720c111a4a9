package chart

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/pricecast/internal/models"
)

var (
	closeColor    = drawing.ColorFromHex("2563eb") // blue-600
	predictColor  = drawing.ColorFromHex("dc2626") // red-600
	forecastColor = drawing.ColorFromHex("16a34a") // green-600
)

// RenderForecastChart renders a PNG line chart of the last plotPoints closes
// (blue), the in-sample predictions (red) and the forecast (green).
func RenderForecastChart(result *models.ForecastResult, plotPoints int) ([]byte, error) {
	lines, err := buildLines(result, plotPoints)
	if err != nil {
		return nil, err
	}
	if len(lines.HistoryX) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(lines.HistoryX))
	}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    "Close",
			Style:   chart.Style{StrokeColor: closeColor, StrokeWidth: 2},
			XValues: lines.HistoryX,
			YValues: lines.Close,
		},
		chart.ContinuousSeries{
			Name:    "Prediction",
			Style:   chart.Style{StrokeColor: predictColor, StrokeWidth: 1.5},
			XValues: lines.HistoryX,
			YValues: lines.Prediction,
		},
	}
	if len(lines.Forecast) > 0 {
		series = append(series,
			chart.ContinuousSeries{
				Style:   chart.Style{StrokeColor: forecastColor, StrokeWidth: 2},
				XValues: lines.ConnectorX,
				YValues: lines.Connector,
			},
			chart.ContinuousSeries{
				Name: "Forecast",
				Style: chart.Style{
					StrokeColor: forecastColor,
					StrokeWidth: 2,
					DotColor:    forecastColor,
					DotWidth:    3,
				},
				XValues: lines.ForecastX,
				YValues: lines.Forecast,
			},
		)
	}

	graph := chart.Chart{
		Title:  lines.Title,
		Width:  1200,
		Height: 800,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 10, Right: 20, Bottom: 10},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderCorrelogram renders values (ACF or PACF, lag 0 first) as a PNG bar
// chart.
func RenderCorrelogram(title string, values []float64) ([]byte, error) {
	if len(values) < 2 {
		return nil, fmt.Errorf("need at least 2 lags, got %d", len(values))
	}

	bars := make([]chart.Value, len(values))
	for lag, v := range values {
		color := closeColor
		if v < 0 {
			color = predictColor
		}
		bars[lag] = chart.Value{
			Label: fmt.Sprintf("%d", lag),
			Value: v,
			Style: chart.Style{FillColor: color, StrokeColor: color},
		}
	}

	graph := chart.BarChart{
		Title:  title,
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		BarWidth:     20,
		BarSpacing:   8,
		UseBaseValue: true,
		BaseValue:    0,
		Bars:         bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("correlogram render failed: %w", err)
	}
	return buf.Bytes(), nil
}
