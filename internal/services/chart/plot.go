package chart

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/bobmcallan/pricecast/internal/models"
)

// RenderForecastPlot renders the forecast chart with gonum/plot in a vector
// format ("svg" or "pdf").
func RenderForecastPlot(result *models.ForecastResult, plotPoints int, format string) ([]byte, error) {
	if format != FormatSVG && format != FormatPDF {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	lines, err := buildLines(result, plotPoints)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = lines.Title
	p.X.Label.Text = "Row"
	p.Y.Label.Text = "Price"

	closeLine, err := plotter.NewLine(toXYs(lines.HistoryX, lines.Close))
	if err != nil {
		return nil, err
	}
	closeLine.Color = color.RGBA{R: 0x25, G: 0x63, B: 0xeb, A: 255}
	closeLine.Width = vg.Points(1.5)

	predLine, err := plotter.NewLine(toXYs(lines.HistoryX, lines.Prediction))
	if err != nil {
		return nil, err
	}
	predLine.Color = color.RGBA{R: 0xdc, G: 0x26, B: 0x26, A: 255}

	p.Add(closeLine, predLine)
	p.Legend.Add("Close", closeLine)
	p.Legend.Add("Prediction", predLine)

	if len(lines.Forecast) > 0 {
		green := color.RGBA{R: 0x16, G: 0xa3, B: 0x4a, A: 255}

		connector, err := plotter.NewLine(toXYs(lines.ConnectorX, lines.Connector))
		if err != nil {
			return nil, err
		}
		connector.Color = green

		forecastLine, points, err := plotter.NewLinePoints(toXYs(lines.ForecastX, lines.Forecast))
		if err != nil {
			return nil, err
		}
		forecastLine.Color = green
		points.Color = green

		p.Add(connector, forecastLine, points)
		p.Legend.Add("Forecast", forecastLine)
	}
	p.Legend.Top = true
	p.Legend.Left = true

	w, err := p.WriterTo(12*vg.Inch, 8*vg.Inch, format)
	if err != nil {
		return nil, fmt.Errorf("plot render failed: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("plot render failed: %w", err)
	}
	return buf.Bytes(), nil
}

func toXYs(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts
}
