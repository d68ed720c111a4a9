package chart

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bobmcallan/pricecast/internal/common"
	"github.com/bobmcallan/pricecast/internal/interfaces"
	"github.com/bobmcallan/pricecast/internal/models"
)

// Output formats.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
	FormatPDF = "pdf"
)

// ErrUnsupportedFormat is returned for a format other than png, svg or pdf.
var ErrUnsupportedFormat = errors.New("unsupported chart format")

var contentTypes = map[string]string{
	FormatPNG: "image/png",
	FormatSVG: "image/svg+xml",
	FormatPDF: "application/pdf",
}

// ParseFormat normalises a format name. An empty name is png.
func ParseFormat(format string) (string, error) {
	f := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
	if f == "" {
		return FormatPNG, nil
	}
	if _, ok := contentTypes[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return f, nil
}

// Renderer implements ChartRenderer
type Renderer struct {
	plotPoints int
	logger     *common.Logger
}

var _ interfaces.ChartRenderer = (*Renderer)(nil)

// NewRenderer creates a renderer that draws the last plotPoints rows. Zero
// uses the result's own setting.
func NewRenderer(plotPoints int, logger *common.Logger) *Renderer {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Renderer{plotPoints: plotPoints, logger: logger}
}

// Render draws the forecast chart in format and returns it with its content
// type. PNG is drawn with go-chart, SVG and PDF with gonum/plot.
func (r *Renderer) Render(result *models.ForecastResult, format string) ([]byte, string, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, "", err
	}

	var data []byte
	if f == FormatPNG {
		data, err = RenderForecastChart(result, r.plotPoints)
	} else {
		data, err = RenderForecastPlot(result, r.plotPoints, f)
	}
	if err != nil {
		return nil, "", err
	}

	r.logger.Debug().Str("symbol", result.Symbol).Str("format", f).Int("bytes", len(data)).Msg("Chart rendered")
	return data, contentTypes[f], nil
}
