package main

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/pricecast/internal/app"
	"github.com/bobmcallan/pricecast/internal/models"
)

// formatReport formats a forecast run as markdown: the last tail rows of
// the frame, the model summary, the forecast and the written files.
func formatReport(report *app.Report, tail int) string {
	r := report.Result
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s Forecast\n\n", r.Symbol))
	sb.WriteString(fmt.Sprintf("**Source:** %s\n", r.Source))
	sb.WriteString(fmt.Sprintf("**Generated:** %s\n", r.GeneratedAt.Format("2006-01-02 15:04")))
	sb.WriteString(fmt.Sprintf("**Last Close:** %.2f\n\n", r.LastClose()))

	sb.WriteString(formatFrameTail(r, tail))
	sb.WriteString(formatModel(r.Model))
	sb.WriteString(formatForecastPoints(r.Forecast))

	sb.WriteString("## Output\n\n")
	for _, kv := range [][2]string{
		{"Chart", report.ChartPath},
		{"ACF", report.ACFPath},
		{"PACF", report.PACFPath},
		{"Result", report.ResultPath},
	} {
		if kv[1] != "" {
			sb.WriteString(fmt.Sprintf("- **%s:** %s\n", kv[0], kv[1]))
		}
	}
	return sb.String()
}

func formatFrameTail(r *models.ForecastResult, tail int) string {
	rows := r.Rows
	if tail > 0 && len(rows) > tail {
		rows = rows[len(rows)-tail:]
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Last %d Rows\n\n", len(rows)))
	sb.WriteString(fmt.Sprintf("| Date | Close | %d-day Prev Close | Return | SMA%d | Std%d | Fitted | Prediction |\n",
		r.Params.Lag, r.Params.Window, r.Params.Window))
	sb.WriteString("|------|-------|-----------------|--------|------|------|--------|------------|\n")
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %.6f | %.6f | %.6f | %.6f | %.2f |\n",
			row.Datetime.Format("2006-01-02"),
			row.Close,
			row.PrevClose,
			row.Return,
			row.SMA,
			row.Std,
			row.Fitted,
			row.Prediction,
		))
	}
	sb.WriteString("\n")
	return sb.String()
}

func formatModel(m models.ModelSummary) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## ARMA(%d, %d)\n\n", m.AROrder, m.MAOrder))
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| const | %.6f |\n", m.Const))
	for i, v := range m.AR {
		sb.WriteString(fmt.Sprintf("| ar.L%d | %.6f |\n", i+1, v))
	}
	for i, v := range m.MA {
		sb.WriteString(fmt.Sprintf("| ma.L%d | %.6f |\n", i+1, v))
	}
	sb.WriteString(fmt.Sprintf("| sigma2 | %.8f |\n", m.Sigma2))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("**Observations:** %d  **Log Likelihood:** %.3f  **AIC:** %.3f\n\n", m.NObs, m.LogLikelihood, m.AIC))
	return sb.String()
}

func formatForecastPoints(points []models.ForecastPoint) string {
	var sb strings.Builder
	sb.WriteString("## Forecast\n\n")
	sb.WriteString("| Step | Date | Return | Price |\n")
	sb.WriteString("|------|------|--------|-------|\n")
	for _, p := range points {
		sb.WriteString(fmt.Sprintf("| %d | %s | %+.6f | %.2f |\n",
			p.Step, p.Datetime.Format("2006-01-02"), p.Return, p.Price))
	}
	sb.WriteString("\n")
	return sb.String()
}
