package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bobmcallan/pricecast/internal/arma"
	"github.com/bobmcallan/pricecast/internal/clients/eodhd"
	"github.com/bobmcallan/pricecast/internal/clients/tdameritrade"
	"github.com/bobmcallan/pricecast/internal/models"
	"github.com/bobmcallan/pricecast/internal/services/chart"
	"github.com/bobmcallan/pricecast/internal/timeseries"
)

const forecastPrefix = "/api/forecast/"

// routeForecast dispatches /api/forecast/{symbol} and
// /api/forecast/{symbol}/chart.{png,svg,pdf}.
func (s *Server) routeForecast(w http.ResponseWriter, r *http.Request) {
	symbol := PathParam(r, forecastPrefix, "")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	rest := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, forecastPrefix+symbol), "/")
	switch {
	case rest == "":
		s.handleForecast(w, r, symbol)
	case strings.HasPrefix(rest, "chart.") && !strings.Contains(rest, "/"):
		s.handleForecastChart(w, r, symbol, strings.TrimPrefix(rest, "chart."))
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// handleForecast handles GET /api/forecast/{symbol}.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request, symbol string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	params, err := s.analysisParams(r)
	if err != nil {
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "invalid_params")
		return
	}

	result, err := s.app.ForecastService.Run(r.Context(), symbol, params)
	if err != nil {
		s.writeForecastError(w, symbol, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// handleForecastChart handles GET /api/forecast/{symbol}/chart.{format}.
func (s *Server) handleForecastChart(w http.ResponseWriter, r *http.Request, symbol, format string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	f, err := chart.ParseFormat(format)
	if err != nil {
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "unsupported_format")
		return
	}

	params, err := s.analysisParams(r)
	if err != nil {
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "invalid_params")
		return
	}

	result, err := s.app.ForecastService.Run(r.Context(), symbol, params)
	if err != nil {
		s.writeForecastError(w, symbol, err)
		return
	}

	data, contentType, err := s.app.ChartRenderer.Render(result, f)
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("Chart render failed")
		WriteError(w, http.StatusInternalServerError, "Chart render failed")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// analysisParams starts from the configured settings and applies the lag,
// window, p, q, steps and points query parameters.
func (s *Server) analysisParams(r *http.Request) (models.AnalysisParams, error) {
	params := s.app.AnalysisParams()
	q := r.URL.Query()

	fields := []struct {
		name string
		dest *int
	}{
		{"lag", &params.Lag},
		{"window", &params.Window},
		{"p", &params.AROrder},
		{"q", &params.MAOrder},
		{"steps", &params.Steps},
		{"points", &params.PlotPoints},
	}
	for _, f := range fields {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return params, fmt.Errorf("%s must be an integer, got %q", f.name, raw)
		}
		*f.dest = v
	}

	if err := params.Validate(); err != nil {
		return params, err
	}
	return params, nil
}

// writeForecastError maps pipeline errors to HTTP status codes.
func (s *Server) writeForecastError(w http.ResponseWriter, symbol string, err error) {
	var tdaErr *tdameritrade.APIError
	var eodErr *eodhd.APIError

	status, code := http.StatusInternalServerError, "forecast_failed"
	switch {
	case errors.Is(err, models.ErrEmptyHistory):
		status, code = http.StatusNotFound, "no_history"
	case errors.Is(err, timeseries.ErrInsufficientData), errors.Is(err, arma.ErrInsufficientData):
		status, code = http.StatusUnprocessableEntity, "insufficient_data"
	case errors.Is(err, arma.ErrDegenerateSeries):
		status, code = http.StatusUnprocessableEntity, "degenerate_series"
	case errors.As(err, &tdaErr), errors.As(err, &eodErr):
		status, code = http.StatusBadGateway, "upstream_error"
	}

	event := s.logger.Warn()
	if status >= 500 {
		event = s.logger.Error()
	}
	event.Err(err).Str("symbol", symbol).Int("status", status).Msg("Forecast failed")

	WriteErrorWithCode(w, status, err.Error(), code)
}
