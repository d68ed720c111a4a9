package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/pricecast/internal/app"
	"github.com/bobmcallan/pricecast/internal/clients/tdameritrade"
	"github.com/bobmcallan/pricecast/internal/common"
	"github.com/bobmcallan/pricecast/internal/models"
	"github.com/bobmcallan/pricecast/internal/services/chart"
	"github.com/bobmcallan/pricecast/internal/services/forecast"
	tcommon "github.com/bobmcallan/pricecast/test/common"
)

func newTestServer(t *testing.T) (*Server, *tcommon.MockHistoryClient) {
	t.Helper()
	config := common.NewDefaultConfig()
	logger := common.NewSilentLogger()
	client := tcommon.NewMockHistoryClient()

	a := &app.App{
		Config:          config,
		Logger:          logger,
		Provider:        "mock",
		HistoryClient:   client,
		ForecastService: forecast.NewService(client, models.DefaultHistoryParams(), logger),
		ChartRenderer:   chart.NewRenderer(config.Analysis.PlotPoints, logger),
		StartupTime:     time.Now(),
	}
	return NewServer(a), client
}

func doRequest(s *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doRequest(s, http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = doRequest(s, http.MethodPost, "/api/health")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "GET, HEAD", rr.Header().Get("Allow"))
}

func TestHandleVersion(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doRequest(s, http.MethodGet, "/api/version")
	require.Equal(t, http.StatusOK, rr.Code)

	var info common.VersionInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	assert.Equal(t, common.GetVersion(), info.Version)
}

func TestHandleForecast_JSON(t *testing.T) {
	s, client := newTestServer(t)

	rr := doRequest(s, http.MethodGet, "/api/forecast/goog?steps=3&window=10")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var result models.ForecastResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, "GOOG", result.Symbol)
	assert.Len(t, result.Forecast, 3)
	assert.Equal(t, 10, result.Params.Window)
	assert.Equal(t, 1, result.Params.Lag)
	assert.Len(t, result.Rows, 500-1-10)

	assert.Equal(t, "GOOG", client.LastSymbol)
}

func TestHandleForecast_InvalidParams(t *testing.T) {
	s, client := newTestServer(t)

	for _, target := range []string{
		"/api/forecast/GOOG?lag=abc",
		"/api/forecast/GOOG?lag=0",
		"/api/forecast/GOOG?window=1",
		"/api/forecast/GOOG?p=-1",
		"/api/forecast/GOOG?steps=0",
		"/api/forecast/GOOG?steps=1000000000",
		"/api/forecast/GOOG?points=-5",
		"/api/forecast/GOOG/chart.png?points=99999999",
	} {
		rr := doRequest(s, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "invalid_params", body.Code, target)
	}
	assert.Zero(t, client.Calls)
}

func TestHandleForecast_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"empty history", models.ErrEmptyHistory, http.StatusNotFound, "no_history"},
		{"upstream", &tdameritrade.APIError{StatusCode: 401, Message: "bad key"}, http.StatusBadGateway, "upstream_error"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "forecast_failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, client := newTestServer(t)
			client.Err = tt.err

			rr := doRequest(s, http.MethodGet, "/api/forecast/GOOG")
			assert.Equal(t, tt.status, rr.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestHandleForecast_InsufficientData(t *testing.T) {
	s, client := newTestServer(t)
	client.History["TINY"] = &models.PriceHistory{Symbol: "TINY", Candles: tcommon.GenerateCandles(2, 10, 50)}

	rr := doRequest(s, http.MethodGet, "/api/forecast/TINY")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestHandleForecast_FlatSeries(t *testing.T) {
	s, client := newTestServer(t)
	candles := tcommon.GenerateCandles(4, 100, 50)
	for i := range candles {
		candles[i].Close = 50
	}
	client.History["FLAT"] = &models.PriceHistory{Symbol: "FLAT", Candles: candles}

	rr := doRequest(s, http.MethodGet, "/api/forecast/FLAT?p=1&q=0")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "degenerate_series", body.Code)
}

func TestHandleForecastChart(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doRequest(s, http.MethodGet, "/api/forecast/GOOG/chart.png?points=50")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte{0x89, 'P', 'N', 'G'}))

	rr = doRequest(s, http.MethodGet, "/api/forecast/GOOG/chart.svg")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/svg+xml", rr.Header().Get("Content-Type"))
}

func TestRouteForecast_BadPaths(t *testing.T) {
	s, _ := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, doRequest(s, http.MethodGet, "/api/forecast/").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(s, http.MethodGet, "/api/forecast/GOOG/other").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(s, http.MethodGet, "/api/forecast/GOOG/chart.gif").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, doRequest(s, http.MethodDelete, "/api/forecast/GOOG").Code)
}

func TestHandleShutdown(t *testing.T) {
	s, _ := newTestServer(t)
	ch := make(chan struct{}, 1)
	s.SetShutdownChannel(ch)

	rr := doRequest(s, http.MethodPost, "/api/shutdown")
	assert.Equal(t, http.StatusOK, rr.Code)

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown was not signalled")
	}

	// a second request during the shutdown window must not block
	rr = doRequest(s, http.MethodPost, "/api/shutdown")
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = doRequest(s, http.MethodPost, "/api/shutdown")
	assert.Equal(t, http.StatusOK, rr.Code)

	assert.Eventually(t, func() bool { return len(ch) == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Len(t, ch, 1)

	s.app.Config.Environment = "production"
	rr = doRequest(s, http.MethodPost, "/api/shutdown")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
