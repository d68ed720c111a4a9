package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/pricecast/internal/models"
	"github.com/bobmcallan/pricecast/internal/timeseries"
	tcommon "github.com/bobmcallan/pricecast/test/common"
)

func defaultParams() models.AnalysisParams {
	return models.AnalysisParams{Lag: 1, Window: 20, AROrder: 1, MAOrder: 0, Steps: 2, PlotPoints: 200}
}

func newTestService(client *tcommon.MockHistoryClient) *Service {
	svc := NewService(client, models.DefaultHistoryParams(), nil)
	svc.now = func() time.Time { return time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestRun_DefaultPipeline(t *testing.T) {
	client := tcommon.NewMockHistoryClient()
	svc := newTestService(client)

	result, err := svc.Run(context.Background(), " goog ", defaultParams())
	require.NoError(t, err)

	assert.Equal(t, 1, client.Calls)
	assert.Equal(t, "GOOG", client.LastSymbol)
	assert.Equal(t, models.DefaultHistoryParams(), client.LastParams)

	assert.Equal(t, "GOOG", result.Symbol)
	assert.Equal(t, "mock", result.Source)
	// 500 candles less lag and window rows
	require.Len(t, result.Rows, 479)

	assert.Equal(t, 1, result.Model.AROrder)
	assert.Equal(t, 0, result.Model.MAOrder)
	assert.Len(t, result.Model.AR, 1)
	assert.Equal(t, 479, result.Model.NObs)
	assert.Greater(t, result.Model.Sigma2, 0.0)

	for i := 1; i < len(result.Rows); i++ {
		row := result.Rows[i]
		assert.Equal(t, result.Rows[i-1].Close, row.PrevClose)
		assert.InDelta(t, result.Rows[i-1].Close*(1+row.Fitted), row.Prediction, 1e-9)
		assert.True(t, row.Datetime.After(result.Rows[i-1].Datetime))
	}

	assert.Len(t, result.ACF, DefaultCorrelationLags+1)
	assert.Len(t, result.PACF, DefaultCorrelationLags+1)
	assert.InDelta(t, 1.0, result.ACF[0], 1e-12)
}

func TestRun_ForecastCompoundsFromLastClose(t *testing.T) {
	svc := newTestService(tcommon.NewMockHistoryClient())

	params := defaultParams()
	params.Steps = 3
	result, err := svc.Run(context.Background(), "GOOG", params)
	require.NoError(t, err)
	require.Len(t, result.Forecast, 3)

	last := result.Rows[len(result.Rows)-1]
	f := result.Forecast

	assert.InDelta(t, last.Close*(1+f[0].Return), f[0].Price, 1e-9)
	assert.InDelta(t, f[0].Price*(1+f[1].Return), f[1].Price, 1e-9)
	assert.InDelta(t, f[1].Price*(1+f[2].Return), f[2].Price, 1e-9)

	for i, p := range f {
		assert.Equal(t, i+1, p.Step)
		assert.NotEqual(t, time.Saturday, p.Datetime.Weekday())
		assert.NotEqual(t, time.Sunday, p.Datetime.Weekday())
	}
	assert.True(t, f[0].Datetime.After(last.Datetime))
}

func TestRun_LagGreaterThanOne(t *testing.T) {
	svc := newTestService(tcommon.NewMockHistoryClient())

	params := defaultParams()
	params.Lag = 2
	params.Window = 10
	result, err := svc.Run(context.Background(), "GOOG", params)
	require.NoError(t, err)

	require.Len(t, result.Rows, 500-2-10)
	for i := 2; i < len(result.Rows); i++ {
		assert.Equal(t, result.Rows[i-2].Close, result.Rows[i].PrevClose)
		assert.InDelta(t, result.Rows[i-1].Close*(1+result.Rows[i].Fitted), result.Rows[i].Prediction, 1e-9)
	}
}

func TestRun_ARMA11(t *testing.T) {
	svc := newTestService(tcommon.NewMockHistoryClient())

	params := defaultParams()
	params.MAOrder = 1
	result, err := svc.Run(context.Background(), "GOOG", params)
	require.NoError(t, err)

	assert.Len(t, result.Model.MA, 1)
	assert.Less(t, result.Model.MA[0], 1.0)
	assert.Greater(t, result.Model.MA[0], -1.0)
}

func TestRun_ClientError(t *testing.T) {
	client := tcommon.NewMockHistoryClient()
	client.Err = models.ErrEmptyHistory
	svc := newTestService(client)

	_, err := svc.Run(context.Background(), "NONE", defaultParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrEmptyHistory))
}

func TestRun_InvalidInputsSkipFetch(t *testing.T) {
	client := tcommon.NewMockHistoryClient()
	svc := newTestService(client)

	_, err := svc.Run(context.Background(), "", defaultParams())
	assert.Error(t, err)

	params := defaultParams()
	params.Lag = 0
	_, err = svc.Run(context.Background(), "GOOG", params)
	assert.Error(t, err)

	assert.Zero(t, client.Calls)
}

func TestRun_HistoryTooShort(t *testing.T) {
	client := tcommon.NewMockHistoryClient()
	client.History["TINY"] = &models.PriceHistory{
		Symbol:  "TINY",
		Candles: tcommon.GenerateCandles(3, 15, 10),
	}
	svc := newTestService(client)

	_, err := svc.Run(context.Background(), "TINY", defaultParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, timeseries.ErrInsufficientData))
}
