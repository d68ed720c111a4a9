// Package forecast runs the price history to forecast pipeline
package forecast

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/pricecast/internal/arma"
	"github.com/bobmcallan/pricecast/internal/common"
	"github.com/bobmcallan/pricecast/internal/interfaces"
	"github.com/bobmcallan/pricecast/internal/models"
	"github.com/bobmcallan/pricecast/internal/timeseries"
)

// DefaultCorrelationLags is the number of ACF/PACF lags reported.
const DefaultCorrelationLags = 20

// Service implements ForecastService
type Service struct {
	client  interfaces.HistoryClient
	history models.HistoryParams
	logger  *common.Logger
	now     func() time.Time
}

var _ interfaces.ForecastService = (*Service)(nil)

// NewService creates a new forecast service
func NewService(client interfaces.HistoryClient, history models.HistoryParams, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		client:  client,
		history: history,
		logger:  logger,
		now:     time.Now,
	}
}

// History returns the price history parameters the service requests.
func (s *Service) History() models.HistoryParams {
	return s.history
}

// Run fetches close prices for symbol, derives the lagged log return and its
// rolling statistics, fits ARMA(p, q) to the returns and compounds the
// forecast returns onto the last close.
func (s *Service) Run(ctx context.Context, symbol string, params models.AnalysisParams) (*models.ForecastResult, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	history, err := s.client.GetPriceHistory(ctx, symbol, interfaces.WithHistoryParams(s.history))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s: %w", symbol, err)
	}

	frame, err := timeseries.FromHistory(history)
	if err != nil {
		return nil, fmt.Errorf("failed to build frame for %s: %w", symbol, err)
	}

	if err := timeseries.CalcReturn(frame, params.Lag); err != nil {
		return nil, fmt.Errorf("failed to calculate returns: %w", err)
	}

	// previous-row close is the base the fitted return is applied to
	closes := frame.MustColumn(timeseries.CloseColumn)
	baseColumn := timeseries.PrevCloseColumn(1)
	if params.Lag != 1 {
		if err := frame.Set(baseColumn, timeseries.Shift(closes, 1)); err != nil {
			return nil, err
		}
	}

	dropped, err := timeseries.MeanStd(frame, params.Window)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate rolling statistics: %w", err)
	}

	s.logger.Debug().
		Str("symbol", symbol).
		Int("candles", len(history.Candles)).
		Int("dropped", dropped).
		Int("rows", frame.Len()).
		Msg("Frame prepared")

	returns := frame.MustColumn(timeseries.ReturnColumn)
	model, err := arma.Fit(returns, params.AROrder, params.MAOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to fit ARMA(%d, %d): %w", params.AROrder, params.MAOrder, err)
	}

	fitted := model.Predict()
	forecastReturns, err := model.Forecast(params.Steps)
	if err != nil {
		return nil, err
	}

	result := &models.ForecastResult{
		Symbol:      symbol,
		Source:      history.Source,
		GeneratedAt: s.now().UTC(),
		History:     s.history,
		Params:      params,
		Rows:        buildRows(frame, params, fitted),
		Model:       summarize(model),
	}

	result.Forecast = compound(frame, s.history, forecastReturns)

	nlags := min(DefaultCorrelationLags, len(returns)-1)
	if result.ACF, err = timeseries.ACF(returns, nlags); err != nil {
		return nil, err
	}
	if result.PACF, err = timeseries.PACF(returns, nlags); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("symbol", symbol).
		Int("rows", len(result.Rows)).
		Str("model", fmt.Sprintf("ARMA(%d,%d)", params.AROrder, params.MAOrder)).
		Float64("aic", result.Model.AIC).
		Float64("last_close", result.LastClose()).
		Float64("forecast", result.Forecast[len(result.Forecast)-1].Price).
		Msg("Forecast complete")

	return result, nil
}

func buildRows(frame *timeseries.Frame, params models.AnalysisParams, fitted []float64) []models.FrameRow {
	index := frame.Index()
	closes := frame.MustColumn(timeseries.CloseColumn)
	prev := frame.MustColumn(timeseries.PrevCloseColumn(params.Lag))
	base := frame.MustColumn(timeseries.PrevCloseColumn(1))
	returns := frame.MustColumn(timeseries.ReturnColumn)
	sma := frame.MustColumn(timeseries.SMAColumn(params.Window))
	std := frame.MustColumn(timeseries.StdColumn(params.Window))

	rows := make([]models.FrameRow, frame.Len())
	for i := range rows {
		rows[i] = models.FrameRow{
			Datetime:   index[i],
			Close:      closes[i],
			PrevClose:  prev[i],
			Return:     returns[i],
			SMA:        sma[i],
			Std:        std[i],
			Fitted:     fitted[i],
			Prediction: base[i] * (1 + fitted[i]),
		}
	}
	return rows
}

// compound turns forecast returns into prices: the first step is applied to
// the last close and every later step to the previous forecast price.
func compound(frame *timeseries.Frame, history models.HistoryParams, returns []float64) []models.ForecastPoint {
	closes := frame.MustColumn(timeseries.CloseColumn)
	index := frame.Index()

	price := closes[len(closes)-1]
	date := index[len(index)-1]
	points := make([]models.ForecastPoint, len(returns))
	for i, r := range returns {
		price *= 1 + r
		date = history.Step(date)
		points[i] = models.ForecastPoint{
			Step:     i + 1,
			Datetime: date,
			Return:   r,
			Price:    price,
		}
	}
	return points
}

func summarize(m *arma.Model) models.ModelSummary {
	p, q := m.Order()
	return models.ModelSummary{
		AROrder:       p,
		MAOrder:       q,
		Const:         m.Const,
		AR:            m.AR,
		MA:            m.MA,
		Sigma2:        m.Sigma2,
		LogLikelihood: m.LogLikelihood,
		AIC:           m.AIC(),
		NObs:          m.NObs(),
	}
}
