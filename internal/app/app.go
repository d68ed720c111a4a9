// Package app wires configuration, clients and services for the pricecast
// binaries.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/pricecast/internal/clients/eodhd"
	"github.com/bobmcallan/pricecast/internal/clients/tdameritrade"
	"github.com/bobmcallan/pricecast/internal/common"
	"github.com/bobmcallan/pricecast/internal/interfaces"
	"github.com/bobmcallan/pricecast/internal/models"
	"github.com/bobmcallan/pricecast/internal/output"
	"github.com/bobmcallan/pricecast/internal/services/chart"
	"github.com/bobmcallan/pricecast/internal/services/forecast"
)

// App holds all initialized services and clients.
// It is the shared core used by both cmd/pricecast and cmd/pricecast-server.
type App struct {
	Config          *common.Config
	Logger          *common.Logger
	Provider        string
	HistoryClient   interfaces.HistoryClient
	ForecastService interfaces.ForecastService
	ChartRenderer   interfaces.ChartRenderer
	Output          *output.Store
	StartupTime     time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: the given path, PRICECAST_CONFIG,
// pricecast.toml next to the binary, then config/pricecast.toml.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("PRICECAST_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "pricecast.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/pricecast.toml" // fallback for development
		}
	}
	return configPath
}

// NewApp loads configuration from configPath and initializes the app.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewAppFromConfig(config)
}

// NewAppFromConfig initializes the app from an already loaded config.
func NewAppFromConfig(config *common.Config) (*App, error) {
	startupStart := time.Now()

	logger := common.NewLoggerFromConfig(config.Logging)

	client, err := NewHistoryClient(config, logger)
	if err != nil {
		return nil, err
	}

	history, err := HistoryParams(config)
	if err != nil {
		return nil, err
	}

	store, err := output.NewStore(logger, config.Output.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize output: %w", err)
	}

	a := &App{
		Config:          config,
		Logger:          logger,
		Provider:        config.History.Provider,
		HistoryClient:   client,
		ForecastService: forecast.NewService(client, history, logger),
		ChartRenderer:   chart.NewRenderer(config.Analysis.PlotPoints, logger),
		Output:          store,
		StartupTime:     startupStart,
	}

	logger.Info().
		Str("provider", a.Provider).
		Str("output", store.Path()).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// NewHistoryClient creates the client for the configured history provider.
// A missing API key is an error: every request needs one.
func NewHistoryClient(config *common.Config, logger *common.Logger) (interfaces.HistoryClient, error) {
	provider := config.History.Provider
	pc, err := config.ProviderConfig(provider)
	if err != nil {
		return nil, err
	}

	apiKey, err := common.ResolveAPIKey(provider+"_api_key", pc.APIKey)
	if err != nil {
		return nil, err
	}

	switch provider {
	case "eodhd":
		opts := []eodhd.ClientOption{
			eodhd.WithLogger(logger),
			eodhd.WithRateLimit(pc.RateLimit),
			eodhd.WithTimeout(pc.GetTimeout()),
		}
		if pc.BaseURL != "" {
			opts = append(opts, eodhd.WithBaseURL(pc.BaseURL))
		}
		return eodhd.NewClient(apiKey, opts...), nil
	default:
		opts := []tdameritrade.ClientOption{
			tdameritrade.WithLogger(logger),
			tdameritrade.WithRateLimit(pc.RateLimit),
			tdameritrade.WithTimeout(pc.GetTimeout()),
		}
		if pc.BaseURL != "" {
			opts = append(opts, tdameritrade.WithBaseURL(pc.BaseURL))
		}
		return tdameritrade.NewClient(apiKey, opts...), nil
	}
}

// HistoryParams returns the validated price history request from config.
func HistoryParams(config *common.Config) (models.HistoryParams, error) {
	h := models.HistoryParams{
		PeriodType:    config.History.PeriodType,
		Periods:       config.History.Periods,
		FrequencyType: config.History.FrequencyType,
		Frequency:     config.History.Frequency,
	}
	if err := h.Validate(); err != nil {
		return h, fmt.Errorf("invalid [history] config: %w", err)
	}
	return h, nil
}

// AnalysisParams returns the configured analysis settings.
func (a *App) AnalysisParams() models.AnalysisParams {
	c := a.Config.Analysis
	return models.AnalysisParams{
		Lag:        c.Lag,
		Window:     c.Window,
		AROrder:    c.AROrder,
		MAOrder:    c.MAOrder,
		Steps:      c.Steps,
		PlotPoints: c.PlotPoints,
	}
}

// Report lists what a forecast run wrote.
type Report struct {
	Result     *models.ForecastResult
	ChartPath  string
	ACFPath    string
	PACFPath   string
	ResultPath string
}

// Forecast runs the pipeline for symbol and writes the forecast chart in
// format, the ACF and PACF correlograms and the JSON result.
func (a *App) Forecast(ctx context.Context, symbol string, params models.AnalysisParams, format string) (*Report, error) {
	result, err := a.ForecastService.Run(ctx, symbol, params)
	if err != nil {
		return nil, err
	}

	f, err := chart.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	data, _, err := a.ChartRenderer.Render(result, f)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	report := &Report{Result: result}
	if report.ChartPath, err = a.Output.WriteChart(result.Symbol, "forecast", f, data); err != nil {
		return nil, err
	}

	acf, err := chart.RenderCorrelogram(result.Symbol+" ACF", result.ACF)
	if err != nil {
		return nil, fmt.Errorf("failed to render ACF: %w", err)
	}
	if report.ACFPath, err = a.Output.WriteChart(result.Symbol, "acf", chart.FormatPNG, acf); err != nil {
		return nil, err
	}

	pacf, err := chart.RenderCorrelogram(result.Symbol+" PACF", result.PACF)
	if err != nil {
		return nil, fmt.Errorf("failed to render PACF: %w", err)
	}
	if report.PACFPath, err = a.Output.WriteChart(result.Symbol, "pacf", chart.FormatPNG, pacf); err != nil {
		return nil, err
	}

	if report.ResultPath, err = a.Output.WriteResult(result); err != nil {
		return nil, err
	}

	a.Logger.Info().
		Str("symbol", result.Symbol).
		Str("chart", report.ChartPath).
		Str("result", report.ResultPath).
		Msg("Forecast written")

	return report, nil
}
