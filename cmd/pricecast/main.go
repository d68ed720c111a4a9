package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bobmcallan/pricecast/internal/app"
	"github.com/bobmcallan/pricecast/internal/common"
)

// options holds the command line. Zero-valued fields that were not set on
// the command line leave the config untouched.
type options struct {
	configPath string
	symbol     string
	provider   string
	lag        int
	window     int
	p          int
	q          int
	steps      int
	points     int
	outPath    string
	format     string
	tail       int
	quiet      bool

	set map[string]bool
}

func parseFlags(args []string) (*options, error) {
	o := &options{set: map[string]bool{}}
	fs := flag.NewFlagSet("pricecast", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "path to pricecast.toml")
	fs.StringVar(&o.symbol, "symbol", "GOOG", "ticker symbol")
	fs.StringVar(&o.provider, "provider", "", "history provider: tdameritrade or eodhd")
	fs.IntVar(&o.lag, "lag", 0, "rows between close and previous close")
	fs.IntVar(&o.window, "window", 0, "rolling window length")
	fs.IntVar(&o.p, "p", 0, "AR order")
	fs.IntVar(&o.q, "q", 0, "MA order")
	fs.IntVar(&o.steps, "steps", 0, "forecast steps")
	fs.IntVar(&o.points, "points", 0, "rows shown on the chart")
	fs.StringVar(&o.outPath, "out", "", "output directory")
	fs.StringVar(&o.format, "format", "", "chart format: png, svg or pdf")
	fs.IntVar(&o.tail, "tail", 5, "frame rows printed")
	fs.BoolVar(&o.quiet, "quiet", false, "skip the banner")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })

	if fs.NArg() > 0 && !o.set["symbol"] {
		o.symbol = fs.Arg(0)
	}
	o.symbol = strings.ToUpper(strings.TrimSpace(o.symbol))
	if o.symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	return o, nil
}

// apply copies the flags that were set onto config.
func (o *options) apply(config *common.Config) {
	if o.set["provider"] {
		config.History.Provider = strings.ToLower(o.provider)
	}
	if o.set["out"] {
		config.Output.Path = o.outPath
	}
	if o.set["format"] {
		config.Output.Format = o.format
	}

	a := &config.Analysis
	for name, pair := range map[string]struct {
		src  int
		dest *int
	}{
		"lag":    {o.lag, &a.Lag},
		"window": {o.window, &a.Window},
		"p":      {o.p, &a.AROrder},
		"q":      {o.q, &a.MAOrder},
		"steps":  {o.steps, &a.Steps},
		"points": {o.points, &a.PlotPoints},
	} {
		if o.set[name] {
			*pair.dest = pair.src
		}
	}
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "pricecast: %v\n", err)
		os.Exit(2)
	}

	common.LoadVersionFromFile()

	config, err := common.LoadConfig(app.ResolveConfigPath(opts.configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	opts.apply(config)

	a, err := app.NewAppFromConfig(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	if !opts.quiet {
		common.PrintBanner(os.Stderr, config, common.BannerInfo{
			Mode:     "cli",
			Provider: a.Provider,
			Output:   a.Output.Path(),
		}, a.Logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := a.Forecast(ctx, opts.symbol, a.AnalysisParams(), config.Output.Format)
	if err != nil {
		a.Logger.Error().Err(err).Str("symbol", opts.symbol).Msg("Forecast failed")
		fmt.Fprintf(os.Stderr, "Forecast failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprint(os.Stdout, formatReport(report, opts.tail))
}
