package common

import (
	"fmt"
	"io"
	"strings"

	"github.com/ternarybob/banner"
)

// BannerInfo holds the key/value lines shown under the startup art.
type BannerInfo struct {
	Mode     string // "cli" or "server"
	Address  string
	Provider string
	Output   string
}

// PrintBanner displays the application startup banner.
func PrintBanner(w io.Writer, config *Config, info BannerInfo, logger *Logger) {
	version := GetVersion()
	build := GetBuild()
	commit := GetGitCommit()

	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	width := 60
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	art := []string{
		` ___  ___ ___ ___ ___ ___  _   ___ _____`,
		`| _ \| _ \_ _/ __| __/ __|/_\ / __|_   _|`,
		`|  _/|   /| | (__| _| (__/ _ \\__ \ | |`,
		`|_|  |_|_\___\___|___\___/_/ \_\___/ |_|`,
	}

	fmt.Fprintf(w, "\n%s\n\n", hr)
	for _, line := range art {
		fmt.Fprintf(w, "%s%s%s\n", textColor, line, banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s  Price history, returns and ARMA forecasts%s\n\n", textColor, banner.ColorReset)
	fmt.Fprintf(w, "%s\n\n", hr)

	kvPad := 14
	kvLines := [][2]string{
		{"Version", version},
		{"Build", build},
		{"Commit", commit},
		{"Environment", config.Environment},
		{"Mode", info.Mode},
		{"Provider", info.Provider},
	}
	if info.Address != "" {
		kvLines = append(kvLines, [2]string{"Address", info.Address})
	}
	if info.Output != "" {
		kvLines = append(kvLines, [2]string{"Output", info.Output})
	}
	for _, kv := range kvLines {
		fmt.Fprintf(w, "%s  %-*s %s%s\n", textColor, kvPad, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s\n\n", hr)

	logger.Info().
		Str("version", version).
		Str("build", build).
		Str("commit", commit).
		Str("environment", config.Environment).
		Str("mode", info.Mode).
		Str("provider", info.Provider).
		Msg("Application started")
}

// PrintShutdownBanner displays the application shutdown banner.
func PrintShutdownBanner(w io.Writer, logger *Logger) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	hr := lineColor + strings.Repeat("═", 42) + banner.ColorReset

	fmt.Fprintf(w, "\n%s\n", hr)
	fmt.Fprintf(w, "%s  PRICECAST - SHUTTING DOWN%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(w, "%s\n\n", hr)

	logger.Info().Msg("Application shutting down")
}
