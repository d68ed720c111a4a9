// Package output writes forecast charts and results to disk.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bobmcallan/pricecast/internal/common"
	"github.com/bobmcallan/pricecast/internal/models"
)

const (
	chartsDir  = "charts"
	resultsDir = "results"
)

// Store writes files under a base directory. Every write goes to a temp file
// in the target directory and is renamed into place.
type Store struct {
	basePath string
	logger   *common.Logger
}

// NewStore creates the output directory if needed.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	if path == "" {
		return nil, fmt.Errorf("output path is required")
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output path %s: %w", path, err)
	}
	return &Store{basePath: path, logger: logger}, nil
}

// Path returns the base output path.
func (s *Store) Path() string {
	return s.basePath
}

// WriteChart writes an encoded chart as charts/{SYMBOL}-{name}.{ext} and
// returns the file path.
func (s *Store) WriteChart(symbol, name, ext string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("chart for %s is empty", symbol)
	}
	key := fmt.Sprintf("%s-%s.%s", strings.ToUpper(symbol), name, strings.TrimPrefix(ext, "."))
	path, err := s.WriteRaw(chartsDir, key, data)
	if err != nil {
		return "", err
	}
	s.logger.Debug().Str("path", path).Int("bytes", len(data)).Msg("Chart written")
	return path, nil
}

// WriteResult writes the forecast result as indented JSON to
// results/{SYMBOL}.json and returns the file path.
func (s *Store) WriteResult(result *models.ForecastResult) (string, error) {
	if result == nil || result.Symbol == "" {
		return "", fmt.Errorf("result has no symbol")
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	data = append(data, '\n')

	path, err := s.WriteRaw(resultsDir, strings.ToUpper(result.Symbol)+".json", data)
	if err != nil {
		return "", err
	}
	s.logger.Debug().Str("path", path).Msg("Result written")
	return path, nil
}

// WriteRaw writes data to subdir/key atomically and returns the target path.
func (s *Store) WriteRaw(subdir, key string, data []byte) (string, error) {
	dir := filepath.Join(s.basePath, subdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	target := filepath.Join(dir, sanitizeKey(key))

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to rename temp file: %w", err)
	}
	return target, nil
}

func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(key)
}
