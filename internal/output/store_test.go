package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/pricecast/internal/models"
)

func TestNewStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	s, err := NewStore(nil, dir)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Path())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewStore_EmptyPath(t *testing.T) {
	_, err := NewStore(nil, "")
	assert.Error(t, err)
}

func TestWriteChart(t *testing.T) {
	s, err := NewStore(nil, t.TempDir())
	require.NoError(t, err)

	path, err := s.WriteChart("goog", "forecast", ".png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Path(), "charts", "GOOG-forecast.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	_, err = s.WriteChart("goog", "forecast", "png", nil)
	assert.Error(t, err)
}

func TestWriteResult(t *testing.T) {
	s, err := NewStore(nil, t.TempDir())
	require.NoError(t, err)

	result := &models.ForecastResult{
		Symbol:      "GOOG",
		GeneratedAt: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		Forecast: []models.ForecastPoint{
			{Step: 1, Return: 0.01, Price: 101},
		},
	}
	path, err := s.WriteResult(result)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, filepath.Join("results", "GOOG.json")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded models.ForecastResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "GOOG", decoded.Symbol)
	require.Len(t, decoded.Forecast, 1)
	assert.Equal(t, 101.0, decoded.Forecast[0].Price)

	_, err = s.WriteResult(&models.ForecastResult{})
	assert.Error(t, err)
}

func TestWriteRaw_OverwritesAndLeavesNoTemp(t *testing.T) {
	s, err := NewStore(nil, t.TempDir())
	require.NoError(t, err)

	_, err = s.WriteRaw("x", "a.txt", []byte("one"))
	require.NoError(t, err)
	path, err := s.WriteRaw("x", "a.txt", []byte("two"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Join(s.Path(), "x"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.txt", entries[0].Name())
}

func TestSanitizeKey(t *testing.T) {
	assert.Equal(t, "__etc_passwd", sanitizeKey("../etc/passwd"))
	assert.Equal(t, "BRK_B", sanitizeKey("BRK/B"))
	assert.Equal(t, "a_b", sanitizeKey("a:b"))
}
