package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, GormLevel("silent"))
	assert.Equal(t, gormlogger.Info, GormLevel("info"))
	assert.Equal(t, gormlogger.Warn, GormLevel("bogus"))
}

func TestComponentLoggerJSON(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	SetupWriter(&buf, "info", "json")

	DB().Info("connected", "attempt", 1)
	DB().Debug("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "db", entry["component"])
	assert.Equal(t, "connected", entry["msg"])
	assert.EqualValues(t, 1, entry["attempt"])
}
