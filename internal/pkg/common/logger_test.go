package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel(" warning "))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestFilterFieldsDropsSecrets(t *testing.T) {
	fields := filterFields([]zap.Field{
		zap.String("source", "food.xlsx"),
		zap.String("redis_password", "hunter2"),
		zap.String("api_token", "abc"),
		zap.String("client_secret", "xyz"),
	})

	require.Len(t, fields, 1)
	assert.Equal(t, "source", fields[0].Key)
}

func TestInitLoggerWritesFile(t *testing.T) {
	previous := Logger
	t.Cleanup(func() { Logger = previous })

	dir := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, InitLogger("info", dir))

	LogError("資料集載入失敗", zap.String("source", "food.xlsx"))
	Sync()

	data, err := os.ReadFile(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "food.xlsx")
	assert.Contains(t, string(data), `"service":"food-recommender"`)
}
