package logging

import (
	"testing"

	"github.com/mikey/scam-image-filter/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitLoggerLevels(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARN":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"unknown": zapcore.InfoLevel,
	}

	for raw, want := range tests {
		cfg := config.NewFromViper(config.NewEmptyViper())
		cfg.Set("logging.level", raw)
		cfg.Set("logging.format", "console")

		logger, err := InitLogger(cfg)
		require.NoError(t, err, raw)
		assert.True(t, logger.Core().Enabled(want), raw)
		if want > zapcore.DebugLevel {
			assert.False(t, logger.Core().Enabled(want-1), raw)
		}
	}
}

func TestInitConsoleLogger(t *testing.T) {
	logger, err := InitConsoleLogger(true, true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = InitConsoleLogger(false, false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}
