package factory

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mikey/scam-image-filter/internal/adapters/cache"
	"github.com/mikey/scam-image-filter/internal/adapters/mail"
	"github.com/mikey/scam-image-filter/internal/config"
	"github.com/mikey/scam-image-filter/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newConfig(values map[string]interface{}) *config.Config {
	cfg := config.NewFromViper(config.NewEmptyViper())
	for key, value := range values {
		cfg.Set(key, value)
	}
	return cfg
}

func TestExtractorFactory(t *testing.T) {
	logger := zaptest.NewLogger(t)
	tp := utils.NewTextProcessor(logger)

	tests := []struct {
		name    string
		values  map[string]interface{}
		wantErr string
	}{
		{"unsupported engine", map[string]interface{}{"ocr.engine": "abbyy"}, "unsupported ocr engine"},
		{"missing tesseract", map[string]interface{}{"tesseract.binary": "/nonexistent/tesseract"}, "not found"},
		{"openai without key", map[string]interface{}{"ocr.engine": "openai"}, "openai.api_key"},
		{"gemini without key", map[string]interface{}{"ocr.engine": "gemini"}, "gemini.api_key"},
		{"invalid timeout", map[string]interface{}{"ocr.timeout": "soon"}, "invalid ocr timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewExtractorFactory(newConfig(tt.values), logger, tp)
			_, err := f.CreateExtractor()
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	t.Run("openai", func(t *testing.T) {
		f := NewExtractorFactory(newConfig(map[string]interface{}{
			"ocr.engine":     "openai",
			"openai.api_key": "sk-test",
		}), logger, tp)
		extractor, err := f.CreateExtractor()
		require.NoError(t, err)
		assert.NotNil(t, extractor)
	})
}

func TestCacheFactory(t *testing.T) {
	logger := zaptest.NewLogger(t)

	memory, err := NewCacheFactory(newConfig(nil), logger).CreateRecognitionCache()
	require.NoError(t, err)
	assert.IsType(t, &cache.MemoryCache{}, memory)
	memory.(*cache.MemoryCache).Stop()

	sqlitePath := filepath.Join(t.TempDir(), "nested", "cache.db")
	sqlite, err := NewCacheFactory(newConfig(map[string]interface{}{
		"cache.type":        "sqlite",
		"cache.sqlite_path": sqlitePath,
	}), logger).CreateRecognitionCache()
	require.NoError(t, err)
	assert.FileExists(t, sqlitePath)
	sqlite.(*cache.SQLiteCache).Stop()

	_, err = NewCacheFactory(newConfig(map[string]interface{}{"cache.type": "redis"}), logger).CreateRecognitionCache()
	assert.ErrorContains(t, err, "unsupported cache type")

	f := NewCacheFactory(newConfig(map[string]interface{}{"cache.ttl": "90m", "cache.enabled": false}), logger)
	ttl, err := f.GetCacheTTL()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, ttl)
	assert.False(t, f.IsCacheEnabled())

	disabled, err := f.CreateRecognitionCache()
	require.NoError(t, err)
	assert.Nil(t, disabled)
}

func TestAuditFactory(t *testing.T) {
	logger := zaptest.NewLogger(t)

	notifier, err := NewAuditFactory(newConfig(nil), logger).CreateAuditNotifier()
	require.NoError(t, err)
	assert.Nil(t, notifier)

	_, err = NewAuditFactory(newConfig(map[string]interface{}{"audit.smtp.enabled": true}), logger).CreateAuditNotifier()
	assert.Error(t, err)

	notifier, err = NewAuditFactory(newConfig(map[string]interface{}{
		"audit.smtp.enabled": true,
		"audit.smtp.to":      []string{"mods@example.com"},
	}), logger).CreateAuditNotifier()
	require.NoError(t, err)
	assert.IsType(t, &mail.SMTPNotifier{}, notifier)
}
