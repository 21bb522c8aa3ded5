package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestAccessorDefaults(t *testing.T) {
	for _, k := range []string{"SERVER_PORT", "VECTOR_DIM", "BATCH_CONCURRENCY", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	assert.Equal(t, 8080, ServerPort())
	assert.Equal(t, ":8080", ServerAddr())
	assert.Equal(t, 6, VectorDim())
	assert.Equal(t, 8, BatchConcurrency())
	assert.Equal(t, 100.0, RateLimitRPS())
	assert.Equal(t, 20, RateLimitBurst())
	assert.Equal(t, "info", LogLevel())
	assert.Equal(t, zapcore.InfoLevel, ZapLevel())
}

func TestAccessorOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("VECTOR_DIM", "12")
	t.Setenv("BATCH_CONCURRENCY", "3")
	t.Setenv("RATE_LIMIT_RPS", "-1")
	t.Setenv("LOG_LEVEL", "DEBUG")

	assert.Equal(t, ":9090", ServerAddr())
	assert.Equal(t, 12, VectorDim())
	assert.Equal(t, 3, BatchConcurrency())
	assert.Equal(t, 100.0, RateLimitRPS(), "non-positive values fall back")
	assert.Equal(t, zapcore.DebugLevel, ZapLevel())

	t.Setenv("LOG_LEVEL", "chatty")
	assert.Equal(t, zapcore.InfoLevel, ZapLevel())
}

func TestLoadReadsEnvAndSecret(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("KNOWLEDGE_FILE=kb.yaml\n"), 0o600))
	require.NoError(t, os.WriteFile(envFile+".secret", []byte("API_KEY=s3cret\n"), 0o600))

	t.Setenv("EPISTATE_ENV", envFile)
	t.Setenv("KNOWLEDGE_FILE", "")
	t.Setenv("API_KEY", "")
	// godotenv never overrides variables that are already set
	os.Unsetenv("KNOWLEDGE_FILE")
	os.Unsetenv("API_KEY")

	require.NoError(t, Load())
	assert.Equal(t, "kb.yaml", KnowledgeFile())
	assert.Equal(t, "s3cret", APIKey())
}
