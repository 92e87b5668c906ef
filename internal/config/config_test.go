package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragd/ragd/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		config.EnvCacheDir, config.EnvEmbeddingModel, config.EnvUseEmbeddings,
		config.EnvUseSparse, config.EnvMaxFeatures, config.EnvSimilarityThreshold,
		config.EnvSearchLimitDefault, config.EnvWatchTag, config.EnvStreamAddr,
	}
	for _, k := range keys {
		v, had := os.LookupEnv(k)
		require.NoError(t, os.Unsetenv(k))
		if had {
			t.Cleanup(func() { _ = os.Setenv(k, v) })
		}
	}
}

func TestLoad_AppliesDefaultsWhenUnset(t *testing.T) {
	clearEnv(t)
	cfg := config.Load()
	assert.Equal(t, config.DefaultSearchLimit, cfg.SearchLimitDefault)
	assert.Equal(t, config.DefaultWatchTag, cfg.WatchTag)
	assert.Equal(t, config.DefaultStreamAddr, cfg.StreamAddr)
	assert.True(t, cfg.UseEmbeddings)
}

func TestLoad_EnvOverridesDefault(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.Setenv(config.EnvSearchLimitDefault, "9"))
	t.Cleanup(func() { _ = os.Unsetenv(config.EnvSearchLimitDefault) })

	cfg := config.Load()
	assert.Equal(t, 9, cfg.SearchLimitDefault)
}

func TestLoad_DotEnvNeverOverwritesExistingEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RAG_WATCH_TAG=from-dotenv\n"), 0o644))
	require.NoError(t, os.Setenv(config.EnvWatchTag, "from-process-env"))
	t.Cleanup(func() { _ = os.Unsetenv(config.EnvWatchTag) })

	cfg := config.Load()
	assert.Equal(t, "from-process-env", cfg.WatchTag)
}

func TestConfig_FilePathsAreUnderCacheDir(t *testing.T) {
	cfg := &config.Config{CacheDir: "/tmp/cache"}
	assert.Equal(t, "/tmp/cache/documents.json", cfg.DocumentsFile())
	assert.Equal(t, "/tmp/cache/stats.json", cfg.StatsFile())
	assert.Equal(t, "/tmp/cache/rag_server.log", cfg.LogFile())
}
