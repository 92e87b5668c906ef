// Package config loads server configuration from environment variables,
// with an optional .env file in the working directory supplying defaults
// for variables not already set in the process environment.
package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Environment variable keys recognised by the server. Every key is
// prefixed RAG_ to avoid colliding with unrelated process environment.
const (
	EnvCacheDir             = "RAG_CACHE_DIR"
	EnvEmbeddingModel       = "RAG_EMBEDDING_MODEL"
	EnvUseEmbeddings        = "RAG_USE_EMBEDDINGS"
	EnvUseSparse            = "RAG_USE_TFIDF"
	EnvMaxFeatures          = "RAG_TFIDF_MAX_FEATURES"
	EnvSimilarityThreshold  = "RAG_SIMILARITY_THRESHOLD"
	EnvSparseThreshold      = "RAG_SPARSE_THRESHOLD"
	EnvEmbeddingBatchSize   = "RAG_EMBEDDING_BATCH_SIZE"
	EnvSearchLimitDefault   = "RAG_SEARCH_LIMIT_DEFAULT"
	EnvLogLevel             = "RAG_LOG_LEVEL"
	EnvLogToStderr          = "RAG_DEBUG"
	EnvDedupEnabled         = "RAG_ENABLE_DEDUPLICATION"
	EnvVersioningEnabled    = "RAG_ENABLE_VERSIONING"
	EnvAutoMigrateIDs       = "RAG_AUTO_MIGRATE_IDS"
	EnvAutoSave             = "RAG_AUTO_SAVE"
	EnvServerName           = "RAG_SERVER_NAME"
	EnvServerVersion        = "RAG_SERVER_VERSION"
	EnvProtocolVersion      = "RAG_PROTOCOL_VERSION"
	EnvWatchTag             = "RAG_WATCH_TAG"
	EnvWatchCategoryPrefix  = "RAG_WATCH_CATEGORY_PREFIX"
	EnvWatchSourceSubstring = "RAG_WATCH_SOURCE_SUBSTRING"
	EnvOpenAIAPIKey         = "RAG_OPENAI_API_KEY"
	EnvStreamAddr           = "RAG_STREAM_ADDR"
)

// Defaults mirror the reference Python implementation's config.py.
const (
	DefaultCacheDirName       = "mcp-rag-cache"
	DefaultEmbeddingModel     = "all-MiniLM-L6-v2"
	DefaultMaxFeatures        = 1000
	DefaultSimilarityThresh   = 0.1
	DefaultSparseThreshold    = 0.05
	DefaultEmbeddingBatch     = 32
	DefaultSearchLimit        = 5
	DefaultServerName         = "rag-server"
	DefaultServerVersion      = "3.1.0"
	DefaultProtocolVersion    = "2024-11-05"
	DefaultWatchTag           = "a2a"
	DefaultWatchCategory      = "a2a"
	DefaultWatchSourceSubstr  = "a2aprotocol"
	DefaultDenseDim           = 384
	DefaultStreamAddr         = ":8787"
	DefaultURLFallback        = "https://a2aprotocol.ai/blog"
)

// Config is an immutable value loaded once at startup.
type Config struct {
	CacheDir            string
	EmbeddingModel      string
	UseEmbeddings       bool
	UseSparse           bool
	MaxFeatures         int
	SimilarityThreshold float64
	SparseThreshold     float64
	EmbeddingBatchSize  int
	SearchLimitDefault  int
	LogLevel            string
	LogToStderr         bool
	DedupEnabled        bool
	VersioningEnabled   bool
	AutoMigrateIDs      bool
	AutoSave            bool
	ServerName          string
	ServerVersion       string
	ProtocolVersion     string
	WatchTag            string
	WatchCategoryPrefix string
	WatchSourceSubstr   string
	OpenAIAPIKey        string
	StreamAddr          string
}

// Load reads a .env file (if present) into the process environment, then
// builds a Config from the environment, applying defaults for anything
// unset. It never returns an error: a missing or malformed .env file is
// silently ignored, matching the reference implementation's permissive
// load_dotenv behaviour.
func Load() *Config {
	loadDotEnv(".env")

	home, _ := os.UserHomeDir()
	defaultCache := filepath.Join(home, ".claude", DefaultCacheDirName)

	return &Config{
		CacheDir:            getString(EnvCacheDir, defaultCache),
		EmbeddingModel:      getString(EnvEmbeddingModel, DefaultEmbeddingModel),
		UseEmbeddings:       getBool(EnvUseEmbeddings, true),
		UseSparse:           getBool(EnvUseSparse, true),
		MaxFeatures:         getInt(EnvMaxFeatures, DefaultMaxFeatures),
		SimilarityThreshold: getFloat(EnvSimilarityThreshold, DefaultSimilarityThresh),
		SparseThreshold:     getFloat(EnvSparseThreshold, DefaultSparseThreshold),
		EmbeddingBatchSize:  getInt(EnvEmbeddingBatchSize, DefaultEmbeddingBatch),
		SearchLimitDefault:  getInt(EnvSearchLimitDefault, DefaultSearchLimit),
		LogLevel:            getString(EnvLogLevel, "INFO"),
		LogToStderr:         getBool(EnvLogToStderr, false),
		DedupEnabled:        getBool(EnvDedupEnabled, true),
		VersioningEnabled:   getBool(EnvVersioningEnabled, true),
		AutoMigrateIDs:      getBool(EnvAutoMigrateIDs, true),
		AutoSave:            getBool(EnvAutoSave, true),
		ServerName:          getString(EnvServerName, DefaultServerName),
		ServerVersion:       getString(EnvServerVersion, DefaultServerVersion),
		ProtocolVersion:     getString(EnvProtocolVersion, DefaultProtocolVersion),
		WatchTag:            getString(EnvWatchTag, DefaultWatchTag),
		WatchCategoryPrefix: getString(EnvWatchCategoryPrefix, DefaultWatchCategory),
		WatchSourceSubstr:   getString(EnvWatchSourceSubstring, DefaultWatchSourceSubstr),
		OpenAIAPIKey:        getString(EnvOpenAIAPIKey, ""),
		StreamAddr:          getString(EnvStreamAddr, DefaultStreamAddr),
	}
}

// DocumentsFile returns the path to the canonical document store file.
func (c *Config) DocumentsFile() string { return filepath.Join(c.CacheDir, "documents.json") }

// VectorsFile returns the path to the persisted dense matrix.
func (c *Config) VectorsFile() string { return filepath.Join(c.CacheDir, "vectors.npy") }

// IndexFile returns the path to the persisted sparse vectorizer + metadata.
func (c *Config) IndexFile() string { return filepath.Join(c.CacheDir, "index.pkl") }

// StatsFile returns the path to the last-computed statistics snapshot.
func (c *Config) StatsFile() string { return filepath.Join(c.CacheDir, "stats.json") }

// LogFile returns the path to the rolling server log.
func (c *Config) LogFile() string { return filepath.Join(c.CacheDir, "rag_server.log") }

func getString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	return strings.EqualFold(v, "true")
}

func getInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// loadDotEnv parses KEY=VALUE lines from path into the process environment.
// Existing environment variables are never overwritten. Blank lines and
// lines starting with # are skipped. Surrounding single or double quotes
// around the value are stripped, matching the reference Python loader.
func loadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = unquote(value)
		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}
