// Package config loads runtime configuration from environment variables.
// Tunables with sensible defaults ship as an embedded defaults.yaml.
package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Embedding EmbeddingConfig
	Database  DatabaseConfig
	Catalog   CatalogConfig
	Matching  MatchingConfig `yaml:"matching"`
	Map       MapConfig      `yaml:"map"`
}

type EmbeddingConfig struct {
	URL string // embedding sidecar base URL, defaults to http://localhost:8000
	Dim int    // embedding dimensionality, defaults to 128
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL; empty runs the in-memory store
	MaxOpenConns int    // maximum open connections (default 25)
	MaxIdleConns int    // maximum idle connections (default 5)
	EnableHNSW   bool   // build the in-memory HNSW index on startup
}

type CatalogConfig struct {
	Dir string // root of the reference catalog, one subdirectory per entry
}

type MatchingConfig struct {
	Threshold float64 `yaml:"threshold"`
}

type MapConfig struct {
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	ThumbSize int     `yaml:"thumb_size"`
	TopMargin float64 `yaml:"top_margin"`
	Title     string  `yaml:"title"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func Load() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// Embedded file, so this can only fail on a broken build.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	cfg.Embedding = EmbeddingConfig{
		URL: os.Getenv("EMBEDDING_URL"),
		Dim: envInt("EMBEDDING_DIM", 128),
	}
	cfg.Database = DatabaseConfig{
		URL:          os.Getenv("DATABASE_URL"),
		MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
		MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		EnableHNSW:   os.Getenv("IDENTITY_HNSW") == "true",
	}
	cfg.Catalog = CatalogConfig{
		Dir: os.Getenv("CATALOG_DIR"),
	}
	cfg.Matching.Threshold = envFloat("MATCH_THRESHOLD", cfg.Matching.Threshold)

	return &cfg
}
