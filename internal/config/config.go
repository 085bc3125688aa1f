// Package config loads runtime settings from env files, with OS
// environment variables taking precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

const (
	CacheNone     = "none"
	CacheBadger   = "badger"
	CacheDynamoDB = "dynamodb"
)

var DefaultFiles = []string{
	"./configs/maia/app.env",
}

type Config struct {
	ModelPath      string
	OrtLibraryPath string
	IntraOpThreads int
	Workers        int
	ChunkSize      int

	ServerPort   string
	AuthSecret   string
	MaxBatchSize int
	LogLevel     string
	DefaultElo   int

	CacheBackend         string
	CacheDir             string
	CacheTTL             time.Duration
	EvaluationsTableName string
}

// Load reads files in order, later files overriding earlier ones. Missing
// files are skipped. With no files DefaultFiles is used.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = DefaultFiles
	}
	v := viper.New()
	v.SetDefault("INTRA_OP_THREADS", 0)
	v.SetDefault("WORKERS", 1)
	v.SetDefault("CHUNK_SIZE", 64)
	v.SetDefault("SERVER_PORT", "7202")
	v.SetDefault("MAX_BATCH_SIZE", 1024)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DEFAULT_ELO", 1500)
	v.SetDefault("CACHE_BACKEND", CacheNone)
	v.SetDefault("CACHE_TTL", "168h")

	if err := loadEnvFiles(v, files); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	cfg := Config{
		ModelPath:            v.GetString("MODEL_PATH"),
		OrtLibraryPath:       v.GetString("ORT_LIBRARY_PATH"),
		IntraOpThreads:       v.GetInt("INTRA_OP_THREADS"),
		Workers:              v.GetInt("WORKERS"),
		ChunkSize:            v.GetInt("CHUNK_SIZE"),
		ServerPort:           v.GetString("SERVER_PORT"),
		AuthSecret:           v.GetString("AUTH_SECRET"),
		MaxBatchSize:         v.GetInt("MAX_BATCH_SIZE"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		DefaultElo:           v.GetInt("DEFAULT_ELO"),
		CacheBackend:         v.GetString("CACHE_BACKEND"),
		CacheDir:             v.GetString("CACHE_DIR"),
		EvaluationsTableName: v.GetString("EVALUATIONS_TABLE_NAME"),
	}
	ttl, err := time.ParseDuration(v.GetString("CACHE_TTL"))
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse cache ttl: %w", err)
	}
	cfg.CacheTTL = ttl

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	switch cfg.CacheBackend {
	case CacheNone, CacheBadger:
	case CacheDynamoDB:
		if cfg.EvaluationsTableName == "" {
			return fmt.Errorf("EVALUATIONS_TABLE_NAME is required with the %s cache", CacheDynamoDB)
		}
	default:
		return fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("WORKERS must be at least 1, got %d", cfg.Workers)
	}
	if cfg.ChunkSize < 1 {
		return fmt.Errorf("CHUNK_SIZE must be at least 1, got %d", cfg.ChunkSize)
	}
	return nil
}

func loadEnvFiles(v *viper.Viper, filenames []string) error {
	v.AutomaticEnv()
	for _, file := range filenames {
		v.SetConfigFile(file)
		v.SetConfigType("env")
		err := v.MergeInConfig()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
