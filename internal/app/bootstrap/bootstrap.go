// Package bootstrap assembles the evaluation service from configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/chess-vn/maia/internal/analysis"
	"github.com/chess-vn/maia/internal/aws/storage"
	"github.com/chess-vn/maia/internal/cache"
	"github.com/chess-vn/maia/internal/config"
	"github.com/chess-vn/maia/pkg/logging"
	"github.com/chess-vn/maia/pkg/maia"
	"go.uber.org/zap"
)

type Runtime struct {
	Pool    *maia.Pool
	Store   cache.Store
	Service *analysis.Service
}

// New loads the model into cfg.Workers sessions and opens the configured
// cache.
func New(ctx context.Context, cfg config.Config) (*Runtime, error) {
	pool, err := maia.NewPoolFromFile(
		cfg.ModelPath,
		cfg.Workers,
		cfg.ChunkSize,
		maia.WithLibraryPath(cfg.OrtLibraryPath),
		maia.WithIntraOpThreads(cfg.IntraOpThreads),
	)
	if err != nil {
		return nil, err
	}
	store, err := NewStore(ctx, cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}
	logging.Info("runtime ready",
		zap.String("model", cfg.ModelPath),
		zap.Int("workers", pool.Size()),
		zap.String("cache", cfg.CacheBackend),
	)
	return &Runtime{
		Pool:    pool,
		Store:   store,
		Service: analysis.NewService(pool, store, cfg.DefaultElo),
	}, nil
}

func NewStore(ctx context.Context, cfg config.Config) (cache.Store, error) {
	switch cfg.CacheBackend {
	case config.CacheBadger:
		return cache.NewBadgerStore(cfg.CacheDir, cfg.CacheTTL)
	case config.CacheDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}
		return storage.NewClient(dynamodb.NewFromConfig(awsCfg), storage.Config{
			EvaluationsTableName: aws.String(cfg.EvaluationsTableName),
			TTL:                  cfg.CacheTTL,
		}), nil
	default:
		return cache.Nop{}, nil
	}
}

func (rt *Runtime) Close() error {
	return errors.Join(rt.Pool.Close(), rt.Store.Close())
}
