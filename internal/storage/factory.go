package storage

import (
	"fmt"

	"github.com/alex-l-clark/task-manager/internal/config"
)

// NewFromConfig builds the blob backend selected by STORAGE_BACKEND.
func NewFromConfig(cfg *config.Config) (Blob, error) {
	switch cfg.Storage.Backend {
	case "file":
		return NewFileBlob(cfg.Storage.DataDir)
	case "memory":
		return NewMemoryBlob(), nil
	case "redis":
		return NewRedisBlob(&RedisConfig{
			Addr:         cfg.GetRedisAddr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			KeyPrefix:    cfg.Redis.KeyPrefix,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		}), nil
	case "sqlite":
		db, err := OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return NewGormBlob(db)
	case "postgres":
		db, err := OpenPostgres(cfg.GetDatabaseDSN())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return NewGormBlob(db)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
