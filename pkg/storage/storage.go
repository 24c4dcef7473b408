// Package storage provides the durable key/value records the client keeps between runs
// (cart lines, remembered delivery address, authenticated session).
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/redis"
)

// ErrNotFound is returned by Get when nothing is stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// Store is a single-writer string store. Values are opaque to the store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Open builds the store selected by cfg.Driver. redisClient is only used by the redis driver.
func Open(cfg config.StorageConfig, redisClient *redis.Client) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case config.StorageDriverMemory:
		return NewMemory(), nil
	case config.StorageDriverFile:
		return NewFile(cfg.Dir)
	case config.StorageDriverRedis:
		if redisClient == nil {
			return nil, errors.New("storage: redis client required")
		}
		return NewRedis(redisClient), nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}
