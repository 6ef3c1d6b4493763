// Package store persists news records with time-to-live expiry.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/prism-news/internal/domain"
	"github.com/Adda-Baaj/prism-news/internal/logger"
)

const (
	BackendDynamoDB = "dynamodb"
	BackendBolt     = "bolt"
	BackendMemory   = "memory"

	DefaultTableName = "prism-news"
	DefaultScanLimit = 50
	MaxScanLimit     = 500
)

// Writer stores one record keyed by its id.
type Writer interface {
	Put(ctx context.Context, rec domain.NewsRecord) error
}

// Reader returns up to limit unexpired records in store-native order.
type Reader interface {
	Scan(ctx context.Context, limit int) ([]domain.NewsRecord, error)
}

// Store is a durable keyed record store.
type Store interface {
	Writer
	Reader
	Close() error
}

// Purger is implemented by backends that expire records themselves instead of relying on the
// database's TTL feature.
type Purger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// Config selects and configures the backend.
type Config struct {
	Backend  string         `mapstructure:"backend"`
	DynamoDB DynamoDBConfig `mapstructure:"dynamodb"`
	Bolt     BoltConfig     `mapstructure:"bolt"`
}

// New builds the configured backend.
func New(ctx context.Context, cfg Config, log logger.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendDynamoDB:
		st, err := NewDynamoDBStore(ctx, cfg.DynamoDB, log)
		if err != nil {
			return nil, err
		}
		return st, nil
	case BackendBolt:
		st, err := NewBoltStore(cfg.Bolt, log)
		if err != nil {
			return nil, err
		}
		return st, nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("store backend %q is not supported", cfg.Backend)
	}
}

// ClampLimit applies the default and maximum scan sizes.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultScanLimit
	}
	if limit > MaxScanLimit {
		return MaxScanLimit
	}
	return limit
}

func nowUnix(clock func() time.Time) int64 {
	if clock == nil {
		return time.Now().Unix()
	}
	return clock().Unix()
}
