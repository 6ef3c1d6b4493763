package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/Adda-Baaj/prism-news/internal/domain"
	"github.com/Adda-Baaj/prism-news/internal/logger"
)

var newsBucket = []byte("news")

// BoltConfig points at the local database file.
type BoltConfig struct {
	Path string `mapstructure:"path"`
}

// BoltStore keeps records in a single bbolt bucket keyed by id, with JSON values. It enforces
// TTL itself: scans skip expired records and PurgeExpired removes them.
type BoltStore struct {
	db  *bolt.DB
	log logger.Logger
	now func() time.Time
}

// NewBoltStore opens (creating if needed) the database at cfg.Path.
func NewBoltStore(cfg BoltConfig, log logger.Logger) (*BoltStore, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("bolt store path is empty")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create bolt dir: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(newsBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &BoltStore{db: db, log: logger.Ensure(log), now: time.Now}, nil
}

// Put writes rec under its id. An existing record with the same id is replaced.
func (s *BoltStore) Put(ctx context.Context, rec domain.NewsRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.ID == "" {
		return errors.New("record id is empty")
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", rec.ID, err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(newsBucket).Put([]byte(rec.ID), raw)
	})
}

// Scan returns up to limit unexpired records in key order.
func (s *BoltStore) Scan(ctx context.Context, limit int) ([]domain.NewsRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = ClampLimit(limit)
	now := nowUnix(s.now)

	recs := make([]domain.NewsRecord, 0, limit)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(newsBucket).Cursor()
		for k, v := c.First(); k != nil && len(recs) < limit; k, v = c.Next() {
			var rec domain.NewsRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				s.log.WarnObj("skipping undecodable record", "store_bolt_decode_error", map[string]any{
					"key":   string(k),
					"error": err.Error(),
				})
				continue
			}
			if rec.Expired(now) {
				continue
			}
			recs = append(recs, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan bolt: %w", err)
	}
	return recs, nil
}

// PurgeExpired deletes every record whose ttl has passed and returns how many were removed.
func (s *BoltStore) PurgeExpired(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	now := nowUnix(s.now)
	removed := 0

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(newsBucket)
		var expired [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var rec domain.NewsRecord
			if err := json.Unmarshal(v, &rec); err != nil || rec.Expired(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(expired)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("purge expired: %w", err)
	}
	if removed > 0 {
		s.log.InfoObj("purged expired records", "store_bolt_purge", map[string]any{"removed": removed})
	}
	return removed, nil
}

func (s *BoltStore) Close() error { return s.db.Close() }
