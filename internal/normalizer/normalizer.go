// Package normalizer turns raw feed articles into stored news records.
package normalizer

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Adda-Baaj/prism-news/internal/domain"
)

const (
	DefaultTitle  = "No title"
	DefaultSource = "Unknown"

	// RecordTTL is how long the store keeps a record before expiring it.
	RecordTTL = 7 * 24 * time.Hour

	// timestampLayout matches ISO-8601 UTC with millisecond precision, e.g. 2024-05-01T10:00:00.000Z.
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// IDGenerator produces record identifiers.
type IDGenerator func() string

// UUIDv7 returns an IDGenerator producing RFC 9562 version 7 UUIDs: a millisecond timestamp
// followed by random bits, monotonic within the process.
func UUIDv7() IDGenerator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Normalizer maps raw articles to records. It holds no mutable state of its own.
type Normalizer struct {
	newID IDGenerator
}

// New builds a Normalizer. A nil generator falls back to UUIDv7.
func New(gen IDGenerator) *Normalizer {
	if gen == nil {
		gen = UUIDv7()
	}
	return &Normalizer{newID: gen}
}

// Normalize builds the record for raw at instant now. Missing or blank fields get their
// defaults; it never fails.
func (n *Normalizer) Normalize(raw domain.RawArticle, now time.Time) domain.NewsRecord {
	now = now.UTC()
	return domain.NewsRecord{
		ID:        n.newID(),
		Timestamp: now.Format(timestampLayout),
		Title:     firstNonEmpty(deref(raw.Title), DefaultTitle),
		Content:   firstNonEmpty(deref(raw.Content), deref(raw.Description)),
		Source:    firstNonEmpty(raw.SourceName(), DefaultSource),
		URL:       firstNonEmpty(deref(raw.URL)),
		TTL:       ExpiryFor(now),
	}
}

// ExpiryFor returns the TTL epoch second for a record created at now.
func ExpiryFor(now time.Time) int64 {
	return now.Unix() + int64(RecordTTL/time.Second)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// firstNonEmpty returns the first value that is not blank.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
