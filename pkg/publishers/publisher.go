package publishers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Adda-Baaj/prism-news/internal/domain"
	"github.com/Adda-Baaj/prism-news/internal/logger"
)

const (
	// EventSource and EventDetailType tag every ingestion event.
	EventSource     = "prism.news"
	EventDetailType = "news.ingested"
)

// Logger is the logging surface publishers use.
type Logger = logger.Logger

func ensureLogger(log Logger) Logger { return logger.Ensure(log) }

// Event announces one stored record.
type Event struct {
	Source     string
	DetailType string
	Record     domain.NewsRecord
}

// NewEvent wraps rec with the fixed source and detail-type tags.
func NewEvent(rec domain.NewsRecord) Event {
	return Event{Source: EventSource, DetailType: EventDetailType, Record: rec}
}

// Payload is the wire body of the event: the record serialized as JSON, nothing else.
func (e Event) Payload() ([]byte, error) {
	payload, err := json.Marshal(e.Record)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return payload, nil
}

// Publisher delivers events to one destination.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// Notifier fans one event out to every configured publisher.
type Notifier struct {
	pubs []Publisher
	log  Logger
}

// NewNotifier builds a Notifier over pubs. Nil entries are ignored.
func NewNotifier(log Logger, pubs ...Publisher) *Notifier {
	n := &Notifier{log: ensureLogger(log)}
	for _, p := range pubs {
		if p != nil {
			n.pubs = append(n.pubs, p)
		}
	}
	return n
}

// Publishers returns the number of destinations.
func (n *Notifier) Publishers() int { return len(n.pubs) }

// Notify publishes one event for rec to every publisher. Every publisher is attempted; the
// returned error joins all failures.
func (n *Notifier) Notify(ctx context.Context, rec domain.NewsRecord) error {
	evt := NewEvent(rec)

	var errs []error
	for _, p := range n.pubs {
		if err := p.Publish(ctx, evt); err != nil {
			n.log.WarnObj("publisher failed", "publisher_error", map[string]any{
				"publisher_id": p.ID(),
				"record_id":    rec.ID,
				"error":        err.Error(),
			})
			errs = append(errs, fmt.Errorf("publisher %s: %w", p.ID(), err))
			continue
		}
		n.log.DebugObj("event published", "publisher_delivery", map[string]any{
			"publisher_id": p.ID(),
			"record_id":    rec.ID,
		})
	}
	return errors.Join(errs...)
}
