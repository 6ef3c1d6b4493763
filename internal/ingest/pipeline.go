package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/prism-news/internal/apperr"
	"github.com/Adda-Baaj/prism-news/internal/domain"
	"github.com/Adda-Baaj/prism-news/internal/logger"
	"github.com/Adda-Baaj/prism-news/internal/store"
	"github.com/Adda-Baaj/prism-news/pkg/providers"
)

// Normalizer builds the stored record for one raw article.
type Normalizer interface {
	Normalize(raw domain.RawArticle, now time.Time) domain.NewsRecord
}

// Notifier announces a stored record.
type Notifier interface {
	Notify(ctx context.Context, rec domain.NewsRecord) error
}

// Deps are the collaborators of a Pipeline. They are built once per process and shared by
// every run.
type Deps struct {
	Fetcher    providers.Fetcher
	Store      store.Writer
	Notifier   Notifier
	Normalizer Normalizer
	Clock      func() time.Time
	Log        logger.Logger
}

// RunConfig carries per-run inputs.
type RunConfig struct {
	APIKey string
}

// Pipeline runs one feed poll: fetch, then for each article normalize, store and publish,
// strictly in order. It holds no state between runs.
type Pipeline struct {
	provider   providers.Provider
	fetcher    providers.Fetcher
	store      store.Writer
	notifier   Notifier
	normalizer Normalizer
	clock      func() time.Time
	log        logger.Logger
}

// New validates deps and builds a Pipeline for provider.
func New(provider providers.Provider, deps Deps) (*Pipeline, error) {
	var missing []string
	if deps.Fetcher == nil {
		missing = append(missing, "fetcher")
	}
	if deps.Store == nil {
		missing = append(missing, "store")
	}
	if deps.Notifier == nil {
		missing = append(missing, "notifier")
	}
	if deps.Normalizer == nil {
		missing = append(missing, "normalizer")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("ingest pipeline missing %s", strings.Join(missing, ", "))
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	return &Pipeline{
		provider:   provider,
		fetcher:    deps.Fetcher,
		store:      deps.Store,
		notifier:   deps.Notifier,
		normalizer: deps.Normalizer,
		clock:      deps.Clock,
		log:        logger.Ensure(deps.Log),
	}, nil
}

// Run executes one poll. On success the outcome is Completed and err is nil. Otherwise the
// outcome is Aborted, its Cause equals err, and Processed counts the records that are durable.
func (p *Pipeline) Run(ctx context.Context, cfg RunConfig) (Outcome, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return aborted(Outcome{}, apperr.New(apperr.KindConfiguration, "NEWS_API_KEY environment variable is not set"))
	}

	provider := p.provider
	provider.APIKey = apiKey

	p.log.InfoObj("starting news ingestion", "ingest_start", map[string]any{
		"provider_id": provider.ID,
		"key_mode":    string(provider.EffectiveKeyMode()),
	})

	articles, err := p.fetcher.Fetch(ctx, provider)
	if err != nil {
		return aborted(Outcome{}, err)
	}

	out := Outcome{State: StateFetched, Fetched: len(articles)}
	p.log.InfoObj("feed fetched", "ingest_fetched", map[string]any{
		"provider_id": provider.ID,
		"articles":    len(articles),
	})

	for i, raw := range articles {
		pos := i + 1

		rec := p.normalizer.Normalize(raw, p.clock())
		p.step(StateNormalized, pos, rec)

		if err := p.store.Put(ctx, rec); err != nil {
			out.FailedAt = pos
			return aborted(out, apperr.Wrap(apperr.KindStorage, fmt.Sprintf("store article %d (%s)", pos, rec.ID), err))
		}
		out.Processed++
		p.step(StateStored, pos, rec)

		if err := p.notifier.Notify(ctx, rec); err != nil {
			// The record is durable and readable; the write is never repeated.
			out.NotifyFailures++
			nerr := apperr.Wrap(apperr.KindNotification, fmt.Sprintf("publish article %d (%s)", pos, rec.ID), err)
			p.log.WarnObj("notification failed, continuing", "ingest_notify_error", map[string]any{
				"position": pos,
				"id":       rec.ID,
				"error":    nerr.Error(),
			})
			continue
		}
		p.step(StatePublished, pos, rec)
	}

	out.State = StateCompleted
	p.log.InfoObj("news ingestion completed", "ingest_completed", map[string]any{
		"provider_id":     provider.ID,
		"processed":       out.Processed,
		"notify_failures": out.NotifyFailures,
	})
	return out, nil
}

func (p *Pipeline) step(state State, pos int, rec domain.NewsRecord) {
	p.log.DebugObj("article "+string(state), "ingest_article_"+string(state), map[string]any{
		"position": pos,
		"id":       rec.ID,
		"title":    rec.Title,
	})
}

func aborted(out Outcome, cause error) (Outcome, error) {
	out.State = StateAborted
	out.Cause = cause
	return out, cause
}

