package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/prism-news/internal/apperr"
	"github.com/Adda-Baaj/prism-news/internal/domain"
	"github.com/Adda-Baaj/prism-news/internal/normalizer"
	"github.com/Adda-Baaj/prism-news/pkg/providers"
)

var runNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	articles []domain.RawArticle
	err      error
	calls    int
	gotKey   string
}

func (f *fakeFetcher) ID() string { return "fake" }

func (f *fakeFetcher) Fetch(_ context.Context, cfg providers.Provider) ([]domain.RawArticle, error) {
	f.calls++
	f.gotKey = cfg.APIKey
	return f.articles, f.err
}

// journal records every side effect in order so tests can assert sequencing.
type journal struct {
	events []string
}

type fakeStore struct {
	j      *journal
	failOn int // 1-based put attempt that fails
	puts   int
	saved  []domain.NewsRecord
}

func (s *fakeStore) Put(_ context.Context, rec domain.NewsRecord) error {
	s.puts++
	s.j.events = append(s.j.events, "put:"+rec.Title)
	if s.puts == s.failOn {
		return errors.New("provisioned throughput exceeded")
	}
	s.saved = append(s.saved, rec)
	return nil
}

type fakeNotifier struct {
	j         *journal
	failTitle string
	published []domain.NewsRecord
}

func (n *fakeNotifier) Notify(_ context.Context, rec domain.NewsRecord) error {
	n.j.events = append(n.j.events, "publish:"+rec.Title)
	if rec.Title == n.failTitle {
		return errors.New("bus unavailable")
	}
	n.published = append(n.published, rec)
	return nil
}

func titled(titles ...string) []domain.RawArticle {
	out := make([]domain.RawArticle, len(titles))
	for i, t := range titles {
		out[i] = domain.RawArticle{Title: domain.StrPtr(t)}
	}
	return out
}

type harness struct {
	fetcher  *fakeFetcher
	store    *fakeStore
	notifier *fakeNotifier
	j        *journal
	pipeline *Pipeline
}

func newHarness(t *testing.T, articles []domain.RawArticle) *harness {
	t.Helper()
	j := &journal{}
	h := &harness{
		fetcher:  &fakeFetcher{articles: articles},
		store:    &fakeStore{j: j},
		notifier: &fakeNotifier{j: j},
		j:        j,
	}
	n := 0
	p, err := New(providers.Provider{ID: "newsapi"}, Deps{
		Fetcher:  h.fetcher,
		Store:    h.store,
		Notifier: h.notifier,
		Normalizer: normalizer.New(func() string {
			n++
			return fmt.Sprintf("rec-%d", n)
		}),
		Clock: func() time.Time { return runNow },
	})
	require.NoError(t, err)
	h.pipeline = p
	return h
}

func TestRun_MissingCredential(t *testing.T) {
	h := newHarness(t, titled("A"))

	out, err := h.pipeline.Run(context.Background(), RunConfig{APIKey: "  "})

	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConfiguration))
	assert.Equal(t, StateAborted, out.State)
	assert.Zero(t, h.fetcher.calls)
	assert.Empty(t, h.j.events)
}

func TestRun_FetchFailureAbortsWithoutWrites(t *testing.T) {
	for _, kind := range []apperr.Kind{apperr.KindTimeout, apperr.KindUpstream, apperr.KindInvalidResponse} {
		t.Run(string(kind), func(t *testing.T) {
			h := newHarness(t, nil)
			h.fetcher.err = apperr.New(kind, "feed failed")

			out, err := h.pipeline.Run(context.Background(), RunConfig{APIKey: "k"})

			require.Error(t, err)
			assert.Equal(t, kind, apperr.KindOf(err))
			assert.Equal(t, StateAborted, out.State)
			assert.Zero(t, out.Processed)
			assert.Empty(t, h.j.events)
		})
	}
}

func TestRun_PassesCredentialToFetcher(t *testing.T) {
	h := newHarness(t, nil)

	out, err := h.pipeline.Run(context.Background(), RunConfig{APIKey: " secret "})

	require.NoError(t, err)
	assert.Equal(t, "secret", h.fetcher.gotKey)
	assert.True(t, out.Completed())
	assert.Zero(t, out.Processed)
}

func TestRun_StoresThenPublishesInOrder(t *testing.T) {
	h := newHarness(t, titled("A", "B", "C"))

	out, err := h.pipeline.Run(context.Background(), RunConfig{APIKey: "k"})

	require.NoError(t, err)
	assert.Equal(t, Outcome{State: StateCompleted, Fetched: 3, Processed: 3}, out)
	assert.Equal(t, []string{
		"put:A", "publish:A",
		"put:B", "publish:B",
		"put:C", "publish:C",
	}, h.j.events)
	assert.Equal(t, h.store.saved, h.notifier.published)
}

func TestRun_StoreFailureAbortsAtArticle(t *testing.T) {
	h := newHarness(t, titled("A", "B", "C"))
	h.store.failOn = 2

	out, err := h.pipeline.Run(context.Background(), RunConfig{APIKey: "k"})

	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindStorage))
	assert.Contains(t, err.Error(), "provisioned throughput exceeded")

	assert.Equal(t, StateAborted, out.State)
	assert.Equal(t, 3, out.Fetched)
	assert.Equal(t, 1, out.Processed)
	assert.Equal(t, 2, out.FailedAt)
	assert.Equal(t, err, out.Cause)

	// B is never published and C is never attempted.
	assert.Equal(t, []string{"put:A", "publish:A", "put:B"}, h.j.events)
	require.Len(t, h.store.saved, 1)
	assert.Equal(t, "A", h.store.saved[0].Title)
}

func TestRun_NotificationFailureIsNonFatal(t *testing.T) {
	h := newHarness(t, titled("A", "B", "C"))
	h.notifier.failTitle = "B"

	out, err := h.pipeline.Run(context.Background(), RunConfig{APIKey: "k"})

	require.NoError(t, err)
	assert.Equal(t, StateCompleted, out.State)
	assert.Equal(t, 3, out.Processed)
	assert.Equal(t, 1, out.NotifyFailures)
	// B was written exactly once despite the failed publish.
	assert.Equal(t, []string{
		"put:A", "publish:A",
		"put:B", "publish:B",
		"put:C", "publish:C",
	}, h.j.events)
	assert.Equal(t, 3, h.store.puts)
}

func TestRun_RecordsCarryDistinctIDs(t *testing.T) {
	h := newHarness(t, titled("A", "A"))

	_, err := h.pipeline.Run(context.Background(), RunConfig{APIKey: "k"})

	require.NoError(t, err)
	require.Len(t, h.store.saved, 2)
	assert.NotEqual(t, h.store.saved[0].ID, h.store.saved[1].ID)
	assert.Equal(t, runNow.Unix()+604800, h.store.saved[0].TTL)
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(providers.Provider{}, Deps{})
	require.Error(t, err)
	assert.Equal(t, "ingest pipeline missing fetcher, store, notifier, normalizer", err.Error())
}
