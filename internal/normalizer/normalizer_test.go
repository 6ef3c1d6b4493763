package normalizer

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/prism-news/internal/domain"
)

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 987_654_321, time.UTC)

func sequenceIDs() IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestNormalize_Defaults(t *testing.T) {
	rec := New(sequenceIDs()).Normalize(domain.RawArticle{}, fixedNow)

	assert.Equal(t, domain.NewsRecord{
		ID:        "id-1",
		Timestamp: "2024-05-01T10:00:00.987Z",
		Title:     DefaultTitle,
		Content:   "",
		Source:    DefaultSource,
		URL:       "",
		TTL:       fixedNow.Unix() + 604800,
	}, rec)
}

func TestNormalize_BlankFieldsCountAsAbsent(t *testing.T) {
	blank := domain.StrPtr("   ")
	raw := domain.RawArticle{
		Title:       blank,
		Content:     blank,
		Description: domain.StrPtr("\t"),
		Source:      &domain.RawSource{Name: blank},
		URL:         blank,
	}

	rec := New(sequenceIDs()).Normalize(raw, fixedNow)

	assert.Equal(t, DefaultTitle, rec.Title)
	assert.Empty(t, rec.Content)
	assert.Equal(t, DefaultSource, rec.Source)
	assert.Empty(t, rec.URL)
}

func TestNormalize_ContentPriority(t *testing.T) {
	tests := []struct {
		name        string
		content     *string
		description *string
		want        string
	}{
		{name: "content wins", content: domain.StrPtr("body"), description: domain.StrPtr("desc"), want: "body"},
		{name: "description fallback", description: domain.StrPtr("desc"), want: "desc"},
		{name: "empty content falls through", content: domain.StrPtr(""), description: domain.StrPtr("desc"), want: "desc"},
		{name: "nothing", want: ""},
	}

	n := New(sequenceIDs())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := n.Normalize(domain.RawArticle{Content: tt.content, Description: tt.description}, fixedNow)
			assert.Equal(t, tt.want, rec.Content)
		})
	}
}

func TestNormalize_CopiesPresentFields(t *testing.T) {
	raw := domain.RawArticle{
		Title:  domain.StrPtr("Markets rally"),
		Source: &domain.RawSource{Name: domain.StrPtr("Reuters")},
		URL:    domain.StrPtr("https://example.com/a"),
	}

	rec := New(sequenceIDs()).Normalize(raw, fixedNow)

	assert.Equal(t, "Markets rally", rec.Title)
	assert.Equal(t, "Reuters", rec.Source)
	assert.Equal(t, "https://example.com/a", rec.URL)
}

func TestNormalize_SourceWithoutName(t *testing.T) {
	raw := domain.RawArticle{Source: &domain.RawSource{ID: domain.StrPtr("cnn")}}
	rec := New(sequenceIDs()).Normalize(raw, fixedNow)
	assert.Equal(t, DefaultSource, rec.Source)
}

func TestNormalize_Deterministic(t *testing.T) {
	raw := domain.RawArticle{Title: domain.StrPtr("A"), URL: domain.StrPtr("http://x")}

	a := New(func() string { return "same" }).Normalize(raw, fixedNow)
	b := New(func() string { return "same" }).Normalize(raw, fixedNow)
	assert.Equal(t, a, b)
}

func TestNormalize_TTL(t *testing.T) {
	for _, now := range []time.Time{
		fixedNow,
		time.Unix(0, 999_999_999).UTC(),
		time.Date(2030, 12, 31, 23, 59, 59, 1, time.FixedZone("x", 3600)),
	} {
		rec := New(sequenceIDs()).Normalize(domain.RawArticle{}, now)
		assert.Equal(t, now.Unix()+604800, rec.TTL)
		assert.Greater(t, rec.TTL, now.Unix())
	}
}

func TestNormalize_TimestampIsUTC(t *testing.T) {
	local := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	rec := New(sequenceIDs()).Normalize(domain.RawArticle{}, local)
	assert.Equal(t, "2024-05-01T10:00:00.000Z", rec.Timestamp)
}

func TestNormalize_DefaultIDsAreUniqueWithinMillisecond(t *testing.T) {
	n := New(nil)
	seen := make(map[string]struct{}, 2000)
	for i := 0; i < 2000; i++ {
		rec := n.Normalize(domain.RawArticle{Title: domain.StrPtr(fmt.Sprint(i))}, fixedNow)
		_, dup := seen[rec.ID]
		require.False(t, dup, "duplicate id %s at %d", rec.ID, i)
		seen[rec.ID] = struct{}{}

		parsed, err := uuid.Parse(rec.ID)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), parsed.Version())
	}
}
