package domain

// Domain contains core models shared by the feed, store and publisher layers.

// RawArticle is one entry of a feed response. Every field is optional; a nil pointer means the
// feed omitted the field (or sent null).
type RawArticle struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Content     *string    `json:"content"`
	Source      *RawSource `json:"source"`
	URL         *string    `json:"url"`
	Author      *string    `json:"author,omitempty"`
	URLToImage  *string    `json:"urlToImage,omitempty"`
	PublishedAt *string    `json:"publishedAt,omitempty"`
}

// RawSource identifies the publication an article came from.
type RawSource struct {
	ID   *string `json:"id"`
	Name *string `json:"name"`
}

// SourceName returns the source name, or "" when the article carries none.
func (a RawArticle) SourceName() string {
	if a.Source == nil || a.Source.Name == nil {
		return ""
	}
	return *a.Source.Name
}

// NewsRecord is the canonical stored representation of one article. It is created once,
// written once and published once; expiry is left to the store via TTL.
type NewsRecord struct {
	ID        string `json:"id" dynamodbav:"id"`
	Timestamp string `json:"timestamp" dynamodbav:"timestamp"`
	Title     string `json:"title" dynamodbav:"title"`
	Content   string `json:"content" dynamodbav:"content"`
	Source    string `json:"source" dynamodbav:"source"`
	URL       string `json:"url" dynamodbav:"url"`
	TTL       int64  `json:"ttl" dynamodbav:"ttl"`
}

// Expired reports whether the record's TTL has passed at the given unix second.
func (r NewsRecord) Expired(nowUnix int64) bool {
	return r.TTL <= nowUnix
}

// StrPtr returns a pointer to s. Handy for building RawArticle values.
func StrPtr(s string) *string { return &s }
