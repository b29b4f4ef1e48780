package models

import "time"

// Supported fetch and webhook methods. Only one of each is implemented, but
// both are stored per source so new methods can be added without a schema
// change.
const (
	FetchMethodRSSHub  = "rsshub"
	WebhookMethodIFTTT = "ifttt"
)

// Item delivery states
const (
	StatusNew       = "new"
	StatusDelivered = "delivered"
)

// Source is one configured feed-to-webhook pairing with polling state and
// filter rules. The (fetch_method, fetch_url, webhook_method, webhook_url)
// tuple is unique.
type Source struct {
	ID            int64
	FetchMethod   string
	FetchURL      string
	WebhookMethod string
	WebhookURL    string
	AllowPattern  string
	DenyPattern   string
	Label         string
	LastPolledAt  time.Time
}

// Item is one persisted, deduplicated feed entry with a delivery status. The
// (source_id, author_id, link) tuple is unique.
type Item struct {
	ID          int64
	SourceID    int64
	AuthorID    int64
	AuthorName  string
	Title       string
	Link        string
	PublishedAt time.Time
	Status      string
	CreatedAt   time.Time
}

// Candidate is a feed entry freshly parsed from a retrieval call, not yet
// checked for dedup or filtering.
type Candidate struct {
	AuthorID    int64
	AuthorName  string
	Link        string
	PublishedAt time.Time
	Title       string
}
