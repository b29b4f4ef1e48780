package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	log "github.com/sirupsen/logrus"

	"github.com/lc4t/ArticlesData/models"
)

// publishedLayout is the RFC-822 style timestamp rsshub feeds put in the
// published field, e.g. "Mon, 02 Jan 2023 10:00:00 GMT".
const publishedLayout = time.RFC1123

// fallbackAuthor is used when an entry carries no author field.
const fallbackAuthor = "unknown"

// Retriever fetches a feed document over HTTP and normalizes its entries
// into candidates. Retrieval is all-or-nothing: any transport, parse, or
// field error fails the whole fetch and the caller skips the source for
// this run.
type Retriever struct {
	parser *gofeed.Parser
}

func NewRetriever(timeout time.Duration) *Retriever {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	return &Retriever{parser: parser}
}

// Fetch retrieves and parses one feed URL. All candidates share the author
// id derived from the URL, since a feed tracks a single account's uploads.
func (r *Retriever) Fetch(ctx context.Context, feedURL string) ([]models.Candidate, error) {
	authorID, err := authorIDFromURL(feedURL)
	if err != nil {
		return nil, err
	}

	parsed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	candidates := make([]models.Candidate, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		published, err := time.Parse(publishedLayout, entry.Published)
		if err != nil {
			return nil, fmt.Errorf("parse published time %q: %w", entry.Published, err)
		}

		candidates = append(candidates, models.Candidate{
			AuthorID:    authorID,
			AuthorName:  authorName(entry),
			Link:        entry.Link,
			PublishedAt: published,
			Title:       entry.Title,
		})
	}

	log.WithFields(log.Fields{
		"url":     feedURL,
		"entries": len(candidates),
	}).Debug("Fetched feed")

	return candidates, nil
}

func authorName(entry *gofeed.Item) string {
	if entry.Author != nil && entry.Author.Name != "" {
		return entry.Author.Name
	}
	return fallbackAuthor
}

// authorIDFromURL extracts the trailing numeric path segment of the feed
// URL, e.g. 42 from ".../space/42/feed". Segments are scanned from the end
// so a non-numeric suffix like "/feed" does not hide the id.
func authorIDFromURL(feedURL string) (int64, error) {
	u, err := url.Parse(feedURL)
	if err != nil {
		return 0, fmt.Errorf("parse feed url: %w", err)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if id, err := strconv.ParseInt(segments[i], 10, 64); err == nil {
			return id, nil
		}
	}
	return 0, fmt.Errorf("no numeric path segment in feed url %q", feedURL)
}
