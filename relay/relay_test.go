package relay_test

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lc4t/ArticlesData/db"
	"github.com/lc4t/ArticlesData/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "articles.db")
	require.NoError(t, db.Migrate(path))

	conn, err := db.Connect(path)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func newTestSource(t *testing.T, sources *db.Sources, suffix string) *models.Source {
	t.Helper()

	source := &models.Source{
		FetchMethod:   models.FetchMethodRSSHub,
		FetchURL:      fmt.Sprintf("https://rsshub.app/bilibili/video/%s", suffix),
		WebhookMethod: models.WebhookMethodIFTTT,
		WebhookURL:    fmt.Sprintf("https://maker.ifttt.com/trigger/video/with/key/%s", suffix),
		LastPolledAt:  time.Now().Add(-24 * time.Hour),
	}
	require.NoError(t, sources.Insert(context.Background(), source))
	return source
}

// stubRetriever serves canned candidates per feed URL and fails for URLs in
// its error set.
type stubRetriever struct {
	candidates map[string][]models.Candidate
	failing    map[string]bool
	fetches    []string
}

func (s *stubRetriever) Fetch(ctx context.Context, url string) ([]models.Candidate, error) {
	s.fetches = append(s.fetches, url)
	if s.failing[url] {
		return nil, fmt.Errorf("fetch feed: connection timed out")
	}
	return s.candidates[url], nil
}

func candidate(title, link string) models.Candidate {
	return models.Candidate{
		AuthorID:    2267573,
		AuthorName:  "alice",
		Link:        link,
		PublishedAt: time.Date(2023, 1, 2, 10, 0, 0, 0, time.UTC),
		Title:       title,
	}
}

// fakeChannel records deliveries and can be told to fail them.
type fakeChannel struct {
	method   string
	err      error
	notified []int64
}

func (f *fakeChannel) Method() string {
	return f.method
}

func (f *fakeChannel) Notify(ctx context.Context, source models.Source, item models.Item) error {
	if f.err != nil {
		return f.err
	}
	f.notified = append(f.notified, item.ID)
	return nil
}
