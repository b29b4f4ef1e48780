package db_test

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
		LastPolledAt:  time.Now(),
	}
	require.NoError(t, sources.Insert(context.Background(), source))
	return source
}
