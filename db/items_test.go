package db_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lc4t/ArticlesData/db"
	"github.com/lc4t/ArticlesData/models"
)

func newTestItem(source *models.Source, link string) *models.Item {
	return &models.Item{
		SourceID:    source.ID,
		AuthorID:    2267573,
		AuthorName:  "alice",
		Title:       "Hello",
		Link:        link,
		PublishedAt: time.Date(2023, 1, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestItemEntryUnique(t *testing.T) {
	conn := newTestDB(t)
	sources := db.NewSources(conn)
	items := db.NewItems(conn)
	ctx := context.Background()

	source := newTestSource(t, sources, "100")

	item := newTestItem(source, "https://www.bilibili.com/video/av100")
	require.NoError(t, items.Insert(ctx, item))
	assert.NotZero(t, item.ID)
	assert.Equal(t, models.StatusNew, item.Status)

	duplicate := newTestItem(source, "https://www.bilibili.com/video/av100")
	err := items.Insert(ctx, duplicate)
	assert.ErrorIs(t, err, db.ErrDuplicateItem)

	exists, err := items.Exists(ctx, source.ID, item.AuthorID, item.Link)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = items.Exists(ctx, source.ID, item.AuthorID, "https://www.bilibili.com/video/av999")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestListPendingInsertionOrderAndLimit(t *testing.T) {
	conn := newTestDB(t)
	sources := db.NewSources(conn)
	items := db.NewItems(conn)
	ctx := context.Background()

	source := newTestSource(t, sources, "100")

	var inserted []int64
	for i := 0; i < 10; i++ {
		item := newTestItem(source, fmt.Sprintf("https://www.bilibili.com/video/av%d", i))
		require.NoError(t, items.Insert(ctx, item))
		inserted = append(inserted, item.ID)
	}

	pending, err := items.ListPending(ctx, 3)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	for i, item := range pending {
		assert.Equal(t, inserted[i], item.ID)
	}
}

func TestMarkDeliveredIsIdempotent(t *testing.T) {
	conn := newTestDB(t)
	sources := db.NewSources(conn)
	items := db.NewItems(conn)
	ctx := context.Background()

	source := newTestSource(t, sources, "100")
	item := newTestItem(source, "https://www.bilibili.com/video/av100")
	require.NoError(t, items.Insert(ctx, item))

	require.NoError(t, items.MarkDelivered(ctx, item))
	assert.Equal(t, models.StatusDelivered, item.Status)

	// Marking again neither errors nor changes anything.
	require.NoError(t, items.MarkDelivered(ctx, item))
	assert.Equal(t, models.StatusDelivered, item.Status)

	pending, err := items.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
