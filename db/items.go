package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlbuilder "github.com/huandu/go-sqlbuilder"

	"github.com/lc4t/ArticlesData/models"
)

// ErrDuplicateItem is returned when the same entry from the same source was
// already stored, typically because an overlapping run got there first.
// Callers treat it as benign.
var ErrDuplicateItem = errors.New("item already stored")

var itemColumns = []string{
	"id", "source_id", "author_id", "author_name", "title", "link",
	"published_at", "status", "created_at",
}

// Items is the repository for persisted feed entries.
type Items struct {
	db *sql.DB
}

func NewItems(db *sql.DB) *Items {
	return &Items{db: db}
}

// Exists is the dedup check on the (source_id, author_id, link) key.
func (i *Items) Exists(ctx context.Context, sourceID, authorID int64, link string) (bool, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("1").From("items")
	sb.Where(
		sb.Equal("source_id", sourceID),
		sb.Equal("author_id", authorID),
		sb.Equal("link", link),
	)
	sb.Limit(1)

	query, args := sb.Build()
	var one int
	err := i.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("dedup lookup: %w", err)
	}
	return true, nil
}

// Insert stores a new item and fills in its assigned id. Status defaults to
// new and created_at to now when unset. A uniqueness violation returns
// ErrDuplicateItem.
func (i *Items) Insert(ctx context.Context, item *models.Item) error {
	if item.Status == "" {
		item.Status = models.StatusNew
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	ib := sqlbuilder.NewInsertBuilder()
	ib.InsertInto("items").
		Cols("source_id", "author_id", "author_name", "title", "link",
			"published_at", "status", "created_at").
		Values(item.SourceID, item.AuthorID, item.AuthorName, item.Title, item.Link,
			item.PublishedAt.Unix(), item.Status, item.CreatedAt.Unix())

	query, args := ib.Build()
	res, err := i.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateItem
		}
		return fmt.Errorf("insert item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("inserted item id: %w", err)
	}
	item.ID = id
	return nil
}

// ListPending returns up to limit undelivered items in insertion order.
func (i *Items) ListPending(ctx context.Context, limit int) ([]models.Item, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(itemColumns...).From("items")
	sb.Where(sb.Equal("status", models.StatusNew))
	sb.OrderBy("id").Asc()
	sb.Limit(limit)

	query, args := sb.Build()
	rows, err := i.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var item models.Item
		var published, created int64
		if err := rows.Scan(
			&item.ID, &item.SourceID, &item.AuthorID, &item.AuthorName,
			&item.Title, &item.Link, &published, &item.Status, &created,
		); err != nil {
			return nil, err
		}
		item.PublishedAt = time.Unix(published, 0)
		item.CreatedAt = time.Unix(created, 0)
		items = append(items, item)
	}
	return items, rows.Err()
}

// MarkDelivered transitions the item to delivered. Marking an already
// delivered item is a no-op.
func (i *Items) MarkDelivered(ctx context.Context, item *models.Item) error {
	ub := sqlbuilder.NewUpdateBuilder()
	query, args := ub.Update("items").
		Set(ub.Assign("status", models.StatusDelivered)).
		Where(ub.Equal("id", item.ID)).
		Build()

	if _, err := i.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}

	item.Status = models.StatusDelivered
	return nil
}
