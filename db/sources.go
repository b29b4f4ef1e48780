package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"

	"github.com/lc4t/ArticlesData/models"
)

// ErrDuplicateSource is returned when a source with the same
// (fetch_method, fetch_url, webhook_method, webhook_url) pairing already
// exists.
var ErrDuplicateSource = errors.New("source pairing already configured")

// pollSkew is added to the poll timestamp so a just-polled source does not
// become eligible again on the scheduler's immediate next invocation.
const pollSkew = 8 * time.Hour

var sourceColumns = []string{
	"id", "fetch_method", "fetch_url", "webhook_method", "webhook_url",
	"allow_pattern", "deny_pattern", "label", "last_polled_at",
}

// Sources is the repository for configured feed-to-webhook pairings.
type Sources struct {
	db *sql.DB
}

func NewSources(db *sql.DB) *Sources {
	return &Sources{db: db}
}

// ListDue returns up to limit sources with the given fetch method, oldest
// polled first, so every run makes forward progress across all sources.
func (s *Sources) ListDue(ctx context.Context, method string, limit int) ([]models.Source, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(sourceColumns...).From("sources")
	sb.Where(sb.Equal("fetch_method", method))
	sb.OrderBy("last_polled_at").Asc()
	sb.Limit(limit)

	query, args := sb.Build()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query due sources: %w", err)
	}
	defer rows.Close()

	return scanSources(rows)
}

// List returns all configured sources in creation order.
func (s *Sources) List(ctx context.Context) ([]models.Source, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(sourceColumns...).From("sources")
	sb.OrderBy("id").Asc()

	query, args := sb.Build()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	return scanSources(rows)
}

// GetByID returns one source or sql.ErrNoRows.
func (s *Sources) GetByID(ctx context.Context, id int64) (*models.Source, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(sourceColumns...).From("sources")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	row := s.db.QueryRowContext(ctx, query, args...)

	source, err := scanSource(row)
	if err != nil {
		return nil, err
	}
	return source, nil
}

// Insert stores a new source and fills in its assigned id. A pairing that is
// already configured returns ErrDuplicateSource.
func (s *Sources) Insert(ctx context.Context, source *models.Source) error {
	// A never-polled source is stored as 0, not the zero time's unix value,
	// so it still sorts to the front of the due queue but lists readably.
	var lastPolled int64
	if !source.LastPolledAt.IsZero() {
		lastPolled = source.LastPolledAt.Unix()
	}

	ib := sqlbuilder.NewInsertBuilder()
	ib.InsertInto("sources").
		Cols("fetch_method", "fetch_url", "webhook_method", "webhook_url",
			"allow_pattern", "deny_pattern", "label", "last_polled_at").
		Values(source.FetchMethod, source.FetchURL, source.WebhookMethod, source.WebhookURL,
			source.AllowPattern, source.DenyPattern, source.Label, lastPolled)

	query, args := ib.Build()
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateSource
		}
		return fmt.Errorf("insert source: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("inserted source id: %w", err)
	}
	source.ID = id
	return nil
}

// RecordPoll advances the source's last_polled_at to now plus the fixed skew
// with a single-row update, so concurrent runs never lose each other's poll
// timestamps.
func (s *Sources) RecordPoll(ctx context.Context, source *models.Source) error {
	next := time.Now().Add(pollSkew)

	ub := sqlbuilder.NewUpdateBuilder()
	query, args := ub.Update("sources").
		Set(ub.Assign("last_polled_at", next.Unix())).
		Where(ub.Equal("id", source.ID)).
		Build()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("record poll: %w", err)
	}

	log.WithFields(log.Fields{
		"source":         source.ID,
		"last_polled_at": next.Unix(),
	}).Debug("Recorded poll")

	source.LastPolledAt = next
	return nil
}

func scanSources(rows *sql.Rows) ([]models.Source, error) {
	var sources []models.Source
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, *source)
	}
	return sources, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSource(row scanner) (*models.Source, error) {
	var source models.Source
	var lastPolled int64
	if err := row.Scan(
		&source.ID, &source.FetchMethod, &source.FetchURL,
		&source.WebhookMethod, &source.WebhookURL,
		&source.AllowPattern, &source.DenyPattern, &source.Label,
		&lastPolled,
	); err != nil {
		return nil, err
	}
	source.LastPolledAt = time.Unix(lastPolled, 0)
	return &source, nil
}
