// Package relay contains the two loops of a run: ingestion (poll feeds,
// persist new entries) and dispatch (deliver pending entries to webhooks).
package relay

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/lc4t/ArticlesData/db"
	"github.com/lc4t/ArticlesData/filter"
	"github.com/lc4t/ArticlesData/models"
)

// Retriever fetches and normalizes one feed document.
type Retriever interface {
	Fetch(ctx context.Context, url string) ([]models.Candidate, error)
}

// IngestStats counts what one ingestion pass did.
type IngestStats struct {
	Sources    int
	Considered int
	Inserted   int
	Filtered   int
	Duplicates int
}

// Ingestor polls due sources and persists their new entries.
type Ingestor struct {
	sources   *db.Sources
	items     *db.Items
	retriever Retriever
	batch     int
}

func NewIngestor(sources *db.Sources, items *db.Items, retriever Retriever, batch int) *Ingestor {
	return &Ingestor{
		sources:   sources,
		items:     items,
		retriever: retriever,
		batch:     batch,
	}
}

// Run processes one bounded batch of due sources. A failed fetch skips the
// source without recording a poll, so it keeps its place at the front of the
// due queue; a source that always fails is therefore retried ahead of
// healthy ones every run, a known limitation. No candidate or source failure
// aborts the rest of the run; only failing to list the batch does.
func (in *Ingestor) Run(ctx context.Context) (IngestStats, error) {
	var stats IngestStats

	sources, err := in.sources.ListDue(ctx, models.FetchMethodRSSHub, in.batch)
	if err != nil {
		return stats, fmt.Errorf("list due sources: %w", err)
	}
	stats.Sources = len(sources)

	log.WithField("sources", len(sources)).Info("Polling due sources")

	for i := range sources {
		source := &sources[i]

		candidates, err := in.retriever.Fetch(ctx, source.FetchURL)
		if err != nil {
			log.WithFields(log.Fields{
				"source": source.ID,
				"url":    source.FetchURL,
			}).WithError(err).Warn("Feed fetch failed, skipping source")
			continue
		}

		log.WithFields(log.Fields{
			"source":  source.ID,
			"entries": len(candidates),
		}).Info("Feed returned entries")

		for _, candidate := range candidates {
			stats.Considered++
			in.ingest(ctx, source, candidate, &stats)
		}

		if err := in.sources.RecordPoll(ctx, source); err != nil {
			log.WithField("source", source.ID).WithError(err).Error("Failed to record poll")
		}
	}

	return stats, nil
}

// ingest handles one candidate: dedup, filter, insert. Every failure is
// contained here.
func (in *Ingestor) ingest(ctx context.Context, source *models.Source, candidate models.Candidate, stats *IngestStats) {
	seen, err := in.items.Exists(ctx, source.ID, candidate.AuthorID, candidate.Link)
	if err != nil {
		log.WithField("link", candidate.Link).WithError(err).Error("Dedup lookup failed")
		return
	}
	if seen {
		return
	}

	ok, err := filter.Passes(*source, candidate)
	if err != nil {
		log.WithFields(log.Fields{
			"source": source.ID,
			"title":  candidate.Title,
		}).WithError(err).Warn("Filter failed, dropping candidate")
		stats.Filtered++
		return
	}
	if !ok {
		log.WithFields(log.Fields{
			"source": source.ID,
			"title":  candidate.Title,
		}).Debug("Candidate rejected by filter")
		stats.Filtered++
		return
	}

	item := models.Item{
		SourceID:    source.ID,
		AuthorID:    candidate.AuthorID,
		AuthorName:  candidate.AuthorName,
		Title:       candidate.Title,
		Link:        candidate.Link,
		PublishedAt: candidate.PublishedAt,
		Status:      models.StatusNew,
	}
	if err := in.items.Insert(ctx, &item); err != nil {
		if errors.Is(err, db.ErrDuplicateItem) {
			// Another run inserted it between our dedup check and now.
			stats.Duplicates++
			return
		}
		log.WithField("link", candidate.Link).WithError(err).Error("Failed to insert item")
		return
	}

	log.WithFields(log.Fields{
		"item":   item.ID,
		"source": source.ID,
		"title":  item.Title,
	}).Info("Stored new item")
	stats.Inserted++
}
