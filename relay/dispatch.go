package relay

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/lc4t/ArticlesData/db"
	"github.com/lc4t/ArticlesData/models"
	"github.com/lc4t/ArticlesData/notify"
)

// DispatchStats counts what one dispatch pass did.
type DispatchStats struct {
	Pending   int
	Delivered int
	Failed    int
}

// Dispatcher delivers a bounded batch of pending items per run. There is no
// attempt counter or backoff: an item that keeps failing delivery is retried
// on every run until it succeeds.
type Dispatcher struct {
	sources  *db.Sources
	items    *db.Items
	channels notify.Registry
	limit    int
}

func NewDispatcher(sources *db.Sources, items *db.Items, channels notify.Registry, limit int) *Dispatcher {
	return &Dispatcher{
		sources:  sources,
		items:    items,
		channels: channels,
		limit:    limit,
	}
}

// Run delivers up to the configured limit of pending items, oldest first.
// Items whose delivery fails, or whose source names an unknown webhook
// method, stay pending for the next run.
func (d *Dispatcher) Run(ctx context.Context) (DispatchStats, error) {
	var stats DispatchStats

	pending, err := d.items.ListPending(ctx, d.limit)
	if err != nil {
		return stats, fmt.Errorf("list pending items: %w", err)
	}
	stats.Pending = len(pending)

	log.WithFields(log.Fields{
		"pending": len(pending),
		"items": lo.Map(pending, func(item models.Item, _ int) int64 {
			return item.ID
		}),
	}).Info("Dispatching pending items")

	for i := range pending {
		item := &pending[i]

		source, err := d.sources.GetByID(ctx, item.SourceID)
		if err != nil {
			log.WithFields(log.Fields{
				"item":   item.ID,
				"source": item.SourceID,
			}).WithError(err).Error("Failed to resolve source")
			stats.Failed++
			continue
		}

		channel, ok := d.channels[source.WebhookMethod]
		if !ok {
			log.WithFields(log.Fields{
				"item":   item.ID,
				"method": source.WebhookMethod,
			}).Warn("No channel for webhook method, item stays pending")
			stats.Failed++
			continue
		}

		if err := channel.Notify(ctx, *source, *item); err != nil {
			log.WithFields(log.Fields{
				"item":    item.ID,
				"webhook": source.WebhookURL,
			}).WithError(err).Warn("Delivery failed, item stays pending")
			stats.Failed++
			continue
		}

		if err := d.items.MarkDelivered(ctx, item); err != nil {
			// Delivered but not recorded; the next run re-delivers, which
			// the at-least-once contract allows.
			log.WithField("item", item.ID).WithError(err).Error("Failed to mark item delivered")
			stats.Failed++
			continue
		}

		log.WithFields(log.Fields{
			"item":  item.ID,
			"title": item.Title,
		}).Info("Item delivered")
		stats.Delivered++
	}

	return stats, nil
}
