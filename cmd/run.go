package cmd

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/lc4t/ArticlesData/db"
	"github.com/lc4t/ArticlesData/feed"
	"github.com/lc4t/ArticlesData/notify"
	"github.com/lc4t/ArticlesData/relay"
)

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Poll due sources and dispatch pending notifications",
		Description: `Runs one relay pass and exits.

		First the ingestion loop polls the sources that have waited longest
		(oldest last_polled_at first), deduplicates and filters their
		entries, and stores new ones as pending. Then the dispatch loop
		delivers a bounded batch of pending entries to their webhooks and
		marks acknowledged ones delivered.`,
		Flags: []cli.Flag{
			databaseFlag(),
			&cli.IntFlag{
				Name:    "source-batch",
				Value:   30,
				Usage:   "Maximum number of sources polled per run",
				EnvVars: []string{"ARTICLESDATA_SOURCE_BATCH"},
			},
			&cli.IntFlag{
				Name:    "dispatch-limit",
				Value:   3,
				Usage:   "Maximum number of webhook deliveries per run",
				EnvVars: []string{"ARTICLESDATA_DISPATCH_LIMIT"},
			},
			&cli.DurationFlag{
				Name:    "fetch-timeout",
				Value:   30 * time.Second,
				Usage:   "Timeout for a single feed fetch",
				EnvVars: []string{"ARTICLESDATA_FETCH_TIMEOUT"},
			},
		},
		Action: func(ctx *cli.Context) error {
			conn, err := db.Connect(ctx.String("database"))
			if err != nil {
				return err
			}
			defer conn.Close()

			sources := db.NewSources(conn)
			items := db.NewItems(conn)
			retriever := feed.NewRetriever(ctx.Duration("fetch-timeout"))
			channels := notify.NewRegistry(notify.NewIFTTT())

			ingestor := relay.NewIngestor(sources, items, retriever, ctx.Int("source-batch"))
			ingest, err := ingestor.Run(ctx.Context)
			if err != nil {
				return err
			}

			dispatcher := relay.NewDispatcher(sources, items, channels, ctx.Int("dispatch-limit"))
			dispatch, err := dispatcher.Run(ctx.Context)
			if err != nil {
				return err
			}

			log.WithFields(log.Fields{
				"sources":    ingest.Sources,
				"considered": ingest.Considered,
				"inserted":   ingest.Inserted,
				"filtered":   ingest.Filtered,
				"duplicates": ingest.Duplicates,
				"pending":    dispatch.Pending,
				"delivered":  dispatch.Delivered,
				"failed":     dispatch.Failed,
			}).Info("Run complete")

			return nil
		},
	}
}
