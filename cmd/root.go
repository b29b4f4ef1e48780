package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "articlesdata",
		Usage: "Relay new feed entries to webhooks",
		Description: `Polls a configured set of rsshub feeds, stores entries it
		has not seen before, and pushes them to each source's IFTTT webhook.

		ArticlesData is meant to be invoked on a fixed cadence by cron or a
		similar scheduler. One "run" polls the sources that have waited
		longest, persists their new entries, and delivers a bounded batch of
		pending notifications. Entries that fail delivery stay pending and
		are retried on later runs.

		Flags can generally be set via environment variables, e.g.:

		--database => ARTICLESDATA_DATABASE=articles.db
		--dispatch-limit => ARTICLESDATA_DISPATCH_LIMIT=3
		`,
		Commands: []*cli.Command{
			runCmd(),
			migrateCmd(),
			rollbackCmd(),
			sourceCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

func Execute() {
	if err := RootApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func databaseFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "database",
		Aliases: []string{"d"},
		Value:   "articles.db",
		Usage:   "SQLite database file location",
		EnvVars: []string{"ARTICLESDATA_DATABASE"},
	}
}
