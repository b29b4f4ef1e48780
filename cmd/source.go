package cmd

import (
	"errors"
	"fmt"

	"github.com/cqroot/prompt"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/lc4t/ArticlesData/config"
	"github.com/lc4t/ArticlesData/db"
	"github.com/lc4t/ArticlesData/models"
)

// sourceCmd groups the out-of-band provisioning commands. The scheduled run
// never creates or deletes sources; these commands are how pairings get into
// the database in the first place.
func sourceCmd() *cli.Command {
	return &cli.Command{
		Name:  "source",
		Usage: "Manage configured feed-to-webhook sources",
		Subcommands: []*cli.Command{
			sourceAddCmd(),
			sourceListCmd(),
			sourceSyncCmd(),
		},
	}
}

func sourceAddCmd() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a single source",
		Description: `Adds one feed-to-webhook pairing. Prompts for the feed and
		webhook URLs when the flags are not given. The same pairing can only
		be configured once.`,
		Flags: []cli.Flag{
			databaseFlag(),
			&cli.StringFlag{
				Name:  "fetch-url",
				Usage: "rsshub feed URL to poll",
			},
			&cli.StringFlag{
				Name:  "webhook-url",
				Usage: "IFTTT Maker webhook URL to deliver to",
			},
			&cli.StringFlag{
				Name:  "allow",
				Usage: "Only keep entries whose title matches this pattern (prefix match)",
			},
			&cli.StringFlag{
				Name:  "deny",
				Usage: "Drop entries whose title matches this pattern (prefix match)",
			},
			&cli.StringFlag{
				Name:  "label",
				Usage: "Free-form diagnostic tag",
			},
		},
		Action: func(ctx *cli.Context) error {
			fetchURL := ctx.String("fetch-url")
			if fetchURL == "" {
				var err error
				fetchURL, err = prompt.New().Ask("Feed URL:").Input("https://rsshub.app/bilibili/video/2267573")
				if err != nil {
					return err
				}
			}

			webhookURL := ctx.String("webhook-url")
			if webhookURL == "" {
				var err error
				webhookURL, err = prompt.New().Ask("Webhook URL:").Input("https://maker.ifttt.com/trigger/.../with/key/...")
				if err != nil {
					return err
				}
			}

			conn, err := db.Connect(ctx.String("database"))
			if err != nil {
				return err
			}
			defer conn.Close()

			source := models.Source{
				FetchMethod:   models.FetchMethodRSSHub,
				FetchURL:      fetchURL,
				WebhookMethod: models.WebhookMethodIFTTT,
				WebhookURL:    webhookURL,
				AllowPattern:  ctx.String("allow"),
				DenyPattern:   ctx.String("deny"),
				Label:         ctx.String("label"),
			}
			if err := db.NewSources(conn).Insert(ctx.Context, &source); err != nil {
				if errors.Is(err, db.ErrDuplicateSource) {
					return fmt.Errorf("this feed and webhook pairing is already configured")
				}
				return err
			}

			fmt.Printf("Added source %d (%s)\n", source.ID, source.FetchURL)
			return nil
		},
	}
}

func sourceListCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List configured sources",
		Flags: []cli.Flag{
			databaseFlag(),
		},
		Action: func(ctx *cli.Context) error {
			conn, err := db.Connect(ctx.String("database"))
			if err != nil {
				return err
			}
			defer conn.Close()

			sources, err := db.NewSources(conn).List(ctx.Context)
			if err != nil {
				return err
			}

			for _, source := range sources {
				fmt.Printf("%d\t%s\t%s -> %s\tlast polled %s\t%s\n",
					source.ID, source.FetchMethod, source.FetchURL,
					source.WebhookURL, source.LastPolledAt.Format("2006-01-02 15:04"),
					source.Label)
			}
			fmt.Printf("%d sources configured\n", len(sources))
			return nil
		},
	}
}

func sourceSyncCmd() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Add sources from a TOML file",
		Description: `Reads source definitions from a TOML file and adds the ones
		that are not configured yet. Already configured pairings are left
		untouched.`,
		Flags: []cli.Flag{
			databaseFlag(),
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config/sources.toml",
				Usage:   "Path to sources configuration file",
				EnvVars: []string{"ARTICLESDATA_CONFIG"},
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := config.LoadConfig(ctx.String("config"))
			if err != nil {
				return err
			}

			conn, err := db.Connect(ctx.String("database"))
			if err != nil {
				return err
			}
			defer conn.Close()

			sources := db.NewSources(conn)
			defs := lo.Map(cfg.Sources, func(def config.TomlSource, _ int) models.Source {
				if def.FetchMethod == "" {
					def.FetchMethod = models.FetchMethodRSSHub
				}
				if def.WebhookMethod == "" {
					def.WebhookMethod = models.WebhookMethodIFTTT
				}
				return models.Source{
					FetchMethod:   def.FetchMethod,
					FetchURL:      def.FetchURL,
					WebhookMethod: def.WebhookMethod,
					WebhookURL:    def.WebhookURL,
					AllowPattern:  def.Allow,
					DenyPattern:   def.Deny,
					Label:         def.Label,
				}
			})

			var added, skipped int
			for i := range defs {
				if err := sources.Insert(ctx.Context, &defs[i]); err != nil {
					if errors.Is(err, db.ErrDuplicateSource) {
						skipped++
						continue
					}
					return err
				}
				added++
			}

			log.WithFields(log.Fields{
				"added":   added,
				"skipped": skipped,
			}).Info("Sources synced")
			return nil
		},
	}
}
