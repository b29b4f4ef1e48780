package cmd

import (
	"fmt"

	"github.com/cqroot/prompt"
	"github.com/urfave/cli/v2"

	"github.com/lc4t/ArticlesData/db"
)

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:        "migrate",
		Usage:       "Run database migrations",
		Description: `Runs database migrations on the configured database. Will create the database if it does not exist.`,
		Flags: []cli.Flag{
			databaseFlag(),
		},
		Action: func(ctx *cli.Context) error {
			database := ctx.String("database")
			fmt.Println("Database configured: ", database)
			return db.Migrate(database)
		},
	}
}

func rollbackCmd() *cli.Command {
	return &cli.Command{
		Name:        "rollback",
		Usage:       "Roll back the most recent migration",
		Description: `Rolls back the most recent migration on the configured database. Asks for confirmation first.`,
		Flags: []cli.Flag{
			databaseFlag(),
		},
		Action: func(ctx *cli.Context) error {
			database := ctx.String("database")

			answer, err := prompt.New().Ask(fmt.Sprintf("Roll back the last migration on %s? (yes/no)", database)).Input("no")
			if err != nil {
				return err
			}
			if answer != "yes" {
				fmt.Println("Aborted")
				return nil
			}

			return db.Rollback(database)
		},
	}
}
