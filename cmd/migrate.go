/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"tootfeed/db"

	"github.com/urfave/cli/v2"
)

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:        "migrate",
		Usage:       "Run database migrations",
		Description: `Runs migrations on the SQLite subscription database. Will create the database if it does not exist.`,
		Flags: []cli.Flag{
			subscriptionsFlag(defaultDatabasePath),
		},
		Action: func(ctx *cli.Context) error {
			return db.Migrate(ctx.String("subscriptions"))
		},
	}
}

func rollbackCmd() *cli.Command {
	return &cli.Command{
		Name:        "rollback",
		Usage:       "Rollback database migration",
		Description: `Rolls back the last migration of the SQLite subscription database`,
		Flags: []cli.Flag{
			subscriptionsFlag(defaultDatabasePath),
		},
		Action: func(ctx *cli.Context) error {
			return db.Rollback(ctx.String("subscriptions"))
		},
	}
}
