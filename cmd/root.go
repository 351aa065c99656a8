/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "tootfeed",
		Usage: "Aggregate toots from many accounts into one HTML feed",
		Description: `Fetches the latest statuses of every subscribed account, drops
		boosts, sorts everything newest first and renders the result as an
		embeddable HTML fragment.

		The subscription list is a JSON, YAML or TOML file, or an SQLite
		database managed with the subscriptions command.

		Flags can generally be set via environment variables, e.g.:

		--subscriptions => TOOTFEED_SUBSCRIPTIONS=./db/subscriptions.json
		--port => TOOTFEED_PORT=8080
		`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (trace, debug, info, warn, error)",
				EnvVars: []string{"TOOTFEED_LOG_LEVEL"},
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text or json)",
				EnvVars: []string{"TOOTFEED_LOG_FORMAT"},
				Value:   "text",
			},
		},
		Before: func(ctx *cli.Context) error {
			return setupLogging(ctx.String("log-level"), ctx.String("log-format"))
		},
		Commands: []*cli.Command{
			serveCmd(),
			fetchCmd(),
			subscriptionsCmd(),
			migrateCmd(),
			rollbackCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

func setupLogging(level string, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(lvl)

	// stdout is reserved for command output
	log.SetOutput(os.Stderr)

	switch format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("invalid log format %q", format)
	}
	return nil
}
