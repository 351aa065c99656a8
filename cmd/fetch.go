/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"tootfeed/config"
	"tootfeed/models"
	"tootfeed/render"

	"github.com/urfave/cli/v2"
)

// fetchCmd runs a single aggregation and prints the result
func fetchCmd() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Aggregate the feed once and print it",
		Description: `Fetches every subscription once and prints the rendered HTML feed
to stdout.

With --json each entry is printed as a JSON object on a single line,
newest first. Use a tool like jq to process the output.

Prints all log messages to stderr.`,
		Flags: append([]cli.Flag{
			subscriptionsFlag(config.DefaultSubscriptionsPath),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print entries as JSON lines instead of HTML",
			},
		}, fetchFlags()...),
		Action: func(ctx *cli.Context) error {
			cfg := serveConfig(ctx)

			source, err := config.OpenSource(cfg.SubscriptionsPath)
			if err != nil {
				return err
			}
			defer source.Close()

			subs, err := source.Subscriptions(ctx.Context)
			if err != nil {
				return err
			}

			entries := newAggregator(cfg).Aggregate(ctx.Context, subs)

			if ctx.Bool("json") {
				return printJSONLines(os.Stdout, entries)
			}

			renderer, err := render.New()
			if err != nil {
				return err
			}
			out, err := renderer.Render(entries)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(os.Stdout, out)
			return err
		},
	}
}

func printJSONLines(w io.Writer, entries []models.Entry) error {
	enc := json.NewEncoder(w)
	for _, entry := range entries {
		if err := enc.Encode(entry); err != nil {
			return fmt.Errorf("failed to encode entry: %w", err)
		}
	}
	return nil
}
