/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"

	"tootfeed/config"
	"tootfeed/db"
	"tootfeed/models"

	"github.com/cqroot/prompt"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
)

// subscriptionsCmd manages the subscription list
func subscriptionsCmd() *cli.Command {
	return &cli.Command{
		Name:  "subscriptions",
		Usage: "List and manage subscriptions",
		Description: `Lists the subscriptions of any subscription list and adds or removes
subscriptions in an SQLite subscription database.`,
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Print all subscriptions",
				Flags: []cli.Flag{
					subscriptionsFlag(defaultDatabasePath),
				},
				Action: func(ctx *cli.Context) error {
					source, err := config.OpenSource(ctx.String("subscriptions"))
					if err != nil {
						return err
					}
					defer source.Close()

					subs, err := source.Subscriptions(ctx.Context)
					if err != nil {
						return err
					}
					return printSubscriptions(os.Stdout, subs)
				},
			},
			{
				Name:  "add",
				Usage: "Add a subscription, prompting for missing values",
				Flags: []cli.Flag{
					subscriptionsFlag(defaultDatabasePath),
					&cli.StringFlag{
						Name:    "account",
						Aliases: []string{"a"},
						Usage:   "Name of the subscribed account",
					},
					&cli.StringFlag{
						Name:    "url",
						Aliases: []string{"u"},
						Usage:   "Account url, statuses are fetched from <url>/statuses",
					},
				},
				Action: func(ctx *cli.Context) error {
					path, err := databasePath(ctx)
					if err != nil {
						return err
					}

					account := ctx.String("account")
					if account == "" {
						account, err = prompt.New().Ask("Account:").Input("alice")
						if err != nil {
							return err
						}
					}

					rawURL := ctx.String("url")
					if rawURL == "" {
						rawURL, err = prompt.New().Ask("URL:").Input("https://mastodon.example/api/v1/accounts/1")
						if err != nil {
							return err
						}
					}

					sub, err := newSubscription(account, rawURL)
					if err != nil {
						return err
					}

					if err := db.Migrate(path); err != nil {
						return err
					}

					writer, err := db.NewWriter(path)
					if err != nil {
						return err
					}
					defer writer.Close()

					if err := writer.Add(ctx.Context, sub); err != nil {
						return err
					}
					fmt.Printf("Subscribed to %s\n", sub.Account)
					return nil
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove subscriptions by account name or url",
				ArgsUsage: "<account or url>...",
				Flags: []cli.Flag{
					subscriptionsFlag(defaultDatabasePath),
				},
				Action: func(ctx *cli.Context) error {
					if ctx.NArg() == 0 {
						return fmt.Errorf("at least one account or url is required")
					}

					path, err := databasePath(ctx)
					if err != nil {
						return err
					}

					writer, err := db.NewWriter(path)
					if err != nil {
						return err
					}
					defer writer.Close()

					for _, key := range lo.Uniq(ctx.Args().Slice()) {
						n, err := writer.Remove(ctx.Context, key)
						if err != nil {
							return err
						}
						fmt.Printf("Removed %d subscription(s) matching %s\n", n, key)
					}
					return nil
				},
			},
		},
	}
}

func databasePath(ctx *cli.Context) (string, error) {
	path := ctx.String("subscriptions")
	if !config.IsDatabase(path) {
		return "", fmt.Errorf("%s is not an SQLite subscription database (.db, .sqlite)", path)
	}
	return path, nil
}

// newSubscription validates user input for a new subscription
func newSubscription(account string, rawURL string) (models.Subscription, error) {
	account = strings.TrimSpace(account)
	rawURL = strings.TrimSpace(rawURL)

	if account == "" {
		return models.Subscription{}, fmt.Errorf("account is required")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return models.Subscription{}, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return models.Subscription{}, fmt.Errorf("invalid url %q: must be an absolute http(s) url", rawURL)
	}

	return models.Subscription{
		Account: account,
		URL:     strings.TrimRight(rawURL, "/"),
	}, nil
}

func printSubscriptions(w io.Writer, subs []models.Subscription) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tURL")
	for _, sub := range subs {
		fmt.Fprintf(tw, "%s\t%s\n", sub.Account, sub.URL)
	}
	return tw.Flush()
}
