package cmd

import (
	"tootfeed/aggregator"
	"tootfeed/config"
	"tootfeed/fetcher"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/urfave/cli/v2"
)

const defaultDatabasePath = "./db/subscriptions.db"

func subscriptionsFlag(value string) cli.Flag {
	return &cli.StringFlag{
		Name:    "subscriptions",
		Aliases: []string{"s"},
		Usage:   "Subscription list (.json, .yaml, .toml) or SQLite database (.db)",
		EnvVars: []string{"TOOTFEED_SUBSCRIPTIONS"},
		Value:   value,
	}
}

// Flags shared by every command that fetches statuses
func fetchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:    "timeout",
			Usage:   "Timeout for each statuses request",
			EnvVars: []string{"TOOTFEED_TIMEOUT"},
			Value:   fetcher.DefaultTimeout,
		},
		&cli.IntFlag{
			Name:    "max-in-flight",
			Usage:   "Maximum number of concurrent statuses requests",
			EnvVars: []string{"TOOTFEED_MAX_IN_FLIGHT"},
			Value:   aggregator.DefaultMaxInFlight,
		},
		&cli.IntFlag{
			Name:    "limit",
			Usage:   "Maximum number of entries in the feed, 0 for no limit",
			EnvVars: []string{"TOOTFEED_LIMIT"},
			Value:   0,
		},
		&cli.StringFlag{
			Name:    "user-agent",
			Usage:   "User-Agent sent with statuses requests",
			EnvVars: []string{"TOOTFEED_USER_AGENT"},
			Value:   fetcher.DefaultUserAgent,
		},
	}
}

func serveConfig(ctx *cli.Context) config.ServeConfig {
	return config.ServeConfig{
		Host:              ctx.String("host"),
		Port:              ctx.Int("port"),
		SubscriptionsPath: ctx.String("subscriptions"),
		Timeout:           ctx.Duration("timeout"),
		RequestTimeout:    ctx.Duration("request-timeout"),
		MaxInFlight:       ctx.Int("max-in-flight"),
		Limit:             ctx.Int("limit"),
		UserAgent:         ctx.String("user-agent"),
	}
}

// newAggregator wires one pooled HTTP client into a fetcher shared by all
// fetches
func newAggregator(cfg config.ServeConfig) *aggregator.Aggregator {
	f := fetcher.New(cleanhttp.DefaultPooledClient(), fetcher.Options{
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
	})
	return aggregator.New(f, aggregator.Options{
		MaxInFlight: cfg.MaxInFlight,
		Limit:       cfg.Limit,
	})
}
