/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tootfeed/config"
	"tootfeed/render"
	"tootfeed/server"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// serveCmd represents the serve command
func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the aggregated feed over HTTP",
		Description: `Starts the tootfeed HTTP server.

Every GET / reloads the subscription list, fetches the statuses of all
subscriptions concurrently and responds with the rendered HTML feed.
Subscriptions that fail to respond are left out of the feed.`,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Usage:   "Host to bind the HTTP server to",
				EnvVars: []string{"TOOTFEED_HOST"},
				Value:   "127.0.0.1",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to bind the HTTP server to",
				EnvVars: []string{"TOOTFEED_PORT"},
				Value:   8080,
			},
			&cli.DurationFlag{
				Name:    "request-timeout",
				Usage:   "Upper bound for building one feed response, 0 disables it",
				EnvVars: []string{"TOOTFEED_REQUEST_TIMEOUT"},
				Value:   30 * time.Second,
			},
			subscriptionsFlag(config.DefaultSubscriptionsPath),
		}, fetchFlags()...),
		Action: func(ctx *cli.Context) error {
			cfg := serveConfig(ctx)

			source, err := config.OpenSource(cfg.SubscriptionsPath)
			if err != nil {
				return err
			}
			defer source.Close()

			renderer, err := render.New()
			if err != nil {
				return err
			}

			app := server.Server(&server.ServerConfig{
				Source:     source,
				Aggregator: newAggregator(cfg),
				Renderer:   renderer,

				RequestTimeout: cfg.RequestTimeout,
			})

			// Graceful shutdown
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			errChan := make(chan error, 1)
			go func() {
				log.WithFields(log.Fields{
					"address":       cfg.Address(),
					"subscriptions": cfg.SubscriptionsPath,
				}).Info("Starting server")
				errChan <- app.Listen(cfg.Address())
			}()

			select {
			case err := <-errChan:
				return fmt.Errorf("server stopped: %w", err)
			case sig := <-sigChan:
				log.WithField("signal", sig).Info("Gracefully shutting down")
			case <-ctx.Context.Done():
				log.Info("Gracefully shutting down")
			}

			if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
				return fmt.Errorf("shutdown failed: %w", err)
			}

			log.Info("Done")
			return nil
		},
	}
}
