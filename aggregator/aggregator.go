package aggregator

import (
	"context"
	"errors"
	"time"

	"tootfeed/fetcher"
	"tootfeed/models"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const DefaultMaxInFlight = 8

var (
	aggregationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tootfeed_aggregation_duration_seconds",
		Help:    "Duration of a full fetch, merge, filter and sort run",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	aggregationEntries = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tootfeed_aggregation_entries",
		Help:    "Number of entries left after filtering",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	subscriptionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tootfeed_subscription_failures_total",
		Help: "The total number of subscriptions that contributed no entries because their fetch failed",
	})

	boostsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tootfeed_boosts_dropped_total",
		Help: "The total number of entries dropped for having empty content",
	})
)

// Fetcher retrieves the entries of one subscription
type Fetcher interface {
	Fetch(ctx context.Context, sub models.Subscription) ([]models.Entry, error)
}

var _ Fetcher = (*fetcher.Fetcher)(nil)

// Options configures an Aggregator
type Options struct {
	// MaxInFlight bounds the number of concurrent fetches
	MaxInFlight int
	// Limit truncates the sorted result, 0 means no limit
	Limit int
}

type Aggregator struct {
	fetcher Fetcher
	opts    Options
}

func New(f Fetcher, opts Options) *Aggregator {
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = DefaultMaxInFlight
	}
	if opts.Limit < 0 {
		opts.Limit = 0
	}
	return &Aggregator{fetcher: f, opts: opts}
}

// Aggregate fetches every subscription concurrently and returns the merged
// entries without boosts, newest first. A failing subscription contributes
// nothing; the call itself never fails. If ctx is cancelled before all
// fetches settle, no entries are returned.
func (a *Aggregator) Aggregate(ctx context.Context, subs []models.Subscription) []models.Entry {
	start := time.Now()
	runId := uuid.New().String()

	logger := log.WithFields(log.Fields{
		"run":           runId,
		"subscriptions": len(subs),
	})
	logger.Debug("Starting aggregation")

	// One slot per subscription, written only by its own task
	results := make([][]models.Entry, len(subs))

	g := new(errgroup.Group)
	g.SetLimit(a.opts.MaxInFlight)

	for i, sub := range subs {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			entries, err := a.fetcher.Fetch(ctx, sub)
			if err != nil {
				subscriptionFailures.Inc()
				logFetchError(logger, sub, err)
				return nil
			}
			results[i] = entries
			return nil
		})
	}

	// Tasks never return errors, failures are absorbed above
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		logger.WithField("error", err).Warn("Aggregation cancelled, discarding entries")
		return nil
	}

	merged := Merge(results)
	entries := Filter(merged)
	boostsDropped.Add(float64(len(merged) - len(entries)))
	Sort(entries)

	if a.opts.Limit > 0 && len(entries) > a.opts.Limit {
		entries = entries[:a.opts.Limit]
	}

	aggregationDuration.Observe(time.Since(start).Seconds())
	aggregationEntries.Observe(float64(len(entries)))

	logger.WithFields(log.Fields{
		"fetched": len(merged),
		"entries": len(entries),
		"latency": time.Since(start),
	}).Info("Aggregated feed")

	return entries
}

func logFetchError(logger *log.Entry, sub models.Subscription, err error) {
	fields := log.Fields{
		"account": sub.Account,
		"url":     sub.URL,
		"error":   err,
	}

	var fetchErr *fetcher.FetchError
	if errors.As(err, &fetchErr) {
		fields["kind"] = fetchErr.Kind
		if fetchErr.StatusCode != 0 {
			fields["status"] = fetchErr.StatusCode
		}
	}

	logger.WithFields(fields).Error("Error fetching statuses")
}

// Merge concatenates the per subscription results
func Merge(results [][]models.Entry) []models.Entry {
	return lo.Flatten(results)
}

// Filter drops boosts, entries with empty content
func Filter(entries []models.Entry) []models.Entry {
	return lo.Filter(entries, func(e models.Entry, _ int) bool {
		return !e.Boost()
	})
}
