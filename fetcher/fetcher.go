package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tootfeed/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

// StatusesPath is appended to a subscription url to get its statuses endpoint
const StatusesPath = "/statuses"

const (
	DefaultTimeout      = 10 * time.Second
	DefaultMaxBodyBytes = 8 << 20 // 8MB
	DefaultUserAgent    = "tootfeed/1.0"
)

var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tootfeed_fetch_total",
		Help: "The total number of statuses fetches by result",
	}, []string{"result"})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tootfeed_fetch_duration_seconds",
		Help:    "Duration of statuses fetches",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // Start at 10ms, double each bucket
	})

	fetchEntries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tootfeed_fetch_entries_total",
		Help: "The total number of entries decoded from remote statuses",
	})
)

// Options configures a Fetcher
type Options struct {
	// Timeout bounds each fetch, including reading the body
	Timeout time.Duration
	// MaxBodyBytes caps the response body that will be decoded
	MaxBodyBytes int64
	UserAgent    string
}

// Fetcher retrieves the statuses of a single subscription.
// It holds no per-fetch state and is safe for concurrent use.
type Fetcher struct {
	client *http.Client
	opts   Options
}

func New(client *http.Client, opts Options) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &Fetcher{client: client, opts: opts}
}

// StatusesURL composes the statuses endpoint for a subscription
func StatusesURL(sub models.Subscription) string {
	return strings.TrimRight(sub.URL, "/") + StatusesPath
}

// Fetch issues a single GET to the subscription's statuses endpoint and
// decodes the response as a list of entries. There is no retry.
func (f *Fetcher) Fetch(ctx context.Context, sub models.Subscription) ([]models.Entry, error) {
	url := StatusesURL(sub)
	start := time.Now()

	entries, err := f.fetch(ctx, sub, url)
	fetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			fetchTotal.WithLabelValues(string(fetchErr.Kind)).Inc()
		}
		return nil, err
	}

	fetchTotal.WithLabelValues("ok").Inc()
	fetchEntries.Add(float64(len(entries)))

	log.WithFields(log.Fields{
		"account": sub.Account,
		"url":     url,
		"entries": len(entries),
		"latency": time.Since(start),
	}).Debug("Fetched statuses")

	return entries, nil
}

func (f *Fetcher) fetch(ctx context.Context, sub models.Subscription, url string) ([]models.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, newFetchError(sub, url, ErrKindTransport, 0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, newFetchError(sub, url, ErrKindTransport, 0, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warnf("Failed to close response body for %s: %v", url, closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, newFetchError(sub, url, ErrKindStatus, resp.StatusCode, fmt.Errorf("unexpected status: %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBodyBytes+1))
	if err != nil {
		return nil, newFetchError(sub, url, ErrKindTransport, resp.StatusCode, fmt.Errorf("failed to read body: %w", err))
	}
	if int64(len(body)) > f.opts.MaxBodyBytes {
		return nil, newFetchError(sub, url, ErrKindDecode, resp.StatusCode, fmt.Errorf("body exceeds %d bytes", f.opts.MaxBodyBytes))
	}

	var entries []models.Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, newFetchError(sub, url, ErrKindDecode, resp.StatusCode, err)
	}
	if entries == nil {
		entries = []models.Entry{}
	}

	return entries, nil
}
