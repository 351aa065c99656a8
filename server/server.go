package server

import (
	"context"
	"strconv"
	"time"

	"tootfeed/config"
	"tootfeed/models"
	"tootfeed/render"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tootfeed_http_request_duration_seconds",
		Help:    "Duration of HTTP requests by route and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "status"})

	feedDegraded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tootfeed_feed_degraded_total",
		Help: "The total number of feed responses served empty because of a configuration or render failure",
	}, []string{"reason"})
)

// Aggregator produces the ordered entries for a set of subscriptions
type Aggregator interface {
	Aggregate(ctx context.Context, subs []models.Subscription) []models.Entry
}

type ServerConfig struct {
	// Where the subscription list is read from on every request
	Source config.SubscriptionSource

	Aggregator Aggregator
	Renderer   *render.Renderer

	// Upper bound for building one feed response, 0 disables it
	RequestTimeout time.Duration
}

// Returns a fiber.App serving the rendered feed on GET /
func Server(cfg *ServerConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Middleware to track the latency of each request
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		latency := time.Since(start)
		status := c.Response().StatusCode()
		requestDuration.WithLabelValues(c.Route().Path, strconv.Itoa(status)).Observe(latency.Seconds())

		log.WithFields(log.Fields{
			"method":  c.Method(),
			"route":   c.Route().Path,
			"status":  status,
			"latency": latency,
			"id":      c.GetRespHeader(fiber.HeaderXRequestID),
		}).Info("Request")
		return err
	})

	app.Use(requestid.New(requestid.ConfigDefault))
	app.Use(compress.New())

	app.Get("/", func(c *fiber.Ctx) error {
		ctx, cancel := requestContext(c, cfg.RequestTimeout)
		defer cancel()

		subs, err := cfg.Source.Subscriptions(ctx)
		if err != nil {
			feedDegraded.WithLabelValues("subscriptions").Inc()
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Error loading subscriptions, serving empty feed")
			subs = []models.Subscription{}
		}

		entries := cfg.Aggregator.Aggregate(ctx, subs)

		body, err := cfg.Renderer.Render(entries)
		if err != nil {
			feedDegraded.WithLabelValues("render").Inc()
			log.WithFields(log.Fields{
				"error":   err,
				"entries": len(entries),
			}).Error("Error rendering feed, serving empty feed")
			body = ""
		}

		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.Status(fiber.StatusOK).SendString(body)
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		subs, err := cfg.Source.Subscriptions(c.UserContext())
		if err != nil {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"status":        "degraded",
				"subscriptions": 0,
				"error":         err.Error(),
			})
		}

		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":        "ok",
			"subscriptions": len(subs),
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	return app
}

// requestContext returns a context that is cancelled when the server shuts
// down or timeout elapses. fasthttp does not signal client disconnects to
// handlers, so the timeout is what bounds an abandoned request.
func requestContext(c *fiber.Ctx, timeout time.Duration) (context.Context, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(c.UserContext(), timeout)
	} else {
		ctx, cancel = context.WithCancel(c.UserContext())
	}
	done := c.Context().Done()

	go func() {
		select {
		case <-done:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
