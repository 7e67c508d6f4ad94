package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elevate_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "elevate_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elevate_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"tier"},
	)

	Orders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elevate_orders_total",
			Help: "Orders by outcome and payment method",
		},
		[]string{"status", "method"},
	)

	WalletMovements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elevate_wallet_movements_total",
			Help: "Ledger entries by type and purpose",
		},
		[]string{"type", "purpose"},
	)

	Emails = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elevate_emails_total",
			Help: "Outgoing emails by result",
		},
		[]string{"result"},
	)

	SocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "elevate_socket_clients",
		Help: "Connected notification sockets",
	})
)

// Middleware records request counts and latency by matched route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		HTTPRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		HTTPDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
