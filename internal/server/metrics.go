package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests processed, labeled by status code and method.",
		},
		[]string{"code", "method"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests.",
		},
		[]string{"handler", "method"},
	)
	chartRenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowviewer_chart_renders_total",
			Help: "Total number of charts rendered, labeled by period.",
		},
		[]string{"period"},
	)
	chartRenderFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowviewer_chart_render_failures_total",
			Help: "Total number of chart renders that failed, labeled by period.",
		},
		[]string{"period"},
	)
	chartRenderDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flowviewer_chart_render_duration_seconds",
			Help:    "Time spent drawing and encoding a chart.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequests, httpDuration, chartRenders, chartRenderFailures, chartRenderDuration)
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		handler := c.FullPath()
		if handler == "" {
			handler = "unmatched"
		}
		httpDuration.WithLabelValues(handler, c.Request.Method).Observe(time.Since(start).Seconds())
		httpRequests.WithLabelValues(strconv.Itoa(c.Writer.Status()), c.Request.Method).Inc()
	}
}
