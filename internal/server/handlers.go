package server

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"flowviewer/internal/chart"
	"flowviewer/internal/flow"
)

const htmlContentType = "text/html; charset=utf-8"

var debugNowLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"}

// requestNow returns the injected clock's time unless the request carries a
// debugNow override.
func (s *Server) requestNow(c *gin.Context) (time.Time, error) {
	param := c.Query("debugNow")
	if param == "" {
		return s.now(), nil
	}
	for _, layout := range debugNowLayouts {
		if t, err := time.Parse(layout, param); err == nil {
			logrus.Debugf("Overriding current time with debugNow=%s", t.Format(time.RFC3339))
			return t, nil
		}
	}
	return time.Time{}, errors.New("invalid 'debugNow' parameter format, expected YYYY-MM-DDTHH:mm[:ss]")
}

// window parses the period route parameter and the request time. It writes a
// 400 response and returns false on bad input.
func (s *Server) window(c *gin.Context) (flow.Period, flow.TimeRange, bool) {
	period, err := flow.ParsePeriod(c.Param("period"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, flow.TimeRange{}, false
	}
	now, err := s.requestNow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, flow.TimeRange{}, false
	}
	r := flow.SelectRange(period, now)
	logrus.Debugf("Selected %s window start=%d end=%d", period, r.Start, r.End)
	return period, r, true
}

func (s *Server) storeContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.cfg.HTTP.RequestTimeout)
}

func (s *Server) handleCurrent(c *gin.Context) {
	ctx, cancel := s.storeContext(c)
	defer cancel()

	latest, ok, err := s.store.Latest(ctx)
	if err != nil {
		logrus.Warnf("Failed to query latest reading: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	view := currentView{HasValue: ok}
	if ok {
		view.Value = latest.Value
		view.At = latest.Time().Add(s.cfg.Chart.TZOffset).Format("2006-01-02 15:04:05")
	}
	s.writeView(c, "current", view)
}

func (s *Server) handleMax(c *gin.Context) {
	period, r, ok := s.window(c)
	if !ok {
		return
	}

	ctx, cancel := s.storeContext(c)
	defer cancel()

	value, found, err := s.store.MaxInRange(ctx, r)
	if err != nil {
		logrus.Warnf("Failed to query max reading: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		logrus.Debugf("No readings in %s window: %v", period, flow.ErrNoData)
	}

	s.writeView(c, "max", maxView{
		Period:   period.String(),
		Name:     period.Name(),
		HasValue: found,
		Value:    value,
	})
}

func (s *Server) handleChart(c *gin.Context) {
	period, r, ok := s.window(c)
	if !ok {
		return
	}
	renderer, err := s.requestRenderer(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := s.storeContext(c)
	defer cancel()

	readings, err := s.store.QueryRange(ctx, r)
	if err != nil {
		logrus.Warnf("Failed to query readings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logrus.Debugf("Rendering %d readings for %s chart", len(readings), period)

	s.writeChart(c, renderer, period.String(), readings, chart.ForPeriod(period, s.cfg.Chart.TZOffset))
}

// requestRenderer honours optional width and height query parameters.
func (s *Server) requestRenderer(c *gin.Context) (*chart.Renderer, error) {
	width, height := s.renderer.Width, s.renderer.Height
	if wStr := c.Query("width"); wStr != "" {
		wVal, err := strconv.Atoi(wStr)
		if err != nil || wVal < 200 || wVal > 2000 {
			return nil, errors.New("invalid 'width' query parameter")
		}
		logrus.Tracef("Overriding width to: %d", wVal)
		width = wVal
	}
	if hStr := c.Query("height"); hStr != "" {
		hVal, err := strconv.Atoi(hStr)
		if err != nil || hVal < 100 || hVal > 1200 {
			return nil, errors.New("invalid 'height' query parameter")
		}
		logrus.Tracef("Overriding height to: %d", hVal)
		height = hVal
	}
	if width == s.renderer.Width && height == s.renderer.Height {
		return s.renderer, nil
	}
	return chart.NewRenderer(width, height), nil
}

func (s *Server) handleCSV(c *gin.Context) {
	_, r, ok := s.window(c)
	if !ok {
		return
	}

	ctx, cancel := s.storeContext(c)
	defer cancel()

	readings, err := s.store.QueryRange(ctx, r)
	if err != nil {
		logrus.Warnf("Failed to query readings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	csvWriter := csv.NewWriter(c.Writer)
	for _, reading := range readings {
		csvWriter.Write([]string{reading.Time().Format(time.RFC3339), fmt.Sprintf("%.6f", reading.Value)})
	}
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		logrus.Warnf("Failed to write CSV: %v", err)
	}
}

func (s *Server) handleDebugChart(c *gin.Context) {
	now, err := s.requestNow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.rngMu.Lock()
	readings := SyntheticReadings(s.rng, now)
	s.rngMu.Unlock()

	s.writeChart(c, s.renderer, "synthetic", readings, chart.Spec{TimeFormat: syntheticTimeFormat})
}

func (s *Server) writeChart(c *gin.Context, renderer *chart.Renderer, label string, readings []flow.Reading, spec chart.Spec) {
	start := time.Now()
	img, err := renderer.Render(readings, spec)
	chartRenderDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		chartRenderFailures.WithLabelValues(label).Inc()
		logrus.Warnf("Failed to render PNG: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render image"})
		return
	}
	chartRenders.WithLabelValues(label).Inc()
	c.Data(http.StatusOK, "image/png", img)
}

func (s *Server) writeView(c *gin.Context, name string, data any) {
	body, err := renderView(name, data)
	if err != nil {
		logrus.Warnf("Failed to render HTML: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render view"})
		return
	}
	c.Data(http.StatusOK, htmlContentType, body)
}
