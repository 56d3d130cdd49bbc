package handlers

import (
	"net/http"
	"strconv"
	"time"

	"clickguard/internal/engine"
	"clickguard/internal/metrics"
	"clickguard/internal/middleware"
	"clickguard/internal/models"

	"github.com/gin-gonic/gin"
)

// TrackClick scores one click on a monetized download button and
// records it. Blocked clients get the generic security message; the
// full factor breakdown stays server-side.
func (s *Server) TrackClick(c *gin.Context) {
	start := time.Now()
	defer func() {
		metrics.ResponseTime.WithLabelValues("POST", "/track-click", strconv.Itoa(c.Writer.Status())).Observe(time.Since(start).Seconds())
	}()

	var req models.TrackClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	info := middleware.GetClientInfo(c)
	metrics.ClicksReceived.WithLabelValues(req.AppID).Inc()

	verdict := s.engine.EvaluateClick(engine.ClickData{
		AppID:            req.AppID,
		IPAddress:        info.IP,
		UserAgent:        info.UserAgent,
		Referrer:         info.Referrer,
		SessionID:        info.SessionID,
		Language:         info.Language,
		ScreenResolution: req.ScreenResolution,
		Timezone:         req.Timezone,
		ClickDuration:    req.ClickDuration,
		PageViewDuration: req.PageViewDuration,
		MouseMovements:   req.MouseMovements,
		KeyboardEvents:   req.KeyboardEvents,
		ScrollEvents:     req.ScrollEvents,
		Timestamp:        time.Now(),
	})

	if !verdict.Allowed {
		metrics.ClicksBlocked.Inc()
		c.JSON(http.StatusForbidden, gin.H{
			"error":     "blocked",
			"reason":    "Click blocked for security reasons",
			"riskScore": verdict.RiskScore,
		})
		return
	}

	metrics.ClicksAllowed.Inc()
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"allowed":   true,
		"riskScore": verdict.RiskScore,
	})
}

// GetClickEvents pages through the ledger, optionally fraudulent-only.
func (s *Server) GetClickEvents(c *gin.Context) {
	limit, offset, err := pagination(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fraudulentOnly := false
	if raw := c.Query("fraudulent"); raw != "" {
		fraudulentOnly, err = strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid fraudulent parameter"})
			return
		}
	}

	events, err := s.store.Clicks.List(fraudulentOnly, limit, offset)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list click events")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch click events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
			"count":  len(events),
		},
	})
}

// GetStats assembles the dashboard aggregates. Observability only;
// nothing here feeds back into scoring.
func (s *Server) GetStats(c *gin.Context) {
	since := time.Now().Add(-timeRange(c))
	lastHour := time.Now().Add(-time.Hour)

	total, fraudulent, err := s.store.Clicks.CountSince(since)
	if err != nil {
		s.logger.WithError(err).Error("Failed to count click events")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}

	hourTotal, hourFraud, err := s.store.Clicks.CountSince(lastHour)
	if err != nil {
		s.logger.WithError(err).Error("Failed to count recent click events")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}

	blocked, err := s.store.Blocks.CountActive()
	if err != nil {
		s.logger.WithError(err).Error("Failed to count blocked IPs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}

	topReasons, err := s.store.Clicks.TopReasons(since, 10)
	if err != nil {
		s.logger.WithError(err).Error("Failed to aggregate fraud reasons")
		topReasons = nil
	}

	byCountry, err := s.store.Clicks.CountByCountry(since)
	if err != nil {
		s.logger.WithError(err).Error("Failed to aggregate countries")
		byCountry = nil
	}

	c.JSON(http.StatusOK, models.FraudStats{
		TotalClicks:      total,
		FraudulentClicks: fraudulent,
		BlockedIPs:       blocked,
		LastHourClicks:   hourTotal,
		LastHourFraud:    hourFraud,
		TopReasons:       topReasons,
		ByCountry:        byCountry,
	})
}
