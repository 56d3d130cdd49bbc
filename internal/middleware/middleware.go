package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"clickguard/internal/metrics"
	"clickguard/internal/ratelimit"
	"clickguard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ClientInfo is the per-request metadata extracted before scoring.
type ClientInfo struct {
	IP        string
	UserAgent string
	Referrer  string
	SessionID string
	Language  string
}

const clientInfoKey = "clientInfo"

// ExtractClient derives client metadata and stores it on the context.
// Runs once per request; later middleware and handlers read the result
// via GetClientInfo.
func ExtractClient() gin.HandlerFunc {
	return func(c *gin.Context) {
		info := ClientInfo{
			IP:        clientIP(c.Request),
			UserAgent: c.GetHeader("User-Agent"),
			Referrer:  c.GetHeader("Referer"),
			SessionID: c.GetHeader("X-Session-ID"),
			Language:  primaryLanguage(c.GetHeader("Accept-Language")),
		}
		if info.SessionID == "" {
			info.SessionID = uuid.NewString()
		}
		c.Set(clientInfoKey, info)
		c.Next()
	}
}

// GetClientInfo returns the metadata stored by ExtractClient.
func GetClientInfo(c *gin.Context) ClientInfo {
	if v, ok := c.Get(clientInfoKey); ok {
		if info, ok := v.(ClientInfo); ok {
			return info
		}
	}
	return ClientInfo{IP: clientIP(c.Request)}
}

// clientIP resolves the real client address behind the edge. Precedence:
// edge-proxy header, first forwarded-for entry, real-ip header, then the
// socket address.
func clientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// primaryLanguage picks the first tag of an Accept-Language header.
func primaryLanguage(header string) string {
	if header == "" {
		return ""
	}
	first := strings.Split(header, ",")[0]
	return strings.TrimSpace(strings.Split(first, ";")[0])
}

// RateLimit rejects clicks beyond the per-IP window with 429 before the
// decision engine spends any cycles on them.
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		info := GetClientInfo(c)
		allowed, retryAfter := limiter.Allow(info.IP)
		if !allowed {
			metrics.ClicksRateLimited.Inc()
			seconds := int(retryAfter.Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "rate limit exceeded",
				"message":    "Too many clicks, slow down",
				"retryAfter": seconds,
			})
			return
		}
		c.Next()
	}
}

// KnownBlockGuard short-circuits requests from actively blocked IPs
// before the full extraction and scoring cost. A store failure lets the
// request through; the engine re-checks the blocklist anyway.
func KnownBlockGuard(blocks repository.BlockStore, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := clientIP(c.Request)
		block, err := blocks.FindActive(ip)
		if err != nil {
			log.WithError(err).WithField("ip", ip).Error("Blocklist pre-check failed")
			c.Next()
			return
		}
		if block != nil {
			metrics.ClicksBlocked.Inc()
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":     "blocked",
				"reason":    "Access blocked for security reasons",
				"riskScore": block.RiskScore,
			})
			return
		}
		c.Next()
	}
}

// Logging emits one structured line per request.
func Logging(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      clientIP(c.Request),
		}).Info("Request handled")
	}
}

// CORS mirrors the permissive policy the click endpoints need; the
// tracking beacon is called cross-origin from every catalog page.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Session-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
