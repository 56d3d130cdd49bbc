package handlers

import (
	"net/http"
	"strconv"
	"time"

	"clickguard/internal/engine"
	"clickguard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	store  repository.Store
	engine *engine.Engine
	logger *logrus.Logger
}

func NewServer(store repository.Store, eng *engine.Engine, logger *logrus.Logger) *Server {
	return &Server{
		store:  store,
		engine: eng,
		logger: logger,
	}
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"version":   "1.0.0",
	})
}

// pagination parses limit/offset query params with sane bounds.
func pagination(c *gin.Context) (limit, offset int, err error) {
	limit, err = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		return 0, 0, errInvalidPagination
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		return 0, 0, errInvalidPagination
	}
	return limit, offset, nil
}

var errInvalidPagination = invalidParamError("invalid limit/offset parameter")

type invalidParamError string

func (e invalidParamError) Error() string { return string(e) }

// timeRange maps the dashboard's timeRange query to a duration.
func timeRange(c *gin.Context) time.Duration {
	switch c.DefaultQuery("timeRange", "24h") {
	case "1h":
		return time.Hour
	case "7d":
		return 7 * 24 * time.Hour
	case "30d":
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}
