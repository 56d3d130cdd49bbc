package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"clickguard/internal/models"
	"clickguard/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetBlockedIPs pages through the active blocklist.
func (s *Server) GetBlockedIPs(c *gin.Context) {
	limit, offset, err := pagination(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	blocks, err := s.store.Blocks.ListActive(limit, offset)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list blocked IPs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch blocked IPs"})
		return
	}

	total, err := s.store.Blocks.CountActive()
	if err != nil {
		s.logger.WithError(err).Error("Failed to count blocked IPs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch blocked IPs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"blocked_ips": blocks,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
			"total":  total,
		},
	})
}

// BlockIP is the manual admin block.
func (s *Server) BlockIP(c *gin.Context) {
	var req models.BlockIPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	block, err := s.engine.BlockIP(req.IPAddress, req.Reason, req.Notes)
	if err != nil {
		s.logger.WithError(err).WithField("ip", req.IPAddress).Error("Manual block failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to block IP"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "blocked_ip": block})
}

// UnblockIP deactivates a block. Unknown IPs are a no-op success.
func (s *Server) UnblockIP(c *gin.Context) {
	var req models.UnblockIPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	found, err := s.engine.UnblockIP(req.IPAddress)
	if err != nil {
		s.logger.WithError(err).WithField("ip", req.IPAddress).Error("Unblock failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unblock IP"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "found": found})
}

// AnalyzeIP dry-runs the full evaluation without recording a click.
func (s *Server) AnalyzeIP(c *gin.Context) {
	var req models.AnalyzeIPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	analysis, err := s.engine.EvaluateIP(req.IPAddress)
	if err != nil {
		s.logger.WithError(err).WithField("ip", req.IPAddress).Error("IP analysis failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze IP"})
		return
	}

	c.JSON(http.StatusOK, analysis)
}

func (s *Server) GetRules(c *gin.Context) {
	rules, err := s.store.Rules.List()
	if err != nil {
		s.logger.WithError(err).Error("Failed to list fraud rules")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rules"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

func (s *Server) UpdateRule(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rule id"})
		return
	}

	var req models.RuleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule, err := s.store.Rules.Update(uint(id), req)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to update fraud rule")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update rule"})
		return
	}

	c.JSON(http.StatusOK, rule)
}

// GetExclusions pages through the ads-exclusion propagation intents.
func (s *Server) GetExclusions(c *gin.Context) {
	limit, offset, err := pagination(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exclusions, err := s.store.Exclusions.List(limit, offset)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list ads exclusions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch exclusions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"exclusions": exclusions,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
			"count":  len(exclusions),
		},
	})
}

// Initialize seeds the default fraud rules. Idempotent: names that
// already exist are skipped.
func (s *Server) Initialize(c *gin.Context) {
	created, err := s.store.Rules.SeedDefaults(models.DefaultRules())
	if err != nil {
		s.logger.WithError(err).Error("Failed to seed fraud rules")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to initialize rules"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "created": created})
}
