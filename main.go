package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clickguard/internal/behavior"
	"clickguard/internal/config"
	"clickguard/internal/database"
	"clickguard/internal/engine"
	"clickguard/internal/geoip"
	"clickguard/internal/handlers"
	"clickguard/internal/kafka"
	"clickguard/internal/logger"
	"clickguard/internal/middleware"
	"clickguard/internal/models"
	"clickguard/internal/ratelimit"
	"clickguard/internal/repository"
	"clickguard/internal/reputation"
	"clickguard/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()
	log := logger.SetupLogger(cfg.LogLevel)

	// Kafka writer for block events consumed by the ads-exclusion sync
	kafkaWriter := kafka.NewBlockEventWriter(cfg.KafkaBroker, cfg.KafkaTopic)
	defer func() {
		if err := kafkaWriter.Close(); err != nil {
			log.WithError(err).Error("Failed to close Kafka writer")
		}
	}()

	// db connection
	db, err := database.SetupDatabase(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	store := repository.NewGormStore(db, log)

	// seed default fraud rules
	if _, err := store.Rules.SeedDefaults(models.DefaultRules()); err != nil {
		log.WithError(err).Warn("Failed to seed fraud rules")
	}

	// optional offline geolocation
	var geoService *geoip.Service
	if cfg.GeoIPDB != "" {
		geoService, err = geoip.NewService(cfg.GeoIPDB)
		if err != nil {
			log.WithError(err).Warn("GeoIP database unavailable, continuing without geolocation")
			geoService = nil
		} else {
			defer geoService.Close()
		}
	}

	structural := reputation.NewAnalyzer(reputation.DefaultLists(), geoService)
	behavioral := behavior.NewAnalyzer(store.Clicks)

	exclusionQueue := services.NewExclusionQueue(store.Exclusions, kafkaWriter, cfg.AdCampaigns, log, 10000)
	eng := engine.New(store.Clicks, store.Blocks, structural, behavioral, exclusionQueue, cfg.BlockThreshold, log)
	server := handlers.NewServer(store, eng, log)

	// Start exclusion propagation worker
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go exclusionQueue.StartProcessor(ctx)

	// Setup Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logging(log))
	r.Use(middleware.CORS())

	limiter := ratelimit.New(cfg.RateLimitMax, cfg.RateLimitWindow)

	api := r.Group("/api/v1")
	{
		// Click ingestion: cheap blocklist pre-check, then metadata
		// extraction, then rate limiting, then scoring.
		track := api.Group("")
		track.Use(
			middleware.KnownBlockGuard(store.Blocks, log),
			middleware.ExtractClient(),
			middleware.RateLimit(limiter),
		)
		track.POST("/track-click", server.TrackClick)

		// Admin and dashboard surface
		api.GET("/stats", server.GetStats)
		api.GET("/blocked-ips", server.GetBlockedIPs)
		api.POST("/block-ip", server.BlockIP)
		api.POST("/unblock-ip", server.UnblockIP)
		api.GET("/click-events", server.GetClickEvents)
		api.POST("/analyze-ip", server.AnalyzeIP)
		api.GET("/rules", server.GetRules)
		api.PUT("/rules/:id", server.UpdateRule)
		api.GET("/google-ads-exclusions", server.GetExclusions)
		api.POST("/initialize", server.Initialize)
	}

	r.GET("/health", server.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.WithField("port", cfg.Port).Info("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}

	log.Info("Server exited")
}
