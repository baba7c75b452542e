package main

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/wikidash/wikidash/pkg/client"
	"github.com/wikidash/wikidash/pkg/logging"
	"github.com/wikidash/wikidash/pkg/pageviews"
	"github.com/wikidash/wikidash/pkg/repository"
	"github.com/wikidash/wikidash/pkg/stats"
	"github.com/wikidash/wikidash/pkg/wiki"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: getEnv("LOG_PRETTY", "false") == "true",
	})

	cfg := configFromEnv()

	registry, err := repository.NewRegistry(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build repository registry")
	}

	if getEnv("GIN_MODE", "") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := newRouter(registry, logger)

	addr := ":" + getEnv("PORT", "8080")
	logger.Info().
		Str("addr", addr).
		Str("wiki_api", cfg.Wiki.APIURL).
		Str("stats_api", cfg.Stats.BaseURL).
		Msg("Starting wikidash server")

	if err := router.Run(addr); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

// configFromEnv assembles the registry configuration from environment
// variables, keeping the registry defaults wherever nothing is set.
func configFromEnv() repository.Config {
	wikiCfg := wiki.DefaultConfig(
		getEnv("WIKI_API_URL", "https://en.wikipedia.org/w/api.php"),
		getEnv("WIKI_ARTICLE_BASE_URL", "https://en.wikipedia.org/wiki/"),
	)
	statsCfg := stats.DefaultConfig(
		getEnv("STATS_API_URL", "https://xtools.wmcloud.org/api"),
		getEnv("STATS_SITE", "en.wikipedia.org"),
	)

	cfg := repository.DefaultConfig(wikiCfg, statsCfg)

	if baseURL := getEnv("PAGEVIEWS_API_URL", ""); baseURL != "" {
		cfg.Pageviews = pageviews.DefaultConfig(baseURL, getEnv("PAGEVIEWS_PROJECT", "en.wikipedia"))
	}
	if limit, err := strconv.Atoi(getEnv("RECENT_LIMIT", "")); err == nil && limit > 0 {
		cfg.RecentLimit = limit
	}
	if ttl, err := time.ParseDuration(getEnv("DASHBOARD_TTL", "")); err == nil && ttl > 0 {
		cfg.DashboardTTL = ttl
	}

	return cfg
}

// newRouter wires the HTTP surface: the dashboard read API, health and
// Prometheus endpoints, request-id and access-log middleware.
func newRouter(registry *repository.Registry, logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(accessLogMiddleware(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/users/:username", getUserHandler(registry))
		api.GET("/users/:username/contributions", getContributionsHandler(registry))
		api.GET("/users/:username/stats", getStatsHandler(registry))
		api.GET("/users/:username/dashboard", getDashboardHandler(registry))
		api.POST("/users/:username/dashboard/refresh", refreshDashboardHandler(registry))
	}

	return router
}

// requestIDMiddleware honors an inbound X-Request-ID and generates one
// otherwise, so log lines correlate across the UI and this service.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

// accessLogMiddleware emits one structured log line per request.
func accessLogMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		event := logger.Info()
		if len(c.Errors) > 0 {
			event = logger.Error().Str("error", c.Errors.Last().Error())
		}
		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", c.GetString("request_id")).
			Msg("HTTP request")
	}
}

func getUserHandler(registry *repository.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := registry.Users().GetUser(c.Request.Context(), c.Param("username"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func getContributionsHandler(registry *repository.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}

		contributions, err := registry.Contributions().GetRecentContributions(
			c.Request.Context(), c.Param("username"), limit)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"contributions": contributions})
	}
}

func getStatsHandler(registry *repository.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		editorStats, err := registry.Stats().GetEditorStats(c.Request.Context(), c.Param("username"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, editorStats)
	}
}

// getDashboardHandler serves the cached dashboard when fresh, refreshes
// when not, and falls back to the last successfully built dashboard when
// the refresh fails. Only when no dashboard was ever built does the
// upstream failure reach the client.
func getDashboardHandler(registry *repository.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Param("username")

		dashboard, err := registry.Dashboards().GetDashboard(c.Request.Context(), username)
		if err != nil {
			if stale, ok := registry.Dashboards().LastKnown(username); ok {
				c.Header("X-Dashboard-Stale", "true")
				c.JSON(http.StatusOK, stale)
				return
			}
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, dashboard)
	}
}

func refreshDashboardHandler(registry *repository.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		dashboard, err := registry.Dashboards().RefreshDashboard(c.Request.Context(), c.Param("username"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, dashboard)
	}
}

// writeError maps domain and transport errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case wiki.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": apiErr.Error(), "code": string(apiErr.Code)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
