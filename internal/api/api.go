package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/demand-forecast/internal/api/handlers"
	"github.com/andresuchdata/demand-forecast/internal/api/middleware"
)

type Services struct {
	Forecasts handlers.ForecastService
}

// RouterOptions holds the transport settings that do not belong to a service.
type RouterOptions struct {
	AllowedOrigins []string
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

func NewRouter(services *Services, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logger("/health", "/metrics"), middleware.Recovery())
	router.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	v1 := router.Group("/api/v1")
	if services != nil && services.Forecasts != nil {
		handlers.NewForecastHandler(services.Forecasts).Register(v1.Group("/forecasting"))
	}

	return router
}

// corsConfig allows the local dashboard by default. A "*" entry allows any origin.
func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	origins, allowAll := normalizeAllowedOrigins(allowedOrigins)
	switch {
	case allowAll:
		cfg.AllowOrigins = nil
		cfg.AllowOriginFunc = func(string) bool { return true }
	case len(origins) > 0:
		cfg.AllowOrigins = origins
	}
	return cfg
}

// normalizeAllowedOrigins flattens comma separated entries, as env vars deliver them.
func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			part = strings.TrimSpace(part)
			switch part {
			case "":
			case "*":
				allowAll = true
			default:
				parsed = append(parsed, part)
			}
		}
	}
	return parsed, allowAll
}
