// internal/api/api.go
package api

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/repo-gallery/backend-go/internal/api/handlers"
	"github.com/andresuchdata/repo-gallery/backend-go/internal/api/middleware"
	"github.com/andresuchdata/repo-gallery/backend-go/internal/service"
	"github.com/andresuchdata/repo-gallery/backend-go/internal/web"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Services struct {
	Listing  *service.ListingService
	Uploads  *service.UploadService
	Document *service.DocumentService
}

type Options struct {
	AllowedOrigins []string
	// Gatherer backs /metrics; the endpoint is not registered when nil.
	Gatherer prometheus.Gatherer
	// ServeUI registers the embedded gallery page at "/".
	ServeUI bool
}

func NewRouter(services *Services, opts Options) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	// Add middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	router.NoMethod(func(c *gin.Context) {
		if allow := allowedMethods(router, c.Request.URL.Path); allow != "" {
			c.Header("Allow", allow)
		}
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": fmt.Sprintf("Method %s not allowed", c.Request.Method)})
	})
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}
	if opts.ServeUI {
		web.Register(router)
	}

	if services == nil {
		return router
	}

	galleryHandler := handlers.NewGalleryHandler(services.Listing, services.Uploads, services.Document)

	apiGroup := router.Group("/api")
	{
		if services.Listing != nil {
			apiGroup.GET("/github", galleryHandler.ListImages)
		}
		if services.Uploads != nil {
			apiGroup.POST("/images", galleryHandler.UploadImage)
		}
		if services.Document != nil {
			apiGroup.POST("/uploads", galleryHandler.UpdateDocument)
		}
	}

	v1 := router.Group("/api/v1")
	{
		if services.Listing != nil {
			v1.GET("/images", galleryHandler.ListImages)
		}
		if services.Uploads != nil {
			v1.POST("/images", galleryHandler.UploadImage)
		}
	}

	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	return corsConfig
}

// allowedMethods lists the methods registered for path, for the Allow header.
func allowedMethods(router *gin.Engine, path string) string {
	seen := make(map[string]struct{})
	for _, route := range router.Routes() {
		if route.Path == path {
			seen[route.Method] = struct{}{}
		}
	}
	methods := make([]string, 0, len(seen))
	for method := range seen {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
