package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"authgate/internal/metrics"
	"authgate/internal/transport/http/handler"
	"authgate/internal/transport/http/middleware"
	"authgate/internal/transport/http/response"
)

const MessageRouteNotFound = "Route not found"

const defaultMaxBodyBytes = 10 << 20

// Deps is everything the router needs. Limiter, Events, Metrics and Health are optional.
type Deps struct {
	GinMode string
	// TrustedProxies lists the proxies whose X-Forwarded-For is believed. Nil trusts none.
	TrustedProxies []string
	// CORSOrigins may contain "*" to allow any origin. Empty disables CORS headers.
	CORSOrigins  []string
	MaxBodyBytes int64
	Gzip         bool

	Logger      *slog.Logger
	AuthService handler.AuthService
	Tokens      middleware.TokenVerifier
	Limiter     middleware.Limiter
	Events      handler.EventPublisher
	Metrics     *metrics.Metrics
	Health      *handler.HealthHandler
}

func NewRouter(deps Deps) *gin.Engine {
	if deps.GinMode != "" {
		gin.SetMode(deps.GinMode)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	if err := router.SetTrustedProxies(deps.TrustedProxies); err != nil {
		logger.Error("invalid trusted proxies, trusting none", "error", err)
		_ = router.SetTrustedProxies(nil)
	}

	maxBody := deps.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	router.Use(middleware.RequestID(), middleware.SecurityHeaders(), middleware.RequestLogger(logger))
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(corsConfig(deps.CORSOrigins)))
	}
	if deps.Gzip {
		router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	}
	// Recovery sits inside gzip so a panic response goes out through the open compressor.
	router.Use(gin.CustomRecovery(recoverWithEnvelope), middleware.BodyLimit(maxBody))

	var outcomes handler.OutcomeRecorder
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
		outcomes = deps.Metrics
	}

	health := deps.Health
	if health == nil {
		health = handler.NewHealthHandler("authgate", "", time.Now(), nil)
	}
	router.GET("/ping", health.Ping)
	router.GET("/healthz", health.Check)

	authHandler := handler.NewAuthHandler(deps.AuthService, deps.Events, outcomes, logger)
	authenticate := middleware.Authenticate(deps.Tokens)

	v1 := router.Group("/api/v1")
	if deps.Limiter != nil {
		v1.Use(middleware.RateLimit(deps.Limiter, logger))
	}

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/profile", authenticate, authHandler.Profile)

	adminGroup := v1.Group("/admin")
	adminGroup.Use(authenticate, middleware.RequireAdmin())
	adminGroup.GET("/test", authHandler.AdminTest)

	router.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, MessageRouteNotFound)
	})

	return router
}

func recoverWithEnvelope(c *gin.Context, recovered any) {
	_ = c.Error(fmt.Errorf("panic recovered: %v", recovered))
	response.Error(c, http.StatusInternalServerError, response.MessageInternal)
	c.Abort()
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID, "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
