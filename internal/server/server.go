package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/eaglebank/purchase-service/internal/apperror"
	"github.com/eaglebank/purchase-service/internal/clock"
	"github.com/eaglebank/purchase-service/internal/config"
	"github.com/eaglebank/purchase-service/internal/handler"
	"github.com/eaglebank/purchase-service/internal/logging"
	"github.com/eaglebank/purchase-service/internal/metrics"
	"github.com/eaglebank/purchase-service/internal/middleware"
)

const maxBodyBytes = 10 << 20

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// Deps are the collaborators the router is built from.
type Deps struct {
	Config    *config.Config
	Logger    *logrus.Logger
	Metrics   *metrics.Metrics
	Clock     clock.Clock
	Purchases *handler.PurchaseHandler
}

// New wires up middleware and routes and returns a ready server.
func New(d Deps) *Server {
	return &Server{inner: &http.Server{
		Addr:              d.Config.HTTPAddress(),
		Handler:           NewRouter(d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}}
}

// NewRouter builds the gin engine. Purchase routes live under the configured
// base path; /health and /metrics are public.
func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	log := logging.Component(d.Logger, "server")

	router := gin.New()
	router.Use(
		middleware.LoggingMiddleware(d.Logger),
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			log.WithField("panic", recovered).Error("recovered from panic")
			middleware.RespondWithAppError(c, apperror.Internal(fmt.Errorf("panic: %v", recovered)), cfg.ErrorStatus())
		}),
		d.Metrics.Middleware(),
		middleware.CORS(cfg.CORSOrigins),
		middleware.BodyLimit(maxBodyBytes),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": d.Clock.Now().UTC().Format(time.RFC3339),
		})
	})
	router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, d.Logger)
	api := router.Group(cfg.APIBasePath,
		middleware.Authenticate([]byte(cfg.JWTSecret), cfg.JWTIssuer),
		limiter.Handler(),
	)
	{
		p := api.Group("/purchase")
		p.GET("", d.Purchases.ListPurchases)
		p.POST("", d.Purchases.CreatePurchase)
		p.GET("/:id", d.Purchases.GetPurchase)
		p.PUT("/:id", d.Purchases.UpdatePurchase)
		p.DELETE("/:id", d.Purchases.DeletePurchase)
	}

	router.NoRoute(func(c *gin.Context) {
		middleware.RespondWithError(c, http.StatusNotFound,
			fmt.Sprintf("Route not found: %s %s", c.Request.Method, c.Request.URL.Path),
			apperror.CodeNotFound)
	})

	return router
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
