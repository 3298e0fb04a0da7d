package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"marketgateway/internal/config"
	"marketgateway/internal/httpx"
	"marketgateway/internal/provider"
	"marketgateway/internal/provider/brapi"
	"marketgateway/internal/provider/registry"
	"marketgateway/internal/provider/yahoo"
)

func main() {
	cfg := config.Load()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))
	if cfg.BrapiToken == "" {
		slog.Warn("BRAPI_TOKEN not set; authenticated brapi calls will fail at request time")
	}

	reg, err := buildRegistry(cfg)
	if err != nil {
		slog.Error("registry setup failed", "error", err)
		os.Exit(1)
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
	}))

	h := newHandlers(reg)
	router.GET("/", h.health)
	router.GET("/providers", h.providers)

	m := router.Group("/market")
	m.GET("/assets", h.assets)
	m.GET("/prices/:ticker", h.prices)
	m.GET("/indicators/:ticker", h.indicators)
	m.GET("/quotes", h.quotes)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// buildRegistry wires the provider factories and route defaults. The
// brapi and yahoo HTTP clients are process-wide so connection pools
// outlive the request-scoped provider instances.
func buildRegistry(cfg config.Config) (*registry.Registry, error) {
	brapiClient := httpx.New(httpx.Config{
		BaseURL: cfg.BrapiBaseURL,
		Token:   cfg.BrapiToken,
		Timeout: cfg.RequestTimeout,
	})
	yahooClient := httpx.New(httpx.Config{
		BaseURL: cfg.YahooBaseURL,
		Timeout: cfg.RequestTimeout,
	})

	reg := registry.New()
	reg.Register("brapi", func() provider.Provider {
		return brapi.New(brapi.Config{}, brapiClient)
	})
	reg.Register("yahoo", func() provider.Provider {
		return yahoo.New(yahoo.Config{}, yahooClient)
	})

	if err := reg.SetFallback(cfg.DefaultProvider); err != nil {
		return nil, err
	}
	for route, name := range map[string]string{
		registry.RouteAssets:     "brapi",
		registry.RoutePrices:     "brapi",
		registry.RouteQuotes:     "brapi",
		registry.RouteIndicators: "yahoo",
	} {
		if err := reg.SetDefaultForRoute(route, name); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// requestID tags each request, reusing the caller's X-Request-ID when
// present.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("request",
			"id", c.GetString("request_id"),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
