package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	jwtmiddleware "github.com/entraguard/go-jwt-middleware"
	"github.com/entraguard/go-jwt-middleware/config"
	jwtgin "github.com/entraguard/go-jwt-middleware/framework/gin"
)

type routerDeps struct {
	logger   jwtmiddleware.Logger
	metrics  *jwtmiddleware.PrometheusMetrics
	tracer   trace.Tracer
	gatherer prometheus.Gatherer
}

func newRouter(cfg *config.Config, v jwtmiddleware.TokenValidator, deps routerDeps) (*gin.Engine, error) {
	middlewareOpts := []jwtmiddleware.Option{
		jwtmiddleware.WithValidateOnOptions(false),
	}
	if deps.logger != nil {
		middlewareOpts = append(middlewareOpts, jwtmiddleware.WithLogger(deps.logger))
	}
	if deps.metrics != nil {
		middlewareOpts = append(middlewareOpts, jwtmiddleware.WithMetrics(deps.metrics))
	}
	if deps.tracer != nil {
		middlewareOpts = append(middlewareOpts, jwtmiddleware.WithTracer(deps.tracer))
	}

	requireAuth, err := jwtgin.New(v, jwtgin.WithMiddlewareOptions(middlewareOpts...))
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/hello", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Hello from the Go backend"})
	})
	if deps.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api", requireAuth)
	api.GET("/me", me)

	return router, nil
}

func me(c *gin.Context) {
	claims, err := jwtgin.GetClaims(c, "")
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sub":                claims.Subject(),
		"name":               claims.Name(),
		"preferred_username": claims.PreferredUsername(),
		"claims":             claims,
	})
}
