// Command server runs the demo API: /health and /hello are public, /api/me
// requires an Entra ID access token.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	jwtmiddleware "github.com/entraguard/go-jwt-middleware"
	"github.com/entraguard/go-jwt-middleware/config"
	"github.com/entraguard/go-jwt-middleware/jwks"
	"github.com/entraguard/go-jwt-middleware/validator"
)

const serviceName = "entraguard-demo"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(cfg.Level())
	logger := jwtmiddleware.NewLogrusLogger(log)

	if cfg.OTLPEndpoint != "" {
		tp, err := initTracerProvider(ctx, cfg.OTLPEndpoint)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize OTel tracer provider")
		} else {
			defer func() {
				_ = tp.Shutdown(context.Background())
			}()
		}
	}

	metrics, err := jwtmiddleware.NewPrometheusMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	v, err := newValidator(cfg, logger, metrics)
	if err != nil {
		return err
	}
	if !cfg.IsAuthEnabled() {
		log.Warn("AZURE_CLIENT_ID or AZURE_TENANT_ID not set; protected routes will answer 500")
	}

	router, err := newRouter(cfg, v, routerDeps{
		logger:   logger,
		metrics:  metrics,
		tracer:   otel.Tracer(serviceName),
		gatherer: prometheus.DefaultGatherer,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("API starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	log.Info("API stopped")
	return nil
}

// newValidator builds the key cache and validator. An unconfigured
// environment yields a validator that rejects every token with
// AuthNotConfigured instead of an error.
func newValidator(cfg *config.Config, logger jwtmiddleware.Logger, metrics jwks.Metrics) (*validator.Validator, error) {
	vcfg := cfg.ValidatorConfig()

	validatorOpts := []validator.Option{
		validator.WithAllowedClockSkew(cfg.Auth.ClockSkew),
		validator.WithLogger(logger),
	}

	if !vcfg.IsConfigured() {
		return validator.New(vcfg, nil, validatorOpts...)
	}

	jwksURL, err := vcfg.JWKSURL()
	if err != nil {
		return nil, fmt.Errorf("invalid auth configuration: %w", err)
	}

	cache, err := jwks.NewCache(
		jwks.WithJWKSURI(jwksURL),
		jwks.WithFetchTimeout(cfg.Auth.FetchTimeout),
		jwks.WithLogger(logger),
		jwks.WithMetrics(metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS cache: %w", err)
	}

	return validator.New(vcfg, cache, validatorOpts...)
}

func initTracerProvider(ctx context.Context, endpoint string) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	)
	otel.SetTracerProvider(tp)
	return tp, nil
}
