package core

import (
	"errors"

	"go.opentelemetry.io/otel/trace"
)

// Option is a function that configures the Core.
// Options return errors to enable validation during construction.
type Option func(*Core) error

// New creates a new Core instance with the provided options.
//
// Example:
//
//	c, err := core.New(
//	    core.WithValidator(v),
//	    core.WithLogger(logger),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
func New(opts ...Option) (*Core, error) {
	c := &Core{}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.validator == nil {
		return nil, ErrValidatorNotSet
	}

	return c, nil
}

// WithValidator sets the validator for the Core.
// This is a required option.
func WithValidator(v Validator) Option {
	return func(c *Core) error {
		if v == nil {
			return errors.New("validator cannot be nil")
		}
		c.validator = v
		return nil
	}
}

// WithCredentialsOptional configures whether credentials are optional.
//
// When set to true, requests without tokens proceed without claims in the
// context. Requests with an invalid token are still rejected.
func WithCredentialsOptional(optional bool) Option {
	return func(c *Core) error {
		c.credentialsOptional = optional
		return nil
	}
}

// WithLogger sets an optional logger for the Core.
func WithLogger(logger Logger) Option {
	return func(c *Core) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithMetrics sets the collector that receives one outcome per check.
func WithMetrics(m Metrics) Option {
	return func(c *Core) error {
		if m == nil {
			return errors.New("metrics cannot be nil")
		}
		c.metrics = m
		return nil
	}
}

// WithTracer wraps every check in a span named jwtmiddleware.CheckToken.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Core) error {
		if tracer == nil {
			return errors.New("tracer cannot be nil")
		}
		c.tracer = tracer
		return nil
	}
}
