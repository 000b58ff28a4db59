/*
Package jwtmiddleware authenticates net/http requests that carry bearer tokens
issued by Microsoft Entra ID (Azure AD).

The middleware is the HTTP adapter over core.Core. It pulls the token out of
the request, asks a validator.Validator to verify it against the tenant's
signing keys and stores the resulting validator.ClaimSet in the request
context. Adapters for gin, echo and gRPC live in framework/ and integrations/.

# Quick Start

	import (
	    jwtmiddleware "github.com/entraguard/go-jwt-middleware"
	    "github.com/entraguard/go-jwt-middleware/jwks"
	    "github.com/entraguard/go-jwt-middleware/validator"
	)

	func main() {
	    cfg := validator.Config{ClientID: clientID, TenantID: tenantID}

	    jwksURL, err := cfg.JWKSURL()
	    if err != nil {
	        log.Fatal(err)
	    }
	    cache, err := jwks.NewCache(jwks.WithJWKSURI(jwksURL))
	    if err != nil {
	        log.Fatal(err)
	    }

	    v, err := validator.New(cfg, cache)
	    if err != nil {
	        log.Fatal(err)
	    }

	    middleware, err := jwtmiddleware.New(jwtmiddleware.WithValidator(v))
	    if err != nil {
	        log.Fatal(err)
	    }

	    http.Handle("/api/", middleware.CheckJWT(apiHandler))
	    http.ListenAndServe(":8000", nil)
	}

# Accessing Claims

	func apiHandler(w http.ResponseWriter, r *http.Request) {
	    claims, err := jwtmiddleware.Claims(r.Context())
	    if err != nil {
	        http.Error(w, "Unauthorized", http.StatusUnauthorized)
	        return
	    }
	    fmt.Fprintf(w, "Hello, %s!", claims.Name())
	}

GetClaims[T] and MustGetClaims[T] are available for callers that store a
different claims type through core.SetClaims.

# Errors

DefaultErrorHandler answers with a JSON ErrorResponse. A missing token gets
401 and a bare "WWW-Authenticate: Bearer" challenge. Every rejected token gets
401 with error="invalid_token" and the validator's detail, including tokens
whose signing keys could not be fetched. A validator built without client or
tenant id answers 500 "Auth not initialized".

Custom handlers can tell the cases apart:

	func handler(w http.ResponseWriter, r *http.Request, err error) {
	    switch {
	    case errors.Is(err, jwtmiddleware.ErrJWTMissing):
	        // no credentials
	    case errors.Is(err, jwtmiddleware.ErrJWTInvalid):
	        kind, _ := validator.KindOf(err)
	        _ = kind
	    }
	}

# Observability

WithLogger accepts any slog-style logger; NewLogrusLogger, NewZapLogger and
NewZerologLogger adapt the common ones. WithMetrics takes a
*PrometheusMetrics, which can also be handed to jwks.WithMetrics. WithTracer
wraps each check in an OpenTelemetry span.
*/
package jwtmiddleware
