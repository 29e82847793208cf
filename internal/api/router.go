package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	apiContext "rachiohook/internal/api/context"
	"rachiohook/internal/api/handlers"
	"rachiohook/internal/api/middleware"
	"rachiohook/internal/pkg/errors"
)

type Dependencies struct {
	WebhookHandler   *handlers.WebhookHandler
	HealthHandler    *handlers.HealthHandler
	MetricsHandler   *handlers.MetricsHandler
	SecretMiddleware *middleware.SecretMiddleware
	// RateLimiter is optional.
	RateLimiter *middleware.RateLimiter
}

func NewRouter(deps *Dependencies) http.Handler {
	router := httprouter.New()

	router.GET("/", wrap(deps.HealthHandler.Liveness))
	router.GET("/health", wrap(deps.HealthHandler.Check))
	router.GET("/metrics", wrap(deps.MetricsHandler.Export))

	// Rachio event deliveries. Only authenticated requests spend rate limit tokens.
	webhookMiddlewares := []func(http.HandlerFunc) http.HandlerFunc{deps.SecretMiddleware.Handle}
	if deps.RateLimiter != nil {
		webhookMiddlewares = append(webhookMiddlewares, deps.RateLimiter.Handle)
	}
	router.POST("/webhook/:secret", chain(deps.WebhookHandler.Receive, webhookMiddlewares...))

	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		zerolog.Ctx(r.Context()).Error().Interface("panic", v).Msg("handler panicked")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Internal server error", nil)
	}

	return middleware.RequestLogger(router)
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
