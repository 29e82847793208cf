package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	apiContext "rachiohook/internal/api/context"
	"rachiohook/internal/pkg/errors"
	"rachiohook/internal/platform/metrics"
)

// SecretMiddleware authenticates webhook deliveries by the :secret path
// segment. A rejected request never has its body read.
type SecretMiddleware struct {
	secret []byte
}

func NewSecretMiddleware(secret string) *SecretMiddleware {
	return &SecretMiddleware{secret: []byte(secret)}
}

func (m *SecretMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, _ := r.Context().Value(apiContext.Params).(httprouter.Params)
		got := []byte(params.ByName("secret"))

		if len(m.secret) == 0 || subtle.ConstantTimeCompare(got, m.secret) != 1 {
			zerolog.Ctx(r.Context()).Warn().Msg("rejected webhook with invalid secret")
			metrics.WebhookRequests.WithLabelValues("401").Inc()
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid webhook secret", nil)
			return
		}

		next(w, r)
	}
}
