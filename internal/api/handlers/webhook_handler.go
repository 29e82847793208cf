package handlers

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"rachiohook/internal/engine/events"
	"rachiohook/internal/pkg/errors"
	"rachiohook/internal/platform/metrics"
)

// MaxBodyBytes caps an inbound webhook body.
const MaxBodyBytes = 1 << 20

// EventDispatcher routes a parsed event to its notification.
type EventDispatcher interface {
	Dispatch(ctx context.Context, e *events.Event) (events.Route, error)
}

type WebhookHandler struct {
	dispatcher EventDispatcher
}

func NewWebhookHandler(dispatcher EventDispatcher) *WebhookHandler {
	return &WebhookHandler{dispatcher: dispatcher}
}

// Receive accepts a Rachio event delivery. Once the body parses the sender
// always gets 200, even if the notification could not be delivered, so Rachio
// does not retry on our behalf.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			h.reject(w, http.StatusRequestEntityTooLarge, errors.ErrCodeTooLarge, "Request body too large")
			return
		}
		h.reject(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Could not read request body")
		return
	}

	event, err := events.ParseEvent(body)
	if err != nil {
		logger.Warn().Err(err).Msg("rejected malformed webhook payload")
		h.reject(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid event payload")
		return
	}

	// The notification still goes out if Rachio hangs up early.
	ctx := context.WithoutCancel(r.Context())
	route, err := h.dispatcher.Dispatch(ctx, event)
	if err != nil {
		logger.Error().Err(err).
			Str("category", event.Category).
			Str("sub_type", event.SubType).
			Msg("failed to deliver notification")
	} else {
		logger.Debug().Str("route", string(route)).Msg("event dispatched")
	}

	metrics.WebhookRequests.WithLabelValues(strconv.Itoa(http.StatusOK)).Inc()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *WebhookHandler) reject(w http.ResponseWriter, status int, code, message string) {
	metrics.WebhookRequests.WithLabelValues(strconv.Itoa(status)).Inc()
	errors.WriteError(w, status, code, message, nil)
}
