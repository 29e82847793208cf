package webhooks

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"rachiohook/internal/platform/models"
)

// OwnSubscriptionTag is the externalId that marks a Rachio webhook as ours.
const OwnSubscriptionTag = "rachio_webhook"

// Directory is the subset of the Rachio API the reconciler needs.
type Directory interface {
	ListWebhooks(ctx context.Context, deviceID string) ([]models.Webhook, error)
	CreateWebhook(ctx context.Context, deviceID, url string, types []models.EventType, externalID string) (*models.Webhook, error)
	UpdateWebhook(ctx context.Context, webhookID, url string, types []models.EventType, externalID string) (*models.Webhook, error)
}

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

type Result struct {
	Action  Action
	Webhook *models.Webhook
}

// PublicURL builds the callback URL Rachio posts to. It must match the
// inbound route /webhook/:secret.
func PublicURL(baseURL, secret string) string {
	return strings.TrimRight(baseURL, "/") + "/webhook/" + url.PathEscape(secret)
}

// IsOwn reports whether w was registered by this service.
func IsOwn(w models.Webhook) bool {
	return w.ExternalID == OwnSubscriptionTag
}

// Reconciler makes sure a device has exactly one webhook pointing at us,
// updating the existing one rather than creating a duplicate.
//
// Reconcile is not serialized: two concurrent runs for the same device can
// both see no subscription and both create one.
type Reconciler struct {
	directory   Directory
	callbackURL string
	eventTypes  []models.EventType
}

func NewReconciler(directory Directory, publicURL, secret string) *Reconciler {
	return &Reconciler{
		directory:   directory,
		callbackURL: PublicURL(publicURL, secret),
		eventTypes:  models.SubscribedEventTypes,
	}
}

func (r *Reconciler) CallbackURL() string {
	return r.callbackURL
}

func (r *Reconciler) Reconcile(ctx context.Context, deviceID string) (*Result, error) {
	if deviceID == "" {
		return nil, errors.New("reconcile: device id is required")
	}
	logger := zerolog.Ctx(ctx).With().Str("device_id", deviceID).Logger()

	existing, err := r.directory.ListWebhooks(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("reconcile: list webhooks for device %s: %w", deviceID, err)
	}

	own := lo.Filter(existing, func(w models.Webhook, _ int) bool {
		return IsOwn(w)
	})
	if len(own) > 1 {
		logger.Warn().Int("count", len(own)).Msg("multiple webhooks carry our tag, updating the first")
	}

	if len(own) > 0 {
		logger.Info().Str("webhook_id", own[0].ID).Msg("found webhook, updating")
		updated, err := r.directory.UpdateWebhook(ctx, own[0].ID, r.callbackURL, r.eventTypes, OwnSubscriptionTag)
		if err != nil {
			return nil, fmt.Errorf("reconcile: update webhook %s: %w", own[0].ID, err)
		}
		return &Result{Action: ActionUpdated, Webhook: updated}, nil
	}

	logger.Info().Msg("webhook not found, creating")
	created, err := r.directory.CreateWebhook(ctx, deviceID, r.callbackURL, r.eventTypes, OwnSubscriptionTag)
	if err != nil {
		return nil, fmt.Errorf("reconcile: create webhook for device %s: %w", deviceID, err)
	}
	return &Result{Action: ActionCreated, Webhook: created}, nil
}
