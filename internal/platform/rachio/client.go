package rachio

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samber/lo"
	"rachiohook/internal/pkg/errors"
	"rachiohook/internal/platform/config"
	"rachiohook/internal/platform/models"
)

const serviceName = "rachio"

// Client talks to the Rachio public API with a bearer API key.
type Client struct {
	http *resty.Client
}

func New(cfg config.RachioConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	r := resty.New()
	r.SetBaseURL(cfg.BaseURL)
	r.SetAuthToken(cfg.APIKey)
	r.SetTimeout(timeout)
	r.SetHeader("Content-Type", "application/json")
	r.SetHeader("Accept", "application/json")

	return &Client{http: r}
}

// GetPerson resolves the person owning the API key, including their devices.
func (c *Client) GetPerson(ctx context.Context) (*models.Person, error) {
	var info models.PersonInfo
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&info).
		Get("/person/info")
	if err := check("get person info", resp, err); err != nil {
		return nil, err
	}

	var person models.Person
	resp, err = c.http.R().
		SetContext(ctx).
		SetPathParam("personId", info.ID).
		SetResult(&person).
		Get("/person/{personId}")
	if err := check("get person", resp, err); err != nil {
		return nil, err
	}

	return &person, nil
}

func (c *Client) GetDevices(ctx context.Context) ([]models.Device, error) {
	person, err := c.GetPerson(ctx)
	if err != nil {
		return nil, err
	}
	return person.Devices, nil
}

// GetDevice returns the device with the given id, or a NotFoundError when
// the account has no such device.
func (c *Client) GetDevice(ctx context.Context, deviceID string) (*models.Device, error) {
	devices, err := c.GetDevices(ctx)
	if err != nil {
		return nil, err
	}

	device, ok := lo.Find(devices, func(d models.Device) bool {
		return d.ID == deviceID
	})
	if !ok {
		return nil, &errors.NotFoundError{Resource: "device", ID: deviceID}
	}
	return &device, nil
}

func (c *Client) ListWebhooks(ctx context.Context, deviceID string) ([]models.Webhook, error) {
	var webhooks []models.Webhook
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("deviceId", deviceID).
		SetResult(&webhooks).
		Get("/notification/{deviceId}/webhook")
	if err := check("list webhooks", resp, err); err != nil {
		return nil, err
	}
	return webhooks, nil
}

func (c *Client) CreateWebhook(ctx context.Context, deviceID, url string, types []models.EventType, externalID string) (*models.Webhook, error) {
	payload := models.WebhookPayload{
		Device:     &models.DeviceRef{ID: deviceID},
		ExternalID: externalID,
		URL:        url,
		EventTypes: models.EventTypeRefs(types),
	}

	var created models.Webhook
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&created).
		Post("/notification/webhook")
	if err := check("create webhook", resp, err); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateWebhook(ctx context.Context, webhookID, url string, types []models.EventType, externalID string) (*models.Webhook, error) {
	payload := models.WebhookPayload{
		ID:         webhookID,
		ExternalID: externalID,
		URL:        url,
		EventTypes: models.EventTypeRefs(types),
	}

	var updated models.Webhook
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&updated).
		Put("/notification/webhook")
	if err := check("update webhook", resp, err); err != nil {
		return nil, err
	}
	return &updated, nil
}

func check(op string, resp *resty.Response, err error) error {
	if err != nil {
		return &errors.UpstreamError{Service: serviceName, Op: op, Err: err}
	}
	if resp.IsError() {
		return &errors.UpstreamError{
			Service:    serviceName,
			Op:         op,
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
		}
	}
	return nil
}
