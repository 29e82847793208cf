package models

import "github.com/samber/lo"

// EventType is a Rachio notification event type id.
type EventType string

const (
	EventTypeDeviceStatus   EventType = "5"
	EventTypeScheduleStatus EventType = "9"
	EventTypeZoneStatus     EventType = "10"
)

// SubscribedEventTypes is the fixed set requested for our webhook.
var SubscribedEventTypes = []EventType{
	EventTypeDeviceStatus,
	EventTypeScheduleStatus,
	EventTypeZoneStatus,
}

type EventTypeRef struct {
	ID   EventType `json:"id"`
	Name string    `json:"name,omitempty"`
}

type DeviceRef struct {
	ID string `json:"id"`
}

// Webhook is a Rachio notification subscription.
type Webhook struct {
	ID         string         `json:"id"`
	ExternalID string         `json:"externalId"`
	URL        string         `json:"url"`
	EventTypes []EventTypeRef `json:"eventTypes"`
	Device     *DeviceRef     `json:"device,omitempty"`
}

// WebhookPayload is the body of POST and PUT /notification/webhook. Device is
// set on create, ID on update.
type WebhookPayload struct {
	ID         string         `json:"id,omitempty"`
	Device     *DeviceRef     `json:"device,omitempty"`
	ExternalID string         `json:"externalId"`
	URL        string         `json:"url"`
	EventTypes []EventTypeRef `json:"eventTypes"`
}

func EventTypeRefs(types []EventType) []EventTypeRef {
	return lo.Map(types, func(t EventType, _ int) EventTypeRef {
		return EventTypeRef{ID: t}
	})
}
