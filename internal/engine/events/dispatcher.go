package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	apperrors "rachiohook/internal/pkg/errors"
	"rachiohook/internal/platform/metrics"
	"rachiohook/internal/platform/models"
)

// Notifier delivers a formatted message to the chat channel.
type Notifier interface {
	SendMessage(ctx context.Context, content string) error
}

// DeviceDirectory resolves device display names.
type DeviceDirectory interface {
	GetDevice(ctx context.Context, deviceID string) (*models.Device, error)
}

// Route records which formatter produced a message.
type Route string

const (
	RouteSubType   Route = "subtype"
	RouteGeneric   Route = "generic"
	RouteUnhandled Route = "unhandled"
	RouteDropped   Route = "dropped"
)

const unknownDevice = "unknown device"

type formatter func(ctx context.Context, e *Event) string

type formatterSet struct {
	subTypes map[SubType]formatter
	generic  formatter
}

// Dispatcher routes events to exactly one formatter and sends the result.
// The routing table is built once and never mutated, so a Dispatcher is safe
// for concurrent use.
type Dispatcher struct {
	notifier Notifier
	devices  DeviceDirectory
	handlers map[Category]formatterSet
}

func NewDispatcher(notifier Notifier, devices DeviceDirectory) (*Dispatcher, error) {
	if notifier == nil {
		return nil, errors.New("dispatcher: notifier is required")
	}
	if devices == nil {
		return nil, errors.New("dispatcher: device directory is required")
	}

	d := &Dispatcher{notifier: notifier, devices: devices}
	d.handlers = map[Category]formatterSet{
		CategoryZoneStatus: {
			subTypes: map[SubType]formatter{
				SubTypeZoneStarted:   pure(FormatZoneStarted),
				SubTypeZoneCompleted: pure(FormatZoneCompleted),
			},
			generic: generic(CategoryZoneStatus),
		},
		CategoryScheduleStatus: {
			subTypes: map[SubType]formatter{
				SubTypeScheduleStarted:   pure(FormatScheduleStarted),
				SubTypeScheduleCompleted: pure(FormatScheduleCompleted),
			},
			generic: generic(CategoryScheduleStatus),
		},
		CategoryDeviceStatus: {
			subTypes: map[SubType]formatter{
				SubTypeOffline: d.deviceStatus(FormatDeviceOffline),
				SubTypeOnline:  d.deviceStatus(FormatDeviceOnline),
			},
			generic: generic(CategoryDeviceStatus),
		},
	}

	if err := validateHandlers(d.handlers); err != nil {
		return nil, err
	}
	return d, nil
}

// validateHandlers enforces that every category has a generic formatter and
// that subtype formatters are only registered for taxonomy entries.
func validateHandlers(handlers map[Category]formatterSet) error {
	for category := range Taxonomy {
		set, ok := handlers[category]
		if !ok {
			return fmt.Errorf("dispatcher: no formatters registered for category %s", category)
		}
		if set.generic == nil {
			return fmt.Errorf("dispatcher: category %s has no generic formatter", category)
		}
		for subType := range set.subTypes {
			if !category.Known(subType) {
				return fmt.Errorf("dispatcher: subtype %s is not part of category %s", subType, category)
			}
		}
	}
	for category := range handlers {
		if _, ok := Taxonomy[category]; !ok {
			return fmt.Errorf("dispatcher: formatters registered for unknown category %s", category)
		}
	}
	return nil
}

func pure(f func(*Event) string) formatter {
	return func(_ context.Context, e *Event) string {
		return f(e)
	}
}

func generic(c Category) formatter {
	return func(_ context.Context, e *Event) string {
		return FormatGeneric(c, e)
	}
}

func (d *Dispatcher) deviceStatus(render func(deviceName string) string) formatter {
	return func(ctx context.Context, e *Event) string {
		return render(d.deviceName(ctx, e))
	}
}

// deviceName resolves the display name for the event's device, falling back
// to the raw id when the directory cannot provide one.
func (d *Dispatcher) deviceName(ctx context.Context, e *Event) string {
	logger := zerolog.Ctx(ctx)
	id := e.String("deviceId")
	if id == "" {
		logger.Warn().Msg("device event without deviceId")
		return unknownDevice
	}

	device, err := d.devices.GetDevice(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			logger.Warn().Str("device_id", id).Msg("device not found, using id as name")
		} else {
			logger.Error().Err(err).Str("device_id", id).Msg("device lookup failed, using id as name")
		}
		return id
	}
	if device.Name == "" {
		return id
	}
	return device.Name
}

// Format picks the formatter for e and renders the message. RouteDropped
// means a known category had neither a subtype nor a generic formatter.
func (d *Dispatcher) Format(ctx context.Context, e *Event) (string, Route) {
	category, ok := LookupCategory(e.Category)
	if !ok {
		return FormatUnhandled(e), RouteUnhandled
	}

	set := d.handlers[category]
	if f, ok := set.subTypes[NormalizeSubType(e.SubType)]; ok {
		return f(ctx, e), RouteSubType
	}
	if set.generic != nil {
		return set.generic(ctx, e), RouteGeneric
	}
	return "", RouteDropped
}

// Dispatch formats e and sends it through the notifier. It never panics; a
// delivery failure is returned together with the route that was taken.
func (d *Dispatcher) Dispatch(ctx context.Context, e *Event) (route Route, err error) {
	if e == nil {
		return RouteDropped, errors.New("dispatch: nil event")
	}

	logger := zerolog.Ctx(ctx).With().
		Str("category", e.Category).
		Str("sub_type", e.SubType).
		Logger()
	ctx = logger.WithContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatch: formatter panicked: %v", r)
			logger.Error().Interface("panic", r).Msg("recovered from panic in dispatch")
		}
	}()

	message, route := d.Format(ctx, e)
	label := metricCategory(e)
	metrics.EventsDispatched.WithLabelValues(label, string(route)).Inc()

	if route == RouteDropped {
		logger.Error().Msg("no formatter registered for event, dropping")
		return route, nil
	}

	if err := d.notifier.SendMessage(ctx, message); err != nil {
		metrics.NotificationFailures.WithLabelValues(label).Inc()
		return route, fmt.Errorf("dispatch %s/%s: %w", e.Category, e.SubType, err)
	}

	logger.Debug().Str("route", string(route)).Msg("event dispatched")
	return route, nil
}

func metricCategory(e *Event) string {
	if c, ok := LookupCategory(e.Category); ok {
		return string(c)
	}
	return "unknown"
}
