package events

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	apperrors "rachiohook/internal/pkg/errors"
	"rachiohook/internal/platform/metrics"
	"rachiohook/internal/platform/models"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (n *recordingNotifier) SendMessage(_ context.Context, content string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, content)
	return n.err
}

func (n *recordingNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

type fakeDirectory struct {
	devices map[string]models.Device
	err     error
}

func (d *fakeDirectory) GetDevice(_ context.Context, id string) (*models.Device, error) {
	if d.err != nil {
		return nil, d.err
	}
	device, ok := d.devices[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Resource: "device", ID: id}
	}
	return &device, nil
}

func newTestDispatcher(t *testing.T, dir *fakeDirectory) (*Dispatcher, *recordingNotifier) {
	t.Helper()
	if dir == nil {
		dir = &fakeDirectory{devices: map[string]models.Device{
			"dev-1": {ID: "dev-1", Name: "Front Yard Controller"},
		}}
	}
	notifier := &recordingNotifier{}
	d, err := NewDispatcher(notifier, dir)
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}
	return d, notifier
}

func TestDispatch_KnownSubTypes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		contains []string
	}{
		{
			name:     "zone started",
			body:     `{"type":"ZONE_STATUS","subType":"ZONE_STARTED","zoneName":"Front Lawn","durationInMinutes":1,"endTime":"2024-01-01T00:01:00Z"}`,
			contains: []string{MarkerStarted, "Front Lawn", "1 minute ", "<t:1704067260:R>"},
		},
		{
			name:     "zone completed",
			body:     `{"type":"zone_status","subType":"zone_completed","zoneName":"Back","durationInMinutes":4}`,
			contains: []string{MarkerCompleted, "Back", "4 minutes"},
		},
		{
			name:     "schedule started",
			body:     `{"type":"SCHEDULE_STATUS","subType":"SCHEDULE_STARTED","scheduleName":"Morning","durationInMinutes":10,"endTime":"2024-01-01T00:10:00Z"}`,
			contains: []string{MarkerStarted, "Schedule Morning", "10 minutes", "<t:1704067800:R>"},
		},
		{
			name:     "schedule completed",
			body:     `{"type":"Schedule_Status","subType":"Schedule_Completed","scheduleName":"Morning","durationInMinutes":1}`,
			contains: []string{MarkerCompleted, "Schedule Morning", "1 minute"},
		},
		{
			name:     "device online",
			body:     `{"type":"DEVICE_STATUS","subType":"ONLINE","deviceId":"dev-1"}`,
			contains: []string{MarkerStarted, "**Front Yard Controller** is online"},
		},
		{
			name:     "device offline",
			body:     `{"type":"DEVICE_STATUS","subType":"OFFLINE","deviceId":"dev-1"}`,
			contains: []string{MarkerWarning, "**Front Yard Controller** is offline"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, notifier := newTestDispatcher(t, nil)

			route, err := d.Dispatch(context.Background(), mustParse(t, tt.body))
			if err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}
			if route != RouteSubType {
				t.Errorf("Expected route %s, got %s", RouteSubType, route)
			}

			sent := notifier.sent()
			if len(sent) != 1 {
				t.Fatalf("Expected exactly one message, got %d", len(sent))
			}
			for _, want := range tt.contains {
				if !strings.Contains(sent[0], want) {
					t.Errorf("Expected %q in %q", want, sent[0])
				}
			}
		})
	}
}

func TestDispatch_GenericFallback(t *testing.T) {
	tests := []struct {
		body  string
		label string
	}{
		{`{"type":"ZONE_STATUS","subType":"ZONE_STOPPED","zoneName":"A"}`, "Generic Zone Message"},
		{`{"type":"DEVICE_STATUS","subType":"COLD_REBOOT","deviceId":"dev-1"}`, "Generic Device Message"},
		{`{"type":"SCHEDULE_STATUS","subType":"SCHEDULE_STOPPED"}`, "Generic Schedule Message"},
		{`{"type":"ZONE_STATUS"}`, "Generic Zone Message"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			d, notifier := newTestDispatcher(t, nil)

			route, err := d.Dispatch(context.Background(), mustParse(t, tt.body))
			if err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}
			if route != RouteGeneric {
				t.Errorf("Expected route %s, got %s", RouteGeneric, route)
			}

			sent := notifier.sent()
			if len(sent) != 1 {
				t.Fatalf("Expected exactly one message, got %d", len(sent))
			}
			if !strings.HasPrefix(sent[0], tt.label+": ") {
				t.Errorf("Expected label %q, got %q", tt.label, sent[0])
			}
			if !strings.Contains(sent[0], tt.body) {
				t.Errorf("Expected raw payload in %q", sent[0])
			}
		})
	}
}

func TestDispatch_Unhandled(t *testing.T) {
	body := `{"type":"RAIN_DELAY","subType":"RAIN_DELAY_ON","deviceId":"dev-1","durationInMinutes":1440}`
	d, notifier := newTestDispatcher(t, nil)

	route, err := d.Dispatch(context.Background(), mustParse(t, body))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if route != RouteUnhandled {
		t.Errorf("Expected route %s, got %s", RouteUnhandled, route)
	}

	sent := notifier.sent()
	if len(sent) != 1 {
		t.Fatalf("Expected exactly one message, got %d", len(sent))
	}
	want := "Unhandled Message: ```json\n" + body + "```"
	if sent[0] != want {
		t.Errorf("got  %q\nwant %q", sent[0], want)
	}
}

func TestDispatch_DeviceNotFoundDegrades(t *testing.T) {
	d, notifier := newTestDispatcher(t, &fakeDirectory{devices: map[string]models.Device{}})

	route, err := d.Dispatch(context.Background(), mustParse(t, `{"type":"DEVICE_STATUS","subType":"OFFLINE","deviceId":"abc"}`))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if route != RouteSubType {
		t.Errorf("Expected route %s, got %s", RouteSubType, route)
	}

	sent := notifier.sent()
	if len(sent) != 1 {
		t.Fatalf("Expected delivery to be attempted once, got %d", len(sent))
	}
	if sent[0] != ":warning: **abc** is offline" {
		t.Errorf("Unexpected degraded message %q", sent[0])
	}
}

func TestDispatch_DeviceDirectoryFailureDegrades(t *testing.T) {
	dir := &fakeDirectory{err: &apperrors.UpstreamError{Service: "rachio", Op: "get person", StatusCode: 503}}
	d, notifier := newTestDispatcher(t, dir)

	if _, err := d.Dispatch(context.Background(), mustParse(t, `{"type":"DEVICE_STATUS","subType":"ONLINE","deviceId":"dev-9"}`)); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if sent := notifier.sent(); len(sent) != 1 || sent[0] != ":green_circle: **dev-9** is online" {
		t.Errorf("Unexpected messages %q", sent)
	}
}

func TestDispatch_DeviceWithoutID(t *testing.T) {
	d, notifier := newTestDispatcher(t, nil)

	if _, err := d.Dispatch(context.Background(), mustParse(t, `{"type":"DEVICE_STATUS","subType":"OFFLINE"}`)); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if sent := notifier.sent(); len(sent) != 1 || sent[0] != ":warning: **unknown device** is offline" {
		t.Errorf("Unexpected messages %q", sent)
	}
}

func TestDispatch_NotifierFailure(t *testing.T) {
	d, notifier := newTestDispatcher(t, nil)
	notifier.err = &apperrors.UpstreamError{Service: "discord", Op: "send message", StatusCode: 500}

	before := testutil.ToFloat64(metrics.NotificationFailures.WithLabelValues("zone_status"))

	route, err := d.Dispatch(context.Background(), mustParse(t, `{"type":"ZONE_STATUS","subType":"ZONE_COMPLETED","zoneName":"A","durationInMinutes":1}`))
	if route != RouteSubType {
		t.Errorf("Expected route %s, got %s", RouteSubType, route)
	}

	var up *apperrors.UpstreamError
	if !stderrors.As(err, &up) {
		t.Fatalf("Expected wrapped UpstreamError, got %v", err)
	}
	if len(notifier.sent()) != 1 {
		t.Errorf("Expected a single attempt, got %d", len(notifier.sent()))
	}

	after := testutil.ToFloat64(metrics.NotificationFailures.WithLabelValues("zone_status"))
	if after-before != 1 {
		t.Errorf("Expected failure counter to increase by 1, got %v", after-before)
	}
}

func TestDispatch_NilEvent(t *testing.T) {
	d, notifier := newTestDispatcher(t, nil)

	if _, err := d.Dispatch(context.Background(), nil); err == nil {
		t.Error("Expected error for nil event")
	}
	if len(notifier.sent()) != 0 {
		t.Error("Expected no message for nil event")
	}
}

func TestDispatch_ConfigurationGapIsNoOp(t *testing.T) {
	notifier := &recordingNotifier{}
	d := &Dispatcher{
		notifier: notifier,
		devices:  &fakeDirectory{},
		handlers: map[Category]formatterSet{
			CategoryZoneStatus: {subTypes: map[SubType]formatter{}},
		},
	}

	route, err := d.Dispatch(context.Background(), mustParse(t, `{"type":"ZONE_STATUS","subType":"ZONE_STOPPED"}`))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if route != RouteDropped {
		t.Errorf("Expected route %s, got %s", RouteDropped, route)
	}
	if len(notifier.sent()) != 0 {
		t.Error("Expected no message when no formatter is registered")
	}
}

func TestDispatch_RecoversFormatterPanic(t *testing.T) {
	notifier := &recordingNotifier{}
	d := &Dispatcher{
		notifier: notifier,
		devices:  &fakeDirectory{},
		handlers: map[Category]formatterSet{
			CategoryZoneStatus: {
				subTypes: map[SubType]formatter{
					SubTypeZoneStarted: func(context.Context, *Event) string { panic("boom") },
				},
				generic: generic(CategoryZoneStatus),
			},
		},
	}

	_, err := d.Dispatch(context.Background(), mustParse(t, `{"type":"ZONE_STATUS","subType":"ZONE_STARTED"}`))
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("Expected recovered panic error, got %v", err)
	}
	if len(notifier.sent()) != 0 {
		t.Error("Expected no message after a formatter panic")
	}
}

func TestValidateHandlers(t *testing.T) {
	noop := func(context.Context, *Event) string { return "" }

	complete := func() map[Category]formatterSet {
		return map[Category]formatterSet{
			CategoryZoneStatus:     {generic: noop},
			CategoryDeviceStatus:   {generic: noop},
			CategoryScheduleStatus: {generic: noop},
		}
	}

	tests := []struct {
		name    string
		mutate  func(map[Category]formatterSet)
		wantErr bool
	}{
		{name: "complete", mutate: func(map[Category]formatterSet) {}, wantErr: false},
		{name: "missing category", mutate: func(h map[Category]formatterSet) { delete(h, CategoryZoneStatus) }, wantErr: true},
		{name: "missing generic", mutate: func(h map[Category]formatterSet) { h[CategoryDeviceStatus] = formatterSet{} }, wantErr: true},
		{
			name: "foreign subtype",
			mutate: func(h map[Category]formatterSet) {
				h[CategoryZoneStatus] = formatterSet{generic: noop, subTypes: map[SubType]formatter{SubTypeOffline: noop}}
			},
			wantErr: true,
		},
		{name: "unknown category", mutate: func(h map[Category]formatterSet) { h["rain_delay"] = formatterSet{generic: noop} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := complete()
			tt.mutate(h)
			if err := validateHandlers(h); (err != nil) != tt.wantErr {
				t.Errorf("validateHandlers() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewDispatcher_RequiresCollaborators(t *testing.T) {
	if _, err := NewDispatcher(nil, &fakeDirectory{}); err == nil {
		t.Error("Expected error without notifier")
	}
	if _, err := NewDispatcher(&recordingNotifier{}, nil); err == nil {
		t.Error("Expected error without directory")
	}
}

func TestDispatch_Concurrent(t *testing.T) {
	d, notifier := newTestDispatcher(t, nil)
	bodies := []string{
		`{"type":"ZONE_STATUS","subType":"ZONE_STARTED","zoneName":"A","durationInMinutes":1}`,
		`{"type":"DEVICE_STATUS","subType":"ONLINE","deviceId":"dev-1"}`,
		`{"type":"UNKNOWN"}`,
		`{"type":"SCHEDULE_STATUS","subType":"OTHER"}`,
	}

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(body string) {
			defer wg.Done()
			e, err := ParseEvent([]byte(body))
			if err != nil {
				t.Errorf("ParseEvent() error = %v", err)
				return
			}
			if _, err := d.Dispatch(context.Background(), e); err != nil {
				t.Errorf("Dispatch() error = %v", err)
			}
		}(bodies[i%len(bodies)])
	}
	wg.Wait()

	if got := len(notifier.sent()); got != 40 {
		t.Errorf("Expected 40 messages, got %d", got)
	}
}
