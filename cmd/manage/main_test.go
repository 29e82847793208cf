package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"rachiohook/internal/engine/webhooks"
	"rachiohook/internal/platform/config"
	"rachiohook/internal/platform/models"
)

type fakeRachio struct {
	devices  []models.Device
	webhooks []models.Webhook
	err      error

	createdFor string
	updatedID  string
	gotURL     string
}

func (f *fakeRachio) GetDevices(_ context.Context) ([]models.Device, error) {
	return f.devices, f.err
}

func (f *fakeRachio) ListWebhooks(_ context.Context, _ string) ([]models.Webhook, error) {
	return f.webhooks, f.err
}

func (f *fakeRachio) CreateWebhook(_ context.Context, deviceID, url string, _ []models.EventType, externalID string) (*models.Webhook, error) {
	f.createdFor, f.gotURL = deviceID, url
	return &models.Webhook{ID: "wh-new", URL: url, ExternalID: externalID}, nil
}

func (f *fakeRachio) UpdateWebhook(_ context.Context, webhookID, url string, _ []models.EventType, externalID string) (*models.Webhook, error) {
	f.updatedID, f.gotURL = webhookID, url
	return &models.Webhook{ID: webhookID, URL: url, ExternalID: externalID}, nil
}

func setEnv(t *testing.T) {
	t.Helper()
	chdirTemp(t)
	t.Setenv("RACHIO_API_KEY", "key")
	t.Setenv("RACHIO_WEBHOOK_SECRET_KEY", "s3cret")
	t.Setenv("PUBLIC_URL", "https://hooks.example.com")
	t.Setenv("RACHIO_DEVICE_ID", "dev-env")
}

func run(t *testing.T, fake *fakeRachio, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(func(config.RachioConfig) RachioAPI { return fake })
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCreateWebhook_UsesConfiguredDevice(t *testing.T) {
	setEnv(t)
	fake := &fakeRachio{}

	out, err := run(t, fake, "create-webhook")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if fake.createdFor != "dev-env" {
		t.Errorf("Expected webhook created for dev-env, got %q", fake.createdFor)
	}
	if fake.gotURL != "https://hooks.example.com/webhook/s3cret" {
		t.Errorf("Unexpected callback URL %s", fake.gotURL)
	}
	if !strings.Contains(out, "Creating webhook for device dev-env") || !strings.Contains(out, "Created!") {
		t.Errorf("Unexpected output:\n%s", out)
	}
}

func TestCreateWebhook_UpdatesWithFlag(t *testing.T) {
	setEnv(t)
	fake := &fakeRachio{webhooks: []models.Webhook{{ID: "wh-1", ExternalID: webhooks.OwnSubscriptionTag}}}

	out, err := run(t, fake, "create-webhook", "--device-id", "dev-flag")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if fake.updatedID != "wh-1" || fake.createdFor != "" {
		t.Errorf("Expected update of wh-1 only, got update=%q create=%q", fake.updatedID, fake.createdFor)
	}
	if !strings.Contains(out, "Updated!") {
		t.Errorf("Unexpected output:\n%s", out)
	}
}

func TestCreateWebhook_JSON(t *testing.T) {
	setEnv(t)
	out, err := run(t, &fakeRachio{}, "create-webhook", "--json")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var got struct {
		Action  string         `json:"action"`
		Webhook models.Webhook `json:"webhook"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("Output is not JSON: %v\n%s", err, out)
	}
	if got.Action != "created" || got.Webhook.ID != "wh-new" {
		t.Errorf("Unexpected result %+v", got)
	}
}

func TestCreateWebhook_Errors(t *testing.T) {
	t.Run("no device", func(t *testing.T) {
		setEnv(t)
		t.Setenv("RACHIO_DEVICE_ID", "")
		if _, err := run(t, &fakeRachio{}, "create-webhook"); !errors.Is(err, errNoDevice) {
			t.Errorf("Expected errNoDevice, got %v", err)
		}
	})

	t.Run("upstream failure", func(t *testing.T) {
		setEnv(t)
		boom := errors.New("boom")
		if _, err := run(t, &fakeRachio{err: boom}, "create-webhook"); !errors.Is(err, boom) {
			t.Errorf("Expected wrapped upstream error, got %v", err)
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		setEnv(t)
		t.Setenv("RACHIO_API_KEY", "")
		if _, err := run(t, &fakeRachio{}, "create-webhook"); err == nil {
			t.Error("Expected a configuration error")
		}
	})
}

func TestGetDevices(t *testing.T) {
	setEnv(t)
	fake := &fakeRachio{devices: []models.Device{
		{ID: "dev-1", Name: "Front"},
		{ID: "dev-2", Name: "Back"},
	}}

	out, err := run(t, fake, "get-devices")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != "Front: dev-1\nBack: dev-2\n" {
		t.Errorf("Unexpected output %q", out)
	}
}

func TestListWebhooks(t *testing.T) {
	setEnv(t)
	fake := &fakeRachio{webhooks: []models.Webhook{
		{ID: "wh-1", URL: "https://a", ExternalID: webhooks.OwnSubscriptionTag, EventTypes: []models.EventTypeRef{{ID: "5", Name: "DEVICE_STATUS_EVENT"}}},
		{ID: "wh-2", URL: "https://b", ExternalID: "other", EventTypes: []models.EventTypeRef{{ID: "10"}}},
	}}

	out, err := run(t, fake, "list-webhooks")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected header, rule and 2 rows, got:\n%s", out)
	}
	if !strings.Contains(lines[2], "wh-1") || !strings.Contains(lines[2], "DEVICE_STATUS_EVENT") || !strings.HasSuffix(lines[2], "yes") {
		t.Errorf("Unexpected row for our webhook: %q", lines[2])
	}
	if !strings.Contains(lines[3], "wh-2") || strings.HasSuffix(lines[3], "yes") {
		t.Errorf("Unexpected row for foreign webhook: %q", lines[3])
	}
}

func TestListWebhooks_Empty(t *testing.T) {
	setEnv(t)
	out, err := run(t, &fakeRachio{}, "list-webhooks")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != "No webhooks found.\n" {
		t.Errorf("Unexpected output %q", out)
	}
}

// chdirTemp changes into a fresh temp dir for the test and restores the
// previous working directory on cleanup (equivalent of testing.T.Chdir).
func chdirTemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
