package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_DisabledByEnvVar(t *testing.T) {
	t.Setenv("BIDASH_TELEMETRY_ENABLED", "false")

	client := New(nil)
	_, ok := client.(*noopClient)
	assert.True(t, ok, "Should return noopClient when disabled")
}

func TestNew_DisabledWithoutAPIKey(t *testing.T) {
	originalKey := APIKey
	APIKey = ""
	defer func() { APIKey = originalKey }()

	client := New(nil)
	_, ok := client.(*noopClient)
	assert.True(t, ok, "Should return noopClient without API key")
}

func TestNoopClient_DoesNotPanic(t *testing.T) {
	client := &noopClient{}

	client.Track("test_event", map[string]interface{}{"key": "value"})
	client.TrackCLICommandExecuted("sync", true, 100)
	client.TrackCLIError("sync", "network_error")
	client.TrackDatasetSynced("hubspot", "contacts", 250, 1200)
	client.TrackSyncCompleted("hubspot", 5, 0)
	client.TrackQueryExecuted("monthly_revenue", "SUCCEEDED", 4000)
	client.TrackActionExecuted("stale_deals", true, 3)
	client.Close()

	assert.Empty(t, client.GetTrackingID())
}

type stubProvider struct{ id string }

func (p *stubProvider) GetOrCreateTrackingID() string { return p.id }

func TestNew_UsesProviderTrackingID(t *testing.T) {
	originalKey := APIKey
	APIKey = "phc_test"
	defer func() { APIKey = originalKey }()
	t.Setenv("BIDASH_TELEMETRY_ENABLED", "true")

	client := New(&stubProvider{id: "stable-id"})
	defer client.Close()

	if _, ok := client.(*noopClient); ok {
		t.Skip("posthog client unavailable")
	}
	assert.Equal(t, "stable-id", client.GetTrackingID())
}
