package hubspot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlighty/bi-agent-dashboard/internal/cache"
	"github.com/mlighty/bi-agent-dashboard/internal/telemetry"
)

func newTestSyncer(t *testing.T, serverURL string) (*Syncer, *cache.Loader) {
	t.Helper()
	dir := t.TempDir()
	loader := cache.NewLoader(filepath.Join(dir, "hubspot_cache.duckdb"), dir)
	client := newTestClient(serverURL, 100)
	return NewSyncer(client, loader, telemetry.New(nil)), loader
}

func TestSyncAll_LoadsContactsTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/crm/v3/objects/contacts", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"id": "1", "createdAt": "t1", "properties": map[string]interface{}{"email": "a@b.com"}},
				{"id": "2", "createdAt": "t2", "properties": map[string]interface{}{"email": "c@d.com"}},
			},
		})
	}))
	defer server.Close()

	syncer, loader := newTestSyncer(t, server.URL)
	require.NoError(t, syncer.SyncAll(context.Background(), []string{"contacts"}))

	count, err := loader.TableCount(context.Background(), "contacts")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestSyncAll_PipelinesFlattenToStages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/crm/v3/pipelines/deals", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{
					"id": "p1", "label": "Sales",
					"stages": []map[string]interface{}{
						{"id": "s1", "label": "New", "displayOrder": 0},
						{"id": "s2", "label": "Won", "displayOrder": 1},
					},
				},
			},
		})
	}))
	defer server.Close()

	syncer, loader := newTestSyncer(t, server.URL)
	require.NoError(t, syncer.SyncAll(context.Background(), []string{"pipelines"}))

	count, err := loader.TableCount(context.Background(), "deal_stages")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestSyncAll_EmptyDatasetLeavesTableAlone(t *testing.T) {
	empty := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if empty {
			_, _ = w.Write([]byte(`{"results":[]}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"id": "1", "properties": map[string]interface{}{"email": "a@b.com"}},
			},
		})
	}))
	defer server.Close()

	syncer, loader := newTestSyncer(t, server.URL)
	ctx := context.Background()
	require.NoError(t, syncer.SyncAll(ctx, []string{"contacts"}))

	empty = true
	require.NoError(t, syncer.SyncAll(ctx, []string{"contacts"}))

	// The empty second sync is a no-op, not a drop.
	count, err := loader.TableCount(ctx, "contacts")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSyncAll_FailedPageAbortsRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/crm/v3/objects/contacts" {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"results": []map[string]interface{}{
					{"id": "1", "properties": map[string]interface{}{}},
				},
			})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"boom"}`))
	}))
	defer server.Close()

	syncer, loader := newTestSyncer(t, server.URL)
	ctx := context.Background()

	err := syncer.SyncAll(ctx, []string{"contacts", "companies", "deals"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "companies")

	// The dataset completed before the failure keeps its table.
	count, err := loader.TableCount(ctx, "contacts")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// The failed dataset never got a table.
	count, err = loader.TableCount(ctx, "companies")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestSyncAll_UnknownDatasetRejected(t *testing.T) {
	syncer, _ := newTestSyncer(t, "http://127.0.0.1:0")
	err := syncer.SyncAll(context.Background(), []string{"widgets"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dataset")
}
