package posthog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlighty/bi-agent-dashboard/internal/config"
)

func newTestPostHogClient(serverURL string, cap int) *Client {
	client := NewClient(config.PostHogConfig{
		APIKey:     "test-key",
		ProjectID:  "42",
		Host:       serverURL,
		DaysBack:   7,
		PersonsCap: cap,
	})
	client.now = func() time.Time {
		return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	}
	return client
}

func TestFetchEvents_ZipsColumnsIntoRows(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/projects/42/query", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"columns": []string{"uuid", "event", "timestamp"},
			"results": [][]interface{}{
				{"e1", "pageview", "2024-06-15T10:00:00Z"},
				{"e2", "signup", "2024-06-14T09:00:00Z"},
			},
		})
	}))
	defer server.Close()

	client := newTestPostHogClient(server.URL, 100)
	events, err := client.FetchEvents(context.Background(), 7, nil)
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, "e1", events[0]["uuid"])
	assert.Equal(t, "pageview", events[0]["event"])
	assert.Equal(t, "signup", events[1]["event"])

	inner, ok := gotBody["query"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "HogQLQuery", inner["kind"])
	query, _ := inner["query"].(string)
	assert.Contains(t, query, "timestamp >= '2024-06-08T12:00:00Z'")
	assert.Contains(t, query, fmt.Sprintf("LIMIT %d", EventRowCap))
	assert.NotContains(t, query, "event IN")
}

func TestFetchEvents_FiltersByEventName(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		inner, _ := body["query"].(map[string]interface{})
		gotQuery, _ = inner["query"].(string)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"results": []interface{}{}})
	}))
	defer server.Close()

	client := newTestPostHogClient(server.URL, 100)
	_, err := client.FetchEvents(context.Background(), 7, []string{"signup", "purchase"})
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "event IN ('signup', 'purchase')")
}

func TestFetchPersons_FollowsNextURLUntilCap(t *testing.T) {
	requests := 0
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		require.Equal(t, "/api/projects/42/persons", r.URL.Path)

		page := 0
		if offset := r.URL.Query().Get("offset"); offset != "" {
			_, err := fmt.Sscanf(offset, "%d", &page)
			require.NoError(t, err)
		}

		results := make([]map[string]interface{}, 0, 100)
		for i := 0; i < 100; i++ {
			results = append(results, map[string]interface{}{
				"id": fmt.Sprintf("p-%d", page+i),
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"results": results,
			"next":    fmt.Sprintf("%s/api/projects/42/persons?offset=%d", server.URL, page+100),
		})
	}))
	defer server.Close()

	client := newTestPostHogClient(server.URL, 250)
	persons, err := client.FetchPersons(context.Background(), 250)
	require.NoError(t, err)

	assert.Equal(t, 3, requests, "stops paging once the cap is reached")
	require.Len(t, persons, 250, "truncated to the cap")
	assert.Equal(t, "p-0", persons[0]["id"])
	assert.Equal(t, "p-249", persons[249]["id"])
}

func TestFetchPersons_StopsWhenNoNextPage(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{{"id": "only"}},
		})
	}))
	defer server.Close()

	client := newTestPostHogClient(server.URL, 1000)
	persons, err := client.FetchPersons(context.Background(), 1000)
	require.NoError(t, err)

	assert.Equal(t, 1, requests)
	require.Len(t, persons, 1)
}

func TestFetchInsights_FirstPageOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/projects/42/insights", r.URL.Path)
		require.Equal(t, "100", r.URL.Query().Get("limit"))
		require.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "Bearer "))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"id": float64(1), "name": "Weekly signups"},
			},
			"next": "ignored",
		})
	}))
	defer server.Close()

	client := newTestPostHogClient(server.URL, 100)
	insights, err := client.FetchInsights(context.Background())
	require.NoError(t, err)

	require.Len(t, insights, 1)
	assert.Equal(t, "Weekly signups", insights[0]["name"])
}
