// Package posthog syncs analytics data (events, persons, insights) from
// the PostHog API into the local cache.
package posthog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mlighty/bi-agent-dashboard/internal/config"
	"github.com/mlighty/bi-agent-dashboard/internal/restclient"
)

// EventRowCap bounds a single HogQL events query.
const EventRowCap = 10000

// personsPageSize is the per-request limit on the persons listing endpoint.
const personsPageSize = 100

// Client wraps the PostHog project API.
type Client struct {
	rest      *restclient.Client
	projectID string
	now       func() time.Time
}

// NewClient creates an authenticated PostHog client.
func NewClient(cfg config.PostHogConfig) *Client {
	return &Client{
		rest: restclient.New(cfg.Host, cfg.APIKey,
			restclient.WithRetryPolicy(restclient.RetryPolicy{
				MaxRetries:        cfg.MaxRetries,
				DefaultRetryAfter: 60 * time.Second,
			}),
			restclient.WithRateLimit(cfg.RateLimit),
		),
		projectID: cfg.ProjectID,
		now:       time.Now,
	}
}

func (c *Client) projectPath(endpoint string) string {
	return fmt.Sprintf("/api/projects/%s/%s", c.projectID, endpoint)
}

// FetchEvents queries recent events through the HogQL query endpoint and
// returns one map per event, keyed by the response's column names. The
// query is capped at EventRowCap rows, newest first.
func (c *Client) FetchEvents(ctx context.Context, daysBack int, eventNames []string) ([]map[string]interface{}, error) {
	after := c.now().UTC().AddDate(0, 0, -daysBack).Format("2006-01-02T15:04:05") + "Z"

	query := fmt.Sprintf(`SELECT uuid, event, distinct_id, properties, timestamp, person_id
FROM events
WHERE timestamp >= '%s'`, after)
	if len(eventNames) > 0 {
		query += fmt.Sprintf(" AND event IN ('%s')", strings.Join(eventNames, "', '"))
	}
	query += fmt.Sprintf(" ORDER BY timestamp DESC LIMIT %d", EventRowCap)

	result, err := c.rest.Post(ctx, c.projectPath("query"), map[string]interface{}{
		"query": map[string]interface{}{
			"kind":  "HogQLQuery",
			"query": query,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	return zipColumns(result), nil
}

// FetchPersons walks the persons listing, which pages with a "next page
// URL" cursor rather than a bare token, and stops at the row cap.
func (c *Client) FetchPersons(ctx context.Context, limit int) ([]map[string]interface{}, error) {
	var all []map[string]interface{}
	nextURL := ""

	for {
		var data map[string]interface{}
		var err error
		if nextURL != "" {
			data, err = c.rest.Get(ctx, nextURL, nil)
		} else {
			query := url.Values{}
			query.Set("limit", strconv.Itoa(min(limit, personsPageSize)))
			data, err = c.rest.Get(ctx, c.projectPath("persons"), query)
		}
		if err != nil {
			return nil, fmt.Errorf("fetch persons: %w", err)
		}

		all = append(all, resultMaps(data)...)

		next, _ := data["next"].(string)
		if len(all) >= limit || next == "" {
			break
		}
		nextURL = next
	}

	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// FetchInsights lists saved insights, first page only.
func (c *Client) FetchInsights(ctx context.Context) ([]map[string]interface{}, error) {
	query := url.Values{}
	query.Set("limit", "100")
	result, err := c.rest.Get(ctx, c.projectPath("insights"), query)
	if err != nil {
		return nil, fmt.Errorf("fetch insights: %w", err)
	}
	return resultMaps(result), nil
}

// zipColumns converts a HogQL row-oriented response ({columns, results})
// into one map per row. Rows that already arrive as maps pass through.
func zipColumns(result map[string]interface{}) []map[string]interface{} {
	rawRows, _ := result["results"].([]interface{})
	columns := columnNames(result)

	rows := make([]map[string]interface{}, 0, len(rawRows))
	for _, raw := range rawRows {
		switch row := raw.(type) {
		case map[string]interface{}:
			rows = append(rows, row)
		case []interface{}:
			mapped := make(map[string]interface{}, len(columns))
			for i, value := range row {
				if i < len(columns) {
					mapped[columns[i]] = value
				}
			}
			rows = append(rows, mapped)
		}
	}
	return rows
}

func columnNames(result map[string]interface{}) []string {
	raw, _ := result["columns"].([]interface{})
	names := make([]string, 0, len(raw))
	for _, item := range raw {
		if name, ok := item.(string); ok {
			names = append(names, name)
		}
	}
	return names
}

func resultMaps(result map[string]interface{}) []map[string]interface{} {
	raw, _ := result["results"].([]interface{})
	rows := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		if row, ok := item.(map[string]interface{}); ok {
			rows = append(rows, row)
		}
	}
	return rows
}
