// Package hubspot syncs CRM objects into the local cache and executes
// write-side automation actions against the HubSpot API.
package hubspot

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mlighty/bi-agent-dashboard/internal/config"
	"github.com/mlighty/bi-agent-dashboard/internal/log"
	"github.com/mlighty/bi-agent-dashboard/internal/restclient"
)

// Object is a raw CRM record as returned by the API: identifier, timestamps,
// archived flag and a nested property bag whose keys vary per object.
type Object = map[string]interface{}

// Client wraps the HubSpot CRM v3 API.
type Client struct {
	rest      *restclient.Client
	pageLimit int
}

// NewClient creates an authenticated HubSpot client.
func NewClient(cfg config.HubSpotConfig) *Client {
	pageLimit := cfg.PageLimit
	if pageLimit <= 0 {
		pageLimit = 100
	}
	return &Client{
		rest: restclient.New(cfg.BaseURL, cfg.AccessToken,
			restclient.WithRetryPolicy(restclient.RetryPolicy{
				MaxRetries:        cfg.MaxRetries,
				DefaultRetryAfter: 10 * time.Second,
			}),
			restclient.WithRateLimit(cfg.RateLimit),
		),
		pageLimit: pageLimit,
	}
}

// FetchAll walks a cursor-paginated listing endpoint until the paging
// cursor is exhausted and returns every object in listing order. If the
// remote collection mutates mid-walk, duplicates or omissions are possible;
// that is an accepted limitation of the listing protocol.
func (c *Client) FetchAll(ctx context.Context, endpoint string, properties []string) ([]Object, error) {
	var all []Object
	after := ""

	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(c.pageLimit))
		if len(properties) > 0 {
			query.Set("properties", strings.Join(properties, ","))
		}
		if after != "" {
			query.Set("after", after)
		}

		result, err := c.rest.Get(ctx, endpoint, query)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", endpoint, err)
		}

		all = append(all, resultObjects(result)...)

		after = nextCursor(result)
		if after == "" {
			break
		}
		log.Printf("  Fetched %d objects...\n", len(all))
	}

	return all, nil
}

// Filter is one clause of a search predicate. Clauses in a group are ANDed.
type Filter struct {
	PropertyName string   `json:"propertyName"`
	Operator     string   `json:"operator"`
	Value        string   `json:"value,omitempty"`
	Values       []string `json:"values,omitempty"`
}

// Search runs a filtered search for a single object type. HubSpot caps
// search result pages; this returns the first page only, which covers the
// subset-extraction actions that use it.
func (c *Client) Search(ctx context.Context, objectType string, filters []Filter, properties []string) ([]Object, error) {
	body := map[string]interface{}{
		"filterGroups": []map[string]interface{}{
			{"filters": filters},
		},
		"properties": properties,
		"limit":      c.pageLimit,
	}

	result, err := c.rest.Post(ctx, fmt.Sprintf("/crm/v3/objects/%s/search", objectType), body)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", objectType, err)
	}
	return resultObjects(result), nil
}

// GetPipelines fetches all deal pipelines and their stages.
func (c *Client) GetPipelines(ctx context.Context) ([]Object, error) {
	result, err := c.rest.Get(ctx, "/crm/v3/pipelines/deals", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch pipelines: %w", err)
	}
	return resultObjects(result), nil
}

// GetOwners fetches all HubSpot owners/users.
func (c *Client) GetOwners(ctx context.Context) ([]Object, error) {
	result, err := c.rest.Get(ctx, "/crm/v3/owners", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch owners: %w", err)
	}
	return resultObjects(result), nil
}

// resultObjects extracts the "results" array from a listing response.
func resultObjects(result map[string]interface{}) []Object {
	raw, ok := result["results"].([]interface{})
	if !ok {
		return nil
	}
	objects := make([]Object, 0, len(raw))
	for _, item := range raw {
		if obj, ok := item.(map[string]interface{}); ok {
			objects = append(objects, obj)
		}
	}
	return objects
}

// nextCursor reads paging.next.after from a listing response. An absent
// cursor signals exhaustion.
func nextCursor(result map[string]interface{}) string {
	paging, ok := result["paging"].(map[string]interface{})
	if !ok {
		return ""
	}
	next, ok := paging["next"].(map[string]interface{})
	if !ok {
		return ""
	}
	after, _ := next["after"].(string)
	return after
}
