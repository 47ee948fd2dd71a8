package hubspot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mlighty/bi-agent-dashboard/internal/cache"
	"github.com/mlighty/bi-agent-dashboard/internal/flatten"
	"github.com/mlighty/bi-agent-dashboard/internal/log"
	"github.com/mlighty/bi-agent-dashboard/internal/telemetry"
)

// DefaultObjects lists every dataset a full sync covers, in sync order.
var DefaultObjects = []string{"contacts", "companies", "deals", "pipelines", "owners"}

// Default property lists per object type, matching what the dashboards query.
var (
	ContactProperties = []string{
		"email", "firstname", "lastname", "phone",
		"company", "lifecyclestage", "hs_lead_status",
		"createdate", "lastmodifieddate",
	}
	CompanyProperties = []string{
		"name", "domain", "industry", "numberofemployees",
		"annualrevenue", "city", "state", "country",
		"createdate", "lastmodifieddate",
	}
	DealProperties = []string{
		"dealname", "amount", "dealstage", "pipeline",
		"closedate", "createdate", "hs_lastmodifieddate",
		"hubspot_owner_id",
	}
)

// Syncer sequences the fetch-flatten-load pipeline for HubSpot datasets.
type Syncer struct {
	client    *Client
	loader    *cache.Loader
	telemetry telemetry.Client
}

// NewSyncer wires a syncer from its collaborators.
func NewSyncer(client *Client, loader *cache.Loader, tc telemetry.Client) *Syncer {
	return &Syncer{client: client, loader: loader, telemetry: tc}
}

// SyncAll syncs the requested datasets sequentially. A nil or empty list
// means all datasets. One dataset's failure aborts the remainder of the
// run; tables already replaced stay in place.
func (s *Syncer) SyncAll(ctx context.Context, objects []string) error {
	if len(objects) == 0 {
		objects = DefaultObjects
	}

	log.Printf("Syncing HubSpot data: %s\n", strings.Join(objects, ", "))
	failed := 0
	for _, name := range objects {
		if err := s.syncDataset(ctx, name); err != nil {
			failed++
			s.telemetry.TrackSyncCompleted("hubspot", len(objects), failed)
			return fmt.Errorf("sync %s: %w", name, err)
		}
	}
	s.telemetry.TrackSyncCompleted("hubspot", len(objects), failed)
	return nil
}

func (s *Syncer) syncDataset(ctx context.Context, name string) error {
	start := time.Now()
	var count int64
	var err error

	switch name {
	case "contacts":
		count, err = s.syncObjects(ctx, "contacts", "/crm/v3/objects/contacts", ContactProperties)
	case "companies":
		count, err = s.syncObjects(ctx, "companies", "/crm/v3/objects/companies", CompanyProperties)
	case "deals":
		count, err = s.syncObjects(ctx, "deals", "/crm/v3/objects/deals", DealProperties)
	case "pipelines":
		count, err = s.syncPipelines(ctx)
	case "owners":
		count, err = s.syncOwners(ctx)
	default:
		return fmt.Errorf("unknown dataset %q", name)
	}

	if err != nil {
		return err
	}
	s.telemetry.TrackDatasetSynced("hubspot", name, count, time.Since(start).Milliseconds())
	return nil
}

// SyncDeals re-syncs the deals table with an explicit property list. Used
// by the velocity action, which needs stage-entry date properties.
func (s *Syncer) SyncDeals(ctx context.Context, properties []string) (int64, error) {
	return s.syncObjects(ctx, "deals", "/crm/v3/objects/deals", properties)
}

func (s *Syncer) syncObjects(ctx context.Context, table, endpoint string, properties []string) (int64, error) {
	log.Printf("\nFetching %s...\n", table)
	objects, err := s.client.FetchAll(ctx, endpoint, properties)
	if err != nil {
		return 0, err
	}

	rows := flatten.Objects(objects, flatten.DefaultReserved)
	return s.loader.Load(ctx, table, rows)
}

// syncPipelines flattens pipeline stages into one deal_stages row per stage.
func (s *Syncer) syncPipelines(ctx context.Context) (int64, error) {
	log.Printf("\nFetching pipelines...\n")
	pipelines, err := s.client.GetPipelines(ctx)
	if err != nil {
		return 0, err
	}

	var stages []flatten.Row
	for _, pipeline := range pipelines {
		rawStages, _ := pipeline["stages"].([]interface{})
		for _, raw := range rawStages {
			stage, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			stages = append(stages, flatten.Row{
				"id":             stage["id"],
				"label":          stage["label"],
				"display_order":  stage["displayOrder"],
				"pipeline_id":    pipeline["id"],
				"pipeline_label": pipeline["label"],
			})
		}
	}

	return s.loader.Load(ctx, "deal_stages", stages)
}

// syncOwners projects owner records onto fixed columns.
func (s *Syncer) syncOwners(ctx context.Context) (int64, error) {
	log.Printf("\nFetching owners...\n")
	owners, err := s.client.GetOwners(ctx)
	if err != nil {
		return 0, err
	}

	rows := make([]flatten.Row, 0, len(owners))
	for _, owner := range owners {
		rows = append(rows, flatten.Row{
			"id":         owner["id"],
			"email":      owner["email"],
			"first_name": owner["firstName"],
			"last_name":  owner["lastName"],
			"user_id":    owner["userId"],
		})
	}

	return s.loader.Load(ctx, "owners", rows)
}
