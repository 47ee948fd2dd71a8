package hubspot

import (
	"context"
	"fmt"
	"time"

	"github.com/mlighty/bi-agent-dashboard/internal/audit"
	"github.com/mlighty/bi-agent-dashboard/internal/log"
	"github.com/mlighty/bi-agent-dashboard/internal/telemetry"
)

// DefaultStaleDays is how long a deal may go unmodified before the stale
// deals action flags it.
const DefaultStaleDays = 14

// Actions executes write-side automation against the CRM, recording every
// outcome in the audit trail.
type Actions struct {
	client    *Client
	syncer    *Syncer
	audit     *audit.Store
	telemetry telemetry.Client
	now       func() time.Time
}

// NewActions wires the action runner from its collaborators.
func NewActions(client *Client, syncer *Syncer, store *audit.Store, tc telemetry.Client) *Actions {
	return &Actions{
		client:    client,
		syncer:    syncer,
		audit:     store,
		telemetry: tc,
		now:       time.Now,
	}
}

// StaleDealsReminder finds open deals not modified for daysStale days and
// creates a follow-up task for each deal that has an owner. Returns the
// number of tasks created.
func (a *Actions) StaleDealsReminder(ctx context.Context, daysStale int) (int, error) {
	if daysStale <= 0 {
		daysStale = DefaultStaleDays
	}
	log.Printf("\nFinding deals stale for %d+ days...\n", daysStale)

	staleDate := a.now().UTC().AddDate(0, 0, -daysStale).Format("2006-01-02")
	filters := []Filter{
		{PropertyName: "hs_lastmodifieddate", Operator: "LT", Value: staleDate},
		{PropertyName: "dealstage", Operator: "NOT_IN", Values: []string{"closedwon", "closedlost"}},
	}

	staleDeals, err := a.client.Search(ctx, "deals", filters,
		[]string{"dealname", "amount", "dealstage", "hubspot_owner_id", "hs_lastmodifieddate"})
	if err != nil {
		return 0, fmt.Errorf("search stale deals: %w", err)
	}
	log.Printf("Found %d stale deals\n", len(staleDeals))

	tasksCreated := 0
	for _, deal := range staleDeals {
		props, _ := deal["properties"].(map[string]interface{})
		ownerID, _ := props["hubspot_owner_id"].(string)
		if ownerID == "" {
			continue
		}

		dealID, _ := deal["id"].(string)
		dealName := stringProp(props, "dealname", "Unknown")
		lastModified := stringProp(props, "hs_lastmodifieddate", "unknown")

		task, err := a.client.CreateTask(ctx, TaskRequest{
			Subject: fmt.Sprintf("Follow up on stale deal: %s", dealName),
			Body:    fmt.Sprintf("This deal hasn't been updated since %s. Please review and update.", lastModified),
			OwnerID: ownerID,
			Associations: []Association{{
				To: AssociationTarget{ID: dealID},
				Types: []AssociationType{{
					AssociationCategory: "HUBSPOT_DEFINED",
					AssociationTypeID:   TaskAssociationTypeID,
				}},
			}},
		})
		if err != nil {
			return tasksCreated, fmt.Errorf("create task for deal %s: %w", dealID, err)
		}

		tasksCreated++
		taskID, _ := task["id"].(string)
		a.logAction("stale_deal_reminder", map[string]interface{}{
			"deal_id":   dealID,
			"deal_name": dealName,
			"task_id":   taskID,
		}, true)
	}

	log.Printf("Created %d follow-up tasks\n", tasksCreated)
	a.telemetry.TrackActionExecuted("stale_deals", true, tasksCreated)
	return tasksCreated, nil
}

// LifecycleStageUpdate finds contacts at the opportunity stage so they can
// be promoted once their deals close. The promotion itself requires deal
// association lookups; for now the action reports what it checked.
func (a *Actions) LifecycleStageUpdate(ctx context.Context) (int, error) {
	log.Printf("\nUpdating lifecycle stages based on deal status...\n")

	filters := []Filter{
		{PropertyName: "lifecyclestage", Operator: "EQ", Value: "opportunity"},
	}
	opportunities, err := a.client.Search(ctx, "contacts", filters,
		[]string{"email", "firstname", "lastname", "lifecyclestage"})
	if err != nil {
		return 0, fmt.Errorf("search opportunity contacts: %w", err)
	}
	log.Printf("Found %d opportunities to check\n", len(opportunities))

	updated := 0
	a.logAction("lifecycle_stage_update", map[string]interface{}{
		"checked": len(opportunities),
		"updated": updated,
	}, true)
	log.Printf("Updated %d contacts\n", updated)
	a.telemetry.TrackActionExecuted("lifecycle_update", true, updated)
	return updated, nil
}

// DealStageVelocity re-syncs deals with stage-entry date properties so the
// dashboard can analyze how long deals sit in each stage.
func (a *Actions) DealStageVelocity(ctx context.Context) (int, error) {
	log.Printf("\nSyncing deal data for velocity analysis...\n")

	properties := append([]string{}, DealProperties...)
	properties = append(properties, "hs_date_entered_*")

	count, err := a.syncer.SyncDeals(ctx, properties)
	if err != nil {
		return 0, fmt.Errorf("sync deals for velocity: %w", err)
	}

	a.logAction("deal_velocity_sync", map[string]interface{}{"deals_synced": count}, true)
	a.telemetry.TrackActionExecuted("deal_velocity", true, int(count))
	return int(count), nil
}

// RunDaily syncs all datasets then executes every automation action.
func (a *Actions) RunDaily(ctx context.Context) error {
	log.Printf("Running daily HubSpot automation - %s\n", a.now().UTC().Format(time.RFC3339))

	if err := a.syncer.SyncAll(ctx, nil); err != nil {
		return err
	}
	if _, err := a.StaleDealsReminder(ctx, DefaultStaleDays); err != nil {
		return err
	}
	if _, err := a.LifecycleStageUpdate(ctx); err != nil {
		return err
	}
	if _, err := a.DealStageVelocity(ctx); err != nil {
		return err
	}

	log.Printf("\nDaily automation complete\n")
	return nil
}

func (a *Actions) logAction(name string, details map[string]interface{}, success bool) {
	if a.audit == nil {
		return
	}
	if err := a.audit.Log(name, details, success); err != nil {
		log.Errorf("audit %s: %v", name, err)
	}
}

func stringProp(props map[string]interface{}, key, fallback string) string {
	if value, ok := props[key].(string); ok && value != "" {
		return value
	}
	return fallback
}
