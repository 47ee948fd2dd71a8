package hubspot

import (
	"context"
	"fmt"
	"time"
)

// AssociationTarget names the object an association points at.
type AssociationTarget struct {
	ID string `json:"id"`
}

// AssociationType identifies the association kind.
type AssociationType struct {
	AssociationCategory string `json:"associationCategory"`
	AssociationTypeID   int    `json:"associationTypeId"`
}

// Association links a created engagement to another CRM object.
type Association struct {
	To    AssociationTarget `json:"to"`
	Types []AssociationType `json:"types"`
}

// TaskAssociationTypeID is the HubSpot-defined association from a task to a deal.
const TaskAssociationTypeID = 216

// CreateContact creates a new contact.
func (c *Client) CreateContact(ctx context.Context, properties map[string]string) (Object, error) {
	return c.rest.Post(ctx, "/crm/v3/objects/contacts", map[string]interface{}{"properties": properties})
}

// UpdateContact updates an existing contact.
func (c *Client) UpdateContact(ctx context.Context, contactID string, properties map[string]string) (Object, error) {
	return c.rest.Patch(ctx, fmt.Sprintf("/crm/v3/objects/contacts/%s", contactID), map[string]interface{}{"properties": properties})
}

// CreateDeal creates a new deal.
func (c *Client) CreateDeal(ctx context.Context, properties map[string]string) (Object, error) {
	return c.rest.Post(ctx, "/crm/v3/objects/deals", map[string]interface{}{"properties": properties})
}

// UpdateDeal updates an existing deal.
func (c *Client) UpdateDeal(ctx context.Context, dealID string, properties map[string]string) (Object, error) {
	return c.rest.Patch(ctx, fmt.Sprintf("/crm/v3/objects/deals/%s", dealID), map[string]interface{}{"properties": properties})
}

// CreateNote creates a note engagement, optionally associated to other objects.
func (c *Client) CreateNote(ctx context.Context, body string, associations []Association) (Object, error) {
	data := map[string]interface{}{
		"properties": map[string]string{
			"hs_note_body": body,
			"hs_timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}
	if len(associations) > 0 {
		data["associations"] = associations
	}
	return c.rest.Post(ctx, "/crm/v3/objects/notes", data)
}

// TaskRequest describes a follow-up task to create.
type TaskRequest struct {
	Subject      string
	Body         string
	DueDate      string
	OwnerID      string
	Associations []Association
}

// CreateTask creates a task with NOT_STARTED status and MEDIUM priority.
func (c *Client) CreateTask(ctx context.Context, req TaskRequest) (Object, error) {
	properties := map[string]string{
		"hs_task_subject":  req.Subject,
		"hs_task_body":     req.Body,
		"hs_task_status":   "NOT_STARTED",
		"hs_task_priority": "MEDIUM",
	}
	if req.DueDate != "" {
		properties["hs_timestamp"] = req.DueDate
	}
	if req.OwnerID != "" {
		properties["hubspot_owner_id"] = req.OwnerID
	}

	data := map[string]interface{}{"properties": properties}
	if len(req.Associations) > 0 {
		data["associations"] = req.Associations
	}
	return c.rest.Post(ctx, "/crm/v3/objects/tasks", data)
}
