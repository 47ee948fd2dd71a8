// Package flatten normalizes nested remote records into single-level rows.
//
// All three integrations share one flattening routine, parameterized by
// which metadata keys are reserved, so the precedence rule cannot drift
// per integration.
package flatten

// Row is the tabular projection of a remote object: one flat mapping of
// reserved metadata keys plus every key from the object's property bag.
type Row map[string]interface{}

// DefaultReserved maps CRM object metadata fields to their column names.
var DefaultReserved = map[string]string{
	"id":        "id",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"archived":  "archived",
}

// Object applies reserved metadata keys first, then overlays the object's
// property bag. On a key collision the property value wins; this is the
// documented precedence and is pinned by tests. Keys absent from an object
// are simply absent from its row; the cache loader reconciles differing
// key sets across a batch.
func Object(obj map[string]interface{}, reserved map[string]string) Row {
	row := make(Row, len(reserved)+8)

	for sourceKey, column := range reserved {
		if value, ok := obj[sourceKey]; ok {
			row[column] = value
		}
	}
	// HubSpot reports archived=false by omitting the field.
	if _, ok := reserved["archived"]; ok {
		if _, present := row["archived"]; !present {
			row["archived"] = false
		}
	}

	properties, _ := obj["properties"].(map[string]interface{})
	for key, value := range properties {
		row[key] = value
	}

	return row
}

// Objects flattens a batch in order.
func Objects(objs []map[string]interface{}, reserved map[string]string) []Row {
	rows := make([]Row, 0, len(objs))
	for _, obj := range objs {
		rows = append(rows, Object(obj, reserved))
	}
	return rows
}
