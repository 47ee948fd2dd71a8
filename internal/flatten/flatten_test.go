package flatten

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObject_ReservedMetadataMapped(t *testing.T) {
	obj := map[string]interface{}{
		"id":        "42",
		"createdAt": "2024-01-01T00:00:00Z",
		"updatedAt": "2024-02-01T00:00:00Z",
		"archived":  true,
		"properties": map[string]interface{}{
			"email":     "a@b.com",
			"firstname": "Ann",
		},
	}

	row := Object(obj, DefaultReserved)

	assert.Equal(t, "42", row["id"])
	assert.Equal(t, "2024-01-01T00:00:00Z", row["created_at"])
	assert.Equal(t, "2024-02-01T00:00:00Z", row["updated_at"])
	assert.Equal(t, true, row["archived"])
	assert.Equal(t, "a@b.com", row["email"])
	assert.Equal(t, "Ann", row["firstname"])
}

func TestObject_PropertyWinsOnCollision(t *testing.T) {
	// Precedence: metadata is applied first, the property bag overlays it.
	obj := map[string]interface{}{
		"id": "1",
		"properties": map[string]interface{}{
			"id": "property-value",
		},
	}

	row := Object(obj, DefaultReserved)
	assert.Equal(t, "property-value", row["id"])
}

func TestObject_RenamedMetadataDoesNotCollide(t *testing.T) {
	// The metadata timestamp is renamed to created_at, so a property named
	// createdAt lands in its own column instead of overriding it.
	obj := map[string]interface{}{
		"id":        "1",
		"createdAt": "t1",
		"updatedAt": "t2",
		"archived":  false,
		"properties": map[string]interface{}{
			"email":     "a@b.com",
			"createdAt": "override",
		},
	}

	row := Object(obj, DefaultReserved)
	assert.Equal(t, "t1", row["created_at"])
	assert.Equal(t, "override", row["createdAt"])
}

func TestObject_ArchivedDefaultsFalse(t *testing.T) {
	row := Object(map[string]interface{}{"id": "1"}, DefaultReserved)
	assert.Equal(t, false, row["archived"])
}

func TestObject_AbsentKeysStayAbsent(t *testing.T) {
	obj := map[string]interface{}{
		"id": "1",
		"properties": map[string]interface{}{
			"email": "a@b.com",
		},
	}

	row := Object(obj, DefaultReserved)
	assert.NotContains(t, row, "created_at")
	assert.NotContains(t, row, "updated_at")
	assert.NotContains(t, row, "phone")
}

func TestObjects_PreservesOrder(t *testing.T) {
	objs := []map[string]interface{}{
		{"id": "1"},
		{"id": "2"},
		{"id": "3"},
	}

	rows := Objects(objs, DefaultReserved)
	assert.Len(t, rows, 3)
	for i, want := range []string{"1", "2", "3"} {
		assert.Equal(t, want, rows[i]["id"])
	}
}

func TestObject_CustomReservedKeys(t *testing.T) {
	reserved := map[string]string{"uuid": "id", "ts": "timestamp"}
	obj := map[string]interface{}{
		"uuid": "abc",
		"ts":   "2024-03-01",
		"properties": map[string]interface{}{
			"event": "pageview",
		},
	}

	row := Object(obj, reserved)
	assert.Equal(t, "abc", row["id"])
	assert.Equal(t, "2024-03-01", row["timestamp"])
	assert.Equal(t, "pageview", row["event"])
	assert.NotContains(t, row, "archived")
}
