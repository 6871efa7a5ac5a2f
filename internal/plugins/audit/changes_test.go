package audit

import (
	"strings"
	"testing"
)

func testDiffer() *Differ {
	return NewDiffer(Config{
		FieldNames: map[string]string{
			"organizationName":   "Organization Name",
			"scheduledEventDate": "Scheduled Event Date",
			"status":             "Status",
		},
	})
}

func TestIdentify_NoChanges(t *testing.T) {
	d := testDiffer()
	snap := Snapshot{"organizationName": "Food Bank", "status": "new"}
	changes := d.Identify(snap, Snapshot{"organizationName": "Food Bank", "status": "new"})
	if len(changes) != 0 {
		t.Errorf("expected no changes, got %d", len(changes))
	}
}

func TestIdentify_SimpleChange(t *testing.T) {
	d := testDiffer()
	changes := d.Identify(
		Snapshot{"organizationName": "Food Bank"},
		Snapshot{"organizationName": "Shelter House"},
	)
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	c := changes[0]
	if c.Field != "organizationName" {
		t.Errorf("expected field organizationName, got %s", c.Field)
	}
	if c.FieldName != "Organization Name" {
		t.Errorf("expected friendly name, got %s", c.FieldName)
	}
	if c.Description != "Organization Name changed: Food Bank → Shelter House" {
		t.Errorf("unexpected description: %q", c.Description)
	}
}

func TestIdentify_SetAndCleared(t *testing.T) {
	d := testDiffer()

	changes := d.Identify(Snapshot{}, Snapshot{"organizationName": "Food Bank"})
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	if changes[0].Description != "Organization Name set to: Food Bank" {
		t.Errorf("unexpected set description: %q", changes[0].Description)
	}

	changes = d.Identify(Snapshot{"organizationName": "Food Bank"}, Snapshot{})
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	if changes[0].Description != "Organization Name cleared (was: Food Bank)" {
		t.Errorf("unexpected cleared description: %q", changes[0].Description)
	}
}

func TestIdentify_NilVsEmptyStringIsStillAChange(t *testing.T) {
	// The raw values differ even though both display as "Not set", so the
	// change is still reported and the originals are preserved on it.
	d := testDiffer()
	changes := d.Identify(Snapshot{"notes": nil}, Snapshot{"notes": ""})
	if len(changes) != 1 {
		t.Fatalf("expected nil→empty to register as a change, got %d", len(changes))
	}
	if changes[0].OldValue != nil {
		t.Error("old value should remain nil")
	}
	if changes[0].NewValue != "" {
		t.Error("new value should remain empty string")
	}
}

func TestIdentify_IgnoredFields(t *testing.T) {
	d := testDiffer()
	changes := d.Identify(
		Snapshot{"id": 1.0, "updatedAt": "2025-01-01", "status": "new"},
		Snapshot{"id": 2.0, "updatedAt": "2025-02-02", "status": "scheduled"},
	)
	if len(changes) != 1 {
		t.Fatalf("expected bookkeeping fields to be skipped, got %d changes", len(changes))
	}
	if changes[0].Field != "status" {
		t.Errorf("expected status change, got %s", changes[0].Field)
	}
}

func TestIdentify_DeterministicOrder(t *testing.T) {
	d := testDiffer()
	oldSnap := Snapshot{"zeta": 1.0, "alpha": 1.0, "mid": 1.0}
	newSnap := Snapshot{"zeta": 2.0, "alpha": 2.0, "mid": 2.0}

	first := d.Identify(oldSnap, newSnap)
	for i := 0; i < 20; i++ {
		again := d.Identify(oldSnap, newSnap)
		for j := range first {
			if again[j].Field != first[j].Field {
				t.Fatal("change order must be deterministic across runs")
			}
		}
	}

	// Sorted key union.
	if first[0].Field != "alpha" || first[1].Field != "mid" || first[2].Field != "zeta" {
		t.Errorf("expected sorted order, got %s, %s, %s",
			first[0].Field, first[1].Field, first[2].Field)
	}
}

func TestIdentify_KeyOnlyInOneSnapshot(t *testing.T) {
	d := testDiffer()

	// Key present in old only, with nil value: nothing changed.
	changes := d.Identify(Snapshot{"notes": nil}, Snapshot{})
	if len(changes) != 0 {
		t.Errorf("nil-valued key vs absent key should not be a change, got %d", len(changes))
	}

	// Key present in new only, with a value: a change.
	changes = d.Identify(Snapshot{}, Snapshot{"notes": "call back"})
	if len(changes) != 1 {
		t.Errorf("expected added key to register, got %d", len(changes))
	}
}

func TestFriendlyName_Fallback(t *testing.T) {
	d := testDiffer()
	if got := d.FriendlyName("status"); got != "Status" {
		t.Errorf("expected dictionary hit, got %q", got)
	}
	if got := d.FriendlyName("unknownField"); got != "unknownField" {
		t.Errorf("expected raw-key fallback, got %q", got)
	}
}

func TestChangedFieldSet(t *testing.T) {
	set := ChangedFieldSet([]FieldChange{
		{Field: "Status"},
		{Field: "scheduledEventDate"},
	})
	if !set["status"] || !set["scheduledeventdate"] {
		t.Errorf("expected lowercased field keys, got %v", set)
	}
}

func TestIdentify_DescriptionUsesFormattedDates(t *testing.T) {
	d := testDiffer()
	changes := d.Identify(
		Snapshot{"scheduledEventDate": "2025-06-15"},
		Snapshot{"scheduledEventDate": "2025-06-22"},
	)
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	if !strings.Contains(changes[0].Description, "Jun 15, 2025") ||
		!strings.Contains(changes[0].Description, "Jun 22, 2025") {
		t.Errorf("expected formatted dates in description, got %q", changes[0].Description)
	}
}
