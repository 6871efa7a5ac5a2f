package audit

import (
	"fmt"
	"sort"
	"strings"
)

// defaultIgnoredFields are bookkeeping keys that are never meaningful to a
// human reviewer: record identity, storage timestamps, and transient
// action-context hints that ride along with mutation payloads. Overridable
// per Differ via Config.IgnoredFields.
var defaultIgnoredFields = []string{
	"id",
	"createdAt",
	"updatedAt",
	"actionType",
	"operation",
	"changedBy",
	"changeTimestamp",
	metadataKey,
}

// Config tunes a Differ for one entity type. Zero-value fields fall back to
// package defaults.
type Config struct {
	// FieldNames maps raw snapshot keys to friendly display names. Keys
	// absent from the map fall back to the raw key.
	FieldNames map[string]string

	// IgnoredFields replaces the default bookkeeping-key skip list.
	IgnoredFields []string

	// SignificantKeywords replaces the default significance keyword list
	// (see significance.go rules in summary.go).
	SignificantKeywords []string
}

// Differ identifies field-level changes between two snapshots of the same
// entity. Construct one per entity type; it is stateless after construction
// and safe for concurrent use.
type Differ struct {
	fieldNames map[string]string
	ignored    map[string]bool
}

// NewDiffer creates a Differ from the given config.
func NewDiffer(cfg Config) *Differ {
	ignoredList := cfg.IgnoredFields
	if ignoredList == nil {
		ignoredList = defaultIgnoredFields
	}
	ignored := make(map[string]bool, len(ignoredList))
	for _, f := range ignoredList {
		ignored[f] = true
	}

	fieldNames := cfg.FieldNames
	if fieldNames == nil {
		fieldNames = map[string]string{}
	}

	return &Differ{
		fieldNames: fieldNames,
		ignored:    ignored,
	}
}

// Identify walks the union of keys across the old and new snapshots and
// returns a FieldChange for every real difference. Order is the sorted key
// union: not semantically meaningful, but deterministic for testing.
func (d *Differ) Identify(oldSnap, newSnap Snapshot) []FieldChange {
	keySet := make(map[string]bool, len(oldSnap)+len(newSnap))
	for k := range oldSnap {
		keySet[k] = true
	}
	for k := range newSnap {
		keySet[k] = true
	}

	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var changes []FieldChange
	for _, key := range keys {
		if d.ignored[key] {
			continue
		}

		oldVal := oldSnap[key]
		newVal := newSnap[key]
		if valuesEqual(oldVal, newVal) {
			continue
		}

		friendly := d.FriendlyName(key)
		changes = append(changes, FieldChange{
			Field:       key,
			FieldName:   friendly,
			OldValue:    oldVal,
			NewValue:    newVal,
			Description: describeChange(friendly, key, oldVal, newVal),
		})
	}

	return changes
}

// FriendlyName resolves the display name for a raw snapshot key.
func (d *Differ) FriendlyName(field string) string {
	if name, ok := d.fieldNames[field]; ok {
		return name
	}
	return field
}

// describeChange builds the one-line description for a single field change.
// A value that formats to the "Not set" placeholder is treated as absent,
// which folds cleared-to-empty and never-set into the same wording.
func describeChange(friendly, field string, oldVal, newVal any) string {
	oldText := FormatValue(oldVal, field)
	newText := FormatValue(newVal, field)

	switch {
	case oldText == notSet:
		return fmt.Sprintf("%s set to: %s", friendly, newText)
	case newText == notSet:
		return fmt.Sprintf("%s cleared (was: %s)", friendly, oldText)
	default:
		return fmt.Sprintf("%s changed: %s → %s", friendly, oldText, newText)
	}
}

// ChangedFieldSet returns the lowercased raw field keys of the given
// changes. Used to strip caller-supplied context that duplicates a change.
func ChangedFieldSet(changes []FieldChange) map[string]bool {
	set := make(map[string]bool, len(changes))
	for _, c := range changes {
		set[strings.ToLower(c.Field)] = true
	}
	return set
}
