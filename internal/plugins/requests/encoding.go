package requests

import "strings"

// The legacy schema stored id lists as Postgres-style array text
// ("{u1,u2}") or plain comma-delimited strings. The adapters below confine
// that quirk to the storage boundary: everything above the repository works
// with real slices and never branches on raw string shape.

// customEntryPrefix marks a person id that is free text rather than a user
// account reference (e.g. "custom:Pat from Rotary").
const customEntryPrefix = "custom:"

// IsCustomEntry reports whether a person id is a free-text custom entry.
func IsCustomEntry(id string) bool {
	return strings.HasPrefix(id, customEntryPrefix)
}

// CustomEntryName returns the display text of a custom entry id, or "" when
// the id is a real user reference.
func CustomEntryName(id string) string {
	if !IsCustomEntry(id) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(id, customEntryPrefix))
}

// ParseDelimitedIDSet decodes a legacy delimited id list. Accepts
// Postgres-style array text with optional braces and per-element quoting, or
// a bare comma-delimited string. Commas inside a quoted element belong to
// the element, so free-text custom entries survive the round trip. Empty
// elements are dropped; order is preserved; an empty input yields an empty
// (non-nil) slice.
func ParseDelimitedIDSet(raw string) []string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "{")
	raw = strings.TrimSuffix(raw, "}")

	ids := []string{}
	if raw == "" {
		return ids
	}

	for _, part := range splitDelimited(raw) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ids = append(ids, part)
	}
	return ids
}

// splitDelimited splits on commas outside double quotes. Quotes are
// consumed; a backslash inside quotes escapes the next byte.
func splitDelimited(raw string) []string {
	var parts []string
	var b strings.Builder
	inQuotes := false
	for i := 0; i < len(raw); i++ {
		switch c := raw[i]; c {
		case '\\':
			if inQuotes && i+1 < len(raw) {
				i++
				b.WriteByte(raw[i])
				continue
			}
			b.WriteByte(c)
		case '"':
			inQuotes = !inQuotes
		case ',':
			if inQuotes {
				b.WriteByte(c)
				continue
			}
			parts = append(parts, b.String())
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	return append(parts, b.String())
}

// FormatDelimitedIDSet encodes an id list back into the stored
// comma-delimited form. Elements containing a comma or quote are quoted so
// they parse back as a single element.
func FormatDelimitedIDSet(ids []string) string {
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if strings.ContainsAny(id, `,"`) {
			id = strings.ReplaceAll(id, `\`, `\\`)
			id = `"` + strings.ReplaceAll(id, `"`, `\"`) + `"`
		}
		kept = append(kept, id)
	}
	return strings.Join(kept, ",")
}
