package audit

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// notSet is the display placeholder for missing values. An empty string
// deliberately formats the same way: at the display layer, "cleared to empty"
// and "never set" are indistinguishable. The raw values in FieldChange keep
// the distinction for anyone who needs it.
const notSet = "Not set"

// Display date layouts. Time-of-day is only included when the field name
// asks for it (contains "time").
const (
	dateLayout     = "Jan 2, 2006"
	dateTimeLayout = "Jan 2, 2006 3:04 PM"
)

// dateParseLayouts are the accepted encodings when a "date" field carries a
// string value. Tried in order.
var dateParseLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// FormatValue renders a raw field value as a human-readable string. The
// field name steers formatting: names containing "date" get date parsing for
// string values, and names containing "time" additionally show time-of-day.
func FormatValue(value any, fieldName string) string {
	if value == nil {
		return notSet
	}

	lower := strings.ToLower(fieldName)

	switch v := value.(type) {
	case time.Time:
		return formatDate(v, lower)

	case *time.Time:
		if v == nil {
			return notSet
		}
		return formatDate(*v, lower)

	case bool:
		if v {
			return "Yes"
		}
		return "No"

	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return notSet
		}
		if strings.Contains(lower, "date") {
			if t, ok := parseDateString(trimmed); ok {
				return formatDate(t, lower)
			}
		}
		return trimmed

	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)

	case int:
		return strconv.Itoa(v)

	case int64:
		return strconv.FormatInt(v, 10)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return "None"
		}
		parts := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts[i] = fmt.Sprintf("%v", rv.Index(i).Interface())
		}
		return strings.Join(parts, ", ")

	case reflect.Map, reflect.Struct:
		// Best-effort structural rendering. Serialization can fail for
		// values JSON cannot represent; fall back to a plain coercion.
		pretty, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(pretty)

	case reflect.Pointer:
		if rv.IsNil() {
			return notSet
		}
		return FormatValue(rv.Elem().Interface(), fieldName)
	}

	return fmt.Sprintf("%v", value)
}

// formatDate renders a timestamp, including time-of-day only for fields
// whose (lowercased) name mentions "time".
func formatDate(t time.Time, lowerFieldName string) string {
	if strings.Contains(lowerFieldName, "time") {
		return t.Format(dateTimeLayout)
	}
	return t.Format(dateLayout)
}

// parseDateString attempts to interpret a string as a date.
func parseDateString(s string) (time.Time, bool) {
	for _, layout := range dateParseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
