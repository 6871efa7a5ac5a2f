package audit

import (
	"testing"
	"time"
)

func TestValuesEqual_Nil(t *testing.T) {
	if !valuesEqual(nil, nil) {
		t.Error("nil should equal nil")
	}
	if valuesEqual(nil, "") {
		t.Error("nil should not equal empty string")
	}
	if valuesEqual("", nil) {
		t.Error("empty string should not equal nil")
	}
	if valuesEqual(nil, 0) {
		t.Error("nil should not equal zero")
	}
	if valuesEqual(nil, false) {
		t.Error("nil should not equal false")
	}
}

func TestValuesEqual_Primitives(t *testing.T) {
	if !valuesEqual("a", "a") {
		t.Error("equal strings should match")
	}
	if valuesEqual("a", "b") {
		t.Error("different strings should not match")
	}
	if !valuesEqual(3.0, 3.0) {
		t.Error("equal floats should match")
	}
	if valuesEqual(int(3), int64(3)) {
		t.Error("different numeric types should not match")
	}
	if !valuesEqual(true, true) {
		t.Error("equal bools should match")
	}
}

func TestValuesEqual_Time(t *testing.T) {
	a := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	if !valuesEqual(a, b) {
		t.Error("identical timestamps should match")
	}
	if valuesEqual(a, c) {
		t.Error("different timestamps should not match")
	}
}

func TestValuesEqual_Slices(t *testing.T) {
	if !valuesEqual([]any{"a", "b"}, []any{"a", "b"}) {
		t.Error("equal slices should match")
	}
	if valuesEqual([]any{"a", "b"}, []any{"b", "a"}) {
		t.Error("slice comparison must be order-sensitive")
	}
	if valuesEqual([]any{"a"}, []any{"a", "b"}) {
		t.Error("slices of different length should not match")
	}
	if !valuesEqual([]any{}, []any{}) {
		t.Error("empty slices should match")
	}
	// Nested slices recurse.
	if !valuesEqual([]any{[]any{"x"}}, []any{[]any{"x"}}) {
		t.Error("nested slices should match element-wise")
	}
}

func TestValuesEqual_Maps(t *testing.T) {
	a := map[string]any{"name": "Alice", "count": 3.0}
	b := map[string]any{"count": 3.0, "name": "Alice"}
	if !valuesEqual(a, b) {
		t.Error("maps with identical contents should match regardless of construction order")
	}

	c := map[string]any{"name": "Alice"}
	if valuesEqual(a, c) {
		t.Error("maps with different key sets should not match")
	}

	d := map[string]any{"name": "Bob", "count": 3.0}
	if valuesEqual(a, d) {
		t.Error("maps with different values should not match")
	}
}

func TestValuesEqual_Pointers(t *testing.T) {
	x, y := "hello", "hello"
	z := "world"

	if !valuesEqual(&x, &y) {
		t.Error("pointers to equal values should match")
	}
	if valuesEqual(&x, &z) {
		t.Error("pointers to different values should not match")
	}

	var nilPtr *string
	if valuesEqual(&x, nilPtr) {
		t.Error("non-nil pointer should not match nil pointer")
	}
	var otherNil *string
	if !valuesEqual(nilPtr, otherNil) {
		t.Error("two nil pointers of the same type should match")
	}
}
