// Package vars implements the macro variable store.
package vars

import (
	"errors"
	"reflect"
	"testing"
)

func TestSetAndGet(t *testing.T) {
	tests := []struct {
		name     string
		value    Value
		expected string
	}{
		{"counter", IntValue(42), "42"},
		{"neg", IntValue(-7), "-7"},
		{"anchor", PosValue(40, 30), "(40, 30)"},
	}

	store := NewStore()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store.Set(tt.name, tt.value)
			got, err := store.Get(tt.name)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.value {
				t.Errorf("Expected %+v, got %+v", tt.value, got)
			}
			if got.String() != tt.expected {
				t.Errorf("Expected textual form %q, got %q", tt.expected, got.String())
			}
		})
	}
}

func TestGetMissing(t *testing.T) {
	store := NewStore()
	_, err := store.Get("ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestKindChangesOnReassignment(t *testing.T) {
	store := NewStore()
	store.Set("x", IntValue(1))
	store.Set("x", PosValue(2, 3))

	v, err := store.Get("x")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if v.Kind != Position {
		t.Errorf("Expected Position after reassignment, got kind %d", v.Kind)
	}
}

func TestIncrease(t *testing.T) {
	store := NewStore()

	// Absent name initializes to 0 first
	now, err := store.Increase("n", 5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if now != 5 {
		t.Errorf("Expected 5, got %d", now)
	}

	now, err = store.Increase("n", 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if now != 8 {
		t.Errorf("Expected 8, got %d", now)
	}
}

func TestIncreasePositionFails(t *testing.T) {
	store := NewStore()
	store.Set("anchor", PosValue(1, 2))

	_, err := store.Increase("anchor", 1)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Expected ErrTypeMismatch, got %v", err)
	}

	// The stored value must be untouched
	v, _ := store.Get("anchor")
	if v != PosValue(1, 2) {
		t.Errorf("Position was modified by a failed increase: %+v", v)
	}
}

func TestNamesLongestFirst(t *testing.T) {
	store := NewStore()
	store.Set("n", IntValue(1))
	store.Set("n2", IntValue(2))
	store.Set("count", IntValue(3))

	got := store.Names()
	expected := []string{"count", "n2", "n"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}
