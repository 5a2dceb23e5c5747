package domain

import (
	"errors"
	"testing"
)

func TestParseSchemaGeneration(t *testing.T) {
	for raw, want := range map[string]SchemaGeneration{"": GenerationV1, "1": GenerationV1, "v2": GenerationV2, "2": GenerationV2} {
		got, err := ParseSchemaGeneration(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse %q: got %v want %v", raw, got, want)
		}
	}
	if _, err := ParseSchemaGeneration("3"); err == nil {
		t.Fatal("expected error for generation 3")
	}
}

func TestValidateCustomerIDPerGeneration(t *testing.T) {
	global := NewGlobalCustomerID()
	if err := GenerationV2.ValidateCustomerID(global); err != nil {
		t.Fatalf("global id rejected: %v", err)
	}
	if err := GenerationV2.ValidateCustomerID("c1"); !errors.Is(err, ErrInvalidMandate) {
		t.Fatalf("expected ErrInvalidMandate for tenant-scoped id under v2, got %v", err)
	}
	if err := GenerationV1.ValidateCustomerID("c1"); err != nil {
		t.Fatalf("tenant-scoped id rejected under v1: %v", err)
	}
	if err := GenerationV1.ValidateCustomerID("bad id"); !errors.Is(err, ErrInvalidMandate) {
		t.Fatalf("expected ErrInvalidMandate, got %v", err)
	}
}
