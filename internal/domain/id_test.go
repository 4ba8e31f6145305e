package domain

import (
	"errors"
	"testing"
)

func TestNewIDIsParseable(t *testing.T) {
	id := NewID()
	parsed, err := ParseID(id)
	if err != nil {
		t.Fatalf("parse generated id: %v", err)
	}
	if parsed != id {
		t.Fatalf("expected %q, got %q", id, parsed)
	}
}

func TestParseIDNormalizes(t *testing.T) {
	parsed, err := ParseID("  5F1E9A62-1A0A-4D3C-9A46-0E6A3C1D9B01 ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != "5f1e9a62-1a0a-4d3c-9a46-0e6a3c1d9b01" {
		t.Fatalf("unexpected canonical form %q", parsed)
	}
}

func TestParseIDRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "123", "not-a-uuid", "5f1e9a62-1a0a-4d3c-9a46"} {
		_, err := ParseID(raw)
		if err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected validation error for %q, got %v", raw, err)
		}
	}
}
