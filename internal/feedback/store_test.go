package feedback

import (
	"context"
	"testing"
)

func TestMemoryStoreSave(t *testing.T) {
	s := NewMemoryStore()

	first, err := s.Save(context.Background(), map[string]any{"rating": 5, "comment": "great"})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	second, _ := s.Save(context.Background(), map[string]any{"comment": "again"})

	if len(first) != IDLength {
		t.Errorf("Expected %d character id, got %q", IDLength, first)
	}
	if first == second {
		t.Error("Expected distinct ids")
	}

	records := s.Records()
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].ID != first || records[0].Feedback["comment"] != "great" {
		t.Errorf("Unexpected first record %+v", records[0])
	}
	if records[0].Date.IsZero() {
		t.Error("Expected date to be set")
	}
}
