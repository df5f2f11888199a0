package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/petrijr/wizard/pkg/api"
)

func TestMemoryEventStore_AppendList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryEventStore()

	events := []api.WizardEvent{
		{Prefix: "contact:i1", Type: api.EventWizardStarted, Wizard: "contact"},
		{Prefix: "contact:i1", Type: api.EventStepValidated, Wizard: "contact", Step: "message"},
		{Prefix: "contact:i2", Type: api.EventWizardStarted, Wizard: "contact"},
	}
	for _, ev := range events {
		if err := s.AppendEvent(ctx, ev); err != nil {
			t.Fatalf("AppendEvent failed: %v", err)
		}
	}

	got, err := s.ListEvents(ctx, "contact:i1")
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListEvents returned %d events, want 2", len(got))
	}
	if got[0].Type != api.EventWizardStarted || got[1].Type != api.EventStepValidated {
		t.Errorf("events out of order: %v, %v", got[0].Type, got[1].Type)
	}
	if got[1].Step != "message" {
		t.Errorf("Step = %q, want message", got[1].Step)
	}

	// Sequence numbers are assigned store-wide and strictly increase.
	if got[0].Seq <= 0 || got[1].Seq <= got[0].Seq {
		t.Errorf("sequence numbers not increasing: %d, %d", got[0].Seq, got[1].Seq)
	}
	// A zero timestamp is filled in on append.
	if got[0].At.IsZero() {
		t.Error("At should be set when the event carries none")
	}

	other, err := s.ListEvents(ctx, "contact:i2")
	if err != nil {
		t.Fatalf("ListEvents for the second prefix failed: %v", err)
	}
	if len(other) != 1 {
		t.Errorf("ListEvents for the second prefix returned %d events, want 1", len(other))
	}

	empty, err := s.ListEvents(ctx, "contact:unknown")
	if err != nil {
		t.Fatalf("ListEvents for an unknown prefix failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("unknown prefix should have no events, got %d", len(empty))
	}
}

func TestMemoryEventStore_ListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryEventStore()

	if err := s.AppendEvent(ctx, api.WizardEvent{Prefix: "p", Type: api.EventWizardStarted}); err != nil {
		t.Fatalf("AppendEvent failed: %v", err)
	}

	first, _ := s.ListEvents(ctx, "p")
	first[0].Type = "tampered"

	second, _ := s.ListEvents(ctx, "p")
	if second[0].Type != api.EventWizardStarted {
		t.Error("ListEvents handed out an aliased slice")
	}
}

func TestMemoryEventStore_KeepsGivenTimestamp(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryEventStore()

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.AppendEvent(ctx, api.WizardEvent{Prefix: "p", Type: api.EventWizardReset, At: at}); err != nil {
		t.Fatalf("AppendEvent failed: %v", err)
	}

	got, _ := s.ListEvents(ctx, "p")
	if !got[0].At.Equal(at) {
		t.Errorf("At = %v, want %v", got[0].At, at)
	}
}

func TestNoopEventStore(t *testing.T) {
	ctx := context.Background()
	s := NoopEventStore{}

	if err := s.AppendEvent(ctx, api.WizardEvent{Prefix: "p"}); err != nil {
		t.Fatalf("AppendEvent failed: %v", err)
	}
	got, err := s.ListEvents(ctx, "p")
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("NoopEventStore should keep nothing, got %d events", len(got))
	}
}
