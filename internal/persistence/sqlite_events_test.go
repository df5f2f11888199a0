package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/petrijr/wizard/pkg/api"
)

func newTestSQLiteEventStore(t *testing.T) *SQLiteEventStore {
	t.Helper()

	store, err := NewSQLiteEventStore(newTestSQLiteDB(t))
	if err != nil {
		t.Fatalf("create sqlite event store: %v", err)
	}
	return store
}

func TestSQLiteEventStore_AppendList(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteEventStore(t)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	events := []api.WizardEvent{
		{Prefix: "contact:i1", Type: api.EventWizardStarted, Wizard: "contact", At: at},
		{Prefix: "contact:i1", Type: api.EventValidationFailed, Wizard: "contact", Step: "message", Detail: "fields=text"},
		{Prefix: "contact:i1", Type: api.EventWizardCompleted, Wizard: "contact", Detail: "steps=2"},
		{Prefix: "contact:i2", Type: api.EventWizardStarted, Wizard: "contact"},
	}
	for _, ev := range events {
		if err := store.AppendEvent(ctx, ev); err != nil {
			t.Fatalf("AppendEvent failed: %v", err)
		}
	}

	got, err := store.ListEvents(ctx, "contact:i1")
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListEvents returned %d events, want 3", len(got))
	}

	wantTypes := []api.EventType{api.EventWizardStarted, api.EventValidationFailed, api.EventWizardCompleted}
	for i, typ := range wantTypes {
		if got[i].Type != typ {
			t.Errorf("event %d type = %q, want %q", i, got[i].Type, typ)
		}
	}
	if got[1].Step != "message" || got[1].Detail != "fields=text" {
		t.Errorf("event 1 = %+v, want the failing field detail", got[1])
	}
	if !got[0].At.Equal(at) {
		t.Errorf("At = %v, want %v", got[0].At, at)
	}
	if got[0].Seq <= 0 || got[1].Seq <= got[0].Seq || got[2].Seq <= got[1].Seq {
		t.Errorf("sequence numbers not increasing: %d %d %d", got[0].Seq, got[1].Seq, got[2].Seq)
	}

	other, err := store.ListEvents(ctx, "contact:i2")
	if err != nil {
		t.Fatalf("ListEvents for the second prefix failed: %v", err)
	}
	if len(other) != 1 {
		t.Errorf("second prefix has %d events, want 1", len(other))
	}
	if other[0].At.IsZero() {
		t.Error("a zero At should be filled in on append")
	}

	empty, err := store.ListEvents(ctx, "contact:unknown")
	if err != nil {
		t.Fatalf("ListEvents for an unknown prefix failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("unknown prefix should have no events, got %d", len(empty))
	}
}

// State store and event store share one SQLite database in the common
// NewSQLiteEngineWithHistory setup.
func TestSQLiteEventStore_SharesDatabaseWithStateStore(t *testing.T) {
	ctx := context.Background()
	db := newTestSQLiteDB(t)

	states, err := NewSQLiteStateStore(db)
	if err != nil {
		t.Fatalf("state store: %v", err)
	}
	events, err := NewSQLiteEventStore(db)
	if err != nil {
		t.Fatalf("event store: %v", err)
	}

	st := api.NewWizardState()
	st.Current = "message"
	if err := states.Save(ctx, "contact:i1", st); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := events.AppendEvent(ctx, api.WizardEvent{Prefix: "contact:i1", Type: api.EventWizardStarted}); err != nil {
		t.Fatalf("AppendEvent failed: %v", err)
	}

	if got, _ := states.Load(ctx, "contact:i1"); got.Current != "message" {
		t.Errorf("state lost: %+v", got)
	}
	if got, _ := events.ListEvents(ctx, "contact:i1"); len(got) != 1 {
		t.Errorf("events lost: %d", len(got))
	}
}
