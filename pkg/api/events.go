package api

import (
	"context"
	"time"
)

// EventType identifies a wizard history event.
type EventType string

const (
	EventWizardStarted   EventType = "wizard.started"
	EventWizardCompleted EventType = "wizard.completed"
	EventWizardReset     EventType = "wizard.reset"

	EventStepValidated      EventType = "step.validated"
	EventValidationFailed   EventType = "step.validation_failed"
	EventRevalidationFailed EventType = "step.revalidation_failed"
	EventNavigated          EventType = "step.navigated"
)

// EventStore is an append-only history store for wizard lifecycle events.
// The internal persistence package ships memory and SQLite implementations;
// custom backends implement this interface.
type EventStore interface {
	AppendEvent(ctx context.Context, ev WizardEvent) error
	ListEvents(ctx context.Context, prefix string) ([]WizardEvent, error)
}

// WizardEvent is a minimal append-only history record for audit/debugging.
// It is intentionally small and stable; richer history can be layered later.
type WizardEvent struct {
	Seq    int64
	Prefix string
	At     time.Time
	Type   EventType

	// Optional context.
	Wizard string
	Step   StepID

	// Small, human-oriented details (e.g. failing field names). Keep this
	// low-volume: do NOT dump form payloads here.
	Detail string
}
