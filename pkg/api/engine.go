package api

import "context"

// Engine runs wizards. Definitions are registered once; after that every
// navigation request is a single Handle call.
//
// Implementations are safe for concurrent use. Requests for the same
// wizard instance are not serialized against each other: both load state,
// both save, and the last write wins. Embed the engine behind per-session
// request ordering (as HTTP naturally provides) when that matters.
type Engine interface {
	// Register adds a definition after validating it. Registering a name
	// again replaces the previous definition.
	Register(def WizardDefinition) error

	// Handle processes one navigation request for the given wizard name
	// and instance discriminator. It returns a response descriptor, or a
	// typed *Error (see the ErrCode constants) when the request cannot be
	// handled at all. Invalid user input is not an error; it is reported
	// inside the Response.
	Handle(ctx context.Context, wizard, instance string, req Request) (*Response, error)

	// State loads a copy of the persisted state for inspection. A fresh
	// empty state is returned when none exists.
	State(ctx context.Context, wizard, instance string) (*WizardState, error)

	// Reset deletes all persisted state for the instance. Resetting an
	// absent instance succeeds.
	Reset(ctx context.Context, wizard, instance string) error
}

// HistoryReader is an optional capability of engines constructed with an
// event store. Callers type-assert for it:
//
//	if hr, ok := eng.(api.HistoryReader); ok {
//		events, err := hr.History(ctx, "contact", session)
//		...
//	}
type HistoryReader interface {
	// History returns the recorded events for the instance, oldest first.
	History(ctx context.Context, wizard, instance string) ([]WizardEvent, error)
}

// StateStore persists wizard state between requests.
//
// Implementations must treat a missing prefix as an empty state on Load,
// upsert on Save, and succeed when Reset targets an absent prefix. Errors
// mean the backend is unreachable or the payload is corrupt; they must
// never be used to signal "not found". Concurrent writers to the same
// prefix are not serialized: last write wins.
type StateStore interface {
	Load(ctx context.Context, prefix string) (*WizardState, error)
	Save(ctx context.Context, prefix string, state *WizardState) error
	Reset(ctx context.Context, prefix string) error
}

// StatePrefix joins a wizard name and an instance discriminator into the
// store key prefix. An empty instance collapses to the bare wizard name,
// which single-user tools use.
func StatePrefix(wizard, instance string) string {
	if instance == "" {
		return wizard
	}
	return wizard + ":" + instance
}
