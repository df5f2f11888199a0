package api

// StepID identifies a single step within a wizard definition. Values are
// free-form strings chosen by the caller ("sender", "message", "confirm").
// They must be unique within a definition and stable across releases,
// because persisted state refers to steps by id.
type StepID string

// Condition reports whether a step belongs to the active sequence.
//
// It receives the cleaned data of the steps that precede it in definition
// order and are themselves included in the sequence being resolved. Data of
// later steps, or of steps a condition already excluded, is never visible.
// Conditions must be pure: no I/O, no mutation of the input map.
//
// A nil Condition means the step is always included.
type Condition func(prior map[StepID]map[string]any) bool

// StepDefinition describes a single step of a wizard.
type StepDefinition struct {
	// ID is the unique identifier of the step.
	ID StepID

	// When, if non-nil, decides per request whether the step appears in
	// the resolved sequence.
	When Condition

	// Initial seeds the unbound form when the step is rendered without
	// stored data.
	Initial map[string]any
}

// WizardDefinition is the immutable description of a wizard: an ordered
// step list, a form factory, and completion/render hooks. A definition is
// registered once on an engine and shared by every instance of the wizard.
type WizardDefinition struct {
	// Name identifies the wizard on the engine and prefixes all persisted
	// state for its instances.
	Name string

	// Steps is the full ordered step list. Conditions select the active
	// subset per request; the order itself never changes.
	Steps []StepDefinition

	// Forms builds a Form per step from raw input. Required.
	Forms FormFactory

	// OnComplete runs exactly once after every active step re-validated
	// from stored data. When nil, the engine completes with the validated
	// steps themselves as the result.
	OnComplete CompletionHook

	// OnRender, if non-nil, may decorate every render response before it
	// is returned to the caller.
	OnRender RenderHook
}

// Validate checks the definition for structural problems: an empty name,
// no steps, duplicate or empty step ids, or a missing form factory.
func (d WizardDefinition) Validate() error {
	if d.Name == "" {
		return NewError(ErrCodeBadDefinition, "wizard name must not be empty")
	}
	if len(d.Steps) == 0 {
		return NewErrorf(ErrCodeBadDefinition, "wizard %q has no steps", d.Name)
	}
	seen := make(map[StepID]struct{}, len(d.Steps))
	for _, s := range d.Steps {
		if s.ID == "" {
			return NewErrorf(ErrCodeBadDefinition, "wizard %q declares a step with an empty id", d.Name)
		}
		if _, dup := seen[s.ID]; dup {
			return NewErrorf(ErrCodeBadDefinition, "wizard %q declares step %q twice", d.Name, s.ID).WithStep(s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	if d.Forms == nil {
		return NewErrorf(ErrCodeBadDefinition, "wizard %q has no form factory", d.Name)
	}
	return nil
}

// Step returns the definition of the given step id.
func (d WizardDefinition) Step(id StepID) (StepDefinition, bool) {
	for _, s := range d.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return StepDefinition{}, false
}

// FileRef is an opaque reference to an uploaded file held in caller-owned
// storage. The engine persists references as-is and never reads contents;
// resolving a reference back to bytes is the caller's concern.
type FileRef struct {
	Name        string
	ContentType string
	Size        int64

	// Key locates the file in the caller's upload storage.
	Key string
}

// Intent is the navigation action carried by a Request.
type Intent string

const (
	// IntentRender renders a step without mutating state.
	IntentRender Intent = "RENDER"
	// IntentSubmit validates Data against the current step and advances.
	IntentSubmit Intent = "SUBMIT"
	// IntentGoTo repositions the instance on another step of the resolved
	// sequence.
	IntentGoTo Intent = "GOTO"
	// IntentDone re-validates all stored data and completes the wizard.
	IntentDone Intent = "DONE"
)

// Request is one parsed navigation request against a wizard instance.
// Transport adapters such as wizhttp construct these from incoming
// traffic; tests construct them directly.
type Request struct {
	Intent Intent

	// Step is the target for IntentGoTo, or an optional explicit target
	// for IntentRender. Ignored by the other intents.
	Step StepID

	// Data carries the raw submitted field values for IntentSubmit.
	Data map[string][]string

	// Files carries the uploaded file references for IntentSubmit.
	Files map[string][]FileRef

	// Extra is merged into the instance's extra data before the intent is
	// handled; providing it makes the request a state mutation.
	Extra map[string]any
}

// ResponseKind discriminates render responses from completion responses.
type ResponseKind string

const (
	KindRender ResponseKind = "RENDER"
	KindDone   ResponseKind = "DONE"
)

// Reason qualifies why a render response was produced.
type Reason string

const (
	// ReasonValidationFailed marks a re-render caused by invalid input on
	// the submitted step.
	ReasonValidationFailed Reason = "VALIDATION_FAILED"
	// ReasonRevalidationFailed marks a render of a step whose stored data
	// no longer validated during the completion pass.
	ReasonRevalidationFailed Reason = "REVALIDATION_FAILED"
)

// Response tells the caller what to do next: render a step's form
// (KindRender), or present the completion result (KindDone).
//
// Validation problems are not Go errors. A submit with invalid input
// yields a nil error and a Response carrying the step to re-render, the
// field errors, and a Reason.
type Response struct {
	Kind     ResponseKind
	Wizard   string
	Instance string

	// Step and Form are set on render responses. The form is bound when
	// the request carried data or the step has stored values.
	Step StepID
	Form Form

	// Errors holds the per-field messages of a failed validation.
	Errors map[string][]string
	Reason Reason

	// Sequence is the step order resolved for this request. Index is the
	// position of Step within it, -1 on completion.
	Sequence []StepID
	Index    int

	// Result carries the completion hook's return value on KindDone.
	Result any
}
