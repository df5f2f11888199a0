package api

// ValidatedStep is the immutable record of one successful step validation.
//
// Both the raw submission that validated and the cleaned data the form
// produced are kept: conditions and completion hooks read Clean, while the
// pre-completion pass rebuilds forms from Values so that stored data is
// genuinely re-validated, not assumed.
type ValidatedStep struct {
	Step   StepID
	Values map[string][]string
	Clean  map[string]any
	Files  map[string]FileRef
}

// WizardState is the persisted per-instance state of a wizard run.
//
// State is created lazily on first contact with a prefix, mutated only by
// the engine, and never deleted automatically. Callers reset the prefix
// when a completed run should not be resumable.
type WizardState struct {
	// Current is the step the instance is positioned on. While a request
	// is handled it is always a member of the freshly resolved sequence.
	Current StepID

	// Steps holds the validated record per step id, including steps that
	// a condition later excluded from the sequence. Excluded data stays
	// invisible to conditions and hooks but survives a later re-inclusion.
	Steps map[StepID]ValidatedStep

	// Extra is free-form per-instance data merged from requests and
	// passed to the completion hook.
	Extra map[string]any
}

// NewWizardState returns an empty state.
func NewWizardState() *WizardState {
	return &WizardState{
		Steps: make(map[StepID]ValidatedStep),
		Extra: make(map[string]any),
	}
}

// Validated returns the stored record for a step, if any.
func (s *WizardState) Validated(step StepID) (ValidatedStep, bool) {
	vs, ok := s.Steps[step]
	return vs, ok
}

// SetValidated replaces the stored record for a step.
func (s *WizardState) SetValidated(vs ValidatedStep) {
	if s.Steps == nil {
		s.Steps = make(map[StepID]ValidatedStep)
	}
	s.Steps[vs.Step] = vs
}

// CleanData collects the cleaned data of every stored step, keyed by step
// id. Sequence resolution consumes this shape.
func (s *WizardState) CleanData() map[StepID]map[string]any {
	out := make(map[StepID]map[string]any, len(s.Steps))
	for id, vs := range s.Steps {
		out[id] = vs.Clean
	}
	return out
}

// MergeExtra copies the given entries into the state's extra data.
func (s *WizardState) MergeExtra(extra map[string]any) {
	if len(extra) == 0 {
		return
	}
	if s.Extra == nil {
		s.Extra = make(map[string]any)
	}
	for k, v := range extra {
		s.Extra[k] = v
	}
}
