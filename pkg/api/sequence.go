package api

// ResolveSequence computes the ordered list of active step ids for a
// wizard, given the cleaned data validated so far (see WizardState.CleanData).
//
// Definitions are walked strictly in order. A step's condition is
// evaluated against the cleaned data of the steps already included in this
// resolution; data of excluded steps and of steps at or after the current
// position is invisible. Inclusion of a step therefore depends only on
// included steps before it, which keeps the resolved sequence prefix-stable:
// submitting data for step j can change the inclusion of steps after j,
// never of steps up to and including it.
//
// Resolution is deterministic and side-effect free, and the engine re-runs
// it on every request. An empty result is an ErrCodeEmptySequence error.
func ResolveSequence(steps []StepDefinition, clean map[StepID]map[string]any) ([]StepID, error) {
	out := make([]StepID, 0, len(steps))
	prior := make(map[StepID]map[string]any, len(steps))
	for _, sd := range steps {
		if sd.When != nil && !sd.When(priorView(prior)) {
			continue
		}
		out = append(out, sd.ID)
		if data, ok := clean[sd.ID]; ok {
			prior[sd.ID] = data
		}
	}
	if len(out) == 0 {
		return nil, NewError(ErrCodeEmptySequence, "conditions excluded every step")
	}
	return out, nil
}

// priorView hands each condition its own copy of the outer map so a
// misbehaving condition cannot leak entries into later evaluations. The
// per-step data maps are shared and must be treated as read-only.
func priorView(prior map[StepID]map[string]any) map[StepID]map[string]any {
	view := make(map[StepID]map[string]any, len(prior))
	for id, data := range prior {
		view[id] = data
	}
	return view
}

// StepIndex returns the position of a step in a resolved sequence, or -1.
func StepIndex(seq []StepID, step StepID) int {
	for i, s := range seq {
		if s == step {
			return i
		}
	}
	return -1
}
