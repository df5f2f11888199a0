package wizard

import "context"

// Runner binds an Engine to a single wizard instance and exposes the
// navigation intents as plain methods, so tests, CLIs, and other non-HTTP
// callers don't have to assemble Request values by hand.
//
// Typical usage:
//
//	eng := wizard.NewInMemoryEngine()
//	flow := wizard.New("signup").
//	    Step("account").
//	    Step("profile").
//	    Forms(factory).
//	    OnComplete(createUser)
//	flow.MustRegister(eng)
//
//	run := wizard.NewRunner(eng, flow.Name(), "session-123")
//	resp, _ := run.Render(ctx)
//	resp, _ = run.Submit(ctx, map[string][]string{"email": {"ada@example.com"}})
//	...
//	resp, _ = run.Done(ctx)
//
// A Runner holds no state of its own; all state lives in the engine's
// store. Two runners for the same instance see the same wizard.
type Runner struct {
	eng      Engine
	name     string
	instance string
}

// NewRunner binds eng to the named wizard and instance.
func NewRunner(eng Engine, name, instance string) *Runner {
	return &Runner{eng: eng, name: name, instance: instance}
}

// Wizard returns the bound wizard name.
func (r *Runner) Wizard() string { return r.name }

// Instance returns the bound instance identifier.
func (r *Runner) Instance() string { return r.instance }

// Render renders the instance's current step.
func (r *Runner) Render(ctx context.Context) (*Response, error) {
	return r.eng.Handle(ctx, r.name, r.instance, Request{Intent: IntentRender})
}

// RenderStep renders a specific step of the active sequence without
// repositioning the instance.
func (r *Runner) RenderStep(ctx context.Context, step StepID) (*Response, error) {
	return r.eng.Handle(ctx, r.name, r.instance, Request{Intent: IntentRender, Step: step})
}

// Submit validates data against the current step and, on success, advances
// to the next applicable step or completes the wizard.
func (r *Runner) Submit(ctx context.Context, data map[string][]string) (*Response, error) {
	return r.eng.Handle(ctx, r.name, r.instance, Request{Intent: IntentSubmit, Data: data})
}

// SubmitFiles is Submit with uploaded file references alongside the data.
func (r *Runner) SubmitFiles(ctx context.Context, data map[string][]string, files map[string][]FileRef) (*Response, error) {
	return r.eng.Handle(ctx, r.name, r.instance, Request{Intent: IntentSubmit, Data: data, Files: files})
}

// GoTo repositions the instance on another step of the active sequence.
func (r *Runner) GoTo(ctx context.Context, step StepID) (*Response, error) {
	return r.eng.Handle(ctx, r.name, r.instance, Request{Intent: IntentGoTo, Step: step})
}

// Done re-validates every stored step and completes the wizard, or renders
// the first step whose data no longer validates.
func (r *Runner) Done(ctx context.Context) (*Response, error) {
	return r.eng.Handle(ctx, r.name, r.instance, Request{Intent: IntentDone})
}

// MergeExtra merges entries into the instance's extra data, which the
// completion hook later receives. Issues a render of the current step.
func (r *Runner) MergeExtra(ctx context.Context, extra map[string]any) (*Response, error) {
	return r.eng.Handle(ctx, r.name, r.instance, Request{Intent: IntentRender, Extra: extra})
}

// State fetches the persisted state of the instance.
func (r *Runner) State(ctx context.Context) (*WizardState, error) {
	return r.eng.State(ctx, r.name, r.instance)
}

// Reset deletes the persisted state of the instance.
func (r *Runner) Reset(ctx context.Context) error {
	return r.eng.Reset(ctx, r.name, r.instance)
}

// History returns the recorded events of the instance, or ErrNoHistory
// when the engine does not record events.
func (r *Runner) History(ctx context.Context) ([]WizardEvent, error) {
	return History(ctx, r.eng, r.name, r.instance)
}
