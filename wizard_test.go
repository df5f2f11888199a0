package wizard

import (
	"context"
	"errors"
	"testing"
)

// flowForm is a minimal Form for the package level tests. Validation is
// driven by the required field lists handed to listForms.
type flowForm struct {
	bound   bool
	valid   bool
	clean   map[string]any
	files   map[string]FileRef
	errs    map[string][]string
	initial map[string]any
}

func (f *flowForm) IsValid() bool { return f.bound && f.valid }

func (f *flowForm) CleanedData() map[string]any {
	if !f.bound {
		return f.initial
	}
	return f.clean
}

func (f *flowForm) CleanedFiles() map[string]FileRef { return f.files }

func (f *flowForm) Errors() map[string][]string {
	if !f.bound {
		return nil
	}
	return f.errs
}

// listForms builds a factory that declares the listed fields required per
// step. Values pass through as strings, except "true" and "false" which
// clean to booleans.
func listForms(required map[StepID][]string) FormFactoryFunc {
	return func(ctx context.Context, step StepID, data map[string][]string, files map[string][]FileRef, initial map[string]any) (Form, error) {
		if data == nil {
			return &flowForm{initial: initial}, nil
		}

		form := &flowForm{
			bound: true,
			valid: true,
			clean: map[string]any{},
			errs:  map[string][]string{},
		}
		for field, values := range data {
			if len(values) == 0 || values[0] == "" {
				continue
			}
			switch values[0] {
			case "true":
				form.clean[field] = true
			case "false":
				form.clean[field] = false
			default:
				form.clean[field] = values[0]
			}
		}
		for _, field := range required[step] {
			if _, ok := form.clean[field]; !ok {
				form.valid = false
				form.errs[field] = append(form.errs[field], "this field is required")
			}
		}
		for field, refs := range files {
			if len(refs) > 0 {
				if form.files == nil {
					form.files = map[string]FileRef{}
				}
				form.files[field] = refs[0]
			}
		}
		return form, nil
	}
}

// signupFlow is the three step wizard used across the package level tests.
// The upgrade step only applies to accounts that picked the pro flag.
func signupFlow() *Builder {
	return New("signup").
		Step("account").
		StepWhen("upgrade", FieldTruthy("account", "pro")).
		Step("confirm").
		Forms(listForms(map[StepID][]string{
			"account": {"email"},
			"upgrade": {"plan"},
			"confirm": {"accept"},
		}))
}

func TestWizard_TopLevelWrappers_HandleStateResetHistory(t *testing.T) {
	ctx := context.Background()
	eng := NewInMemoryEngineWithHistory()

	completed := 0
	flow := signupFlow().OnComplete(func(ctx context.Context, steps []ValidatedStep, extra map[string]any) (any, error) {
		completed++
		return map[string]any{"user": steps[0].Clean["email"]}, nil
	})
	flow.MustRegister(eng)

	// Start with a render via the top-level Handle wrapper.
	resp, err := Handle(ctx, eng, flow.Name(), "alice", Request{Intent: IntentRender})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if resp.Step != "account" {
		t.Fatalf("unexpected first step: %s", resp.Step)
	}
	if len(resp.Sequence) != 2 {
		t.Fatalf("upgrade should be hidden at first, sequence: %v", resp.Sequence)
	}

	// A pro account pulls the upgrade step into the sequence.
	resp, err = Handle(ctx, eng, flow.Name(), "alice", Request{
		Intent: IntentSubmit,
		Data:   map[string][]string{"email": {"alice@example.com"}, "pro": {"true"}},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if resp.Step != "upgrade" {
		t.Fatalf("expected the upgrade step, got %s (sequence %v)", resp.Step, resp.Sequence)
	}

	// The State wrapper sees the stored submission.
	st, err := State(ctx, eng, flow.Name(), "alice")
	if err != nil {
		t.Fatalf("state failed: %v", err)
	}
	if _, ok := st.Validated("account"); !ok {
		t.Fatal("account submission not stored")
	}

	// Walk the rest; the last submit completes the wizard.
	if _, err = Handle(ctx, eng, flow.Name(), "alice", Request{
		Intent: IntentSubmit,
		Data:   map[string][]string{"plan": {"team"}},
	}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	resp, err = Handle(ctx, eng, flow.Name(), "alice", Request{
		Intent: IntentSubmit,
		Data:   map[string][]string{"accept": {"true"}},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if resp.Kind != KindDone {
		t.Fatalf("expected completion, got %s on %s (%s)", resp.Kind, resp.Step, resp.Reason)
	}
	if completed != 1 {
		t.Fatalf("hook ran %d times", completed)
	}
	result, ok := resp.Result.(map[string]any)
	if !ok || result["user"] != "alice@example.com" {
		t.Fatalf("unexpected result: %v", resp.Result)
	}

	// The History wrapper returns the recorded walk in order.
	events, err := History(ctx, eng, flow.Name(), "alice")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("no events recorded")
	}
	if events[0].Type != "wizard.started" {
		t.Fatalf("unexpected first event: %s", events[0].Type)
	}
	if last := events[len(events)-1]; last.Type != "wizard.completed" {
		t.Fatalf("unexpected last event: %s", last.Type)
	}

	// Reset drops the instance; the next render starts over.
	if err := Reset(ctx, eng, flow.Name(), "alice"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	resp, err = Handle(ctx, eng, flow.Name(), "alice", Request{Intent: IntentRender})
	if err != nil {
		t.Fatalf("render after reset failed: %v", err)
	}
	if resp.Step != "account" {
		t.Fatalf("expected a fresh start, got %s", resp.Step)
	}
}

func TestHandle_UnknownWizard(t *testing.T) {
	eng := NewInMemoryEngine()

	_, err := Handle(context.Background(), eng, "ghost", "i", Request{Intent: IntentRender})
	if ErrorCode(err) != ErrCodeUnknownWizard {
		t.Fatalf("code = %v, err = %v", ErrorCode(err), err)
	}
}

func TestHistory_WithoutRecording(t *testing.T) {
	eng := NewInMemoryEngine()
	signupFlow().MustRegister(eng)

	_, err := History(context.Background(), eng, "signup", "alice")
	if !errors.Is(err, ErrNoHistory) {
		t.Fatalf("expected ErrNoHistory, got %v", err)
	}
}

// NewEngine assembles the same engine the named constructors do; an
// EngineConfig with an event store records history.
func TestNewEngine_FromConfig(t *testing.T) {
	ctx := context.Background()
	eng := NewEngine(EngineConfig{Events: NewMemoryEventStore()})
	signupFlow().MustRegister(eng)

	if _, err := Handle(ctx, eng, "signup", "bob", Request{Intent: IntentRender}); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	events, err := History(ctx, eng, "signup", "bob")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(events) != 1 || events[0].Type != "wizard.started" {
		t.Fatalf("events = %v", events)
	}
}
