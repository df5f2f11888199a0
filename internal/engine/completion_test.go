package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/petrijr/wizard/internal/persistence"
	"github.com/petrijr/wizard/pkg/api"
)

func TestEngine_DoneWithoutDataRoutesBack(t *testing.T) {
	eng := newTestEngine(t, contactDefinition())

	resp := handle(t, eng, "i1", api.Request{Intent: api.IntentDone})

	assertStep(t, resp, "message")
	if resp.Reason != api.ReasonRevalidationFailed {
		t.Errorf("Reason = %q, want %q", resp.Reason, api.ReasonRevalidationFailed)
	}
	// A never-submitted step re-validates as an empty submission, so the
	// response carries the step's real required-field errors.
	if len(resp.Errors["text"]) == 0 {
		t.Errorf("Errors = %v, want a message for the text field", resp.Errors)
	}

	st, _ := eng.State(context.Background(), "contact", "i1")
	if st.Current != "message" {
		t.Errorf("Current = %q, want message", st.Current)
	}
}

func TestEngine_DoneRepositionsOnFailingStep(t *testing.T) {
	eng := newTestEngine(t, contactDefinition())

	handle(t, eng, "i1", submitReq(map[string]string{"text": "hi"}))
	handle(t, eng, "i1", api.Request{Intent: api.IntentGoTo, Step: "message"})

	resp := handle(t, eng, "i1", api.Request{Intent: api.IntentDone})

	assertStep(t, resp, "confirm")
	if resp.Reason != api.ReasonRevalidationFailed {
		t.Errorf("Reason = %q, want %q", resp.Reason, api.ReasonRevalidationFailed)
	}

	st, _ := eng.State(context.Background(), "contact", "i1")
	if st.Current != "confirm" {
		t.Errorf("Current = %q, want confirm", st.Current)
	}
}

// Completion trusts the store, not the submit-time verdict: stored values
// are re-validated, and the first failure in sequence order wins.
func TestEngine_DoneRevalidatesStoredValues(t *testing.T) {
	store := persistence.NewMemoryStateStore()
	eng := NewEngineWithStore(store, nil)

	var hookRuns int
	def := contactDefinition()
	def.OnComplete = func(ctx context.Context, steps []api.ValidatedStep, extra map[string]any) (any, error) {
		hookRuns++
		return nil, nil
	}
	if err := eng.Register(def); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	ctx := context.Background()

	handle(t, eng, "i1", submitReq(map[string]string{"text": "hi"}))

	// Corrupt the stored raw values behind the engine's back.
	st, err := store.Load(ctx, "contact:i1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	vs, _ := st.Validated("message")
	vs.Values = map[string][]string{"text": {""}}
	st.SetValidated(vs)
	if err := store.Save(ctx, "contact:i1", st); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	resp := handle(t, eng, "i1", api.Request{Intent: api.IntentDone})

	assertStep(t, resp, "message")
	if resp.Reason != api.ReasonRevalidationFailed {
		t.Errorf("Reason = %q, want %q", resp.Reason, api.ReasonRevalidationFailed)
	}
	if hookRuns != 0 {
		t.Errorf("hook ran %d times before revalidation passed", hookRuns)
	}

	after, _ := eng.State(ctx, "contact", "i1")
	if after.Current != "message" {
		t.Errorf("Current = %q, want the failing step", after.Current)
	}
}

// A submit on the last step of the sequence finalizes without a separate
// DONE request.
func TestEngine_SubmitOnLastStepCompletes(t *testing.T) {
	var got []api.ValidatedStep
	def := contactDefinition()
	def.OnComplete = func(ctx context.Context, steps []api.ValidatedStep, extra map[string]any) (any, error) {
		got = steps
		return map[string]any{"ticket": "T-1"}, nil
	}
	eng := newTestEngine(t, def)

	handle(t, eng, "i1", submitReq(map[string]string{"text": "hi"}))
	resp := handle(t, eng, "i1", submitReq(map[string]string{"accept": "true"}))

	if resp.Kind != api.KindDone {
		t.Fatalf("Kind = %q, want DONE", resp.Kind)
	}
	if resp.Index != -1 {
		t.Errorf("Index = %d, want -1", resp.Index)
	}
	result, ok := resp.Result.(map[string]any)
	if !ok || result["ticket"] != "T-1" {
		t.Errorf("Result = %v, want the hook's return value", resp.Result)
	}

	if len(got) != 2 || got[0].Step != "message" || got[1].Step != "confirm" {
		t.Fatalf("hook steps = %v, want [message confirm]", got)
	}
	if got[0].Clean["text"] != "hi" {
		t.Errorf("hook clean data = %v, want the message text", got[0].Clean)
	}
}

func TestEngine_DoneWithNilHook(t *testing.T) {
	eng := newTestEngine(t, contactDefinition())

	handle(t, eng, "i1", submitReq(map[string]string{"text": "hi"}))
	handle(t, eng, "i1", submitReq(map[string]string{"accept": "true"}))

	st, _ := eng.State(context.Background(), "contact", "i1")
	if st.Current != "confirm" {
		t.Fatalf("Current = %q, want confirm", st.Current)
	}

	resp := handle(t, eng, "i1", api.Request{Intent: api.IntentDone})
	if resp.Kind != api.KindDone {
		t.Fatalf("Kind = %q, want DONE", resp.Kind)
	}

	steps, ok := resp.Result.([]api.ValidatedStep)
	if !ok {
		t.Fatalf("Result is %T, want []api.ValidatedStep", resp.Result)
	}
	if len(steps) != 2 || steps[0].Step != "message" || steps[1].Step != "confirm" {
		t.Errorf("Result steps = %v, want sequence order", steps)
	}
}

func TestEngine_HookReceivesExtra(t *testing.T) {
	var gotExtra map[string]any
	def := contactDefinition()
	def.OnComplete = func(ctx context.Context, steps []api.ValidatedStep, extra map[string]any) (any, error) {
		gotExtra = extra
		return nil, nil
	}
	eng := newTestEngine(t, def)

	handle(t, eng, "i1", api.Request{Intent: api.IntentRender, Extra: map[string]any{"locale": "de"}})
	handle(t, eng, "i1", submitReq(map[string]string{"text": "hi"}))
	handle(t, eng, "i1", submitReq(map[string]string{"accept": "true"}))

	if gotExtra["locale"] != "de" {
		t.Errorf("hook extra = %v, want the merged request extra", gotExtra)
	}
}

// A failing hook aborts completion but never loses the validated data:
// state is saved before the hook runs, so the caller can retry.
func TestEngine_CompletionHookRetry(t *testing.T) {
	hookFails := true
	var calls int
	def := contactDefinition()
	def.OnComplete = func(ctx context.Context, steps []api.ValidatedStep, extra map[string]any) (any, error) {
		calls++
		if hookFails {
			return nil, errors.New("smtp down")
		}
		return "ticket-1", nil
	}
	eng := newTestEngine(t, def)
	ctx := context.Background()

	handle(t, eng, "i1", submitReq(map[string]string{"text": "hi"}))
	_, err := eng.Handle(ctx, "contact", "i1", submitReq(map[string]string{"accept": "true"}))
	if err == nil {
		t.Fatal("expected the hook failure to surface")
	}
	if got := api.ErrorCode(err); got != api.ErrCodeCompletionFailed {
		t.Errorf("ErrorCode = %q, want %q", got, api.ErrCodeCompletionFailed)
	}
	if calls != 1 {
		t.Fatalf("hook ran %d times, want 1", calls)
	}

	// The final submission survived the failed attempt.
	st, _ := eng.State(ctx, "contact", "i1")
	if _, ok := st.Validated("confirm"); !ok {
		t.Fatal("the final submission was lost")
	}

	hookFails = false
	resp := handle(t, eng, "i1", api.Request{Intent: api.IntentDone})
	if resp.Kind != api.KindDone {
		t.Fatalf("Kind = %q, want DONE", resp.Kind)
	}
	if resp.Result != "ticket-1" {
		t.Errorf("Result = %v, want ticket-1", resp.Result)
	}
	if calls != 2 {
		t.Errorf("hook ran %d times across both attempts, want 2", calls)
	}
}

// Completion does not delete state. A later DONE against intact data
// re-validates and completes again; one-shot flows Reset afterwards.
func TestEngine_StateSurvivesCompletion(t *testing.T) {
	var calls int
	def := contactDefinition()
	def.OnComplete = func(ctx context.Context, steps []api.ValidatedStep, extra map[string]any) (any, error) {
		calls++
		return calls, nil
	}
	eng := newTestEngine(t, def)
	ctx := context.Background()

	handle(t, eng, "i1", submitReq(map[string]string{"text": "hi"}))
	handle(t, eng, "i1", submitReq(map[string]string{"accept": "true"}))
	if calls != 1 {
		t.Fatalf("hook ran %d times, want 1", calls)
	}

	resp := handle(t, eng, "i1", api.Request{Intent: api.IntentDone})
	if resp.Kind != api.KindDone || calls != 2 {
		t.Fatalf("second DONE: kind=%q calls=%d, want another completion", resp.Kind, calls)
	}

	if err := eng.Reset(ctx, "contact", "i1"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	resp = handle(t, eng, "i1", api.Request{Intent: api.IntentDone})
	if resp.Kind != api.KindRender || resp.Reason != api.ReasonRevalidationFailed {
		t.Errorf("DONE after Reset: kind=%q reason=%q, want the revalidation gate", resp.Kind, resp.Reason)
	}
	if calls != 2 {
		t.Errorf("hook ran %d times after Reset, want still 2", calls)
	}
}
