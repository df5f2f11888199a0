package cond

import (
	"testing"

	"github.com/petrijr/wizard/pkg/api"
)

func TestExpr_Evaluate(t *testing.T) {
	cond, err := Expr(`"intro" in steps && steps.intro.reads_news == true`)
	if err != nil {
		t.Fatalf("Expr failed: %v", err)
	}

	if cond(nil) {
		t.Error("condition should be false without prior data")
	}

	prior := map[api.StepID]map[string]any{"intro": {"reads_news": true}}
	if !cond(prior) {
		t.Error("condition should be true when the field matches")
	}

	prior["intro"]["reads_news"] = false
	if cond(prior) {
		t.Error("condition should be false when the field does not match")
	}
}

func TestExpr_OptionalChaining(t *testing.T) {
	cond := MustExpr(`steps?.contact?.channel == "phone"`)

	if cond(nil) {
		t.Error("missing step should read as nil, not match")
	}
	prior := map[api.StepID]map[string]any{"contact": {"channel": "phone"}}
	if !cond(prior) {
		t.Error("condition should match the stored channel")
	}
}

func TestExpr_NonBooleanResultExcludes(t *testing.T) {
	cond := MustExpr(`len(steps)`)

	if cond(map[api.StepID]map[string]any{"intro": {}}) {
		t.Error("a non-boolean result must exclude the step")
	}
}

func TestExpr_CompileError(t *testing.T) {
	_, err := Expr(`steps &&`)
	if err == nil {
		t.Fatal("expected a compile error")
	}
	if got := api.ErrorCode(err); got != api.ErrCodeBadDefinition {
		t.Errorf("ErrorCode = %q, want %q", got, api.ErrCodeBadDefinition)
	}
}

func TestExpr_Empty(t *testing.T) {
	_, err := Expr("")
	if err == nil {
		t.Fatal("expected an error for an empty expression")
	}
	if got := api.ErrorCode(err); got != api.ErrCodeBadDefinition {
		t.Errorf("ErrorCode = %q, want %q", got, api.ErrCodeBadDefinition)
	}
}

func TestMustExpr_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MustExpr should panic on a bad expression")
		}
	}()
	MustExpr("((")
}
