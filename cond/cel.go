// Package cond compiles boolean expressions into step conditions.
//
// Conditions written in Go cover most wizards; cond exists for definitions
// that come from configuration, such as wizyaml files. Two expression
// languages are supported: Google's CEL and expr-lang.
//
// Expressions see a single variable, steps: a map from step id to that
// step's cleaned data. Only included steps before the conditional step are
// present, so expressions should tolerate missing keys:
//
//	cond.MustCEL(`has(steps.profile) && steps.profile.kind == "business"`)
//	cond.MustExpr(`steps?.profile?.kind == "business"`)
//
// A false result, a non-boolean result, and an evaluation error all
// exclude the step.
package cond

import (
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/petrijr/wizard/pkg/api"
)

var (
	celOnce sync.Once
	celEnv  *cel.Env
	celErr  error
)

// celEnvironment builds the shared CEL environment once. It exposes one
// top-level variable, steps: map(string, dyn) keyed by step id.
func celEnvironment() (*cel.Env, error) {
	celOnce.Do(func() {
		celEnv, celErr = cel.NewEnv(
			cel.Variable("steps", cel.MapType(cel.StringType, cel.DynType)),
		)
	})
	return celEnv, celErr
}

// CEL compiles a CEL expression into a step condition. Compilation happens
// once, here; the returned Condition only evaluates the compiled program
// and is safe for concurrent use.
func CEL(expression string) (api.Condition, error) {
	if expression == "" {
		return nil, api.NewError(api.ErrCodeBadDefinition, "empty CEL condition")
	}

	env, err := celEnvironment()
	if err != nil {
		return nil, api.NewError(api.ErrCodeBadDefinition, "create CEL environment").WithCause(err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, api.NewErrorf(api.ErrCodeBadDefinition,
			"CEL compile error in %q: %s", expression, issues.Err().Error()).
			WithCause(issues.Err()).
			WithDetails(map[string]any{"expression": expression})
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, api.NewErrorf(api.ErrCodeBadDefinition,
			"CEL program error for %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"expression": expression})
	}

	return func(prior map[api.StepID]map[string]any) bool {
		out, _, err := prg.Eval(map[string]any{"steps": stepsEnv(prior)})
		if err != nil {
			return false
		}
		b, ok := out.Value().(bool)
		return ok && b
	}, nil
}

// MustCEL is like CEL but panics on compile errors.
// Useful for wizard definitions assembled in main().
func MustCEL(expression string) api.Condition {
	c, err := CEL(expression)
	if err != nil {
		panic(err)
	}
	return c
}

// stepsEnv converts prior step data to the string-keyed shape both
// expression engines consume. Nil cleaned data becomes an empty map so
// field access fails softly instead of with a nil deref.
func stepsEnv(prior map[api.StepID]map[string]any) map[string]map[string]any {
	steps := make(map[string]map[string]any, len(prior))
	for id, clean := range prior {
		if clean == nil {
			clean = map[string]any{}
		}
		steps[string(id)] = clean
	}
	return steps
}
