package cond

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/petrijr/wizard/pkg/api"
)

// Expr compiles an expr-lang expression into a step condition. Expr
// supports optional chaining (?.), nil coalescing (??), and the usual
// array and string builtins, which keeps expressions over maybe-missing
// steps short:
//
//	cond.MustExpr(`steps?.contact?.channel == "phone"`)
//
// Compilation happens once, here; the returned Condition is safe for
// concurrent use.
func Expr(expression string) (api.Condition, error) {
	if expression == "" {
		return nil, api.NewError(api.ErrCodeBadDefinition, "empty expr condition")
	}

	prg, err := expr.Compile(expression,
		expr.Env(exprEnv(nil)),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, api.NewErrorf(api.ErrCodeBadDefinition,
			"expr compile error in %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"expression": expression})
	}

	return func(prior map[api.StepID]map[string]any) bool {
		out, err := vm.Run(prg, exprEnv(stepsEnv(prior)))
		if err != nil {
			return false
		}
		b, ok := out.(bool)
		return ok && b
	}, nil
}

// MustExpr is like Expr but panics on compile errors.
func MustExpr(expression string) api.Condition {
	c, err := Expr(expression)
	if err != nil {
		panic(err)
	}
	return c
}

// exprEnv wraps the steps map in the environment shape used for both
// compilation and evaluation.
func exprEnv(steps map[string]map[string]any) map[string]any {
	if steps == nil {
		steps = map[string]map[string]any{}
	}
	return map[string]any{"steps": steps}
}
