package wizard

import "github.com/petrijr/wizard/pkg/api"

// Always returns a condition that always includes the step.
func Always() Condition {
	return api.Always()
}

// Never returns a condition that always excludes the step.
func Never() Condition {
	return api.Never()
}

// FieldEquals includes the step while field on an earlier step equals want.
// A missing step or field excludes it. Numbers compare by value across int
// and float types.
func FieldEquals(step StepID, field string, want any) Condition {
	return api.FieldEquals(step, field, want)
}

// FieldTruthy includes the step while field on an earlier step is truthy:
// true, a non-zero number, or one of the strings "true", "1", "on", "yes".
func FieldTruthy(step StepID, field string) Condition {
	return api.FieldTruthy(step, field)
}

// Not inverts a condition.
func Not(c Condition) Condition {
	return api.Not(c)
}

// All combines conditions so the step is included only when every one holds.
func All(conds ...Condition) Condition {
	return api.All(conds...)
}

// Any combines conditions so the step is included when at least one holds.
func Any(conds ...Condition) Condition {
	return api.Any(conds...)
}
