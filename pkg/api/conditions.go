package api

import "reflect"

// Always is a Condition that includes the step unconditionally. It is the
// explicit form of a nil condition.
func Always() Condition {
	return func(map[StepID]map[string]any) bool { return true }
}

// Never excludes the step unconditionally. Useful for feature-flagging a
// step out of a definition without deleting it.
func Never() Condition {
	return func(map[StepID]map[string]any) bool { return false }
}

// FieldEquals includes the step when a prior step's cleaned field equals
// want. A missing step or field means "not included". Numbers compare by
// value across int, int64, and float64, so FieldEquals("profile", "age", 42)
// matches cleaned data that stores the age as int64 or float64.
func FieldEquals(step StepID, field string, want any) Condition {
	return func(prior map[StepID]map[string]any) bool {
		data, ok := prior[step]
		if !ok {
			return false
		}
		got, ok := data[field]
		if !ok {
			return false
		}
		if g, w, ok := asNumbers(got, want); ok {
			return g == w
		}
		return reflect.DeepEqual(got, want)
	}
}

// asNumbers reports both values as float64 when both hold a numeric type.
func asNumbers(a, b any) (float64, float64, bool) {
	af, aok := asNumber(a)
	bf, bok := asNumber(b)
	return af, bf, aok && bok
}

func asNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// FieldTruthy includes the step when a prior step's cleaned field holds a
// truthy value: boolean true, a non-zero number, or one of the strings
// "true", "1", "on", "yes".
func FieldTruthy(step StepID, field string) Condition {
	return func(prior map[StepID]map[string]any) bool {
		data, ok := prior[step]
		if !ok {
			return false
		}
		return truthy(data[field])
	}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		switch x {
		case "true", "1", "on", "yes":
			return true
		}
		return false
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	default:
		return false
	}
}

// Not inverts a condition.
func Not(c Condition) Condition {
	return func(prior map[StepID]map[string]any) bool {
		return !c(prior)
	}
}

// All includes the step only when every condition does.
func All(conds ...Condition) Condition {
	return func(prior map[StepID]map[string]any) bool {
		for _, c := range conds {
			if !c(prior) {
				return false
			}
		}
		return true
	}
}

// Any includes the step when at least one condition does.
func Any(conds ...Condition) Condition {
	return func(prior map[StepID]map[string]any) bool {
		for _, c := range conds {
			if c(prior) {
				return true
			}
		}
		return false
	}
}
