package api

import "context"

// Form is the engine's view of a bound or unbound form: validity, cleaned
// values, and per-field errors. Widget rendering is out of scope; callers
// bring their own presentation on top of the form's data.
type Form interface {
	// IsValid reports whether the bound data passed validation. Unbound
	// forms are never valid.
	IsValid() bool

	// CleanedData returns the validated, type-coerced field values.
	// Meaningful only after a successful validation; unbound forms return
	// their initial data.
	CleanedData() map[string]any

	// CleanedFiles returns the accepted file references by field name.
	CleanedFiles() map[string]FileRef

	// Errors returns the per-field messages of a failed validation.
	Errors() map[string][]string
}

// FormFactory builds forms for a wizard's steps.
//
// data == nil means "build unbound": the form displays initial values and
// reports IsValid false with no errors. The error return is reserved for
// factory faults such as an unknown step id; user input problems are
// reported through the Form itself.
//
// During the pre-completion pass, Build is called again with each step's
// stored values, so a factory must accept its own previously validated
// submissions.
type FormFactory interface {
	Build(ctx context.Context, step StepID, data map[string][]string, files map[string][]FileRef, initial map[string]any) (Form, error)
}

// FormFactoryFunc adapts a function to the FormFactory interface.
type FormFactoryFunc func(ctx context.Context, step StepID, data map[string][]string, files map[string][]FileRef, initial map[string]any) (Form, error)

// Build implements FormFactory.
func (f FormFactoryFunc) Build(ctx context.Context, step StepID, data map[string][]string, files map[string][]FileRef, initial map[string]any) (Form, error) {
	return f(ctx, step, data, files, initial)
}

// CompletionHook receives the validated steps of the final sequence, in
// sequence order, exactly once per successful completion. Its return value
// is surfaced as Response.Result; an error aborts completion with the
// state intact. Side effects such as writing orders or sending mail belong
// here, in caller code, never inside the engine.
type CompletionHook func(ctx context.Context, steps []ValidatedStep, extra map[string]any) (any, error)

// RenderHook may decorate a render response before it is returned, for
// example to attach progress metadata for a template layer.
type RenderHook func(ctx context.Context, resp *Response)
