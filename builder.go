package wizard

import (
	"fmt"

	"github.com/petrijr/wizard/pkg/api"
)

// Builder provides a fluent API for defining wizards:
//
//	flow := wizard.New("checkout").
//	    Step("cart").
//	    Step("shipping").
//	    StepWhen("gift_note", wizard.FieldTruthy("shipping", "is_gift")).
//	    Step("payment").
//	    Forms(factory).
//	    OnComplete(placeOrder)
//
//	if err := flow.Register(engine); err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := wizard.Handle(ctx, engine, flow.Name(), instanceID, req)
type Builder struct {
	def api.WizardDefinition
}

// New creates a new wizard builder with the given name.
func New(name string) *Builder {
	return &Builder{
		def: api.WizardDefinition{
			Name:  name,
			Steps: make([]api.StepDefinition, 0),
		},
	}
}

// Name returns the wizard name.
func (b *Builder) Name() string {
	return b.def.Name
}

// Definition returns the underlying WizardDefinition.
// Typically used when interacting with lower-level APIs.
func (b *Builder) Definition() WizardDefinition {
	return b.def
}

// Step appends an unconditional step to the wizard.
func (b *Builder) Step(id StepID) *Builder {
	if id == "" {
		panic("wizard: step id must not be empty")
	}

	b.def.Steps = append(b.def.Steps, api.StepDefinition{ID: id})
	return b
}

// StepWhen appends a step that is only part of the sequence while cond
// holds over the cleaned data of the included steps before it.
func (b *Builder) StepWhen(id StepID, cond Condition) *Builder {
	if id == "" {
		panic("wizard: step id must not be empty")
	}
	if cond == nil {
		panic(fmt.Sprintf("wizard: step %q has nil condition", id))
	}

	b.def.Steps = append(b.def.Steps, api.StepDefinition{ID: id, When: cond})
	return b
}

// Initial sets the initial form data for a previously added step. The
// values seed the step's unbound form on first render.
func (b *Builder) Initial(id StepID, data map[string]any) *Builder {
	for i := range b.def.Steps {
		if b.def.Steps[i].ID != id {
			continue
		}
		// Copy so callers can mutate their map after the call without
		// affecting the stored definition.
		initial := make(map[string]any, len(data))
		for k, v := range data {
			initial[k] = v
		}
		b.def.Steps[i].Initial = initial
		return b
	}
	panic(fmt.Sprintf("wizard: Initial for unknown step %q", id))
}

// Forms sets the form factory that builds and validates every step's form.
func (b *Builder) Forms(factory FormFactory) *Builder {
	b.def.Forms = factory
	return b
}

// FormsFunc is a convenience for setting a plain function as the factory.
func (b *Builder) FormsFunc(factory FormFactoryFunc) *Builder {
	b.def.Forms = factory
	return b
}

// OnComplete sets the hook that runs once after every stored step
// re-validated during completion.
func (b *Builder) OnComplete(hook CompletionHook) *Builder {
	b.def.OnComplete = hook
	return b
}

// OnRender sets the hook that decorates every render response.
func (b *Builder) OnRender(hook RenderHook) *Builder {
	b.def.OnRender = hook
	return b
}

// Register registers the built wizard with the given engine.
func (b *Builder) Register(eng Engine) error {
	return eng.Register(b.def)
}

// MustRegister is like Register but panics on error.
// Useful for initialization in main().
func (b *Builder) MustRegister(eng Engine) {
	if err := b.Register(eng); err != nil {
		panic(err)
	}
}
