package engine

import (
	"sort"
	"sync"

	"github.com/petrijr/wizard/pkg/api"
)

type wizardRegistry struct {
	mu     sync.RWMutex
	byName map[string]api.WizardDefinition
}

func newWizardRegistry() *wizardRegistry {
	return &wizardRegistry{
		byName: make(map[string]api.WizardDefinition),
	}
}

// Register validates and stores a definition. Registering a name again
// replaces the previous definition; instances in flight pick up the new
// one on their next request.
func (r *wizardRegistry) Register(def api.WizardDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byName[def.Name] = def
	return nil
}

func (r *wizardRegistry) Get(name string) (api.WizardDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.byName[name]
	if !ok {
		return api.WizardDefinition{}, api.NewErrorf(api.ErrCodeUnknownWizard, "wizard %q not registered", name)
	}
	return def, nil
}

func (r *wizardRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
