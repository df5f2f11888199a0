// Package wizyaml loads wizard definitions from YAML files.
//
// A file names the wizard and lists its steps in order. Each step carries
// a JSON Schema for its form; a step with a "when" expression is only part
// of the sequence while the expression holds over earlier answers:
//
//	name: survey
//	steps:
//	  - id: intro
//	    schema:
//	      type: object
//	      required: [age]
//	      properties:
//	        age: {type: integer, minimum: 16}
//	  - id: drivers
//	    when: has(steps.intro) && steps.intro.age >= 18
//	    initial:
//	      vehicle: car
//	    schema:
//	      type: object
//	      properties:
//	        vehicle: {type: string, enum: [car, motorbike, truck]}
//
// Expressions are CEL unless the file sets condition_language: expr.
// Hooks cannot come from a file; set OnComplete and OnRender on the
// returned definition before registering it:
//
//	def, err := wizyaml.Load("survey.yaml")
//	...
//	def.OnComplete = storeSurvey
//	err = eng.Register(def)
package wizyaml

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/petrijr/wizard/cond"
	"github.com/petrijr/wizard/pkg/api"
	"github.com/petrijr/wizard/schemaform"
)

// Option configures loading.
type Option func(*loader)

// WithFormOptions passes options through to the schemaform factory, such
// as schemaform.WithFileCheck.
func WithFormOptions(opts ...schemaform.Option) Option {
	return func(l *loader) { l.formOpts = opts }
}

type loader struct {
	formOpts []schemaform.Option
}

// file is the YAML document shape.
type file struct {
	Name     string `yaml:"name"`
	Language string `yaml:"condition_language"`
	Steps    []struct {
		ID      string         `yaml:"id"`
		When    string         `yaml:"when"`
		Initial map[string]any `yaml:"initial"`
		Schema  map[string]any `yaml:"schema"`
	} `yaml:"steps"`
}

// Load reads a wizard definition from the file at path.
func Load(path string, opts ...Option) (api.WizardDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return api.WizardDefinition{}, fmt.Errorf("wizyaml: open %s: %w", path, err)
	}
	defer f.Close()

	def, err := Parse(f, opts...)
	if err != nil {
		return api.WizardDefinition{}, fmt.Errorf("wizyaml: %s: %w", path, err)
	}
	return def, nil
}

// Parse reads a wizard definition from r.
func Parse(r io.Reader, opts ...Option) (api.WizardDefinition, error) {
	l := &loader{}
	for _, opt := range opts {
		opt(l)
	}

	var doc file
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return api.WizardDefinition{}, fmt.Errorf("decode yaml: %w", err)
	}

	if doc.Name == "" {
		return api.WizardDefinition{}, api.NewError(api.ErrCodeBadDefinition, "wizard name is required")
	}
	if len(doc.Steps) == 0 {
		return api.WizardDefinition{}, api.NewError(api.ErrCodeBadDefinition, "wizard has no steps").WithDetails(map[string]any{"wizard": doc.Name})
	}

	compile := cond.CEL
	switch doc.Language {
	case "", "cel":
	case "expr":
		compile = cond.Expr
	default:
		return api.WizardDefinition{}, api.NewErrorf(api.ErrCodeBadDefinition,
			"unknown condition_language %q", doc.Language)
	}

	steps := make([]api.StepDefinition, 0, len(doc.Steps))
	schemas := make(map[api.StepID][]byte, len(doc.Steps))
	for _, s := range doc.Steps {
		id := api.StepID(s.ID)
		if id == "" {
			return api.WizardDefinition{}, api.NewError(api.ErrCodeBadDefinition, "step without id")
		}
		if s.Schema == nil {
			return api.WizardDefinition{}, api.NewErrorf(api.ErrCodeBadDefinition,
				"step %q has no schema", id).WithStep(id)
		}

		raw, err := json.Marshal(s.Schema)
		if err != nil {
			return api.WizardDefinition{}, fmt.Errorf("encode schema for step %q: %w", id, err)
		}
		schemas[id] = raw

		sd := api.StepDefinition{ID: id, Initial: s.Initial}
		if s.When != "" {
			sd.When, err = compile(s.When)
			if err != nil {
				return api.WizardDefinition{}, fmt.Errorf("step %q condition: %w", id, err)
			}
		}
		steps = append(steps, sd)
	}

	factory, err := schemaform.New(schemas, l.formOpts...)
	if err != nil {
		return api.WizardDefinition{}, err
	}

	def := api.WizardDefinition{
		Name:  doc.Name,
		Steps: steps,
		Forms: factory,
	}
	if err := def.Validate(); err != nil {
		return api.WizardDefinition{}, err
	}
	return def, nil
}
