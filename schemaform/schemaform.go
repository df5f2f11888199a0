// Package schemaform provides a JSON Schema backed form factory.
//
// Each wizard step is described by one JSON Schema (draft 2020-12).
// Submitted values are coerced from their raw string form into the types
// the schema declares, validated, and reported back per field:
//
//	factory, err := schemaform.New(map[api.StepID][]byte{
//	    "account": []byte(`{
//	        "type": "object",
//	        "required": ["email"],
//	        "properties": {
//	            "email":      {"type": "string", "format": "email"},
//	            "newsletter": {"type": "boolean"}
//	        }
//	    }`),
//	})
//
// Coercion follows HTML form conventions. A field whose values are all
// empty strings counts as not submitted, so "required" catches empty
// inputs. Repeated values are kept only for array properties; otherwise
// the first non-empty value wins. Values that fail to parse stay strings,
// leaving the schema to report the type mismatch at the right field.
//
// Uploaded files appear in the document as small descriptor objects with
// name, content_type, and size keys, so schemas can require an upload or
// bound its size:
//
//	"resume": {
//	    "type": "object",
//	    "properties": {"size": {"type": "integer", "maximum": 5242880}}
//	}
package schemaform

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/petrijr/wizard/pkg/api"
)

// Factory builds and validates step forms from compiled JSON Schemas.
// It is safe for concurrent use; schemas are compiled once in New.
type Factory struct {
	steps      map[api.StepID]*stepSchema
	fileFields map[api.StepID][]string
	fileCheck  func(ctx context.Context, ref api.FileRef) error
}

// Option configures a Factory.
type Option func(*Factory)

// WithFileFields marks fields of a step as required upload references. A
// bound form for the step stays invalid until every listed field carries
// a file reference. Use it when the requirement should not live in the
// schema document itself.
func WithFileFields(step api.StepID, fields ...string) Option {
	return func(f *Factory) {
		if f.fileFields == nil {
			f.fileFields = make(map[api.StepID][]string)
		}
		f.fileFields[step] = append(f.fileFields[step], fields...)
	}
}

// WithFileCheck installs a check that runs against every uploaded file
// after schema validation. A returned error becomes a validation message
// on the file's field, so uploads can be rejected without failing the
// request.
func WithFileCheck(check func(ctx context.Context, ref api.FileRef) error) Option {
	return func(f *Factory) { f.fileCheck = check }
}

// New compiles one JSON Schema per step and returns the factory. Every
// step of the wizard definition needs an entry; Build fails for steps
// without one.
func New(schemas map[api.StepID][]byte, opts ...Option) (*Factory, error) {
	if len(schemas) == 0 {
		return nil, errors.New("schemaform: no step schemas")
	}

	c := jsonschema.NewCompiler()
	c.AssertFormat()

	f := &Factory{steps: make(map[api.StepID]*stepSchema, len(schemas))}
	for step, raw := range schemas {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("schemaform: unmarshal schema for step %q: %w", step, err)
		}

		// Each step gets its own URL so schemas cannot collide in the
		// compiler.
		url := fmt.Sprintf("wizard://schemas/%s.json", step)
		if err := c.AddResource(url, doc); err != nil {
			return nil, fmt.Errorf("schemaform: add schema for step %q: %w", step, err)
		}

		compiled, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("schemaform: compile schema for step %q: %w", step, err)
		}

		props, err := parseProperties(raw)
		if err != nil {
			return nil, fmt.Errorf("schemaform: read properties for step %q: %w", step, err)
		}

		f.steps[step] = &stepSchema{compiled: compiled, props: props}
	}

	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// MustNew is like New but panics on error.
// Useful for factories assembled in main().
func MustNew(schemas map[api.StepID][]byte, opts ...Option) *Factory {
	f, err := New(schemas, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// Build implements api.FormFactory.
func (f *Factory) Build(ctx context.Context, step api.StepID, data map[string][]string, files map[string][]api.FileRef, initial map[string]any) (api.Form, error) {
	ss, ok := f.steps[step]
	if !ok {
		return nil, fmt.Errorf("schemaform: no schema for step %q", step)
	}

	if data == nil {
		return &schemaForm{initial: initial}, nil
	}

	doc, clean, refs := ss.coerce(data, files)
	errs := make(map[string][]string)

	jsonDoc, err := toJSONValue(doc)
	if err != nil {
		return nil, fmt.Errorf("schemaform: encode document for step %q: %w", step, err)
	}
	if err := ss.compiled.Validate(jsonDoc); err != nil {
		var verr *jsonschema.ValidationError
		if !errors.As(err, &verr) {
			return nil, fmt.Errorf("schemaform: validate document for step %q: %w", step, err)
		}
		collectViolations(verr, errs)
	}

	for _, field := range f.fileFields[step] {
		if _, ok := refs[field]; !ok {
			errs[field] = append(errs[field], "this field is required")
		}
	}

	if f.fileCheck != nil {
		for field, ref := range refs {
			if err := f.fileCheck(ctx, ref); err != nil {
				errs[field] = append(errs[field], err.Error())
			}
		}
	}

	return &schemaForm{
		bound: true,
		valid: len(errs) == 0,
		clean: clean,
		files: refs,
		errs:  errs,
	}, nil
}

var _ api.FormFactory = (*Factory)(nil)

// printer renders violation messages. The jsonschema library localizes
// messages through x/text.
var printer = message.NewPrinter(language.English)

// collectViolations walks a ValidationError tree and maps leaf violations
// onto form fields. The field is the first segment of the instance
// location; violations at the document root land under the empty key,
// except for missing required properties, which are attributed to the
// properties themselves.
func collectViolations(verr *jsonschema.ValidationError, errs map[string][]string) {
	if len(verr.Causes) == 0 {
		if k, ok := verr.ErrorKind.(*kind.Required); ok {
			for _, field := range k.Missing {
				errs[field] = append(errs[field], "this field is required")
			}
			return
		}
		field := ""
		if len(verr.InstanceLocation) > 0 {
			field = verr.InstanceLocation[0]
		}
		errs[field] = append(errs[field], verr.ErrorKind.LocalizedString(printer))
		return
	}
	for _, cause := range verr.Causes {
		collectViolations(cause, errs)
	}
}

// schemaForm is the Form produced by Factory.Build.
type schemaForm struct {
	bound   bool
	valid   bool
	clean   map[string]any
	files   map[string]api.FileRef
	errs    map[string][]string
	initial map[string]any
}

func (f *schemaForm) IsValid() bool { return f.bound && f.valid }

func (f *schemaForm) CleanedData() map[string]any {
	if !f.bound {
		out := make(map[string]any, len(f.initial))
		for k, v := range f.initial {
			out[k] = v
		}
		return out
	}
	return f.clean
}

func (f *schemaForm) CleanedFiles() map[string]api.FileRef { return f.files }

func (f *schemaForm) Errors() map[string][]string {
	if !f.bound {
		return nil
	}
	return f.errs
}
