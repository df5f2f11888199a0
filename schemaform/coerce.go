package schemaform

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/petrijr/wizard/pkg/api"
)

// stepSchema pairs a compiled schema with the property types its raw
// document declares. The types drive string-to-value coercion.
type stepSchema struct {
	compiled *jsonschema.Schema
	props    map[string]property
}

type property struct {
	typ   string
	items string
}

// coerce builds three views of a submission: the document to validate
// (submitted values plus file descriptors), the cleaned data to store,
// and the uploaded file references by field.
func (s *stepSchema) coerce(data map[string][]string, files map[string][]api.FileRef) (doc, clean map[string]any, refs map[string]api.FileRef) {
	doc = make(map[string]any, len(data)+len(files))
	clean = make(map[string]any, len(data))
	refs = make(map[string]api.FileRef, len(files))

	for field, values := range data {
		v, ok := s.coerceField(field, values)
		if !ok {
			continue
		}
		doc[field] = v
		clean[field] = v
	}

	for field, list := range files {
		if len(list) == 0 {
			continue
		}
		ref := list[0]
		refs[field] = ref
		doc[field] = fileDoc(ref)
	}

	return doc, clean, refs
}

// coerceField turns one field's raw values into a document value. A field
// whose values are all empty counts as not submitted.
func (s *stepSchema) coerceField(field string, values []string) (any, bool) {
	prop := s.props[field]

	if prop.typ == "array" {
		items := make([]any, 0, len(values))
		for _, raw := range values {
			if raw == "" {
				continue
			}
			items = append(items, coerceScalar(prop.items, raw))
		}
		if len(items) == 0 {
			return nil, false
		}
		return items, true
	}

	for _, raw := range values {
		if raw != "" {
			return coerceScalar(prop.typ, raw), true
		}
	}
	return nil, false
}

// coerceScalar parses raw according to the declared property type.
// Unparseable values stay strings, leaving the schema to report the type
// mismatch at the field.
func coerceScalar(typ, raw string) any {
	switch typ {
	case "integer":
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
	case "number":
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	case "boolean":
		switch strings.ToLower(raw) {
		case "true", "1", "on", "yes":
			return true
		case "false", "0", "off", "no":
			return false
		}
	}
	return raw
}

// fileDoc is the document representation of an uploaded file. Schemas
// constrain uploads through these keys.
func fileDoc(ref api.FileRef) map[string]any {
	return map[string]any{
		"name":         ref.Name,
		"content_type": ref.ContentType,
		"size":         ref.Size,
	}
}

// parseProperties reads the declared property types out of the raw schema
// document.
func parseProperties(raw []byte) (map[string]property, error) {
	var doc struct {
		Properties map[string]struct {
			Type  any `json:"type"`
			Items struct {
				Type any `json:"type"`
			} `json:"items"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	props := make(map[string]property, len(doc.Properties))
	for name, p := range doc.Properties {
		props[name] = property{typ: typeName(p.Type), items: typeName(p.Items.Type)}
	}
	return props, nil
}

// typeName handles both "type": "integer" and "type": ["integer", "null"].
func typeName(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok && s != "null" {
				return s
			}
		}
	}
	return ""
}

// toJSONValue round-trips a Go value through JSON encoding so that numeric
// values become json.Number, the shape the jsonschema library validates.
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(b))
}
