// Package persistence contains the built-in StateStore and EventStore
// implementations of the wizard engine: in-memory, SQLite, Postgres,
// Redis, and MongoDB.
//
// All backends serialize state with encoding/gob through EncodeState and
// DecodeState, so a payload written by one backend can be read by another.
package persistence

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/petrijr/wizard/pkg/api"
)

func init() {
	// Concrete types that commonly appear inside cleaned data and extra
	// data. Values of other types must be registered by the caller via
	// RegisterCleanType before they can cross a store boundary.
	gob.Register(map[string]any{})
	gob.Register([]any{})
	gob.Register([]string{})
	gob.Register(time.Time{})
	gob.Register(api.FileRef{})
}

// RegisterCleanType registers a caller-defined concrete type so values of
// it survive the gob round-trip inside cleaned or extra data.
func RegisterCleanType(v any) {
	gob.Register(v)
}

// EncodeState serializes a wizard state for storage.
func EncodeState(st *api.WizardState) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(st); err != nil {
		return nil, fmt.Errorf("encode wizard state: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeState deserializes a stored wizard state. Empty input yields a
// fresh empty state, matching the Load contract for missing prefixes.
func DecodeState(data []byte) (*api.WizardState, error) {
	if len(data) == 0 {
		return api.NewWizardState(), nil
	}
	st := new(api.WizardState)
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(st); err != nil {
		return nil, fmt.Errorf("decode wizard state: %w", err)
	}
	if st.Steps == nil {
		st.Steps = make(map[api.StepID]api.ValidatedStep)
	}
	if st.Extra == nil {
		st.Extra = make(map[string]any)
	}
	return st, nil
}
