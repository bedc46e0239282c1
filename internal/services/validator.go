package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrValidation can be used with errors.Is to detect request validation failures.
var ErrValidation = errors.New("validation failed")

const requirementsSchemaID = "https://studioloop.dev/schemas/task-requirements.json"

const requirementsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "skills": {
      "type": "array",
      "maxItems": 20,
      "items": {"type": "string", "minLength": 1, "maxLength": 64}
    },
    "deliverables": {
      "type": "array",
      "maxItems": 50,
      "items": {"type": "string", "minLength": 1, "maxLength": 200}
    },
    "notes": {"type": "string", "maxLength": 5000}
  }
}`

// Requirements is the structured requirements object attached to a task.
// Keys other than these are kept in the stored JSON but not read.
type Requirements struct {
	Skills       []string `json:"skills,omitempty"`
	Deliverables []string `json:"deliverables,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

// Validator checks free-form JSON task fields against compiled schemas.
type Validator struct {
	requirements *jsonschema.Schema
}

// NewValidator compiles the embedded requirements schema.
func NewValidator() (*Validator, error) {
	schema, err := jsonschema.CompileString(requirementsSchemaID, requirementsSchema)
	if err != nil {
		return nil, fmt.Errorf("compile requirements schema: %w", err)
	}
	return &Validator{requirements: schema}, nil
}

// ValidateRequirements performs hard reject on a malformed requirements object
// and returns it decoded. Empty input yields an empty Requirements.
func (v *Validator) ValidateRequirements(raw json.RawMessage) (*Requirements, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return &Requirements{}, nil
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: requirements is not valid JSON: %v", ErrValidation, err)
	}
	if err := v.requirements.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	var req Requirements
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return &req, nil
}
