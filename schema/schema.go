/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package schema derives tool input schemas from Go struct types.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// reflector is wired with the defaults needed for tool input schemas:
// required fields come from jsonschema tags and the top-level struct is
// expanded inline rather than referenced by definition.
var reflector = jsonschema.Reflector{
	RequiredFromJSONSchemaTags: true,
	ExpandedStruct:             true,
	AllowAdditionalProperties:  true,
	DoNotReference:             true,
}

// Reflect returns the JSON schema for the provided value.
func Reflect(v any) *jsonschema.Schema {
	return reflector.Reflect(v)
}

// Input reflects T and returns the properties map and required field list
// expected by a model tool definition's input schema.
func Input[T any]() (map[string]any, []string, error) {
	var zero T
	s := Reflect(&zero)

	raw, err := json.Marshal(s)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling schema: %w", err)
	}

	var parsed struct {
		Properties map[string]any `json:"properties"`
		Required   []string       `json:"required"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, nil, fmt.Errorf("unmarshaling schema: %w", err)
	}
	return parsed.Properties, parsed.Required, nil
}
