// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textgen

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"google.golang.org/genai"
)

// Kind is a JSON value type.
type Kind string

const (
	KindObject  Kind = "object"
	KindArray   Kind = "array"
	KindString  Kind = "string"
	KindBoolean Kind = "boolean"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
)

// Schema describes the JSON shape requested from the model. It covers the
// subset of JSON Schema that both providers accept.
type Schema struct {
	Kind        Kind
	Description string
	Properties  map[string]*Schema
	Required    []string
	Items       *Schema
	Nullable    bool
}

// schemaURL names the in-memory resource each schema is compiled under.
const schemaURL = "schema.json"

// Validate decodes data and checks it against the schema.
func (s *Schema) Validate(data []byte) error {
	compiled, err := s.compile()
	if err != nil {
		return err
	}
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return eris.Wrapf(ErrSchemaViolation, "invalid JSON: %v", err)
	}
	if err := compiled.Validate(v); err != nil {
		return eris.Wrapf(ErrSchemaViolation, "%v", err)
	}
	return nil
}

// compile turns the rendered JSON Schema document into a validator.
func (s *Schema) compile() (*jsonschema.Schema, error) {
	raw, err := json.Marshal(s.JSONSchema())
	if err != nil {
		return nil, eris.Wrap(err, "encoding schema")
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, eris.Wrap(err, "decoding schema")
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, eris.Wrap(err, "adding schema")
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, eris.Wrap(err, "compiling schema")
	}
	return compiled, nil
}

// JSONSchema renders the schema as a JSON Schema document.
func (s *Schema) JSONSchema() map[string]any {
	out := map[string]any{}
	if s.Nullable {
		out["type"] = []string{string(s.Kind), "null"}
	} else {
		out["type"] = string(s.Kind)
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = p.JSONSchema()
		}
		out["properties"] = props
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	if s.Items != nil {
		out["items"] = s.Items.JSONSchema()
	}
	return out
}

// genaiSchema converts the schema to the Gemini SDK representation.
func (s *Schema) genaiSchema() *genai.Schema {
	out := &genai.Schema{
		Type:        genaiType(s.Kind),
		Description: s.Description,
		Required:    s.Required,
	}
	if s.Nullable {
		out.Nullable = genai.Ptr(true)
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		out.PropertyOrdering = sortedKeys(s.Properties)
		for name, p := range s.Properties {
			out.Properties[name] = p.genaiSchema()
		}
	}
	if s.Items != nil {
		out.Items = s.Items.genaiSchema()
	}
	return out
}

func genaiType(k Kind) genai.Type {
	switch k {
	case KindObject:
		return genai.TypeObject
	case KindArray:
		return genai.TypeArray
	case KindBoolean:
		return genai.TypeBoolean
	case KindNumber:
		return genai.TypeNumber
	case KindInteger:
		return genai.TypeInteger
	default:
		return genai.TypeString
	}
}

func sortedKeys(m map[string]*Schema) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
