// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.yaml.in/yaml/v3"
)

// TriState is a boolean that may also be unknown. The zero value is Unknown.
type TriState int8

const (
	Unknown TriState = iota
	True
	False
)

// TriStateOf converts a bool to a known TriState.
func TriStateOf(b bool) TriState {
	if b {
		return True
	}
	return False
}

// Known reports whether the value is True or False.
func (t TriState) Known() bool { return t == True || t == False }

// Bool returns the boolean value and whether it is known.
func (t TriState) Bool() (value, ok bool) {
	return t == True, t.Known()
}

// String returns "yes", "no" or "unknown".
func (t TriState) String() string {
	switch t {
	case True:
		return "yes"
	case False:
		return "no"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes Unknown as null and known values as booleans.
func (t TriState) MarshalJSON() ([]byte, error) {
	if !t.Known() {
		return []byte("null"), nil
	}
	return json.Marshal(t == True)
}

// UnmarshalJSON accepts true, false or null.
func (t *TriState) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Unknown
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return eris.Wrapf(err, "tri-state value %s", string(data))
	}
	*t = TriStateOf(b)
	return nil
}

// MarshalYAML encodes Unknown as null and known values as booleans.
func (t TriState) MarshalYAML() (any, error) {
	if !t.Known() {
		return nil, nil
	}
	return t == True, nil
}

// UnmarshalYAML accepts true, false, null or an empty value.
func (t *TriState) UnmarshalYAML(value *yaml.Node) error {
	if value.Tag == "!!null" || value.Value == "" {
		*t = Unknown
		return nil
	}
	var b bool
	if err := value.Decode(&b); err != nil {
		return eris.Wrapf(err, "tri-state value %q", value.Value)
	}
	*t = TriStateOf(b)
	return nil
}
