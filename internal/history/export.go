// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"go.yaml.in/yaml/v3"
)

// Export formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Export writes runs to w as a YAML or JSON list.
func Export(w io.Writer, runs []Run, format string) error {
	if runs == nil {
		runs = []Run{}
	}
	switch strings.ToLower(format) {
	case FormatYAML, "yml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(runs); err != nil {
			return eris.Wrap(err, "encoding YAML")
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(runs); err != nil {
			return eris.Wrap(err, "encoding JSON")
		}
		return nil
	default:
		return eris.Errorf("unsupported export format %q", format)
	}
}
