package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const (
	formatYAML = "yaml"
	formatJSON = "json"
)

// encode writes v in the requested format. YAML output goes through the
// JSON form first so field names match the API and the stored documents.
func encode(w io.Writer, v any, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (use yaml or json)", format)
	}
}

// decode reads a document written by encode into dst.
func decode(r io.Reader, dst any, format string) error {
	switch format {
	case formatJSON:
		return json.NewDecoder(r).Decode(dst)
	case formatYAML:
		var generic any
		if err := yaml.NewDecoder(r).Decode(&generic); err != nil {
			return err
		}
		raw, err := json.Marshal(generic)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, dst)
	default:
		return fmt.Errorf("unknown format %q (use yaml or json)", format)
	}
}

// encodeLine writes v as a single JSON line.
func encodeLine(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}
