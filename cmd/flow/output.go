package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
)

// writeOutput renders v as indented JSON, or as sorted key/value lines when
// v is a map and format is text.
func writeOutput(w io.Writer, format string, v any) error {
	if m, ok := v.(map[string]any); ok && format == "text" {
		for _, key := range slices.Sorted(maps.Keys(m)) {
			if _, err := fmt.Fprintf(w, "%s: %v\n", key, m[key]); err != nil {
				return err
			}
		}
		return nil
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
