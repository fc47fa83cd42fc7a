package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// loadMappingOverride reads a JSONC custom-mapping override file (comments
// and trailing commas allowed), standardizing it to strict JSON
// before decoding. A missing file is not an error — the override is
// optional — but malformed JSONC is, since an operator who set
// mapping_file clearly meant to supply one.
func loadMappingOverride(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	standardized, err := hujson.Standardize(raw)
	if err != nil {
		return nil, fmt.Errorf("hujson: %w", err)
	}

	var m map[string]string
	if err := json.Unmarshal(standardized, &m); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return m, nil
}
