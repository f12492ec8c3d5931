package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/allot/internal/canonical"
)

// marshalAllocations converts leaf amounts to canonical JSON TEXT for storage.
func marshalAllocations(allocations map[string]int64) (string, error) {
	if allocations == nil {
		allocations = map[string]int64{}
	}
	data, err := canonical.Marshal(allocations)
	if err != nil {
		return "", fmt.Errorf("marshal allocations: %w", err)
	}
	return string(data), nil
}

// marshalPercentages converts leaf percentages to JSON TEXT.
// Canonical JSON forbids floats, so this uses json.Encoder, which sorts map
// keys, with HTML escaping disabled.
func marshalPercentages(percentages map[string]float64) (string, error) {
	if percentages == nil {
		percentages = map[string]float64{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(percentages); err != nil {
		return "", fmt.Errorf("marshal percentages: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func unmarshalAllocations(data string) (map[string]int64, error) {
	out := map[string]int64{}
	if data == "" || data == "{}" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal allocations: %w", err)
	}
	return out, nil
}

func unmarshalPercentages(data string) (map[string]float64, error) {
	out := map[string]float64{}
	if data == "" || data == "{}" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal percentages: %w", err)
	}
	return out, nil
}
