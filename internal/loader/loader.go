package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"riskline/internal/model"
)

// Load reads a forest of task-call trees from the JSON file produced by the
// extraction pipeline. Both a bare array and a {"trees": [...]} wrapper are
// accepted.
func Load(path string) ([]model.TaskCallsInTree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromJSON(data)
}

// FromJSON parses a forest from raw JSON bytes.
func FromJSON(data []byte) ([]model.TaskCallsInTree, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapper struct {
			Trees []model.TaskCallsInTree `json:"trees"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("invalid trees json: %w", err)
		}
		return wrapper.Trees, nil
	}
	var trees []model.TaskCallsInTree
	if err := json.Unmarshal(trimmed, &trees); err != nil {
		return nil, fmt.Errorf("invalid trees json: %w", err)
	}
	return trees, nil
}
