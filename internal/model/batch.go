package model

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadBatch reads an OptimizeRequest from a YAML (or JSON) file.
func LoadBatch(path string) (*OptimizeRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	return ParseBatch(data)
}

func ParseBatch(data []byte) (*OptimizeRequest, error) {
	var req OptimizeRequest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	return &req, nil
}
