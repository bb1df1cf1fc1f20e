package utils

import (
	"encoding/json"
	"fmt"
	"io"
)

func ParseJSON(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

// DecodeJSON decodes exactly one JSON value from r and rejects trailing data.
func DecodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("failed to parse JSON: unexpected data after top-level value")
	}
	return nil
}

func SerializeJSON(data any) ([]byte, error) {
	value, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return value, err
}
