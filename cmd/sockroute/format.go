package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatHuman OutputFormat = "human"
	FormatJSON  OutputFormat = "json"
	FormatTOML  OutputFormat = "toml"
	FormatYAML  OutputFormat = "yaml"
)

// parseFormat validates a --format value.
func parseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case FormatHuman, FormatJSON, FormatTOML, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (valid: human, json, toml, yaml)", s)
	}
}

// encode renders v as JSON, TOML or YAML. TOML and YAML go through the
// JSON form so that field names match the config file.
func encode(v any, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return string(data) + "\n", nil
	case FormatTOML:
		m, err := toPlainMap(v)
		if err != nil {
			return "", err
		}
		data, err := toml.Marshal(m)
		if err != nil {
			return "", fmt.Errorf("failed to marshal TOML: %w", err)
		}
		return string(data), nil
	case FormatYAML:
		m, err := toPlainMap(v)
		if err != nil {
			return "", err
		}
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return "", fmt.Errorf("failed to marshal YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return "", err
		}
		return buf.String(), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// toPlainMap converts v to nested maps keyed by JSON field names. Whole
// numbers come back as int64 rather than float64.
func toPlainMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal: %w", err)
	}
	return integralize(m).(map[string]any), nil
}

func integralize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, val := range x {
			x[k] = integralize(val)
		}
		return x
	case []any:
		for i, val := range x {
			x[i] = integralize(val)
		}
		return x
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return int64(x)
		}
		return x
	default:
		return v
	}
}
