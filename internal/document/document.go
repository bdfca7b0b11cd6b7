package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/config-composer/internal/compose"
)

// Format identifies a configuration document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

var (
	// ErrUnsupportedFormat is returned for encodings other than YAML, JSON and TOML.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrInvalidAssignment is returned when a key=value assignment cannot be parsed.
	ErrInvalidAssignment = errors.New("assignment must have the form key=value")
)

// ParseFormat maps a user-supplied name (case-insensitive, "yml" accepted) to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// FormatFromPath picks the Format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

// Decode parses data into an untyped document. Mappings are returned as
// map[string]any regardless of encoding. An empty input decodes to nil.
func Decode(data []byte, format Format) (any, error) {
	var doc any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	case FormatJSON:
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, nil
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
	case FormatTOML:
		var table map[string]any
		if _, err := toml.Decode(string(data), &table); err != nil {
			return nil, fmt.Errorf("parse TOML: %w", err)
		}
		doc = tomlToDocument(table)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return compose.Clone(doc), nil
}

// DecodeMapping decodes data and requires the top-level value to be a mapping.
func DecodeMapping(data []byte, format Format) (map[string]any, error) {
	doc, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top-level %s value is %T", compose.ErrInvalidInput, format, doc)
	}
	return m, nil
}

// ReadFile loads a document from disk, choosing the decoder from the file extension.
func ReadFile(path string) (any, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Decode(data, format)
}

// ReadMappingFile is ReadFile for documents whose top level must be a mapping.
func ReadMappingFile(path string) (map[string]any, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return DecodeMapping(data, format)
}

// Encode renders doc in the given format. Mapping keys are emitted in sorted order.
func Encode(doc any, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode YAML: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON:
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode JSON: %w", err)
		}
		return append(out, '\n'), nil
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
			return nil, fmt.Errorf("encode TOML: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// ParseAssignment splits "key=value" and decodes value as a YAML scalar or
// flow collection, so "75" yields an int, "true" a bool and "[a, b]" a list.
func ParseAssignment(raw string) (string, any, error) {
	key, rawValue, ok := strings.Cut(raw, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidAssignment, raw)
	}

	var value any
	if err := yaml.Unmarshal([]byte(rawValue), &value); err != nil {
		return "", nil, fmt.Errorf("%w: value of %s: %v", ErrInvalidAssignment, key, err)
	}
	return key, compose.Clone(value), nil
}

// Assignments folds a list of key=value strings into an override set.
func Assignments(raw []string) (map[string]any, error) {
	out := make(map[string]any, len(raw))
	for _, item := range raw {
		key, value, err := ParseAssignment(item)
		if err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, nil
}

// tomlToDocument converts the []map[string]any produced for arrays of tables
// into []any so the rest of the pipeline sees a single list type.
func tomlToDocument(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, elem := range v {
			out[key] = tomlToDocument(elem)
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = tomlToDocument(elem)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = tomlToDocument(elem)
		}
		return out
	default:
		return v
	}
}
