package dsl

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a serialization of a Document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatHCL  Format = "hcl"
)

// ErrUnsupportedFormat is returned for unknown formats and for HCL output.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// ErrInvalidDocument wraps every parse failure returned by Decode.
var ErrInvalidDocument = errors.New("invalid document")

// FormatFromPath picks the format from a file extension. Unknown
// extensions default to YAML.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".hcl":
		return FormatHCL
	default:
		return FormatYAML
	}
}

// Decode parses a document. name is only used in HCL diagnostics.
func Decode(data []byte, format Format, name string) (*Document, error) {
	var doc Document
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: failed to parse yaml document: %w", ErrInvalidDocument, err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: failed to parse json document: %w", ErrInvalidDocument, err)
		}
	case FormatHCL:
		parsed, err := decodeHCL(data, name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		doc = *parsed
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return &doc, nil
}

// Encode serializes a document as YAML or JSON.
func Encode(doc Document, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		out, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to encode yaml document: %w", err)
		}
		return out, nil
	case FormatJSON:
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode json document: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
