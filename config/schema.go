package config

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// documentSchema is the JSON Schema every config document is checked
// against before unmarshaling. Structural problems (wrong types, unknown
// admission policies, negative quantities) are reported with paths instead
// of surfacing as unmarshal errors deep inside the loader.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "OrderFlow Configuration",
  "type": "object",
  "additionalProperties": false,
  "definitions": {
    "duration": {
      "oneOf": [
        {"type": "string", "pattern": "^[0-9]+(\\.[0-9]+)?(ns|us|µs|ms|s|m|h)([0-9]+(\\.[0-9]+)?(ns|us|µs|ms|s|m|h))*$"},
        {"type": "integer", "minimum": 0}
      ]
    }
  },
  "properties": {
    "pipeline": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string"},
        "queue_capacity": {"type": "integer", "minimum": 0},
        "reserve_workers": {"type": "integer", "minimum": 0},
        "dispatch_workers": {"type": "integer", "minimum": 0},
        "dispatch_queue_size": {"type": "integer", "minimum": 0},
        "await_timeout": {"$ref": "#/definitions/duration"},
        "drain_timeout": {"$ref": "#/definitions/duration"},
        "force_grace": {"$ref": "#/definitions/duration"},
        "admission": {"type": "string", "enum": ["fifo", "priority"]},
        "reserve_retry": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "enabled": {"type": "boolean"},
            "max_attempts": {"type": "integer", "minimum": 0},
            "initial_delay": {"$ref": "#/definitions/duration"},
            "max_delay": {"$ref": "#/definitions/duration"},
            "multiplier": {"type": "number", "minimum": 0},
            "jitter": {"type": "boolean"}
          }
        }
      }
    },
    "resources": {
      "type": "object",
      "additionalProperties": {"type": "integer", "minimum": 0}
    },
    "logging": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "level": {"type": "string", "enum": ["debug", "info", "warn", "error"]},
        "format": {"type": "string", "enum": ["json", "text"]}
      }
    },
    "metrics": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "enabled": {"type": "boolean"},
        "port": {"type": "integer", "minimum": 0, "maximum": 65535},
        "path": {"type": "string"}
      }
    }
  }
}`

// ValidateDocument checks raw config JSON against the embedded schema.
// Returns nil for a structurally valid document; otherwise an error listing
// every violation with its JSON path.
func ValidateDocument(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(documentSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if result.Valid() {
		return nil
	}

	var violations []string
	for _, desc := range result.Errors() {
		violations = append(violations, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return fmt.Errorf("invalid config document:\n  %s", strings.Join(violations, "\n  "))
}
