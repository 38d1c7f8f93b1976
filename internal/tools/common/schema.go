package common

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonschema"
)

// AccountPattern is the restricted identifier class accepted for account
// selector fields: lowercase letters, digits, and limited punctuation.
const AccountPattern = `^[a-z0-9@._-]+$`

// FieldKind is the surface type a schema field accepts on the wire.
type FieldKind int

const (
	// KindString accepts only a JSON string. Flexible-list-capable fields
	// are declared KindString on purpose: encoded lists arrive as strings
	// and all list semantics live in NormalizeFlexibleList, keeping the
	// schema stage simple and uniform.
	KindString FieldKind = iota
	// KindBoolean accepts only a JSON boolean.
	KindBoolean
)

// Field declares one accepted argument of a tool.
type Field struct {
	Kind     FieldKind
	Required bool
	// Pattern constrains string values to a regular expression.
	Pattern string
	// FlexibleList marks the field for list normalization after shape
	// validation. Only meaningful for KindString.
	FlexibleList bool
	// Noun supplies error wording for FlexibleList fields.
	Noun ItemNoun
}

// ArgumentSchema validates the surface shape of a tool call's arguments and
// applies flexible-list normalization. Construction compiles the field
// declarations to a JSON Schema once; Validate and Normalize are pure.
type ArgumentSchema struct {
	tool     string
	fields   map[string]Field
	compiled *jsonschema.Schema
	patterns map[string]*regexp.Regexp
}

// NewArgumentSchema compiles an argument schema for the named tool.
func NewArgumentSchema(tool string, fields map[string]Field) (*ArgumentSchema, error) {
	doc, err := schemaDocument(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to build schema for %s: %w", tool, err)
	}

	compiler := jsonschema.NewCompiler()
	compiled, err := compiler.Compile(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema for %s: %w", tool, err)
	}

	patterns := make(map[string]*regexp.Regexp)
	for name, field := range fields {
		if field.Pattern == "" {
			continue
		}
		re, err := regexp.Compile(field.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern for %s.%s: %w", tool, name, err)
		}
		patterns[name] = re
	}

	return &ArgumentSchema{
		tool:     tool,
		fields:   fields,
		compiled: compiled,
		patterns: patterns,
	}, nil
}

// MustArgumentSchema is NewArgumentSchema that panics on error, for schemas
// declared as package variables.
func MustArgumentSchema(tool string, fields map[string]Field) *ArgumentSchema {
	s, err := NewArgumentSchema(tool, fields)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks raw call arguments against the schema. On failure the error
// enumerates the offending field or fields; absent optional fields are valid
// and remain absent.
func (s *ArgumentSchema) Validate(args map[string]interface{}) error {
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("arguments are not serializable: %w", err)
	}

	result := s.compiled.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}

	if details := s.describeViolations(args); len(details) > 0 {
		return fmt.Errorf("invalid arguments: %s", strings.Join(details, "; "))
	}
	return fmt.Errorf("invalid arguments: %v", result.Errors)
}

// Normalize applies flexible-list normalization to every FlexibleList field
// present in args and returns the normalized argument record. Single logical
// values stay strings; encoded lists become []string. The input map is not
// mutated.
func (s *ArgumentSchema) Normalize(args map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(args))
	for k, v := range args {
		out[k] = v
	}

	for name, field := range s.fields {
		if !field.FlexibleList {
			continue
		}
		raw, ok := args[name].(string)
		if !ok {
			continue
		}
		values, isList, err := NormalizeFlexibleList(name, field.Noun, raw)
		if err != nil {
			return nil, err
		}
		if isList {
			out[name] = values
		}
	}

	return out, nil
}

// describeViolations re-walks the declared fields to produce per-field
// messages for a failed validation. The compiled schema stays authoritative;
// this only improves the wording.
func (s *ArgumentSchema) describeViolations(args map[string]interface{}) []string {
	var details []string

	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		field := s.fields[name]
		value, present := args[name]
		if !present {
			if field.Required {
				details = append(details, fmt.Sprintf("%s is required", name))
			}
			continue
		}

		switch field.Kind {
		case KindString:
			str, ok := value.(string)
			if !ok {
				if _, isArray := value.([]interface{}); isArray {
					details = append(details, fmt.Sprintf("%s must be a string, not an array", name))
				} else {
					details = append(details, fmt.Sprintf("%s must be a string", name))
				}
				continue
			}
			if re, hasPattern := s.patterns[name]; hasPattern && !re.MatchString(str) {
				details = append(details, fmt.Sprintf("%s contains invalid characters", name))
			}
		case KindBoolean:
			if _, ok := value.(bool); !ok {
				details = append(details, fmt.Sprintf("%s must be a boolean", name))
			}
		}
	}

	return details
}

// schemaDocument renders the field declarations as a JSON Schema object.
func schemaDocument(fields map[string]Field) ([]byte, error) {
	properties := make(map[string]interface{}, len(fields))
	var required []string

	for name, field := range fields {
		prop := map[string]interface{}{}
		switch field.Kind {
		case KindBoolean:
			prop["type"] = "boolean"
		default:
			prop["type"] = "string"
		}
		if field.Pattern != "" {
			prop["pattern"] = field.Pattern
		}
		properties[name] = prop
		if field.Required {
			required = append(required, name)
		}
	}
	sort.Strings(required)

	doc := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		doc["required"] = required
	}

	return json.Marshal(doc)
}
