package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Validator checks raw model output against a response schema.
// Compiled schemas are cached by name; every schema name in this
// program maps to exactly one shape.
type Validator struct {
	mu       sync.Mutex
	compiled map[string]*jsonschema.Schema
}

// NewValidator creates an empty validator.
func NewValidator() *Validator {
	return &Validator{compiled: make(map[string]*jsonschema.Schema)}
}

// Validate returns nil if raw structurally conforms to the schema.
func (v *Validator) Validate(s *JSONSchema, raw json.RawMessage) error {
	sch, err := v.schemaFor(s)
	if err != nil {
		return err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("response is not valid JSON: %w", err)
	}

	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("response does not conform to schema %q: %w", s.Name, err)
	}
	return nil
}

func (v *Validator) schemaFor(s *JSONSchema) (*jsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if sch, ok := v.compiled[s.Name]; ok {
		return sch, nil
	}

	// Round-trip through JSON so the compiler sees canonical types.
	data, err := json.Marshal(s.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema %q: %w", s.Name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema %q: %w", s.Name, err)
	}

	c := jsonschema.NewCompiler()
	resource := s.Name + ".json"
	if err := c.AddResource(resource, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	sch, err := c.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("compile schema %q: %w", s.Name, err)
	}

	v.compiled[s.Name] = sch
	return sch, nil
}

// ExtractJSON pulls the outermost JSON object out of model output that
// may be wrapped in markdown fences or surrounded by prose.
func ExtractJSON(text string) (json.RawMessage, error) {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx >= 0 {
			text = text[idx+1:]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return nil, fmt.Errorf("no JSON object in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				depth++
			}
		case '}', ']':
			if !inString {
				depth--
				if depth == 0 {
					candidate := text[start : i+1]
					if !json.Valid([]byte(candidate)) {
						return nil, fmt.Errorf("malformed JSON in response")
					}
					return json.RawMessage(candidate), nil
				}
			}
		}
	}

	return nil, fmt.Errorf("unterminated JSON in response")
}
