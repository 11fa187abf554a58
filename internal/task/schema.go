package task

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Kind is the JSON-shaped type a schema field accepts.
type Kind string

const (
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
	KindList   Kind = "list"
	KindObject Kind = "object"
)

// Field is one declared field of a task's output schema.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
}

// Schema is the JSON-shaped output contract of a task. Backend payloads are
// validated against it before decoding; a violation is treated uniformly as
// a backend failure, never surfaced to the caller.
type Schema struct {
	Fields []Field
}

// Validate checks the raw payload against the schema. Unknown extra fields
// are tolerated (models pad their answers); missing required fields and
// kind mismatches are not.
func (s Schema) Validate(raw map[string]any) error {
	if raw == nil {
		return fmt.Errorf("%w: empty payload", ErrBackendInvalidOutput)
	}
	for _, f := range s.Fields {
		v, ok := raw[f.Name]
		if !ok || v == nil {
			if f.Required {
				return fmt.Errorf("%w: missing required field %q", ErrBackendInvalidOutput, f.Name)
			}
			continue
		}
		if err := checkKind(f.Name, f.Kind, v); err != nil {
			return err
		}
	}
	return nil
}

func checkKind(name string, kind Kind, v any) error {
	ok := false
	switch kind {
	case KindString:
		_, ok = v.(string)
	case KindNumber:
		switch v.(type) {
		case float64, float32, int, int64:
			ok = true
		}
	case KindBool:
		_, ok = v.(bool)
	case KindList:
		_, ok = v.([]any)
	case KindObject:
		_, ok = v.(map[string]any)
	}
	if !ok {
		return fmt.Errorf("%w: field %q is not a %s", ErrBackendInvalidOutput, name, kind)
	}
	return nil
}

// decodeAs maps a schema-valid raw payload into the task's typed output.
// Weak typing tolerates the usual model sloppiness (numbers as strings,
// single values where lists are expected).
func decodeAs[T any](raw map[string]any) (*T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendInvalidOutput, err)
	}
	return &out, nil
}
