package types

import "fmt"

// FieldType represents the declared type of a schema field.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldInteger FieldType = "integer"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldObject  FieldType = "object"
	FieldArray   FieldType = "array"
)

// FieldSpec declares one field of a schema: its name, type, whether it is
// required, and the constraints checked in declaration order.
type FieldSpec struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`

	// String constraints
	NonEmpty bool `json:"non_empty,omitempty"`

	// Numeric constraints
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`

	// Enum membership (compared after type conversion)
	Enum []any `json:"enum,omitempty"`

	// Default substituted when an optional field is absent
	Default any `json:"default,omitempty"`

	// AllowCoerce accepts silently-coercible mismatches such as a numeric
	// string for a number field. Off by default.
	AllowCoerce bool `json:"allow_coerce,omitempty"`
}

// SchemaDescriptor is a declarative shape: an ordered list of field specs.
// Immutable once constructed and freely shared across parse calls.
type SchemaDescriptor struct {
	Name   string      `json:"name"`
	Fields []FieldSpec `json:"fields"`
}

// NewSchema creates an empty schema descriptor.
func NewSchema(name string) *SchemaDescriptor {
	return &SchemaDescriptor{Name: name}
}

// AddField appends a field spec. Fields are validated in insertion order.
func (s *SchemaDescriptor) AddField(f FieldSpec) *SchemaDescriptor {
	s.Fields = append(s.Fields, f)
	return s
}

// String appends a string field.
func (s *SchemaDescriptor) String(name string, required bool) *SchemaDescriptor {
	return s.AddField(FieldSpec{Name: name, Type: FieldString, Required: required})
}

// NonEmptyString appends a required string field that rejects "".
func (s *SchemaDescriptor) NonEmptyString(name string) *SchemaDescriptor {
	return s.AddField(FieldSpec{Name: name, Type: FieldString, Required: true, NonEmpty: true})
}

// Integer appends an integer field.
func (s *SchemaDescriptor) Integer(name string, required bool) *SchemaDescriptor {
	return s.AddField(FieldSpec{Name: name, Type: FieldInteger, Required: required})
}

// IntegerRange appends an integer field constrained to [min, max].
func (s *SchemaDescriptor) IntegerRange(name string, required bool, min, max float64) *SchemaDescriptor {
	return s.AddField(FieldSpec{Name: name, Type: FieldInteger, Required: required, Minimum: &min, Maximum: &max})
}

// Number appends a floating-point field.
func (s *SchemaDescriptor) Number(name string, required bool) *SchemaDescriptor {
	return s.AddField(FieldSpec{Name: name, Type: FieldNumber, Required: required})
}

// Boolean appends a boolean field.
func (s *SchemaDescriptor) Boolean(name string, required bool) *SchemaDescriptor {
	return s.AddField(FieldSpec{Name: name, Type: FieldBoolean, Required: required})
}

// Enum appends a field whose value must be one of the given members.
func (s *SchemaDescriptor) Enum(name string, typ FieldType, required bool, members ...any) *SchemaDescriptor {
	return s.AddField(FieldSpec{Name: name, Type: typ, Required: required, Enum: members})
}

// WithDefault sets the default of the most recently added field.
func (s *SchemaDescriptor) WithDefault(v any) *SchemaDescriptor {
	if len(s.Fields) > 0 {
		s.Fields[len(s.Fields)-1].Default = v
	}
	return s
}

// WithCoercion enables type coercion on the most recently added field.
func (s *SchemaDescriptor) WithCoercion() *SchemaDescriptor {
	if len(s.Fields) > 0 {
		s.Fields[len(s.Fields)-1].AllowCoerce = true
	}
	return s
}

// Field returns the spec for the named field.
func (s *SchemaDescriptor) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Validate checks the descriptor itself is well formed.
func (s *SchemaDescriptor) Validate() error {
	if len(s.Fields) == 0 {
		return NewError(ErrInvalidSchema, "schema has no fields")
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return NewError(ErrInvalidSchema, "field with empty name")
		}
		if _, dup := seen[f.Name]; dup {
			return NewError(ErrInvalidSchema, fmt.Sprintf("duplicate field %q", f.Name))
		}
		seen[f.Name] = struct{}{}
		switch f.Type {
		case FieldString, FieldInteger, FieldNumber, FieldBoolean, FieldObject, FieldArray:
		default:
			return NewError(ErrInvalidSchema, fmt.Sprintf("field %q has unknown type %q", f.Name, f.Type))
		}
		if f.Minimum != nil && f.Maximum != nil && *f.Minimum > *f.Maximum {
			return NewError(ErrInvalidSchema, fmt.Sprintf("field %q has minimum > maximum", f.Name))
		}
	}
	return nil
}
