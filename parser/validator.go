package parser

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/souschef-ai/souschef/types"
)

// Validator checks a decoded candidate value against a SchemaDescriptor and
// produces a ParsedRecord or a precise validation error. It has no state.
type Validator struct{}

// NewValidator creates a schema validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks candidate against schema.
//
// Required-absent and type mismatches error naming the field; constraints
// are applied in declaration order, stopping at the first violation.
// Unknown candidate fields are ignored for forward compatibility. The
// returned record carries exactly the declared fields, with defaults
// substituted for absent optional ones.
func (v *Validator) Validate(candidate any, schema *types.SchemaDescriptor) (*types.ParsedRecord, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	obj, ok := candidate.(map[string]any)
	if !ok {
		return nil, types.NewValidationError("", fmt.Sprintf("expected object, got %T", candidate))
	}

	out := make(map[string]any, len(schema.Fields))
	for _, f := range schema.Fields {
		raw, present := obj[f.Name]
		if !present || raw == nil {
			if f.Required {
				return nil, types.NewValidationError(f.Name, "required field absent")
			}
			if f.Default != nil {
				out[f.Name] = f.Default
			}
			continue
		}

		val, err := convertValue(raw, f)
		if err != nil {
			return nil, err
		}
		if err := checkConstraints(val, f); err != nil {
			return nil, err
		}
		out[f.Name] = val
	}

	return &types.ParsedRecord{Fields: out}, nil
}

// convertValue type-checks raw against the field spec. Coercible mismatches
// (numeric string for a number field, float with integral value for an
// integer field) are rejected unless the spec opts in.
func convertValue(raw any, f types.FieldSpec) (any, error) {
	switch f.Type {
	case types.FieldString:
		if s, ok := raw.(string); ok {
			return s, nil
		}
		if f.AllowCoerce {
			switch n := raw.(type) {
			case json.Number:
				return n.String(), nil
			case bool:
				return strconv.FormatBool(n), nil
			}
		}
		return nil, typeError(f.Name, "string", raw)

	case types.FieldInteger:
		switch n := raw.(type) {
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return i, nil
			}
			// A float-shaped number only passes when integral and coercion
			// is allowed.
			if f.AllowCoerce {
				if fv, err := n.Float64(); err == nil && fv == math.Trunc(fv) {
					return int64(fv), nil
				}
			}
			return nil, types.NewValidationError(f.Name, fmt.Sprintf("expected integer, got %s", n.String()))
		case float64:
			if n == math.Trunc(n) {
				return int64(n), nil
			}
			return nil, types.NewValidationError(f.Name, fmt.Sprintf("expected integer, got %v", n))
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		case string:
			if f.AllowCoerce {
				if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
					return i, nil
				}
			}
			return nil, typeError(f.Name, "integer", raw)
		}
		return nil, typeError(f.Name, "integer", raw)

	case types.FieldNumber:
		switch n := raw.(type) {
		case json.Number:
			fv, err := n.Float64()
			if err != nil {
				return nil, typeError(f.Name, "number", raw)
			}
			return fv, nil
		case float64:
			return n, nil
		case int64:
			return float64(n), nil
		case int:
			return float64(n), nil
		case string:
			if f.AllowCoerce {
				if fv, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
					return fv, nil
				}
			}
			return nil, typeError(f.Name, "number", raw)
		}
		return nil, typeError(f.Name, "number", raw)

	case types.FieldBoolean:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
		if f.AllowCoerce {
			if s, ok := raw.(string); ok {
				if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
					return b, nil
				}
			}
		}
		return nil, typeError(f.Name, "boolean", raw)

	case types.FieldObject:
		if m, ok := raw.(map[string]any); ok {
			return m, nil
		}
		return nil, typeError(f.Name, "object", raw)

	case types.FieldArray:
		if a, ok := raw.([]any); ok {
			return a, nil
		}
		return nil, typeError(f.Name, "array", raw)
	}
	return nil, types.NewValidationError(f.Name, fmt.Sprintf("unknown field type %q", f.Type))
}

// checkConstraints applies range, non-emptiness, and enum membership in
// that order.
func checkConstraints(val any, f types.FieldSpec) error {
	if f.NonEmpty {
		if s, ok := val.(string); ok && strings.TrimSpace(s) == "" {
			return types.NewValidationError(f.Name, "must not be empty")
		}
	}

	if f.Minimum != nil || f.Maximum != nil {
		fv, ok := asFloat(val)
		if ok {
			if f.Minimum != nil && fv < *f.Minimum {
				return types.NewValidationError(f.Name, fmt.Sprintf("%v below minimum %v", fv, *f.Minimum))
			}
			if f.Maximum != nil && fv > *f.Maximum {
				return types.NewValidationError(f.Name, fmt.Sprintf("%v above maximum %v", fv, *f.Maximum))
			}
		}
	}

	if len(f.Enum) > 0 {
		for _, member := range f.Enum {
			if enumEqual(val, member) {
				return nil
			}
		}
		return types.NewValidationError(f.Name, fmt.Sprintf("%v not in enum %v", val, f.Enum))
	}
	return nil
}

func asFloat(val any) (float64, bool) {
	switch n := val.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// enumEqual compares a converted value with a declared enum member,
// tolerating the int/int64/float64 spellings Go literals produce.
func enumEqual(val, member any) bool {
	if val == member {
		return true
	}
	vf, vok := asFloat(val)
	switch m := member.(type) {
	case int:
		return vok && vf == float64(m)
	case int64:
		return vok && vf == float64(m)
	case float64:
		return vok && vf == m
	}
	return false
}

func typeError(field, want string, got any) *types.Error {
	return types.NewValidationError(field, fmt.Sprintf("expected %s, got %T", want, got))
}
