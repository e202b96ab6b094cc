package types

import "encoding/json"

// Confidence tags how much recovery was needed to produce a record.
type Confidence string

const (
	// ConfidenceExact means the payload decoded on the first strategy with
	// no repair.
	ConfidenceExact Confidence = "exact"
	// ConfidenceRepaired means extraction, textual repair, or partial
	// decoding was needed.
	ConfidenceRepaired Confidence = "repaired"
)

// ParsedRecord is a typed, schema-validated extraction result. It carries
// exactly the declared fields; the parser keeps no reference after return.
type ParsedRecord struct {
	Fields     map[string]any `json:"fields"`
	Strategy   int            `json:"strategy"` // recovery strategy index, 0..4
	Confidence Confidence     `json:"confidence"`
}

// Get returns the named field value.
func (r *ParsedRecord) Get(name string) (any, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// GetString returns the named field as a string, or "" if absent or not a
// string.
func (r *ParsedRecord) GetString(name string) string {
	if v, ok := r.Fields[name].(string); ok {
		return v
	}
	return ""
}

// GetInt returns the named field as an int64. Validated integer fields are
// stored as int64.
func (r *ParsedRecord) GetInt(name string) (int64, bool) {
	switch v := r.Fields[name].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	}
	return 0, false
}

// GetFloat returns the named field as a float64.
func (r *ParsedRecord) GetFloat(name string) (float64, bool) {
	switch v := r.Fields[name].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// GetBool returns the named field as a bool.
func (r *ParsedRecord) GetBool(name string) (bool, bool) {
	v, ok := r.Fields[name].(bool)
	return v, ok
}

// Marshal serializes the record with its metadata so cache levels can
// round-trip it.
func (r *ParsedRecord) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
