package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FieldMap is an ordered set of extracted field values. Every field of the
// schema it was created from is present; an empty string means "not found".
// The zero value is an empty map with no fields.
type FieldMap struct {
	names  []string
	values map[string]string
}

// NewFieldMap returns a FieldMap holding every name with an empty value.
func NewFieldMap(names ...string) *FieldMap {
	fm := &FieldMap{
		names:  make([]string, 0, len(names)),
		values: make(map[string]string, len(names)),
	}
	for _, n := range names {
		if _, ok := fm.values[n]; ok {
			continue
		}
		fm.names = append(fm.names, n)
		fm.values[n] = ""
	}
	return fm
}

// Names returns the field names in schema order.
func (m *FieldMap) Names() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Len returns the number of fields.
func (m *FieldMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.names)
}

// Get returns the value of name, or "" when the field is absent or blank.
func (m *FieldMap) Get(name string) string {
	if m == nil {
		return ""
	}
	return m.values[name]
}

// Has reports whether name is part of the map's schema.
func (m *FieldMap) Has(name string) bool {
	if m == nil {
		return false
	}
	_, ok := m.values[name]
	return ok
}

// Set stores a trimmed value. Names outside the schema are ignored and Set
// reports false.
func (m *FieldMap) Set(name, value string) bool {
	if !m.Has(name) {
		return false
	}
	m.values[name] = strings.TrimSpace(value)
	return true
}

// IsBlank reports whether the field has no extracted value.
func (m *FieldMap) IsBlank(name string) bool {
	return m.Get(name) == ""
}

// Filled returns the number of non-empty fields.
func (m *FieldMap) Filled() int {
	n := 0
	for _, name := range m.Names() {
		if !m.IsBlank(name) {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (m *FieldMap) Clone() *FieldMap {
	if m == nil {
		return nil
	}
	out := NewFieldMap(m.names...)
	for k, v := range m.values {
		out.values[k] = v
	}
	return out
}

// Map returns the values as a plain map.
func (m *FieldMap) Map() map[string]string {
	out := make(map[string]string, m.Len())
	for _, n := range m.Names() {
		out[n] = m.values[n]
	}
	return out
}

// Equal reports whether both maps hold the same fields, order and values.
func (m *FieldMap) Equal(other *FieldMap) bool {
	if m.Len() != other.Len() {
		return false
	}
	for i, n := range m.Names() {
		if other.names[i] != n || other.values[n] != m.values[n] {
			return false
		}
	}
	return true
}

// MarshalJSON writes the fields as a JSON object in schema order.
func (m *FieldMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range m.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.values[n])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object of string values, keeping key order.
func (m *FieldMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("field map: expected object, got %v", tok)
	}
	fm := NewFieldMap()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("field map: expected string key, got %v", tok)
		}
		var val *string
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("field map: value for %q: %w", key, err)
		}
		if _, exists := fm.values[key]; !exists {
			fm.names = append(fm.names, key)
		}
		if val != nil {
			fm.values[key] = *val
		} else {
			fm.values[key] = ""
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = *fm
	return nil
}
