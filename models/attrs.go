package models

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// AttributeSet stores the dynamic attributes of a resource as ingested from
// service payloads. Keys are normalized on ingest and the set round-trips to
// the transport representation the service expects.
type AttributeSet struct {
	values map[string]any
}

// NormalizeKey applies the ingest rename rules to a payload key: a leading
// "id_" prefix is stripped, the protected "uri" and "class" keys are mapped
// to their internal spellings, and keys starting with an underscore are
// reserved (the empty string is returned for them).
func NormalizeKey(key string) string {
	key = strings.TrimPrefix(key, "id_")
	if key == "uri" {
		key = "uri_"
	}
	if strings.HasPrefix(key, "_") {
		return ""
	}
	if key == "class" {
		key = "class_"
	}
	return key
}

func (s *AttributeSet) init() {
	if s.values == nil {
		s.values = make(map[string]any)
	}
}

// Populate merges a payload into the set, applying the normalization rules
// to every key. Reserved keys are dropped, existing values are overwritten
// and a nil or empty payload leaves the set untouched. Applying the same
// payload twice yields the same set as applying it once.
func (s *AttributeSet) Populate(attributes map[string]any) {
	if len(attributes) == 0 {
		return
	}
	s.init()
	for key, value := range attributes {
		key = NormalizeKey(key)
		if key == "" {
			continue
		}
		s.values[key] = value
	}
}

// Set stores a single attribute without normalization.
func (s *AttributeSet) Set(key string, value any) {
	s.init()
	s.values[key] = value
}

// Get returns the raw attribute value.
func (s *AttributeSet) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Delete removes an attribute from the set.
func (s *AttributeSet) Delete(key string) {
	delete(s.values, key)
}

// Len returns the number of stored attributes.
func (s *AttributeSet) Len() int {
	return len(s.values)
}

// Keys returns the stored attribute names in sorted order.
func (s *AttributeSet) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns the attribute as a string.
func (s *AttributeSet) String(key string) (string, bool) {
	v, ok := s.values[key]
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

func coerceInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// Int64 returns the attribute as an int64. JSON numbers decode as float64
// and some service payloads carry numeric identifiers as strings, so both
// are coerced.
func (s *AttributeSet) Int64(key string) (int64, bool) {
	v, ok := s.values[key]
	if !ok || v == nil {
		return 0, false
	}
	return coerceInt64(v)
}

// Float64 returns the attribute as a float64.
func (s *AttributeSet) Float64(key string) (float64, bool) {
	v, ok := s.values[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Bool returns the attribute as a bool.
func (s *AttributeSet) Bool(key string) (bool, bool) {
	v, ok := s.values[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Slice returns the attribute as a []any.
func (s *AttributeSet) Slice(key string) ([]any, bool) {
	v, ok := s.values[key]
	if !ok {
		return nil, false
	}
	sl, ok := v.([]any)
	return sl, ok
}

// Int64s returns the attribute as a slice of int64, coercing each element
// the way Int64 does. A scalar value yields a one-element slice.
func (s *AttributeSet) Int64s(key string) ([]int64, bool) {
	v, ok := s.values[key]
	if !ok || v == nil {
		return nil, false
	}
	elems, ok := v.([]any)
	if !ok {
		elems = []any{v}
	}
	out := make([]int64, 0, len(elems))
	for _, e := range elems {
		n, ok := coerceInt64(e)
		if !ok {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

// Snapshot returns a shallow copy of the stored attributes.
func (s *AttributeSet) Snapshot() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Transport returns the projection of the set sent to the service: nil
// values and reserved keys are dropped and the protected "uri" key is
// restored to its wire spelling.
func (s *AttributeSet) Transport() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		if v == nil || strings.HasPrefix(k, "_") {
			continue
		}
		out[k] = v
	}
	if u, ok := out["uri_"]; ok {
		delete(out, "uri_")
		out["uri"] = u
	}
	return out
}

// MarshalJSON encodes the transport projection of the set.
func (s *AttributeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Transport())
}

// UnmarshalJSON decodes a payload and populates the set with it, applying
// the normalization rules.
func (s *AttributeSet) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Populate(raw)
	return nil
}
