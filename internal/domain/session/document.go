package session

import "reflect"

// Document is a recursively nested key/value bag. Field presence varies
// by product line and channel, so access goes through typed getters
// rather than a fixed struct.
type Document map[string]any

// GetString returns the string at key, or def when absent or not a string.
func (d Document) GetString(key, def string) string {
	if v, ok := d[key].(string); ok {
		return v
	}
	return def
}

// GetFloat returns the number at key, or def when absent. JSON decoding
// yields float64 for all numbers; int values stored in-process are
// converted.
func (d Document) GetFloat(key string, def float64) float64 {
	switch v := d[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

// GetBool returns the bool at key, or def when absent or not a bool.
func (d Document) GetBool(key string, def bool) bool {
	if v, ok := d[key].(bool); ok {
		return v
	}
	return def
}

// GetMap returns the nested document at key, or nil.
func (d Document) GetMap(key string) Document {
	switch v := d[key].(type) {
	case Document:
		return v
	case map[string]any:
		return Document(v)
	}
	return nil
}

// GetSlice returns the list at key, or nil.
func (d Document) GetSlice(key string) []any {
	if v, ok := d[key].([]any); ok {
		return v
	}
	return nil
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Document:
		return t.Clone()
	case map[string]any:
		return Document(t).Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Scrub returns a copy with control characters removed from every string
// leaf, recursively.
func (d Document) Scrub() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = scrubValue(v)
	}
	return out
}

func scrubValue(v any) any {
	switch t := v.(type) {
	case string:
		return ScrubControlChars(t)
	case Document:
		return t.Scrub()
	case map[string]any:
		return Document(t).Scrub()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = scrubValue(e)
		}
		return out
	default:
		return v
	}
}

// FieldCount returns the number of top-level keys with non-empty values.
// Used to decide which side of a merge is more populated.
func (d Document) FieldCount() int {
	n := 0
	for _, v := range d {
		switch t := v.(type) {
		case nil:
			continue
		case string:
			if t == "" {
				continue
			}
		}
		n++
	}
	return n
}

// DeepEqual compares two values as documents, normalizing map types.
func DeepEqual(a, b any) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

func normalize(v any) any {
	switch t := v.(type) {
	case Document:
		return normalizeMap(t)
	case map[string]any:
		return normalizeMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case int:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return v
	}
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}
