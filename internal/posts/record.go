package posts

import (
	"bytes"
	"encoding/json"
	"slices"
	"time"
)

// Record is a post's requested fields in request order. Values keep the type
// the frontmatter decoder produced: string, int, float64, bool, time.Time,
// []any, map[string]any or nil.
type Record struct {
	keys   []string
	values map[string]any
}

func NewRecord() *Record {
	return &Record{values: map[string]any{}}
}

// Set stores v under key. Re-setting a key keeps its original position.
func (r *Record) Set(key string, v any) {
	if r.values == nil {
		r.values = map[string]any{}
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Delete removes key, if present.
func (r *Record) Delete(key string) {
	if _, ok := r.values[key]; !ok {
		return
	}
	delete(r.values, key)
	r.keys = slices.DeleteFunc(r.keys, func(k string) bool { return k == key })
}

func (r *Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

func (r *Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

func (r *Record) Len() int {
	return len(r.keys)
}

// Map returns an unordered copy of the record.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for k, v := range r.values {
		m[k] = v
	}
	return m
}

// String returns the value under key if it is a string.
func (r *Record) String(key string) string {
	s, _ := r.values[key].(string)
	return s
}

// Bool returns the value under key if it is a bool.
func (r *Record) Bool(key string) bool {
	b, _ := r.values[key].(bool)
	return b
}

// Time interprets the value under key as a date. YAML timestamps arrive as
// time.Time; quoted strings in RFC 3339 or YYYY-MM-DD form are parsed too.
func (r *Record) Time(key string) (time.Time, bool) {
	switch v := r.values[key].(type) {
	case time.Time:
		return v, true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// Slug returns the record's slug field.
func (r *Record) Slug() string {
	return r.String(FieldSlug)
}

// MarshalJSON encodes the record as a JSON object with keys in order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
