package rxr

import (
	"bytes"
	"encoding/json"
	"fmt"

	rxrerrors "github.com/matzehuels/rxrprep/pkg/errors"
	rxrio "github.com/matzehuels/rxrprep/pkg/io"
)

// Record is a JSON object that remembers the order of its fields.
// Setting an existing field replaces its value in place; new fields are
// appended. Parsed values are normalized, so escaped non-ASCII text is
// written back as literal UTF-8.
type Record struct {
	keys   []string
	fields map[string]json.RawMessage
}

// ParseRecord decodes a JSON object.
func ParseRecord(raw []byte) (*Record, error) {
	r := &Record{}
	if err := r.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return r, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Record) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return rxrerrors.Wrap(rxrerrors.ErrCodeInvalidRecord, err, "decode record")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return rxrerrors.New(rxrerrors.ErrCodeInvalidRecord, "decode record: expected object, got %v", tok)
	}

	r.keys = r.keys[:0]
	r.fields = make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return rxrerrors.Wrap(rxrerrors.ErrCodeInvalidRecord, err, "decode record")
		}
		key, ok := tok.(string)
		if !ok {
			return rxrerrors.New(rxrerrors.ErrCodeInvalidRecord, "decode record: expected key, got %v", tok)
		}
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return rxrerrors.Wrap(rxrerrors.ErrCodeInvalidRecord, err, "decode record field %q", key)
		}
		norm, err := rxrio.Normalize(val)
		if err != nil {
			return rxrerrors.Wrap(rxrerrors.ErrCodeInvalidRecord, err, "decode record field %q", key)
		}
		r.put(key, norm)
	}
	if _, err := dec.Token(); err != nil {
		return rxrerrors.Wrap(rxrerrors.ErrCodeInvalidRecord, err, "decode record")
	}
	return nil
}

// MarshalJSON implements json.Marshaler. Fields are written in order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encode(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(r.fields[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Keys returns the field names in order.
func (r *Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Set encodes v and stores it under key.
func (r *Record) Set(key string, v any) error {
	b, err := encode(v)
	if err != nil {
		return rxrerrors.Wrap(rxrerrors.ErrCodeInternal, err, "encode field %q", key)
	}
	r.put(key, b)
	return nil
}

func (r *Record) put(key string, val json.RawMessage) {
	if r.fields == nil {
		r.fields = make(map[string]json.RawMessage)
	}
	if _, ok := r.fields[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.fields[key] = val
}

// encode marshals v without HTML escaping.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
