package io

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	rxrerrors "github.com/matzehuels/rxrprep/pkg/errors"
)

// frame is one open object or array while re-encoding.
type frame struct {
	object    bool
	count     int
	expectKey bool
}

// Normalize re-encodes one JSON value so that string escapes such as \u0938
// become literal UTF-8 and HTML characters stay unescaped. Object key order
// and the text of numbers are kept as written, so 0.0 stays 0.0.
func Normalize(raw []byte) (json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var (
		out   bytes.Buffer
		stack []*frame
		done  bool
	)
	// value writes the separator due before a value at the current position.
	value := func() {
		if len(stack) == 0 {
			return
		}
		top := stack[len(stack)-1]
		if top.object {
			top.expectKey = true
			top.count++
			return
		}
		if top.count > 0 {
			out.WriteByte(',')
		}
		top.count++
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, rxrerrors.Wrap(rxrerrors.ErrCodeInvalidInput, err, "invalid JSON")
		}
		if done {
			return nil, rxrerrors.New(rxrerrors.ErrCodeInvalidInput, "invalid JSON: trailing data after value")
		}

		if len(stack) > 0 {
			if top := stack[len(stack)-1]; top.object && top.expectKey {
				if d, ok := tok.(json.Delim); !ok || d != '}' {
					if top.count > 0 {
						out.WriteByte(',')
					}
					if err := writeString(&out, tok.(string)); err != nil {
						return nil, err
					}
					out.WriteByte(':')
					top.expectKey = false
					continue
				}
			}
		}

		switch t := tok.(type) {
		case json.Delim:
			switch t {
			case '{', '[':
				value()
				stack = append(stack, &frame{object: t == '{', expectKey: t == '{'})
			default:
				stack = stack[:len(stack)-1]
			}
			out.WriteByte(byte(t))
		case string:
			value()
			if err := writeString(&out, t); err != nil {
				return nil, err
			}
		case json.Number:
			value()
			out.WriteString(t.String())
		case bool:
			value()
			if t {
				out.WriteString("true")
			} else {
				out.WriteString("false")
			}
		case nil:
			value()
			out.WriteString("null")
		}
		done = len(stack) == 0
	}
	if !done {
		return nil, rxrerrors.New(rxrerrors.ErrCodeInvalidInput, "invalid JSON: no value")
	}
	return out.Bytes(), nil
}

func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return rxrerrors.Wrap(rxrerrors.ErrCodeInternal, err, "encode string")
	}
	buf.Truncate(buf.Len() - 1) // Encode appends a newline
	return nil
}
