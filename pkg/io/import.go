package io

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/klauspost/compress/gzip"

	rxrerrors "github.com/matzehuels/rxrprep/pkg/errors"
)

// LineReader reads newline-delimited JSON records from a gzip stream.
// It is not safe for concurrent use.
type LineReader struct {
	name string
	file *os.File
	gz   *gzip.Reader
	br   *bufio.Reader
	line int
	raw  json.RawMessage
	err  error
	done bool
}

// OpenJSONLines opens a gzip-compressed JSON-lines file.
func OpenJSONLines(path string) (*LineReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, rxrerrors.WrapFile(rxrerrors.ErrCodeInvalidInput, err, path)
	}
	r, err := NewLineReader(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.file = f
	return r, nil
}

// NewLineReader wraps r, which must yield gzip-compressed JSON lines.
// name is used in error messages only.
func NewLineReader(r io.Reader, name string) (*LineReader, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, rxrerrors.Wrap(rxrerrors.ErrCodeInvalidInput, err, "decompress %s", name)
	}
	return &LineReader{
		name: name,
		gz:   gz,
		br:   bufio.NewReaderSize(gz, 1<<20),
	}, nil
}

// Next advances to the next record. It returns false at end of stream or on
// the first error; check Err afterwards.
func (r *LineReader) Next() bool {
	for !r.done {
		b, err := r.br.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			r.fail(rxrerrors.Wrap(rxrerrors.ErrCodeInvalidInput, err, "read %s:%d", r.name, r.line+1))
			return false
		}
		if errors.Is(err, io.EOF) {
			r.done = true
		}
		if len(b) == 0 && r.done {
			return false
		}
		r.line++
		b = bytes.TrimSpace(b)
		if len(b) == 0 {
			continue
		}
		if !json.Valid(b) {
			r.fail(rxrerrors.New(rxrerrors.ErrCodeInvalidInput, "%s:%d: invalid JSON", r.name, r.line))
			return false
		}
		r.raw = json.RawMessage(b)
		return true
	}
	return false
}

func (r *LineReader) fail(err error) {
	r.err = err
	r.done = true
	r.raw = nil
}

// Raw returns the current record. The slice is only valid until the next
// call to Next.
func (r *LineReader) Raw() json.RawMessage { return r.raw }

// Line returns the 1-based line number of the current record.
func (r *LineReader) Line() int { return r.line }

// Name returns the name the reader was opened with.
func (r *LineReader) Name() string { return r.name }

// Decode unmarshals the current record into v.
func (r *LineReader) Decode(v any) error {
	if r.raw == nil {
		return rxrerrors.New(rxrerrors.ErrCodeInternal, "decode %s: no current record", r.name)
	}
	if err := json.Unmarshal(r.raw, v); err != nil {
		return rxrerrors.Wrap(rxrerrors.ErrCodeInvalidInput, err, "%s:%d", r.name, r.line)
	}
	return nil
}

// Err returns the first error encountered while reading.
func (r *LineReader) Err() error { return r.err }

// Close releases the gzip stream and the underlying file, if any.
func (r *LineReader) Close() error {
	err := r.gz.Close()
	if r.file != nil {
		if cerr := r.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Line is one record yielded by [JSONLines].
type Line struct {
	Path   string
	Number int
	Raw    json.RawMessage
}

// JSONLines returns a lazy sequence over the records of every path, in order.
// Each file is opened when the sequence reaches it and closed before the next
// one is opened. The sequence stops after yielding the first error.
func JSONLines(paths ...string) iter.Seq2[Line, error] {
	return func(yield func(Line, error) bool) {
		for _, path := range paths {
			if !yieldFile(path, yield) {
				return
			}
		}
	}
}

func yieldFile(path string, yield func(Line, error) bool) bool {
	r, err := OpenJSONLines(path)
	if err != nil {
		yield(Line{Path: path}, err)
		return false
	}
	defer r.Close()

	for r.Next() {
		raw := make(json.RawMessage, len(r.Raw()))
		copy(raw, r.Raw())
		if !yield(Line{Path: path, Number: r.Line(), Raw: raw}, nil) {
			return false
		}
	}
	if err := r.Err(); err != nil {
		yield(Line{Path: path, Number: r.Line()}, err)
		return false
	}
	return true
}

// String implements fmt.Stringer as "path:line".
func (l Line) String() string {
	return fmt.Sprintf("%s:%d", l.Path, l.Number)
}
