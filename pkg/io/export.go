package io

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	rxrerrors "github.com/matzehuels/rxrprep/pkg/errors"
)

// WriteJSON encodes v as two-space indented JSON and writes it to w.
// Non-ASCII and HTML characters are written literally.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return rxrerrors.Wrap(rxrerrors.ErrCodeInternal, err, "encode")
	}
	return nil
}

// ExportJSON writes v to path as indented JSON, replacing any existing file.
// The value is fully encoded before the destination is touched, and the file
// is swapped in with a rename, so an error leaves the destination unchanged.
func ExportJSON(path string, v any) error {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, v); err != nil {
		return err
	}
	return writeAtomic(path, buf.Bytes())
}

func writeAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return rxrerrors.WrapFile(rxrerrors.ErrCodeInvalidInput, err, dir)
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, 0o644)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return rxrerrors.Wrap(rxrerrors.ErrCodeInternal, err, "write %s", dest)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return rxrerrors.Wrap(rxrerrors.ErrCodeInternal, err, "sync %s", dest)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return rxrerrors.Wrap(rxrerrors.ErrCodeInternal, err, "close %s", dest)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return rxrerrors.Wrap(rxrerrors.ErrCodeInternal, err, "rename %s", dest)
	}
	return nil
}
