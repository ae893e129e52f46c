// Package io reads and writes the file formats shared by the rxrprep tools.
//
// # Import
//
// RxR annotations ship as gzip-compressed JSON lines ("jsonl.gz"): one JSON
// object per line, one file per split. [OpenJSONLines] opens such a file and
// returns a [LineReader] that yields one raw record at a time:
//
//	r, err := io.OpenJSONLines("rxr_val_seen_guide.jsonl.gz")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//	for r.Next() {
//	    var rec map[string]any
//	    if err := r.Decode(&rec); err != nil {
//	        return err
//	    }
//	}
//	if err := r.Err(); err != nil {
//	    return err
//	}
//
// The reader is single pass. Restarting means reopening the file. Blank lines
// are skipped; any other line that is not valid JSON stops the iteration with
// an error that names the file and line number.
//
// [JSONLines] chains several files into one lazy sequence.
//
// # Export
//
// [WriteJSON] encodes a value as pretty-printed JSON (two-space indent) with
// non-ASCII and HTML characters written literally. [ExportJSON] does the same
// into a file, writing to a temporary sibling first and renaming it into
// place, so a failed export never leaves a partial file behind.
package io
