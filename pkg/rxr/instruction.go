package rxr

import (
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	rxrerrors "github.com/matzehuels/rxrprep/pkg/errors"
	rxrio "github.com/matzehuels/rxrprep/pkg/io"
)

// Split names a dataset partition.
type Split string

// Dataset splits as they appear in the "split" field of a record.
const (
	SplitTrain        Split = "train"
	SplitValSeen      Split = "val_seen"
	SplitValUnseen    Split = "val_unseen"
	SplitTestStandard Split = "test_standard"
)

// Splits lists every known split in release order.
var Splits = []Split{SplitTrain, SplitValSeen, SplitValUnseen, SplitTestStandard}

// FilePrefix is prepended to split names in guide file names
// (rxr_train_guide.jsonl.gz, ...).
const FilePrefix = "rxr_"

// ParseSplit accepts a bare split ("val_seen") or a file-prefixed one
// ("rxr_val_seen").
func ParseSplit(s string) (Split, error) {
	name := strings.TrimPrefix(s, FilePrefix)
	for _, sp := range Splits {
		if string(sp) == name {
			return sp, nil
		}
	}
	return "", rxrerrors.New(rxrerrors.ErrCodeInvalidSplit, "invalid split: %q (must be one of: %s)", s, strings.Join(SplitFileNames(), ", "))
}

// FileName returns the file-prefixed split name, e.g. "rxr_val_seen".
func (s Split) FileName() string {
	return FilePrefix + string(s)
}

// SplitFileNames returns the file-prefixed names of all splits.
func SplitFileNames() []string {
	names := make([]string, len(Splits))
	for i, s := range Splits {
		names[i] = s.FileName()
	}
	return names
}

// AngleCoord is a landmark camera direction: heading, pitch, horizontal fov
// and vertical fov, all in radians.
type AngleCoord [4]float64

// Heading returns the camera heading.
func (a AngleCoord) Heading() float64 { return a[0] }

// Pitch returns the camera pitch.
func (a AngleCoord) Pitch() float64 { return a[1] }

// HFOV returns the horizontal field of view.
func (a AngleCoord) HFOV() float64 { return a[2] }

// VFOV returns the vertical field of view.
func (a AngleCoord) VFOV() float64 { return a[3] }

// UnmarshalJSON implements json.Unmarshaler. Exactly four numbers are
// accepted.
func (a *AngleCoord) UnmarshalJSON(b []byte) error {
	var vals []float64
	if err := json.Unmarshal(b, &vals); err != nil {
		return rxrerrors.Wrap(rxrerrors.ErrCodeInvalidRecord, err, "decode angle coords")
	}
	if len(vals) != len(a) {
		return rxrerrors.New(rxrerrors.ErrCodeInvalidRecord, "angle coords have %d values, want %d", len(vals), len(a))
	}
	copy(a[:], vals)
	return nil
}

// Instruction is one guide annotation with its landmark references.
type Instruction struct {
	Scan                string       `json:"scan"`
	Split               string       `json:"split"`
	Language            string       `json:"language"`
	InstructionID       int64        `json:"instruction_id"`
	LandmarkSourcePanos []string     `json:"landmark_source_panos"`
	LandmarkAngleCoords []AngleCoord `json:"landmark_angle_coords"`
	TextSpans           []string     `json:"text_spans"`
}

// NumLandmarks returns the number of annotated landmarks.
func (i *Instruction) NumLandmarks() int {
	return len(i.LandmarkAngleCoords)
}

// Validate checks that the landmark sequences are index-aligned.
func (i *Instruction) Validate() error {
	n := len(i.LandmarkAngleCoords)
	if len(i.LandmarkSourcePanos) != n || len(i.TextSpans) != n {
		return rxrerrors.New(rxrerrors.ErrCodeInvalidRecord,
			"instruction %d: landmark sequences differ in length (angle_coords=%d, source_panos=%d, text_spans=%d)",
			i.InstructionID, n, len(i.LandmarkSourcePanos), len(i.TextSpans))
	}
	return nil
}

// DecodeInstruction unmarshals one record.
func DecodeInstruction(raw json.RawMessage) (Instruction, error) {
	var inst Instruction
	if err := json.Unmarshal(raw, &inst); err != nil {
		return Instruction{}, rxrerrors.Wrap(rxrerrors.ErrCodeInvalidRecord, err, "decode instruction")
	}
	return inst, nil
}

// Instructions streams the typed records of every path, in file order.
// The sequence stops after the first error.
func Instructions(paths ...string) iter.Seq2[Instruction, error] {
	return func(yield func(Instruction, error) bool) {
		for line, err := range rxrio.JSONLines(paths...) {
			if err != nil {
				yield(Instruction{}, err)
				return
			}
			inst, err := DecodeInstruction(line.Raw)
			if err != nil {
				yield(Instruction{}, fmt.Errorf("%s: %w", line, err))
				return
			}
			if !yield(inst, nil) {
				return
			}
		}
	}
}
