package landmark

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	rxrerrors "github.com/matzehuels/rxrprep/pkg/errors"
)

// DefaultFormat is the image extension used when none is configured.
const DefaultFormat = "png"

// DefaultOutDir is the root of the rendered landmark tree.
const DefaultOutDir = "landmarks"

// DefaultInputs are the silver-landmark annotation files of the RxR release.
var DefaultInputs = []string{
	"rxr_landmarks_train_guide.jsonl.gz",
	"rxr_landmarks_val_seen_guide.jsonl.gz",
	"rxr_landmarks_val_unseen_guide.jsonl.gz",
}

// ValidateFormat checks that ext names an image format the writer supports.
func ValidateFormat(ext string) error {
	if _, err := imaging.FormatFromExtension(ext); err != nil {
		return rxrerrors.Wrap(rxrerrors.ErrCodeInvalidFormat, err, "invalid image format: %q", ext)
	}
	return nil
}

// SanitizePhrase makes a landmark phrase usable as part of one path segment.
func SanitizePhrase(phrase string) string {
	return strings.ReplaceAll(phrase, "/", "-")
}

// OutputDir returns {outdir}/{split}/{language}/{instruction_id}.
func OutputDir(outDir string, job Job) string {
	return filepath.Join(outDir, job.Split, job.Language, strconv.FormatInt(job.InstructionID, 10))
}

// FileName returns {index}-{phrase}.{ext}.
func FileName(job Job, ext string) string {
	return fmt.Sprintf("%d-%s.%s", job.Index, SanitizePhrase(job.Phrase), ext)
}

// OutputPath returns the full image path of job.
func OutputPath(outDir string, job Job, ext string) string {
	return filepath.Join(OutputDir(outDir, job), FileName(job, ext))
}
