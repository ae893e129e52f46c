// Package posetrace loads RxR guide pose traces.
//
// A pose trace is stored as a NumPy .npz archive with three co-indexed
// arrays: "time" (N float64 timestamps), "intrinsic_matrix" and
// "extrinsic_matrix" (N 4x4 float64 camera matrices). Matrices may be stored
// with shape (N, 4, 4), (N, 16) or flattened to N*16 values; all three are
// read the same way, row-major.
//
// Arrays of different lengths are zipped to the shortest one and a warning
// is logged.
package posetrace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/sbinet/npyio/npz"
	"gonum.org/v1/gonum/mat"

	rxrerrors "github.com/matzehuels/rxrprep/pkg/errors"
	"github.com/matzehuels/rxrprep/pkg/rxr"
)

// Array names inside a pose-trace archive.
const (
	KeyTime      = "time"
	KeyIntrinsic = "intrinsic_matrix"
	KeyExtrinsic = "extrinsic_matrix"
)

// matrixSize is the number of values in a 4x4 camera matrix.
const matrixSize = 16

// Entry is the camera state at one captured frame.
type Entry struct {
	Time      float64
	Intrinsic *mat.Dense
	Extrinsic *mat.Dense
}

type entryJSON struct {
	Time      reprFloat   `json:"time"`
	Intrinsic []reprFloat `json:"intrinsic_matrix"`
	Extrinsic []reprFloat `json:"extrinsic_matrix"`
}

// MarshalJSON writes the matrices as 16-element row-major lists.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{
		Time:      reprFloat(e.Time),
		Intrinsic: reprFloats(flattenDense(e.Intrinsic)),
		Extrinsic: reprFloats(flattenDense(e.Extrinsic)),
	})
}

// reprFloat is a float64 written the way NumPy float64 values serialise:
// integral values keep a ".0" and very small or large magnitudes use
// exponent notation.
type reprFloat float64

func (f reprFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, rxrerrors.New(rxrerrors.ErrCodeInvalidInput, "pose trace value %v is not representable in JSON", v)
	}
	if abs := math.Abs(v); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.AppendFloat(nil, v, 'e', -1, 64), nil
	}
	b := strconv.AppendFloat(nil, v, 'f', -1, 64)
	if !bytes.ContainsRune(b, '.') {
		b = append(b, ".0"...)
	}
	return b, nil
}

func reprFloats(vs []float64) []reprFloat {
	if vs == nil {
		return nil
	}
	out := make([]reprFloat, len(vs))
	for i, v := range vs {
		out[i] = reprFloat(v)
	}
	return out
}

// Trace is a time-ordered sequence of pose-trace entries.
type Trace []Entry

// FileName returns the archive name for a guide annotation.
func FileName(instructionID int64) string {
	return fmt.Sprintf("%06d_guide_pose_trace.npz", instructionID)
}

// Path returns {dataDir}/pose_traces/{split}/{id:06d}_guide_pose_trace.npz.
func Path(dataDir string, split rxr.Split, instructionID int64) string {
	return filepath.Join(dataDir, "pose_traces", split.FileName(), FileName(instructionID))
}

// Load reads the pose-trace archive at path.
// A nil logger discards the length-mismatch warning.
func Load(path string, logger *log.Logger) (Trace, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, rxrerrors.WrapFile(rxrerrors.ErrCodeInvalidInput, err, path)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, rxrerrors.WrapFile(rxrerrors.ErrCodeInvalidInput, err, path)
	}
	r, err := npz.NewReader(f, fi.Size())
	if err != nil {
		return nil, rxrerrors.Wrap(rxrerrors.ErrCodeInvalidInput, err, "%s: open archive", path)
	}

	times, err := readArray(r, path, KeyTime)
	if err != nil {
		return nil, err
	}
	intrinsics, err := readMatrices(r, path, KeyIntrinsic)
	if err != nil {
		return nil, err
	}
	extrinsics, err := readMatrices(r, path, KeyExtrinsic)
	if err != nil {
		return nil, err
	}

	n := min(len(times), len(intrinsics), len(extrinsics))
	if n != len(times) || n != len(intrinsics) || n != len(extrinsics) {
		logger.Warn("Pose trace arrays differ in length, truncating",
			"path", path, "time", len(times), KeyIntrinsic, len(intrinsics), KeyExtrinsic, len(extrinsics), "kept", n)
	}

	trace := make(Trace, n)
	for i := range trace {
		trace[i] = Entry{
			Time:      times[i],
			Intrinsic: intrinsics[i],
			Extrinsic: extrinsics[i],
		}
	}
	return trace, nil
}

func readArray(r *npz.Reader, path, key string) ([]float64, error) {
	var data []float64
	if err := r.Read(key+".npy", &data); err != nil {
		return nil, rxrerrors.Wrap(rxrerrors.ErrCodeInvalidInput, err, "%s: read %q", path, key)
	}
	return data, nil
}

func readMatrices(r *npz.Reader, path, key string) ([]*mat.Dense, error) {
	data, err := readArray(r, path, key)
	if err != nil {
		return nil, err
	}
	if len(data)%matrixSize != 0 {
		return nil, rxrerrors.New(rxrerrors.ErrCodeInvalidInput,
			"%s: %q has %d values, not a whole number of 4x4 matrices", path, key, len(data))
	}
	ms := make([]*mat.Dense, len(data)/matrixSize)
	for i := range ms {
		ms[i] = mat.NewDense(4, 4, data[i*matrixSize:(i+1)*matrixSize])
	}
	return ms, nil
}

// Flatten returns the values of m in row-major order.
func Flatten(m mat.Matrix) []float64 {
	if m == nil {
		return nil
	}
	rows, cols := m.Dims()
	out := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out = append(out, m.At(i, j))
		}
	}
	return out
}

func flattenDense(m *mat.Dense) []float64 {
	if m == nil {
		return nil
	}
	return Flatten(m)
}
