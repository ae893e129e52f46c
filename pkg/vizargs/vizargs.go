// Package vizargs builds the args bundle consumed by the pose-trace viewer.
//
// A bundle is one guide annotation, copied field for field from its split
// file, with three fields appended:
//
//   - pose_trace: the per-frame camera matrices of the guide's recording
//   - connectivity: the scan's navigation graph, verbatim
//   - mesh_url: where the viewer fetches the scan's textured mesh
//
// Inputs are laid out as in the RxR and Matterport3D releases:
//
//	{data_dir}/{split}_guide.jsonl.gz
//	{data_dir}/pose_traces/{split}/{id:06d}_guide_pose_trace.npz
//	{connectivity_dir}/{scan}_connectivity.json
//	{scan_to_mesh_file}
//
// Every input is loaded before the output file is touched, so a failed
// build never leaves a partial or stale bundle behind.
package vizargs

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	rxrerrors "github.com/matzehuels/rxrprep/pkg/errors"
	rxrio "github.com/matzehuels/rxrprep/pkg/io"
	"github.com/matzehuels/rxrprep/pkg/observability"
	"github.com/matzehuels/rxrprep/pkg/posetrace"
	"github.com/matzehuels/rxrprep/pkg/rxr"
	"github.com/matzehuels/rxrprep/pkg/scene"
)

// Field names added to the record.
const (
	FieldPoseTrace    = "pose_trace"
	FieldConnectivity = "connectivity"
	FieldMeshURL      = "mesh_url"
)

// Defaults match the directory names of the public data releases.
const (
	DefaultDataDir         = "rxr_data"
	DefaultMeshDir         = "mp3d"
	DefaultConnectivityDir = "Matterport3DSimulator/connectivity"
	DefaultSplit           = "rxr_train"
	DefaultArgsFile        = "./args.json"
	DefaultScanToMeshFile  = "./scan_to_mesh.json"
)

// Options configures a build.
type Options struct {
	DataDir         string
	MeshDir         string
	ConnectivityDir string
	Split           rxr.Split

	// InstructionID selects the guide annotation; nil takes the first one.
	InstructionID *int64

	ArgsFile       string
	ScanToMeshFile string

	Logger *log.Logger
	Hooks  observability.BuildHooks
}

func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	if o.Hooks == nil {
		o.Hooks = observability.Build()
	}
}

// GuidePath returns {data_dir}/{split}_guide.jsonl.gz.
func GuidePath(dataDir string, split rxr.Split) string {
	return filepath.Join(dataDir, split.FileName()+"_guide.jsonl.gz")
}

// Bundle is an assembled args record.
type Bundle struct {
	Record        *rxr.Record
	Scan          string
	InstructionID int64
	Frames        int
}

// MarshalJSON writes the record with the appended fields.
func (b *Bundle) MarshalJSON() ([]byte, error) {
	return b.Record.MarshalJSON()
}

// Build loads every input and assembles the bundle in memory.
func Build(ctx context.Context, opts Options) (*Bundle, error) {
	opts.setDefaults()
	start := time.Now()

	b, err := build(ctx, opts)
	id, frames := int64(0), 0
	if b != nil {
		id, frames = b.InstructionID, b.Frames
	}
	opts.Hooks.OnBuildComplete(ctx, id, frames, time.Since(start), err)
	return b, err
}

func build(ctx context.Context, opts Options) (*Bundle, error) {
	logger := opts.Logger

	rec, key, err := findInstruction(ctx, opts)
	if err != nil {
		return nil, err
	}
	b := &Bundle{Record: rec, Scan: key.Scan, InstructionID: key.InstructionID}

	tracePath := posetrace.Path(opts.DataDir, opts.Split, key.InstructionID)
	logger.Info("Reading pose trace file", "path", tracePath)
	trace, err := posetrace.Load(tracePath, logger)
	if err != nil {
		return nil, err
	}
	if err := rec.Set(FieldPoseTrace, trace); err != nil {
		return nil, err
	}
	b.Frames = len(trace)

	logger.Info("Reading connectivity file", "path", scene.ConnectivityPath(opts.ConnectivityDir, key.Scan))
	graph, err := scene.LoadConnectivity(opts.ConnectivityDir, key.Scan)
	if err != nil {
		return nil, err
	}
	if err := rec.Set(FieldConnectivity, graph); err != nil {
		return nil, err
	}

	meshes, err := scene.LoadMeshIndex(opts.ScanToMeshFile)
	if err != nil {
		return nil, err
	}
	url, err := meshes.MeshURL(opts.MeshDir, key.Scan)
	if err != nil {
		return nil, err
	}
	if err := rec.Set(FieldMeshURL, url); err != nil {
		return nil, err
	}
	return b, nil
}

// recordKey holds the fields the builder needs to locate companion files.
type recordKey struct {
	Scan          string `json:"scan"`
	InstructionID int64  `json:"instruction_id"`
}

// findInstruction streams the split file and returns the first record whose
// instruction_id matches, or the first record when no id was requested.
func findInstruction(ctx context.Context, opts Options) (*rxr.Record, recordKey, error) {
	path := GuidePath(opts.DataDir, opts.Split)
	opts.Logger.Info("Reading data file", "path", path)

	r, err := rxrio.OpenJSONLines(path)
	if err != nil {
		return nil, recordKey{}, err
	}
	defer r.Close()

	scanned := 0
	for r.Next() {
		if err := ctx.Err(); err != nil {
			return nil, recordKey{}, err
		}
		scanned++
		var key recordKey
		if err := r.Decode(&key); err != nil {
			return nil, recordKey{}, err
		}
		if opts.InstructionID != nil && *opts.InstructionID != key.InstructionID {
			continue
		}
		// The scan names companion files below the connectivity directory.
		if err := rxrerrors.ValidatePathSegment("scan", key.Scan); err != nil {
			return nil, recordKey{}, fmt.Errorf("%s:%d: %w", path, r.Line(), err)
		}
		rec, err := rxr.ParseRecord(r.Raw())
		if err != nil {
			return nil, recordKey{}, rxrerrors.Wrap(rxrerrors.ErrCodeInvalidRecord, err, "%s:%d", path, r.Line())
		}
		opts.Logger.Info("Instruction found", "instruction_id", key.InstructionID)
		opts.Hooks.OnInstructionFound(ctx, opts.Split.FileName(), key.InstructionID, scanned)
		return rec, key, nil
	}
	if err := r.Err(); err != nil {
		return nil, recordKey{}, err
	}

	if opts.InstructionID == nil {
		return nil, recordKey{}, rxrerrors.New(rxrerrors.ErrCodeInstructionNotFound, "unable to find instruction_id: %s is empty", path)
	}
	return nil, recordKey{}, rxrerrors.New(rxrerrors.ErrCodeInstructionNotFound, "unable to find instruction_id: %d", *opts.InstructionID)
}

// Run builds the bundle and writes it to opts.ArgsFile.
func Run(ctx context.Context, opts Options) (*Bundle, error) {
	opts.setDefaults()
	b, err := Build(ctx, opts)
	if err != nil {
		return nil, err
	}
	opts.Logger.Info("Writing args file", "path", opts.ArgsFile)
	if err := rxrio.ExportJSON(opts.ArgsFile, b); err != nil {
		return nil, err
	}
	return b, nil
}
