// Package pkg provides the libraries behind rxrprep, the RxR data-preparation
// tools.
//
// # Overview
//
// The pkg directory is organized by concern:
//
//  1. [rxr] - Annotation records: splits, typed instructions, ordered raw records
//  2. [io] - Gzip JSON-lines reading and atomic pretty JSON writing
//  3. [landmark] - Landmark rendering: fov buckets, engine sessions, image output
//  4. [sim/skybox] - A rendering engine over Matterport3D skybox images
//  5. [vizargs] - The pose-trace viewer args bundle, built from
//     [posetrace] and [scene] inputs
//
// # Data Flow
//
//	rxr_landmarks_*_guide.jsonl.gz
//	         ↓
//	    [rxr] Instructions
//	         ↓
//	    [landmark] Collect → Plan → Run (one engine session per fov)
//	         ↓
//	    {outdir}/{split}/{language}/{instruction_id}/{index}-{phrase}.png
//
// # Errors
//
// Every package reports failures as [errors.Error] values carrying a code, so
// callers can tell a missing instruction from a malformed record.
//
// [rxr]: github.com/matzehuels/rxrprep/pkg/rxr
// [io]: github.com/matzehuels/rxrprep/pkg/io
// [landmark]: github.com/matzehuels/rxrprep/pkg/landmark
// [sim/skybox]: github.com/matzehuels/rxrprep/pkg/sim/skybox
// [vizargs]: github.com/matzehuels/rxrprep/pkg/vizargs
// [posetrace]: github.com/matzehuels/rxrprep/pkg/posetrace
// [scene]: github.com/matzehuels/rxrprep/pkg/scene
// [errors.Error]: github.com/matzehuels/rxrprep/pkg/errors#Error
package pkg
