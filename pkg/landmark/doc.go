// Package landmark renders first-person crops of RxR landmark annotations.
//
// # Overview
//
// Every guide annotation names a handful of landmarks: a pano to stand at, a
// direction to look in (heading, pitch) and how much to see (horizontal and
// vertical field of view). Rendering one is cheap; reconfiguring a rendering
// engine for a new field of view is not. The renderer therefore works in two
// passes:
//
//  1. [Collect] reads every annotation once and buckets the landmark [Job]s by
//     their (horizontal, vertical) [FOV]. Buckets keep first-appearance order
//     and jobs keep source order.
//  2. [Run] opens one [Session] per bucket, sized by [Resolution], and for each
//     job starts a single-viewpoint episode, grabs the frame and writes it to
//     {outdir}/{split}/{language}/{instruction_id}/{index}-{phrase}.{ext}.
//
// # Engines
//
// The renderer only needs a narrow capability from the engine: open a camera
// session, move it to a viewpoint, read back a frame. [Engine] and [Session]
// describe exactly that, so the Matterport3D simulator, the pure-Go skybox
// engine in pkg/sim/skybox, or a test double can be plugged in.
//
// # Failures
//
// There is no skip-and-continue: the first error aborts the run, leaving the
// files written so far in place. Output names are deterministic, so a rerun
// overwrites and completes them.
package landmark
